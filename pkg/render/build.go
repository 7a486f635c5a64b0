package render

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/validation"
	"github.com/goliatone/go-questionnaire/pkg/visibility"
)

const (
	// SelectPlaceholder labels the empty option of a dropdown.
	SelectPlaceholder = "Select..."
	// DefaultRepeatHint is shown above a repeat field without a hint.
	DefaultRepeatHint = "Add one or more items"
)

type buildConfig struct {
	evaluator visibility.Evaluator
	payload   bool
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

// WithEvaluator overrides the visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) BuildOption {
	return func(cfg *buildConfig) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

// WithPayloadPreview includes the last submitted payload in the view.
func WithPayloadPreview() BuildOption {
	return func(cfg *buildConfig) {
		cfg.payload = true
	}
}

// ElementID returns the id of the element wrapping a field.
func ElementID(fieldID string) string {
	return "field-" + fieldID
}

// ItemName returns the form name of a repeat subfield.
func ItemName(fieldID string, index int, subID string) string {
	return fmt.Sprintf("%s.%d.%s", fieldID, index, subID)
}

// MatrixRowName returns the radio group name of a matrix row.
func MatrixRowName(name string, row int) string {
	return fmt.Sprintf("%s-%d", name, row)
}

// Build derives the view for the snapshot's current section. It is pure: the
// same snapshot always yields the same view.
func Build(snap session.Snapshot, options ...BuildOption) View {
	cfg := buildConfig{evaluator: visibility.New()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	schema := snap.Schema
	count := len(schema.Sections)
	view := View{
		SessionID:   snap.ID,
		SchemaID:    schema.ID,
		Title:       schema.Title,
		Description: schema.Description,
		Sidebar:     navigation.Sidebar(snap, cfg.evaluator),
		Notice:      snap.Notice,
		Fields:      []FieldView{},
		ElementIDs:  map[string]string{},
	}
	if cfg.payload {
		view.Payload = snap.LastPayload
	}
	if count == 0 {
		return view
	}

	index := snap.Index
	if index < 0 || index >= count {
		index = 0
	}
	section := schema.Sections[index]
	view.Section = SectionView{Index: index, Count: count, ID: section.ID, Title: section.Title}
	view.Nav = NavView{
		ShowPrev:   index > 0,
		ShowNext:   index < count-1,
		ShowSubmit: index == count-1,
	}

	for _, field := range visibility.VisibleFields(section, snap.Answers, cfg.evaluator) {
		value := snap.Answers[field.ID]
		fv := buildField(field, value, field.ID, field.ID)
		if snap.Touched[field.ID] {
			fv.Error = validation.Validate(field, value)
		}
		view.Fields = append(view.Fields, fv)
		view.ElementIDs[field.ID] = fv.ElementID
	}
	return view
}

func buildField(field model.Field, value any, idBase, name string) FieldView {
	fv := FieldView{
		ID:        field.ID,
		ElementID: ElementID(idBase),
		ControlID: idBase,
		Name:      name,
		Label:     field.DisplayLabel(),
		Help:      field.Help,
		Kind:      field.Kind(),
		Required:  field.Required,
	}

	switch spec := field.Spec.(type) {
	case model.NumberSpec:
		fv.Control = ControlInput
		fv.Input = &InputView{
			Type:        "number",
			Value:       scalarString(value),
			Placeholder: field.Placeholder,
			Min:         optionalNumber(spec.Min),
			Max:         optionalNumber(spec.Max),
			Step:        optionalNumber(spec.Step),
		}
	case model.TextareaSpec:
		fv.Control = ControlTextarea
		fv.Textarea = &TextareaView{
			Value:       scalarString(value),
			Placeholder: field.Placeholder,
			MaxLength:   maxLength(field.MaxLength),
		}
	case model.ChoiceSpec:
		buildChoice(&fv, spec, value, idBase)
	case model.MatrixSpec:
		fv.Control = ControlMatrix
		fv.Matrix = buildMatrix(spec, value, idBase, name)
	case model.RatingSpec:
		fv.Control = ControlRating
		fv.Rating = buildRating(spec, value, idBase)
	case model.RepeatSpec:
		fv.Control = ControlRepeat
		fv.Repeat = buildRepeat(field.ID, spec, value)
	default:
		kind := field.Kind()
		pattern := ""
		if text, ok := spec.(model.TextSpec); ok {
			pattern = text.Pattern
		}
		fv.Control = ControlInput
		fv.Input = &InputView{
			Type:        inputType(kind),
			Value:       scalarString(value),
			Placeholder: field.Placeholder,
			Pattern:     pattern,
			MaxLength:   maxLength(field.MaxLength),
		}
	}
	return fv
}

func inputType(kind model.Kind) string {
	switch kind {
	case model.KindEmail, model.KindTel, model.KindDate, model.KindTime:
		return string(kind)
	case model.KindDatetime:
		return "datetime-local"
	default:
		return "text"
	}
}

func buildChoice(fv *FieldView, spec model.ChoiceSpec, value any, idBase string) {
	switch spec.Kind() {
	case model.KindDropdown:
		current, _ := value.(string)
		options := make([]OptionView, len(spec.Options))
		for i, opt := range spec.Options {
			options[i] = OptionView{Value: opt.Value, Label: opt.DisplayLabel(), Selected: current != "" && opt.Value == current}
		}
		fv.Control = ControlSelect
		fv.Select = &SelectView{Placeholder: SelectPlaceholder, Options: options}
	case model.KindMulti:
		selected, _ := model.StringSlice(value)
		set := make(map[string]bool, len(selected))
		for _, v := range selected {
			set[v] = true
		}
		fv.Control = ControlChoice
		fv.Choice = &ChoiceView{Multiple: true, Options: choiceOptions(spec.Options, idBase, func(v string) bool { return set[v] })}
	default:
		current, isString := value.(string)
		fv.Control = ControlChoice
		fv.Choice = &ChoiceView{Options: choiceOptions(spec.Options, idBase, func(v string) bool { return isString && v == current })}
	}
}

func choiceOptions(options []model.Option, idBase string, checked func(string) bool) []OptionView {
	out := make([]OptionView, len(options))
	for i, opt := range options {
		out[i] = OptionView{
			ElementID: fmt.Sprintf("%s-%d", idBase, i),
			Value:     opt.Value,
			Label:     opt.DisplayLabel(),
			Selected:  checked(opt.Value),
		}
	}
	return out
}

func buildMatrix(spec model.MatrixSpec, value any, idBase, name string) *MatrixView {
	answered, _ := model.StringMap(value)
	rows := make([]MatrixRowView, len(spec.Rows))
	for r, row := range spec.Rows {
		cells := make([]MatrixCellView, len(spec.Columns))
		for c, column := range spec.Columns {
			cells[c] = MatrixCellView{
				ElementID: fmt.Sprintf("%s-%d-%d", idBase, r, c),
				Column:    column,
				Checked:   answered[row] == column,
			}
		}
		rows[r] = MatrixRowView{Label: row, Name: MatrixRowName(name, r), Cells: cells}
	}
	return &MatrixView{Columns: append([]string(nil), spec.Columns...), Rows: rows}
}

func buildRating(spec model.RatingSpec, value any, idBase string) *RatingView {
	current := 0
	if n, ok := model.Number(value); ok {
		current = int(n)
	}
	levels := make([]RatingLevelView, spec.Levels())
	for i := range levels {
		level := i + 1
		levels[i] = RatingLevelView{
			ElementID: fmt.Sprintf("%s-%d", idBase, level),
			Value:     level,
			Active:    level <= current,
		}
	}
	return &RatingView{Value: current, Levels: levels}
}

func buildRepeat(fieldID string, spec model.RepeatSpec, value any) *RepeatView {
	hint := spec.Hint
	if hint == "" {
		hint = DefaultRepeatHint
	}
	label := spec.Label()
	items, _ := model.Items(value)

	view := &RepeatView{
		Hint:      hint,
		AddLabel:  "+ Add " + label,
		ItemLabel: label,
		Items:     make([]RepeatItemView, len(items)),
	}
	for idx, item := range items {
		fields := make([]FieldView, len(spec.ItemFields))
		for i, sub := range spec.ItemFields {
			idBase := fmt.Sprintf("%s-%d-%s", fieldID, idx, sub.ID)
			fields[i] = buildField(sub.Field(), item[sub.ID], idBase, ItemName(fieldID, idx, sub.ID))
		}
		view.Items[idx] = RepeatItemView{
			Index:  idx,
			Label:  fmt.Sprintf("%s #%d", label, idx+1),
			Fields: fields,
		}
	}
	return view
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	if n, ok := model.Number(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func optionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func maxLength(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
