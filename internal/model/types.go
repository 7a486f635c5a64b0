package model

import "time"

// Kind identifies the control a field renders and the rules it validates with.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindDatetime Kind = "datetime"
	KindNumber   Kind = "number"
	KindTextarea Kind = "textarea"
	KindDropdown Kind = "dropdown"
	KindSingle   Kind = "single"
	KindMulti    Kind = "multi"
	KindMatrix   Kind = "matrix"
	KindRating   Kind = "rating"
	KindRepeat   Kind = "repeat"
)

// DefaultRatingMax is the number of rating levels when a field does not set max.
const DefaultRatingMax = 5

// MaxRatingLevels is the largest rating max a schema may declare.
const MaxRatingLevels = 100

// Schema is the declarative description of a questionnaire. ID doubles as the
// draft persistence key and the submission correlation key.
type Schema struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Version     int       `json:"version,omitempty" yaml:"version,omitempty"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// Section groups fields shown together on one step.
type Section struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Condition shows a field only while another field's value equals Equals.
type Condition struct {
	Field  string `json:"field" yaml:"field"`
	Equals any    `json:"equals" yaml:"equals"`
}

// Option is a selectable value for dropdown, single and multi fields. Label
// falls back to Value when empty.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// DisplayLabel returns the label shown for the option.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// Field is one question inside a section. Spec carries the kind-specific
// attributes; a nil Spec behaves as plain text.
type Field struct {
	ID          string
	Label       string
	Required    bool
	Help        string
	Placeholder string
	MaxLength   *int
	ShowIf      *Condition
	Spec        FieldSpec
}

// Kind reports the field's kind.
func (f Field) Kind() Kind {
	if f.Spec == nil {
		return KindText
	}
	return f.Spec.Kind()
}

// DisplayLabel returns the label, or one derived from the id when the schema
// leaves it empty.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return LabelFromID(f.ID)
}

// ItemField is a subfield of a repeat field. Its spec cannot be a repeat or
// a matrix.
type ItemField struct {
	ID          string
	Label       string
	Required    bool
	Help        string
	Placeholder string
	MaxLength   *int
	Spec        ItemSpec
}

// Kind reports the subfield's kind.
func (f ItemField) Kind() Kind {
	if f.Spec == nil {
		return KindText
	}
	return f.Spec.Kind()
}

// DisplayLabel returns the label, or one derived from the id.
func (f ItemField) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return LabelFromID(f.ID)
}

// Field lifts the subfield into a top-level Field so renderers and validators
// can treat both alike. The result never carries a ShowIf condition.
func (f ItemField) Field() Field {
	field := Field{
		ID:          f.ID,
		Label:       f.Label,
		Required:    f.Required,
		Help:        f.Help,
		Placeholder: f.Placeholder,
		MaxLength:   f.MaxLength,
	}
	if spec, ok := f.Spec.(FieldSpec); ok {
		field.Spec = spec
	}
	return field
}

// FieldSpec is the closed set of kind-specific attributes a Field may carry.
type FieldSpec interface {
	Kind() Kind
	fieldSpec()
}

// ItemSpec is the closed set of kind-specific attributes a repeat subfield may
// carry. RepeatSpec and MatrixSpec do not implement it.
type ItemSpec interface {
	Kind() Kind
	itemSpec()
}

// TextSpec covers single-line inputs: text, email, tel, date, time, datetime.
type TextSpec struct {
	Type    Kind
	Pattern string
}

func (s TextSpec) Kind() Kind {
	switch s.Type {
	case KindEmail, KindTel, KindDate, KindTime, KindDatetime:
		return s.Type
	default:
		return KindText
	}
}

// NumberSpec carries inclusive numeric bounds and the input step.
type NumberSpec struct {
	Min  *float64
	Max  *float64
	Step *float64
}

func (NumberSpec) Kind() Kind { return KindNumber }

// TextareaSpec is a multi-line text input.
type TextareaSpec struct{}

func (TextareaSpec) Kind() Kind { return KindTextarea }

// ChoiceSpec covers dropdown, single and multi choice fields.
type ChoiceSpec struct {
	Type    Kind
	Options []Option
}

func (s ChoiceSpec) Kind() Kind {
	switch s.Type {
	case KindSingle, KindMulti:
		return s.Type
	default:
		return KindDropdown
	}
}

// MatrixSpec asks for one column choice per row.
type MatrixSpec struct {
	Rows    []string
	Columns []string
}

func (MatrixSpec) Kind() Kind { return KindMatrix }

// RatingSpec is a row of discrete levels 1..Max.
type RatingSpec struct {
	Max int
}

func (RatingSpec) Kind() Kind { return KindRating }

// Levels returns the number of rating levels, applying the default and
// capping at MaxRatingLevels.
func (s RatingSpec) Levels() int {
	switch {
	case s.Max <= 0:
		return DefaultRatingMax
	case s.Max > MaxRatingLevels:
		return MaxRatingLevels
	}
	return s.Max
}

// RepeatSpec is a growable list of structured items.
type RepeatSpec struct {
	ItemFields []ItemField
	MinItems   *int
	ItemLabel  string
	Hint       string
}

func (RepeatSpec) Kind() Kind { return KindRepeat }

// Label returns the item label used in headers and messages.
func (s RepeatSpec) Label() string {
	if s.ItemLabel != "" {
		return s.ItemLabel
	}
	return "Item"
}

func (TextSpec) fieldSpec()     {}
func (NumberSpec) fieldSpec()   {}
func (TextareaSpec) fieldSpec() {}
func (ChoiceSpec) fieldSpec()   {}
func (MatrixSpec) fieldSpec()   {}
func (RatingSpec) fieldSpec()   {}
func (RepeatSpec) fieldSpec()   {}

func (TextSpec) itemSpec()     {}
func (NumberSpec) itemSpec()   {}
func (TextareaSpec) itemSpec() {}
func (ChoiceSpec) itemSpec()   {}
func (RatingSpec) itemSpec()   {}

// Payload is the body posted to the submission collaborator.
type Payload struct {
	SchemaID    string         `json:"schemaId"`
	Title       string         `json:"title"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Answers     Answers        `json:"answers"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// FieldByID finds a top-level field anywhere in the schema.
func (s Schema) FieldByID(id string) (Field, bool) {
	for _, section := range s.Sections {
		for _, field := range section.Fields {
			if field.ID == id {
				return field, true
			}
		}
	}
	return Field{}, false
}
