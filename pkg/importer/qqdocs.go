// Package importer maps questionnaires authored in other tools onto the
// questionnaire schema. The qq-docs mapping is lenient: every missing part
// gets a placeholder so partially filled exports still load.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
)

const (
	DefaultSchemaID = "qq-import"
	DefaultTitle    = "Imported Questionnaire"
	DefaultVersion  = 1
)

// ErrNotObject is returned when a qq-docs document is not an object.
var ErrNotObject = errors.New("importer: qq-docs document must be an object")

var qqTypes = map[string]model.Kind{
	"radio":    model.KindSingle,
	"checkbox": model.KindMulti,
	"select":   model.KindDropdown,
	"text":     model.KindText,
	"input":    model.KindText,
	"textarea": model.KindTextarea,
	"date":     model.KindDate,
	"time":     model.KindTime,
	"datetime": model.KindDatetime,
	"matrix":   model.KindMatrix,
	"score":    model.KindRating,
	"rating":   model.KindRating,
	"number":   model.KindNumber,
}

// FromQQDocs decodes a qq-docs JSON export and maps it.
func FromQQDocs(raw []byte) (model.Schema, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Schema{}, fmt.Errorf("importer: decode qq-docs: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return model.Schema{}, ErrNotObject
	}
	return MapQQDocs(obj), nil
}

// MapQQDocs maps a decoded qq-docs document. Pages come from "pages" or
// "sections" and questions from "questions" or "fields".
func MapQQDocs(doc map[string]any) model.Schema {
	out := model.Schema{
		ID:       firstString(doc, "id"),
		Title:    firstString(doc, "title"),
		Version:  DefaultVersion,
		Sections: []model.Section{},
	}
	if out.ID == "" {
		out.ID = DefaultSchemaID
	}
	if out.Title == "" {
		out.Title = DefaultTitle
	}

	seen := make(map[string]bool)
	for si, page := range objects(firstList(doc, "pages", "sections")) {
		section := model.Section{
			ID:     firstString(page, "id"),
			Title:  firstString(page, "title"),
			Fields: []model.Field{},
		}
		if section.ID == "" {
			section.ID = fmt.Sprintf("p%d", si+1)
		}
		if section.Title == "" {
			section.Title = fmt.Sprintf("Section %d", si+1)
		}
		for qi, question := range objects(firstList(page, "questions", "fields")) {
			field := mapQuestion(question, si, qi)
			field.ID = uniqueID(seen, field.ID)
			section.Fields = append(section.Fields, field)
		}
		out.Sections = append(out.Sections, section)
	}
	return out
}

func mapQuestion(q map[string]any, si, qi int) model.Field {
	field := model.Field{
		ID:          firstString(q, "id", "key"),
		Label:       firstString(q, "title", "label"),
		Required:    truthy(q["required"]),
		Help:        firstString(q, "help", "desc"),
		Placeholder: firstString(q, "placeholder"),
	}
	if field.ID == "" {
		field.ID = fmt.Sprintf("q%d_%d", si+1, qi+1)
	}
	if field.Label == "" {
		field.Label = fmt.Sprintf("Question %d", qi+1)
	}
	if cond, ok := q["showIf"].(map[string]any); ok {
		field.ShowIf = &model.Condition{Field: firstString(cond, "field"), Equals: cond["equals"]}
	}

	switch kind := questionKind(q["type"]); kind {
	case model.KindDropdown, model.KindSingle, model.KindMulti:
		options := labels(q["options"])
		if len(options) == 0 {
			field.Spec = model.TextSpec{Type: model.KindText}
			break
		}
		spec := model.ChoiceSpec{Type: kind}
		for _, label := range options {
			spec.Options = append(spec.Options, model.Option{Value: label})
		}
		field.Spec = spec
	case model.KindMatrix:
		rows, columns := labels(q["rows"]), labels(q["columns"])
		if len(rows) == 0 || len(columns) == 0 {
			field.Spec = model.TextSpec{Type: model.KindText}
			break
		}
		field.Spec = model.MatrixSpec{Rows: rows, Columns: columns}
	case model.KindRating:
		spec := model.RatingSpec{}
		if n, ok := number(q["max"]); ok {
			spec.Max = int(max(0, min(n, model.MaxRatingLevels)))
		}
		field.Spec = spec
	case model.KindNumber:
		spec := model.NumberSpec{}
		if n, ok := number(q["min"]); ok {
			spec.Min = &n
		}
		if n, ok := number(q["max"]); ok {
			spec.Max = &n
		}
		if n, ok := number(q["step"]); ok {
			spec.Step = &n
		}
		field.Spec = spec
	case model.KindTextarea:
		field.Spec = model.TextareaSpec{}
	default:
		field.Spec = model.TextSpec{Type: kind}
	}
	return field
}

// uniqueID returns id, or id with a numeric suffix when an earlier question
// already claimed it.
func uniqueID(seen map[string]bool, id string) string {
	candidate := id
	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	seen[candidate] = true
	return candidate
}

// questionKind maps a qq type case-insensitively. Native kind names pass
// through; repeats and unknown types become text.
func questionKind(raw any) model.Kind {
	name := strings.ToLower(strings.TrimSpace(scalarText(raw)))
	if kind, ok := qqTypes[name]; ok {
		return kind
	}
	if kind, ok := model.ParseKind(name); ok && kind != model.KindRepeat {
		return kind
	}
	return model.KindText
}

// labels reads options, rows or columns given as strings or objects. Objects
// use label, text, name, then value. Entries with no usable text and repeats
// are dropped.
func labels(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		var text string
		switch v := item.(type) {
		case map[string]any:
			text = firstString(v, "label", "text", "name", "value")
		case string:
			text = v
		default:
			if n, ok := model.Number(v); ok {
				text = strconv.FormatFloat(n, 'f', -1, 64)
			}
		}
		if strings.TrimSpace(text) == "" || slices.Contains(out, text) {
			continue
		}
		out = append(out, text)
	}
	return out
}

func firstList(doc map[string]any, keys ...string) []any {
	for _, key := range keys {
		if list, ok := doc[key].([]any); ok {
			return list
		}
	}
	return nil
}

func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			obj = map[string]any{}
		}
		out = append(out, obj)
	}
	return out
}

func firstString(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := scalarText(doc[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return ""
	case nil:
		return ""
	}
	if n, ok := model.Number(v); ok && n != 0 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func number(v any) (float64, bool) {
	if n, ok := model.Number(v); ok {
		return n, true
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return n, err == nil && !math.IsNaN(n) && !math.IsInf(n, 0)
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if n, ok := model.Number(v); ok {
		return n != 0
	}
	return true
}

// Parser adapts the qq-docs mapping to schema.Parser so exports can be loaded
// from files, fs.FS or URLs like native schemas. YAML exports are accepted.
type Parser struct {
	options schema.ParserOptions
}

var _ schema.Parser = (*Parser)(nil)

// NewParser returns a qq-docs parser. Mapped schemas are validated unless
// schema.WithoutValidation is given.
func NewParser(options ...schema.ParserOption) *Parser {
	return &Parser{options: schema.NewParserOptions(options...)}
}

// Parse maps doc into a schema.
func (p *Parser) Parse(ctx context.Context, doc schema.Document) (model.Schema, error) {
	if err := ctx.Err(); err != nil {
		return model.Schema{}, err
	}

	var (
		out model.Schema
		err error
	)
	if doc.Format() == schema.FormatJSON {
		out, err = FromQQDocs(doc.Raw())
	} else {
		var decoded any
		if err := yaml.Unmarshal(doc.Raw(), &decoded); err != nil {
			return model.Schema{}, fmt.Errorf("importer: decode %s: %w", doc.Location(), err)
		}
		obj, ok := decoded.(map[string]any)
		if !ok {
			return model.Schema{}, ErrNotObject
		}
		out = MapQQDocs(obj)
	}
	if err != nil {
		return model.Schema{}, fmt.Errorf("importer: %s: %w", doc.Location(), err)
	}

	if !p.options.SkipValidation {
		if err := out.Validate(); err != nil {
			return model.Schema{}, fmt.Errorf("importer: %s: %w", doc.Location(), err)
		}
	}
	return out, nil
}

// Detect reports whether raw looks like a qq-docs export: an object with a
// pages list, or sections holding questions.
func Detect(raw []byte) bool {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	if _, ok := doc["pages"].([]any); ok {
		return true
	}
	for _, section := range objects(firstList(doc, "sections")) {
		if _, ok := section["questions"]; ok {
			return true
		}
	}
	return false
}
