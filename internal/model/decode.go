package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawField is the wire shape shared by fields and repeat subfields in JSON and
// YAML schema documents.
type rawField struct {
	ID          string     `json:"id" yaml:"id"`
	Label       string     `json:"label,omitempty" yaml:"label,omitempty"`
	Type        string     `json:"type,omitempty" yaml:"type,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Help        string     `json:"help,omitempty" yaml:"help,omitempty"`
	Placeholder string     `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	MaxLength   *int       `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	ShowIf      *Condition `json:"showIf,omitempty" yaml:"showIf,omitempty"`
	Pattern     string     `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min         *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Step        *float64   `json:"step,omitempty" yaml:"step,omitempty"`
	Options     []Option   `json:"options,omitempty" yaml:"options,omitempty"`
	Rows        []string   `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns     []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	ItemFields  []rawField `json:"itemFields,omitempty" yaml:"itemFields,omitempty"`
	MinItems    *int       `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	ItemLabel   string     `json:"itemLabel,omitempty" yaml:"itemLabel,omitempty"`
	Hint        string     `json:"hint,omitempty" yaml:"hint,omitempty"`
}

var kindAliases = map[string]Kind{
	"datetime-local": KindDatetime,
	"single-choice":  KindSingle,
	"multi-choice":   KindMulti,
	"radio":          KindSingle,
	"checkbox":       KindMulti,
	"select":         KindDropdown,
}

// ParseKind resolves a schema type name, accepting the aliases older schema
// files use. An empty name is plain text.
func ParseKind(name string) (Kind, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return KindText, true
	}
	if alias, ok := kindAliases[normalized]; ok {
		return alias, true
	}
	switch kind := Kind(normalized); kind {
	case KindText, KindEmail, KindTel, KindDate, KindTime, KindDatetime, KindNumber,
		KindTextarea, KindDropdown, KindSingle, KindMulti, KindMatrix, KindRating, KindRepeat:
		return kind, true
	}
	return "", false
}

func (r rawField) fieldSpec() (FieldSpec, error) {
	kind, ok := ParseKind(r.Type)
	if !ok {
		return nil, fmt.Errorf("model: field %q: unknown type %q", r.ID, r.Type)
	}
	switch kind {
	case KindNumber:
		return NumberSpec{Min: r.Min, Max: r.Max, Step: r.Step}, nil
	case KindTextarea:
		return TextareaSpec{}, nil
	case KindDropdown, KindSingle, KindMulti:
		return ChoiceSpec{Type: kind, Options: r.Options}, nil
	case KindMatrix:
		return MatrixSpec{Rows: r.Rows, Columns: r.Columns}, nil
	case KindRating:
		spec := RatingSpec{}
		if r.Max != nil {
			levels := *r.Max
			if math.IsNaN(levels) || levels < 0 || levels > MaxRatingLevels || levels != math.Trunc(levels) {
				return nil, fmt.Errorf("model: field %q: rating max must be a whole number between 0 and %d", r.ID, MaxRatingLevels)
			}
			spec.Max = int(levels)
		}
		return spec, nil
	case KindRepeat:
		items := make([]ItemField, 0, len(r.ItemFields))
		for _, rawItem := range r.ItemFields {
			item, err := rawItem.itemField()
			if err != nil {
				return nil, fmt.Errorf("model: field %q: %w", r.ID, err)
			}
			items = append(items, item)
		}
		return RepeatSpec{ItemFields: items, MinItems: r.MinItems, ItemLabel: r.ItemLabel, Hint: r.Hint}, nil
	default:
		return TextSpec{Type: kind, Pattern: r.Pattern}, nil
	}
}

func (r rawField) field() (Field, error) {
	spec, err := r.fieldSpec()
	if err != nil {
		return Field{}, err
	}
	return Field{
		ID:          r.ID,
		Label:       r.Label,
		Required:    r.Required,
		Help:        r.Help,
		Placeholder: r.Placeholder,
		MaxLength:   r.MaxLength,
		ShowIf:      r.ShowIf,
		Spec:        spec,
	}, nil
}

func (r rawField) itemField() (ItemField, error) {
	spec, err := r.fieldSpec()
	if err != nil {
		return ItemField{}, err
	}
	itemSpec, ok := spec.(ItemSpec)
	if !ok {
		return ItemField{}, fmt.Errorf("model: item field %q: %s cannot be nested", r.ID, spec.Kind())
	}
	return ItemField{
		ID:          r.ID,
		Label:       r.Label,
		Required:    r.Required,
		Help:        r.Help,
		Placeholder: r.Placeholder,
		MaxLength:   r.MaxLength,
		Spec:        itemSpec,
	}, nil
}

func rawFromField(f Field) rawField {
	raw := rawField{
		ID:          f.ID,
		Label:       f.Label,
		Type:        string(f.Kind()),
		Required:    f.Required,
		Help:        f.Help,
		Placeholder: f.Placeholder,
		MaxLength:   f.MaxLength,
		ShowIf:      f.ShowIf,
	}
	switch spec := f.Spec.(type) {
	case TextSpec:
		raw.Pattern = spec.Pattern
	case NumberSpec:
		raw.Min, raw.Max, raw.Step = spec.Min, spec.Max, spec.Step
	case ChoiceSpec:
		raw.Options = spec.Options
	case MatrixSpec:
		raw.Rows, raw.Columns = spec.Rows, spec.Columns
	case RatingSpec:
		if spec.Max > 0 {
			levels := float64(spec.Max)
			raw.Max = &levels
		}
	case RepeatSpec:
		for _, item := range spec.ItemFields {
			raw.ItemFields = append(raw.ItemFields, rawFromField(item.Field()))
		}
		raw.MinItems, raw.ItemLabel, raw.Hint = spec.MinItems, spec.ItemLabel, spec.Hint
	}
	return raw
}

// UnmarshalJSON decodes the flat schema shape into the typed field.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw rawField
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode field: %w", err)
	}
	decoded, err := raw.field()
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// MarshalJSON encodes the field in the flat schema shape.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawFromField(f))
}

// UnmarshalYAML decodes the flat schema shape into the typed field.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	var raw rawField
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("model: decode field: %w", err)
	}
	decoded, err := raw.field()
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// MarshalYAML encodes the field in the flat schema shape.
func (f Field) MarshalYAML() (any, error) {
	return rawFromField(f), nil
}

// UnmarshalJSON decodes a repeat subfield, rejecting repeat and matrix kinds.
func (f *ItemField) UnmarshalJSON(data []byte) error {
	var raw rawField
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("model: decode item field: %w", err)
	}
	decoded, err := raw.itemField()
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// MarshalJSON encodes the subfield in the flat schema shape.
func (f ItemField) MarshalJSON() ([]byte, error) {
	return json.Marshal(rawFromField(f.Field()))
}

// UnmarshalJSON accepts either a bare string or a {value, label} object.
func (o *Option) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		*o = Option{Value: value}
		return nil
	}
	type plain Option
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("model: decode option: %w", err)
	}
	if decoded.Value == "" {
		decoded.Value = decoded.Label
	}
	*o = Option(decoded)
	return nil
}

// UnmarshalYAML accepts either a bare scalar or a {value, label} mapping.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*o = Option{Value: node.Value}
		return nil
	}
	type plain Option
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return fmt.Errorf("model: decode option: %w", err)
	}
	if decoded.Value == "" {
		decoded.Value = decoded.Label
	}
	*o = Option(decoded)
	return nil
}
