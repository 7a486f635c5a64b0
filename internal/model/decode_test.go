package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

const sampleSchemaJSON = `{
  "id": "intake",
  "title": "Intake",
  "version": 2,
  "sections": [
    {
      "id": "about",
      "title": "About you",
      "fields": [
        {"id": "name", "label": "Name", "type": "text", "required": true, "maxLength": 40},
        {"id": "email", "label": "Email", "type": "email"},
        {"id": "phone", "label": "Phone", "type": "tel", "pattern": "^[0-9]+$"},
        {"id": "age", "label": "Age", "type": "number", "min": 18, "max": 99},
        {"id": "contact", "label": "Contact me", "type": "single", "options": ["yes", {"value": "no", "label": "No thanks"}]},
        {"id": "when", "label": "When", "type": "datetime-local", "showIf": {"field": "contact", "equals": "yes"}}
      ]
    },
    {
      "id": "work",
      "title": "Work",
      "fields": [
        {"id": "grid", "label": "Grid", "type": "matrix", "rows": ["a", "b"], "columns": ["x", "y"]},
        {"id": "score", "label": "Score", "type": "rating", "max": 7},
        {"id": "papers", "label": "Papers", "type": "repeat", "minItems": 2, "itemLabel": "Paper", "hint": "Add papers",
         "itemFields": [
           {"id": "title", "label": "Title", "type": "text", "required": true},
           {"id": "venue", "label": "Venue", "type": "dropdown", "options": ["ASE", "ICSE"]}
         ]}
      ]
    }
  ]
}`

func TestSchemaDecodeJSON(t *testing.T) {
	var schema Schema
	if err := json.Unmarshal([]byte(sampleSchemaJSON), &schema); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := Schema{
		ID:      "intake",
		Title:   "Intake",
		Version: 2,
		Sections: []Section{
			{
				ID:    "about",
				Title: "About you",
				Fields: []Field{
					{ID: "name", Label: "Name", Required: true, MaxLength: intPtr(40), Spec: TextSpec{Type: KindText}},
					{ID: "email", Label: "Email", Spec: TextSpec{Type: KindEmail}},
					{ID: "phone", Label: "Phone", Spec: TextSpec{Type: KindTel, Pattern: "^[0-9]+$"}},
					{ID: "age", Label: "Age", Spec: NumberSpec{Min: floatPtr(18), Max: floatPtr(99)}},
					{ID: "contact", Label: "Contact me", Spec: ChoiceSpec{Type: KindSingle, Options: []Option{
						{Value: "yes"},
						{Value: "no", Label: "No thanks"},
					}}},
					{ID: "when", Label: "When", ShowIf: &Condition{Field: "contact", Equals: "yes"}, Spec: TextSpec{Type: KindDatetime}},
				},
			},
			{
				ID:    "work",
				Title: "Work",
				Fields: []Field{
					{ID: "grid", Label: "Grid", Spec: MatrixSpec{Rows: []string{"a", "b"}, Columns: []string{"x", "y"}}},
					{ID: "score", Label: "Score", Spec: RatingSpec{Max: 7}},
					{ID: "papers", Label: "Papers", Spec: RepeatSpec{
						MinItems:  intPtr(2),
						ItemLabel: "Paper",
						Hint:      "Add papers",
						ItemFields: []ItemField{
							{ID: "title", Label: "Title", Required: true, Spec: TextSpec{Type: KindText}},
							{ID: "venue", Label: "Venue", Spec: ChoiceSpec{Type: KindDropdown, Options: []Option{{Value: "ASE"}, {Value: "ICSE"}}}},
						},
					}},
				},
			},
		},
	}

	if diff := cmp.Diff(want, schema); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
	if err := schema.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemaDecodeYAMLMatchesJSON(t *testing.T) {
	const doc = `
id: intake
title: Intake
sections:
  - id: about
    title: About you
    fields:
      - id: contact
        label: Contact me
        type: radio
        options:
          - yes please
          - value: "no"
            label: No thanks
      - id: tags
        label: Tags
        type: multi-choice
        options: [a, b]
      - id: score
        label: Score
        type: rating
`
	var schema Schema
	if err := yaml.Unmarshal([]byte(doc), &schema); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	fields := schema.Sections[0].Fields
	want := []Field{
		{ID: "contact", Label: "Contact me", Spec: ChoiceSpec{Type: KindSingle, Options: []Option{{Value: "yes please"}, {Value: "no", Label: "No thanks"}}}},
		{ID: "tags", Label: "Tags", Spec: ChoiceSpec{Type: KindMulti, Options: []Option{{Value: "a"}, {Value: "b"}}}},
		{ID: "score", Label: "Score", Spec: RatingSpec{}},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if got := fields[2].Spec.(RatingSpec).Levels(); got != DefaultRatingMax {
		t.Fatalf("expected default rating levels %d, got %d", DefaultRatingMax, got)
	}
}

func TestFieldDecodeRejectsNestedRepeat(t *testing.T) {
	const doc = `{"id":"outer","type":"repeat","itemFields":[{"id":"inner","type":"repeat"}]}`
	var field Field
	err := json.Unmarshal([]byte(doc), &field)
	if err == nil {
		t.Fatalf("expected nested repeat to be rejected")
	}
	if !strings.Contains(err.Error(), "cannot be nested") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFieldDecodeRejectsMatrixItem(t *testing.T) {
	const doc = `{"id":"papers","type":"repeat","itemFields":[{"id":"grid","type":"matrix","rows":["a"],"columns":["x"]}]}`
	var field Field
	err := json.Unmarshal([]byte(doc), &field)
	if err == nil || !strings.Contains(err.Error(), "matrix cannot be nested") {
		t.Fatalf("expected matrix item field to be rejected, got %v", err)
	}
}

func TestFieldDecodeRatingMax(t *testing.T) {
	tests := []struct {
		doc  string
		want int
		ok   bool
	}{
		{doc: `{"id":"r","type":"rating"}`, want: 0, ok: true},
		{doc: `{"id":"r","type":"rating","max":10}`, want: 10, ok: true},
		{doc: `{"id":"r","type":"rating","max":100}`, want: 100, ok: true},
		{doc: `{"id":"r","type":"rating","max":1e15}`},
		{doc: `{"id":"r","type":"rating","max":101}`},
		{doc: `{"id":"r","type":"rating","max":-1}`},
		{doc: `{"id":"r","type":"rating","max":2.5}`},
	}
	for _, tt := range tests {
		var field Field
		err := json.Unmarshal([]byte(tt.doc), &field)
		if !tt.ok {
			if err == nil {
				t.Errorf("%s: expected error", tt.doc)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.doc, err)
			continue
		}
		if got := field.Spec.(RatingSpec).Max; got != tt.want {
			t.Errorf("%s: max %d, want %d", tt.doc, got, tt.want)
		}
	}

	if got := (RatingSpec{Max: 1 << 40}).Levels(); got != MaxRatingLevels {
		t.Fatalf("levels not capped: %d", got)
	}
}

func TestFieldDecodeRejectsUnknownType(t *testing.T) {
	var field Field
	if err := json.Unmarshal([]byte(`{"id":"x","type":"slider"}`), &field); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestFieldJSONRoundTrip(t *testing.T) {
	var schema Schema
	if err := json.Unmarshal([]byte(sampleSchemaJSON), &schema); err != nil {
		t.Fatalf("decode: %v", err)
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var again Schema
	if err := json.Unmarshal(encoded, &again); err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if diff := cmp.Diff(schema, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		errSub string
	}{
		{
			name:   "missing id",
			schema: Schema{},
			errSub: "schema id is required",
		},
		{
			name: "duplicate field ids across sections",
			schema: Schema{ID: "s", Sections: []Section{
				{ID: "a", Fields: []Field{{ID: "x"}}},
				{ID: "b", Fields: []Field{{ID: "x"}}},
			}},
			errSub: `duplicate field id "x"`,
		},
		{
			name: "choice without options",
			schema: Schema{ID: "s", Sections: []Section{
				{ID: "a", Fields: []Field{{ID: "x", Spec: ChoiceSpec{Type: KindDropdown}}}},
			}},
			errSub: "requires options",
		},
		{
			name: "rating scale too large",
			schema: Schema{ID: "s", Sections: []Section{
				{ID: "a", Fields: []Field{{ID: "x", Spec: RatingSpec{Max: 1000000}}}},
			}},
			errSub: "outside 0..100",
		},
		{
			name: "negative item rating",
			schema: Schema{ID: "s", Sections: []Section{
				{ID: "a", Fields: []Field{{ID: "r", Spec: RepeatSpec{ItemFields: []ItemField{{ID: "t", Spec: RatingSpec{Max: -3}}}}}}},
			}},
			errSub: `"r.t": rating max -3`,
		},
		{
			name: "duplicate item ids",
			schema: Schema{ID: "s", Sections: []Section{
				{ID: "a", Fields: []Field{{ID: "r", Spec: RepeatSpec{ItemFields: []ItemField{{ID: "t"}, {ID: "t"}}}}}},
			}},
			errSub: `duplicate item field id "t"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errSub)
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Fatalf("expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}
}

func TestAnswersCloneIsDeep(t *testing.T) {
	original := Answers{
		"multi":  []string{"a"},
		"matrix": map[string]string{"r": "c"},
		"repeat": []map[string]any{{"t": "x"}},
		"raw":    []any{map[string]any{"t": "y"}},
	}
	cloned := original.Clone()

	original["multi"].([]string)[0] = "changed"
	original["matrix"].(map[string]string)["r"] = "changed"
	original["repeat"].([]map[string]any)[0]["t"] = "changed"
	original["raw"].([]any)[0].(map[string]any)["t"] = "changed"

	want := Answers{
		"multi":  []string{"a"},
		"matrix": map[string]string{"r": "c"},
		"repeat": []map[string]any{{"t": "x"}},
		"raw":    []any{map[string]any{"t": "y"}},
	}
	if diff := cmp.Diff(want, cloned); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}
}

func TestAccessorsAcceptDecodedShapes(t *testing.T) {
	var decoded map[string]any
	raw := `{"multi":["a","b"],"matrix":{"r1":"c1"},"repeat":[{"t":"x"},null],"rating":4}`
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	multi, ok := StringSlice(decoded["multi"])
	if !ok || !cmp.Equal(multi, []string{"a", "b"}) {
		t.Fatalf("unexpected multi: %v %v", multi, ok)
	}
	matrix, ok := StringMap(decoded["matrix"])
	if !ok || !cmp.Equal(matrix, map[string]string{"r1": "c1"}) {
		t.Fatalf("unexpected matrix: %v %v", matrix, ok)
	}
	items, ok := Items(decoded["repeat"])
	if !ok || len(items) != 2 || items[0]["t"] != "x" || len(items[1]) != 0 {
		t.Fatalf("unexpected items: %v %v", items, ok)
	}
	if n, ok := Number(decoded["rating"]); !ok || n != 4 {
		t.Fatalf("unexpected rating: %v %v", n, ok)
	}
}
