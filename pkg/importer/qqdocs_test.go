package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
	"github.com/goliatone/go-questionnaire/pkg/testsupport"
)

func floatPtr(v float64) *float64 { return &v }

func TestFromQQDocsMapsPagesAndQuestions(t *testing.T) {
	raw := []byte(`{
	  "id": "study",
	  "title": "Study",
	  "pages": [
	    {"title": "Basics", "questions": [
	      {"id": "role", "type": "RADIO", "title": "Role", "required": true, "options": ["Student", {"text": "Faculty"}, {"value": "other"}]},
	      {"key": "topics", "type": "checkbox", "label": "Topics", "options": [{"name": "AI"}]},
	      {"type": "select", "options": ["a"], "desc": "Pick one"},
	      {"type": "input", "placeholder": "Type here", "showIf": {"field": "role", "equals": "Student"}},
	      {"type": "datetime"},
	      {"type": "matrix", "rows": [{"label": "Speed"}], "columns": ["Low", {"value": "High"}]},
	      {"type": "score", "max": 10},
	      {"type": "number", "min": 0, "max": "99", "step": 0.5},
	      {"type": "email"},
	      {"type": "slider"},
	      {"type": "repeat"}
	    ]},
	    {"fields": [{"type": "textarea", "title": "Notes"}]}
	  ]
	}`)

	got, err := FromQQDocs(raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	want := model.Schema{
		ID:      "study",
		Title:   "Study",
		Version: 1,
		Sections: []model.Section{
			{ID: "p1", Title: "Basics", Fields: []model.Field{
				{ID: "role", Label: "Role", Required: true, Spec: model.ChoiceSpec{Type: model.KindSingle, Options: []model.Option{{Value: "Student"}, {Value: "Faculty"}, {Value: "other"}}}},
				{ID: "topics", Label: "Topics", Spec: model.ChoiceSpec{Type: model.KindMulti, Options: []model.Option{{Value: "AI"}}}},
				{ID: "q1_3", Label: "Question 3", Help: "Pick one", Spec: model.ChoiceSpec{Type: model.KindDropdown, Options: []model.Option{{Value: "a"}}}},
				{ID: "q1_4", Label: "Question 4", Placeholder: "Type here", ShowIf: &model.Condition{Field: "role", Equals: "Student"}, Spec: model.TextSpec{Type: model.KindText}},
				{ID: "q1_5", Label: "Question 5", Spec: model.TextSpec{Type: model.KindDatetime}},
				{ID: "q1_6", Label: "Question 6", Spec: model.MatrixSpec{Rows: []string{"Speed"}, Columns: []string{"Low", "High"}}},
				{ID: "q1_7", Label: "Question 7", Spec: model.RatingSpec{Max: 10}},
				{ID: "q1_8", Label: "Question 8", Spec: model.NumberSpec{Min: floatPtr(0), Max: floatPtr(99), Step: floatPtr(0.5)}},
				{ID: "q1_9", Label: "Question 9", Spec: model.TextSpec{Type: model.KindEmail}},
				{ID: "q1_10", Label: "Question 10", Spec: model.TextSpec{Type: model.KindText}},
				{ID: "q1_11", Label: "Question 11", Spec: model.TextSpec{Type: model.KindText}},
			}},
			{ID: "p2", Title: "Section 2", Fields: []model.Field{
				{ID: "q2_1", Label: "Notes", Spec: model.TextareaSpec{}},
			}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
}

func TestFromQQDocsDefaults(t *testing.T) {
	got, err := FromQQDocs([]byte(`{"sections": [{"questions": [{}]}, "junk"]}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := model.Schema{
		ID:      DefaultSchemaID,
		Title:   DefaultTitle,
		Version: DefaultVersion,
		Sections: []model.Section{
			{ID: "p1", Title: "Section 1", Fields: []model.Field{{ID: "q1_1", Label: "Question 1", Spec: model.TextSpec{Type: model.KindText}}}},
			{ID: "p2", Title: "Section 2", Fields: []model.Field{}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}

	empty, err := FromQQDocs([]byte(`{}`))
	if err != nil {
		t.Fatalf("import empty: %v", err)
	}
	if empty.ID != DefaultSchemaID || len(empty.Sections) != 0 {
		t.Fatalf("unexpected empty import %+v", empty)
	}
}

func TestFromQQDocsRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"x"`, `3`, `null`} {
		if _, err := FromQQDocs([]byte(raw)); !errors.Is(err, ErrNotObject) {
			t.Fatalf("%s: expected ErrNotObject, got %v", raw, err)
		}
	}
	if _, err := FromQQDocs([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParserHandlesYAMLAndRenamesDuplicates(t *testing.T) {
	doc := schema.MustNewDocument(schema.SourceFromBytes("export.yaml", nil), []byte(`
id: y
pages:
  - questions:
      - id: a
        type: radio
        options: [one, two]
`))
	got, err := NewParser().Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.ID != "y" || got.Sections[0].Fields[0].Kind() != model.KindSingle {
		t.Fatalf("unexpected schema %+v", got)
	}

	dupes := schema.MustNewDocument(schema.SourceFromBytes("dupes.json", nil), []byte(`{"pages":[{"questions":[{"id":"x"},{"id":"x"}]},{"questions":[{"id":"x"}]}]}`))
	for _, parser := range []*Parser{NewParser(), NewParser(schema.WithoutValidation())} {
		got, err := parser.Parse(context.Background(), dupes)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		ids := []string{got.Sections[0].Fields[0].ID, got.Sections[0].Fields[1].ID, got.Sections[1].Fields[0].ID}
		if diff := cmp.Diff([]string{"x", "x_2", "x_3"}, ids); diff != "" {
			t.Fatalf("ids mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestFromQQDocsPlaceholdersForIncompleteQuestions(t *testing.T) {
	raw := []byte(`{"pages":[{"questions":[
	  {"id": "pick", "type": "radio"},
	  {"id": "tags", "type": "checkbox", "options": [{}, "", "a", "a"]},
	  {"id": "grid", "type": "matrix", "rows": ["r1"]},
	  {"id": "stars", "type": "rating", "max": 1e15},
	  {"id": "low", "type": "rating", "max": "-4"},
	  {"id": "odd", "type": "number", "min": "NaN"}
	]}]}`)

	got, err := FromQQDocs(raw)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := []model.Field{
		{ID: "pick", Label: "Question 1", Spec: model.TextSpec{Type: model.KindText}},
		{ID: "tags", Label: "Question 2", Spec: model.ChoiceSpec{Type: model.KindMulti, Options: []model.Option{{Value: "a"}}}},
		{ID: "grid", Label: "Question 3", Spec: model.TextSpec{Type: model.KindText}},
		{ID: "stars", Label: "Question 4", Spec: model.RatingSpec{Max: model.MaxRatingLevels}},
		{ID: "low", Label: "Question 5", Spec: model.RatingSpec{}},
		{ID: "odd", Label: "Question 6", Spec: model.NumberSpec{}},
	}
	if diff := cmp.Diff(want, got.Sections[0].Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("imported schema should validate: %v", err)
	}
}

func TestDetect(t *testing.T) {
	tests := map[string]bool{
		`{"pages":[]}`:                         true,
		`{"sections":[{"questions":[]}]}`:      true,
		`{"sections":[{"fields":[]}]}`:         false,
		`{"id":"native","sections":[]}`:        false,
		`not json`:                             false,
	}
	for raw, want := range tests {
		if got := Detect([]byte(raw)); got != want {
			t.Fatalf("Detect(%s) = %v, want %v", raw, got, want)
		}
	}
}

func TestFromQQDocsMatchesGolden(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "qq-export.json"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	got, err := FromQQDocs(raw)
	if err != nil {
		t.Fatalf("FromQQDocs: %v", err)
	}

	golden := filepath.Join("testdata", "qq-export.golden.json")
	testsupport.WriteGolden(t, golden, got)
	want := testsupport.LoadSchema(t, golden)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("golden mismatch (-want +got):\n%s", diff)
	}
}
