package validation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
	"github.com/goliatone/go-questionnaire/pkg/testsupport"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestValidateRequiredScalars(t *testing.T) {
	kinds := []model.FieldSpec{
		model.TextSpec{Type: model.KindText},
		model.TextSpec{Type: model.KindDate},
		model.TextSpec{Type: model.KindTime},
		model.TextSpec{Type: model.KindDatetime},
		model.TextareaSpec{},
		model.NumberSpec{},
		model.ChoiceSpec{Type: model.KindDropdown, Options: []model.Option{{Value: "a"}}},
		model.ChoiceSpec{Type: model.KindSingle, Options: []model.Option{{Value: "a"}}},
		model.RatingSpec{},
	}
	values := []any{"x", "hello world", 0.0, 3, "a", " "}

	for _, spec := range kinds {
		field := model.Field{ID: "f", Required: true, Spec: spec}
		t.Run(string(spec.Kind()), func(t *testing.T) {
			if got := Validate(field, nil); got != MsgRequired {
				t.Fatalf("absent value: got %q, want %q", got, MsgRequired)
			}
			if got := Validate(field, ""); got != MsgRequired {
				t.Fatalf("empty string: got %q, want %q", got, MsgRequired)
			}
			for _, v := range values {
				if got := Validate(field, v); got != "" {
					t.Fatalf("value %#v: expected pass, got %q", v, got)
				}
			}
		})
	}
}

func TestValidateOptionalBlankPasses(t *testing.T) {
	field := model.Field{ID: "e", Spec: model.TextSpec{Type: model.KindEmail}}
	if got := Validate(field, nil); got != "" {
		t.Fatalf("optional absent email should pass, got %q", got)
	}
	if got := Validate(field, ""); got != "" {
		t.Fatalf("optional empty email should pass, got %q", got)
	}
}

func TestValidateRequiredMultiAllSubsets(t *testing.T) {
	options := []string{"a", "b", "c"}
	field := model.Field{ID: "m", Required: true, Spec: model.ChoiceSpec{Type: model.KindMulti, Options: []model.Option{
		{Value: "a"}, {Value: "b"}, {Value: "c"},
	}}}

	for mask := 0; mask < 1<<len(options); mask++ {
		var selected []string
		for i, opt := range options {
			if mask&(1<<i) != 0 {
				selected = append(selected, opt)
			}
		}
		got := Validate(field, selected)
		if len(selected) == 0 && got != MsgSelectOne {
			t.Fatalf("empty selection: got %q", got)
		}
		if len(selected) > 0 && got != "" {
			t.Fatalf("selection %v: expected pass, got %q", selected, got)
		}
		decoded := make([]any, len(selected))
		for i, s := range selected {
			decoded[i] = s
		}
		if (Validate(field, decoded) == "") != (len(selected) > 0) {
			t.Fatalf("decoded selection %v disagrees with typed form", selected)
		}
	}
}

func TestValidateMatrix(t *testing.T) {
	field := model.Field{ID: "g", Required: true, Spec: model.MatrixSpec{Rows: []string{"r1", "r2"}, Columns: []string{"c1", "c2"}}}

	if got := Validate(field, nil); got != MsgAnswerAllRows {
		t.Fatalf("absent: got %q", got)
	}
	if got := Validate(field, map[string]string{"r1": "c1"}); got != MsgAnswerAllRows {
		t.Fatalf("partial: got %q", got)
	}
	if got := Validate(field, map[string]any{"r1": "c1", "r2": "c2"}); got != "" {
		t.Fatalf("complete: got %q", got)
	}
}

func TestValidateRepeatMinItems(t *testing.T) {
	field := model.Field{ID: "papers", Required: true, Spec: model.RepeatSpec{
		MinItems:  intPtr(3),
		ItemLabel: "Paper",
		ItemFields: []model.ItemField{
			{ID: "title", Label: "Title", Required: true},
			{ID: "note", Label: "Note"},
		},
	}}
	item := func(title string) map[string]any { return map[string]any{"title": title} }

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "none", value: nil, want: MsgAddOneItem},
		{name: "empty list", value: []map[string]any{}, want: MsgAddOneItem},
		{name: "one", value: []map[string]any{item("a")}, want: "Add at least 3 items."},
		{name: "two", value: []map[string]any{item("a"), item("b")}, want: "Add at least 3 items."},
		{name: "three", value: []map[string]any{item("a"), item("b"), item("c")}, want: ""},
		{name: "missing subfield", value: []map[string]any{item("a"), {}, item("c")}, want: `Paper #2: "Title" is required.`},
		{name: "empty subfield", value: []map[string]any{item("a"), item("b"), item("")}, want: `Paper #3: "Title" is required.`},
		{name: "decoded", value: []any{map[string]any{"title": "a"}, map[string]any{"title": "b"}, map[string]any{"title": "c"}}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(field, tt.value); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRepeatDefaultItemLabel(t *testing.T) {
	field := model.Field{ID: "r", Required: true, Spec: model.RepeatSpec{
		ItemFields: []model.ItemField{{ID: "x", Label: "X", Required: true}},
	}}
	got := Validate(field, []map[string]any{{}})
	if got != `Item #1: "X" is required.` {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name  string
		field model.Field
		value any
		want  string
	}{
		{name: "email ok", field: model.Field{Spec: model.TextSpec{Type: model.KindEmail}}, value: "a@b.co", want: ""},
		{name: "email no tld", field: model.Field{Spec: model.TextSpec{Type: model.KindEmail}}, value: "a@b", want: MsgInvalidEmail},
		{name: "email spaces", field: model.Field{Spec: model.TextSpec{Type: model.KindEmail}}, value: "a b@c.d", want: MsgInvalidEmail},
		{name: "tel ok", field: model.Field{Spec: model.TextSpec{Type: model.KindTel, Pattern: `^\+?[0-9 ]+$`}}, value: "+1 555", want: ""},
		{name: "tel bad", field: model.Field{Spec: model.TextSpec{Type: model.KindTel, Pattern: `^[0-9]+$`}}, value: "abc", want: MsgInvalidPhone},
		{name: "tel malformed pattern", field: model.Field{Spec: model.TextSpec{Type: model.KindTel, Pattern: `([`}}, value: "abc", want: ""},
		{name: "tel no pattern", field: model.Field{Spec: model.TextSpec{Type: model.KindTel}}, value: "anything", want: ""},
		{name: "number min inclusive", field: model.Field{Spec: model.NumberSpec{Min: floatPtr(1)}}, value: 1.0, want: ""},
		{name: "number below min", field: model.Field{Spec: model.NumberSpec{Min: floatPtr(1.5)}}, value: 1.0, want: "Must be at least 1.5."},
		{name: "number max inclusive", field: model.Field{Spec: model.NumberSpec{Max: floatPtr(10)}}, value: 10, want: ""},
		{name: "number above max", field: model.Field{Spec: model.NumberSpec{Max: floatPtr(10)}}, value: 11.0, want: "Must be at most 10."},
		{name: "number absent", field: model.Field{Spec: model.NumberSpec{Min: floatPtr(1)}}, value: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.field, tt.value); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePrecedence(t *testing.T) {
	field := model.Field{ID: "e", Required: true, MaxLength: intPtr(3), Spec: model.TextSpec{Type: model.KindEmail}}
	if got := Validate(field, ""); got != MsgRequired {
		t.Fatalf("required first: got %q", got)
	}
	if got := Validate(field, "toolong"); got != MsgInvalidEmail {
		t.Fatalf("format before length: got %q", got)
	}
}

func TestValidateMaxLengthCountsRunes(t *testing.T) {
	field := model.Field{ID: "t", MaxLength: intPtr(3), Spec: model.TextareaSpec{}}
	if got := Validate(field, "研究方"); got != "" {
		t.Fatalf("three runes should pass, got %q", got)
	}
	if got := Validate(field, "abcd"); got != "Limit to 3 characters." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSectionAndComplete(t *testing.T) {
	section := model.Section{ID: "s", Fields: []model.Field{
		{ID: "name", Required: true},
		{ID: "email", Spec: model.TextSpec{Type: model.KindEmail}},
		{ID: "why", Required: true, ShowIf: &model.Condition{Field: "name", Equals: "other"}},
	}}

	got := Section(section, model.Answers{"email": "bad"}, nil)
	want := Result{Valid: false, Issues: []Issue{
		{Field: "name", Message: MsgRequired},
		{Field: "email", Message: MsgInvalidEmail},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("section mismatch (-want +got):\n%s", diff)
	}

	if Complete(section, model.Answers{"email": "bad"}, nil) {
		t.Fatalf("missing required name should leave section incomplete")
	}
	if !Complete(section, model.Answers{"name": "ok", "email": "bad"}, nil) {
		t.Fatalf("optional format errors must not block completeness")
	}
	if Complete(section, model.Answers{"name": "other"}, nil) {
		t.Fatalf("visible required field should block completeness")
	}
}

func TestValidateSchema(t *testing.T) {
	ok := ValidateSchema(context.Background(), nil, []byte(`{"id":"x","sections":[]}`))
	if !ok.Valid {
		t.Fatalf("expected valid schema, got %+v", ok)
	}

	bad := ValidateSchema(context.Background(), schema.SourceFromBytes("bad.json", nil), []byte(`{"id":"x"}`))
	if bad.Valid || len(bad.Issues) != 1 || bad.Issues[0].Path != "bad.json" {
		t.Fatalf("expected one issue for missing sections, got %+v", bad)
	}
}

func TestValidateItem(t *testing.T) {
	item := model.ItemField{ID: "mail", Label: "Mail", Required: true, Spec: model.TextSpec{Type: model.KindEmail}}
	if got := ValidateItem(item, ""); got != MsgRequired {
		t.Fatalf("got %q, want %q", got, MsgRequired)
	}
	if got := ValidateItem(item, "nope"); got != MsgInvalidEmail {
		t.Fatalf("got %q, want %q", got, MsgInvalidEmail)
	}
}

func TestSampleAnswersValidate(t *testing.T) {
	s := testsupport.LoadSchema(t, filepath.Join("..", "..", "schemas", "research.json"))
	answers := testsupport.MustLoadAnswers(t, filepath.Join("testdata", "research-answers.json"))

	for _, section := range s.Sections {
		if result := Section(section, answers, nil); !result.Valid {
			t.Fatalf("section %s: unexpected issues %+v", section.ID, result.Issues)
		}
	}

	answers["email"] = "not-an-email"
	answers["experience"] = 60.0
	answers["papers"] = answers["papers"].([]any)[:2]
	var got []Issue
	for _, section := range s.Sections {
		got = append(got, Section(section, answers, nil).Issues...)
	}
	want := []Issue{
		{Field: "experience", Message: "Must be at most 50."},
		{Field: "papers", Message: "Add at least 3 items."},
		{Field: "email", Message: MsgInvalidEmail},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}

	answers["contactOk"] = "no"
	if result := Section(s.Sections[2], answers, nil); len(result.Issues) != 1 || result.Issues[0].Field != "papers" {
		t.Fatalf("hidden email should not be validated: %+v", result.Issues)
	}
}
