package visibility

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

func conditional(equals any) model.Field {
	return model.Field{ID: "details", ShowIf: &model.Condition{Field: "x", Equals: equals}}
}

func TestResolverShowIfExactEquality(t *testing.T) {
	field := conditional("yes")
	tests := []struct {
		name   string
		values model.Answers
		want   bool
	}{
		{name: "absent", values: model.Answers{}, want: false},
		{name: "nil", values: model.Answers{"x": nil}, want: false},
		{name: "exact", values: model.Answers{"x": "yes"}, want: true},
		{name: "different case", values: model.Answers{"x": "Yes"}, want: false},
		{name: "padded", values: model.Answers{"x": "yes "}, want: false},
		{name: "empty", values: model.Answers{"x": ""}, want: false},
		{name: "bool", values: model.Answers{"x": true}, want: false},
		{name: "slice", values: model.Answers{"x": []string{"yes"}}, want: false},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ShouldShow(field, Context{Values: tt.values}); got != tt.want {
				t.Fatalf("ShouldShow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolverNoCoercionAcrossTypes(t *testing.T) {
	r := New()
	if r.ShouldShow(conditional("3"), Context{Values: model.Answers{"x": 3.0}}) {
		t.Fatalf("number answer must not equal string condition")
	}
	if r.ShouldShow(conditional(3), Context{Values: model.Answers{"x": "3"}}) {
		t.Fatalf("string answer must not equal number condition")
	}
	if !r.ShouldShow(conditional(3), Context{Values: model.Answers{"x": 3.0}}) {
		t.Fatalf("int condition should equal float answer")
	}
	if !r.ShouldShow(conditional(true), Context{Values: model.Answers{"x": true}}) {
		t.Fatalf("bool condition should equal bool answer")
	}
}

func TestResolverWithoutConditionAlwaysShows(t *testing.T) {
	if !New().ShouldShow(model.Field{ID: "plain"}, Context{}) {
		t.Fatalf("field without showIf must be visible")
	}
}

func TestVisibleFieldsKeepsHiddenValues(t *testing.T) {
	section := model.Section{Fields: []model.Field{
		{ID: "x"},
		conditional("yes"),
		{ID: "tail"},
	}}
	answers := model.Answers{"x": "no", "details": "kept"}

	got := VisibleFields(section, answers, nil)
	ids := make([]string, 0, len(got))
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"x", "tail"}, ids); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	if answers["details"] != "kept" {
		t.Fatalf("hidden field value must be retained, got %v", answers["details"])
	}

	answers["x"] = "yes"
	if got := VisibleFields(section, answers, nil); len(got) != 3 {
		t.Fatalf("expected all fields visible once condition holds, got %d", len(got))
	}
}

func TestEvaluatorFunc(t *testing.T) {
	hideAll := EvaluatorFunc(func(model.Field, Context) bool { return false })
	section := model.Section{Fields: []model.Field{{ID: "a"}, {ID: "b"}}}
	if got := VisibleFields(section, nil, hideAll); len(got) != 0 {
		t.Fatalf("expected custom evaluator to hide every field, got %d", len(got))
	}
}
