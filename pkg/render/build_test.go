package render_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func snapshot(schema model.Schema, index int, answers model.Answers, touched ...string) session.Snapshot {
	set := make(map[string]bool, len(touched))
	for _, id := range touched {
		set[id] = true
	}
	if answers == nil {
		answers = model.Answers{}
	}
	return session.Snapshot{ID: "s-1", Schema: schema, Answers: answers, Index: index, Touched: set}
}

func oneSection(fields ...model.Field) model.Schema {
	return model.Schema{ID: "q", Title: "Q", Sections: []model.Section{{ID: "s", Title: "S", Fields: fields}}}
}

func TestBuildNavigationFlags(t *testing.T) {
	schema := model.Schema{ID: "q", Sections: []model.Section{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	tests := []struct {
		index int
		want  render.NavView
	}{
		{0, render.NavView{ShowNext: true}},
		{1, render.NavView{ShowPrev: true, ShowNext: true}},
		{2, render.NavView{ShowPrev: true, ShowSubmit: true}},
	}
	for _, tt := range tests {
		view := render.Build(snapshot(schema, tt.index, nil))
		if diff := cmp.Diff(tt.want, view.Nav); diff != "" {
			t.Fatalf("index %d nav mismatch (-want +got):\n%s", tt.index, diff)
		}
	}

	single := render.Build(snapshot(model.Schema{ID: "q", Sections: []model.Section{{ID: "only"}}}, 0, nil))
	if diff := cmp.Diff(render.NavView{ShowSubmit: true}, single.Nav); diff != "" {
		t.Fatalf("single section nav mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScalarInputs(t *testing.T) {
	schema := oneSection(
		model.Field{ID: "when", Label: "When", Spec: model.TextSpec{Type: model.KindDatetime}},
		model.Field{ID: "age", Label: "Age", Placeholder: "years", Spec: model.NumberSpec{Min: floatPtr(0), Max: floatPtr(120), Step: floatPtr(0.5)}},
		model.Field{ID: "phone", Label: "Phone", Spec: model.TextSpec{Type: model.KindTel, Pattern: "^[0-9]+$"}},
		model.Field{ID: "bio", Label: "Bio", MaxLength: intPtr(200), Spec: model.TextareaSpec{}},
	)
	view := render.Build(snapshot(schema, 0, model.Answers{"age": 42.5, "bio": "hi", "phone": []any{"wrong shape"}}))

	want := []render.FieldView{
		{ID: "when", ElementID: "field-when", ControlID: "when", Name: "when", Label: "When", Kind: model.KindDatetime, Control: render.ControlInput,
			Input: &render.InputView{Type: "datetime-local"}},
		{ID: "age", ElementID: "field-age", ControlID: "age", Name: "age", Label: "Age", Kind: model.KindNumber, Control: render.ControlInput,
			Input: &render.InputView{Type: "number", Value: "42.5", Placeholder: "years", Min: "0", Max: "120", Step: "0.5"}},
		{ID: "phone", ElementID: "field-phone", ControlID: "phone", Name: "phone", Label: "Phone", Kind: model.KindTel, Control: render.ControlInput,
			Input: &render.InputView{Type: "tel", Pattern: "^[0-9]+$"}},
		{ID: "bio", ElementID: "field-bio", ControlID: "bio", Name: "bio", Label: "Bio", Kind: model.KindTextarea, Control: render.ControlTextarea,
			Textarea: &render.TextareaView{Value: "hi", MaxLength: 200}},
	}
	if diff := cmp.Diff(want, view.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	wantIDs := map[string]string{"when": "field-when", "age": "field-age", "phone": "field-phone", "bio": "field-bio"}
	if diff := cmp.Diff(wantIDs, view.ElementIDs); diff != "" {
		t.Fatalf("element ids mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildChoices(t *testing.T) {
	options := []model.Option{{Value: "a", Label: "Alpha"}, {Value: "b"}}
	schema := oneSection(
		model.Field{ID: "pick", Spec: model.ChoiceSpec{Type: model.KindDropdown, Options: options}},
		model.Field{ID: "one", Spec: model.ChoiceSpec{Type: model.KindSingle, Options: options}},
		model.Field{ID: "many", Spec: model.ChoiceSpec{Type: model.KindMulti, Options: options}},
	)
	view := render.Build(snapshot(schema, 0, model.Answers{"pick": "b", "one": "a", "many": []any{"a", "b"}}))

	wantSelect := &render.SelectView{Placeholder: "Select...", Options: []render.OptionView{
		{Value: "a", Label: "Alpha"},
		{Value: "b", Label: "b", Selected: true},
	}}
	if diff := cmp.Diff(wantSelect, view.Fields[0].Select); diff != "" {
		t.Fatalf("select mismatch (-want +got):\n%s", diff)
	}
	wantSingle := &render.ChoiceView{Options: []render.OptionView{
		{ElementID: "one-0", Value: "a", Label: "Alpha", Selected: true},
		{ElementID: "one-1", Value: "b", Label: "b"},
	}}
	if diff := cmp.Diff(wantSingle, view.Fields[1].Choice); diff != "" {
		t.Fatalf("single mismatch (-want +got):\n%s", diff)
	}
	if !view.Fields[2].Choice.Multiple || !view.Fields[2].Choice.Options[0].Selected || !view.Fields[2].Choice.Options[1].Selected {
		t.Fatalf("multi mismatch: %+v", view.Fields[2].Choice)
	}
}

func TestBuildMatrixHasOneCellPerColumn(t *testing.T) {
	schema := oneSection(model.Field{ID: "g", Spec: model.MatrixSpec{Rows: []string{"r1", "r2"}, Columns: []string{"c1", "c2", "c3"}}})
	view := render.Build(snapshot(schema, 0, model.Answers{"g": map[string]string{"r2": "c3"}}))

	want := &render.MatrixView{
		Columns: []string{"c1", "c2", "c3"},
		Rows: []render.MatrixRowView{
			{Label: "r1", Name: "g-0", Cells: []render.MatrixCellView{
				{ElementID: "g-0-0", Column: "c1"}, {ElementID: "g-0-1", Column: "c2"}, {ElementID: "g-0-2", Column: "c3"},
			}},
			{Label: "r2", Name: "g-1", Cells: []render.MatrixCellView{
				{ElementID: "g-1-0", Column: "c1"}, {ElementID: "g-1-1", Column: "c2"}, {ElementID: "g-1-2", Column: "c3", Checked: true},
			}},
		},
	}
	if diff := cmp.Diff(want, view.Fields[0].Matrix); diff != "" {
		t.Fatalf("matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRating(t *testing.T) {
	schema := oneSection(model.Field{ID: "r", Spec: model.RatingSpec{}})
	view := render.Build(snapshot(schema, 0, model.Answers{"r": 3}))

	rating := view.Fields[0].Rating
	if rating.Value != 3 || len(rating.Levels) != model.DefaultRatingMax {
		t.Fatalf("unexpected rating %+v", rating)
	}
	for _, level := range rating.Levels {
		if level.Active != (level.Value <= 3) {
			t.Fatalf("level %d active=%v", level.Value, level.Active)
		}
	}
}

func TestBuildRepeatLabelsFollowPosition(t *testing.T) {
	schema := oneSection(model.Field{ID: "papers", Spec: model.RepeatSpec{
		ItemLabel: "Paper",
		ItemFields: []model.ItemField{
			{ID: "title", Label: "Title", Required: true},
			{ID: "venue", Label: "Venue", Spec: model.ChoiceSpec{Type: model.KindDropdown, Options: []model.Option{{Value: "ASE"}}}},
		},
	}})
	view := render.Build(snapshot(schema, 0, model.Answers{"papers": []map[string]any{{"title": "b"}, {"title": "c"}}}))

	repeat := view.Fields[0].Repeat
	if repeat.Hint != render.DefaultRepeatHint || repeat.AddLabel != "+ Add Paper" {
		t.Fatalf("unexpected repeat chrome %+v", repeat)
	}
	labels := []string{repeat.Items[0].Label, repeat.Items[1].Label}
	if diff := cmp.Diff([]string{"Paper #1", "Paper #2"}, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	title := repeat.Items[1].Fields[0]
	if title.Name != "papers.1.title" || title.ControlID != "papers-1-title" || title.Input.Value != "c" {
		t.Fatalf("unexpected subfield %+v", title)
	}
	if repeat.Items[0].Fields[1].Select == nil {
		t.Fatalf("dropdown subfield should render a select")
	}
}

func TestBuildErrorsOnlyWhenTouched(t *testing.T) {
	schema := oneSection(
		model.Field{ID: "a", Required: true},
		model.Field{ID: "b", Required: true},
	)
	view := render.Build(snapshot(schema, 0, nil, "b"))
	if view.Fields[0].Error != "" {
		t.Fatalf("untouched field should not show an error")
	}
	if view.Fields[1].Error != "This field is required." {
		t.Fatalf("touched field should show its error, got %q", view.Fields[1].Error)
	}
}

func TestBuildHidesConditionalFields(t *testing.T) {
	schema := oneSection(
		model.Field{ID: "contact", Spec: model.ChoiceSpec{Type: model.KindSingle, Options: []model.Option{{Value: "yes"}, {Value: "no"}}}},
		model.Field{ID: "email", ShowIf: &model.Condition{Field: "contact", Equals: "yes"}},
	)
	hidden := render.Build(snapshot(schema, 0, model.Answers{"contact": "no", "email": "kept@example.com"}))
	if len(hidden.Fields) != 1 {
		t.Fatalf("expected conditional field hidden, got %d fields", len(hidden.Fields))
	}
	shown := render.Build(snapshot(schema, 0, model.Answers{"contact": "yes", "email": "kept@example.com"}))
	if len(shown.Fields) != 2 || shown.Fields[1].Input.Value != "kept@example.com" {
		t.Fatalf("expected conditional field with retained value, got %+v", shown.Fields)
	}
}

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(_ context.Context, view render.View, _ render.RenderOptions) ([]byte, error) {
	return []byte(s.name + ":" + view.SchemaID), nil
}

func TestRegistry(t *testing.T) {
	registry := render.NewRegistry()
	registry.MustRegister(stubRenderer{name: "html"})
	registry.MustRegister(stubRenderer{name: "json"})
	if err := registry.Register(stubRenderer{name: "html"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}

	out, contentType, err := registry.Render(context.Background(), "", render.View{SchemaID: "q"}, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(out) != "html:q" || contentType != "text/plain" {
		t.Fatalf("default renderer not used: %q %q", out, contentType)
	}
	if diff := cmp.Diff([]string{"html", "json"}, registry.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if _, err := registry.Get("pdf"); err == nil {
		t.Fatalf("expected missing renderer error")
	}
}
