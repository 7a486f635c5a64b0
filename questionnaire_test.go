package questionnaire

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

func TestSampleSchemaParses(t *testing.T) {
	s := SampleSchema()
	if s.ID != "research-questionnaire" {
		t.Fatalf("schema id = %q", s.ID)
	}

	var sections []string
	for _, section := range s.Sections {
		sections = append(sections, section.ID)
	}
	if diff := cmp.Diff([]string{"task", "phases", "papers"}, sections); diff != "" {
		t.Fatalf("sections mismatch (-want +got):\n%s", diff)
	}

	papers, ok := s.FieldByID("papers")
	if !ok {
		t.Fatalf("papers field missing")
	}
	spec, ok := papers.Spec.(model.RepeatSpec)
	if !ok {
		t.Fatalf("papers spec = %T, want RepeatSpec", papers.Spec)
	}
	if spec.MinItems == nil || *spec.MinItems != 3 || len(spec.ItemFields) != 4 {
		t.Fatalf("papers repeat = %+v", spec)
	}
}

func TestSampleSchemaJSONIsCopy(t *testing.T) {
	raw := SampleSchemaJSON()
	raw[0] = 'x'
	if SampleSchemaJSON()[0] != '{' {
		t.Fatalf("embedded sample was modified through the returned slice")
	}
}

func TestLoadSchemaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mini.yaml")
	doc := strings.Join([]string{
		"id: mini",
		"title: Mini",
		"sections:",
		"  - id: one",
		"    title: One",
		"    fields:",
		"      - id: name",
		"        label: Name",
		"        required: true",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := LoadSchema(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	field, ok := s.FieldByID("name")
	if !ok || !field.Required || field.Kind() != model.KindText {
		t.Fatalf("name field = %+v", field)
	}
}

func TestLoadSchemaErrors(t *testing.T) {
	if _, err := LoadSchema(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty location")
	}
	if _, err := LoadSchema(context.Background(), filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := ParseSchema(context.Background(), "x.json", []byte(`{"id":"x"}`)); err == nil {
		t.Fatalf("expected error for document without sections")
	}
	_, err := ParseSchema(context.Background(), "x.json", []byte(`{"sections":[]}`), schema.WithoutValidation())
	if err != nil {
		t.Fatalf("unvalidated parse: %v", err)
	}
}

func TestNewControllerRestoresDraft(t *testing.T) {
	ctx := context.Background()
	store := draft.NewStore(draft.NewMemoryBackend())
	s := SampleSchema()
	if !store.Save(ctx, s.ID, model.Answers{"researchTasks": "clone detection"}) {
		t.Fatalf("seed draft not saved")
	}

	ctrl := NewController(ctx, s, []session.Option{session.WithDraftStore(store)})
	got, _ := ctrl.Session().Value("researchTasks")
	if got != "clone detection" {
		t.Fatalf("restored answer = %v", got)
	}
}

func TestAssetsFSServesStylesheet(t *testing.T) {
	if _, err := fs.Stat(AssetsFS(), "questionnaire.css"); err != nil {
		t.Fatalf("stylesheet missing: %v", err)
	}
	matches, err := fs.Glob(EmbeddedTemplates(), "templates/*.tmpl")
	if err != nil || len(matches) == 0 {
		t.Fatalf("templates missing: %v %v", matches, err)
	}
}
