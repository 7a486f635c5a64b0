// Package testsupport holds fixture and golden-file helpers shared by package
// tests. Set UPDATE_GOLDENS=1 to rewrite goldens from current output.
package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/internal/schema/parser"
	pkgmodel "github.com/goliatone/go-questionnaire/pkg/model"
	pkgschema "github.com/goliatone/go-questionnaire/pkg/schema"
)

// LoadSchema reads and parses a schema fixture, failing the test on error.
func LoadSchema(t *testing.T, path string) pkgmodel.Schema {
	t.Helper()

	schema, err := LoadSchemaFromPath(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return schema
}

// LoadSchemaFromPath parses a JSON or YAML schema fixture without requiring
// testing.T so callers can load fixtures in setup functions.
func LoadSchemaFromPath(path string) (pkgmodel.Schema, error) {
	if path == "" {
		return pkgmodel.Schema{}, errors.New("testsupport: schema path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return pkgmodel.Schema{}, fmt.Errorf("testsupport: read schema: %w", err)
	}
	doc, err := pkgschema.NewDocument(pkgschema.SourceFromFile(path), data)
	if err != nil {
		return pkgmodel.Schema{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	schema, err := parser.New(pkgschema.NewParserOptions()).Parse(context.Background(), doc)
	if err != nil {
		return pkgmodel.Schema{}, fmt.Errorf("testsupport: parse schema: %w", err)
	}
	return schema, nil
}

// MustLoadAnswers loads a JSON answers fixture.
func MustLoadAnswers(t *testing.T, path string) pkgmodel.Answers {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load answers: %v", err)
	}
	var out pkgmodel.Answers
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal answers: %v", err)
	}
	return out
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, payload)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput runs a render function that also writes to an
// io.Writer and returns both the result and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
