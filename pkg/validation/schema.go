package validation

import (
	"context"
	"strings"

	"github.com/goliatone/go-questionnaire/internal/schema/parser"
	"github.com/goliatone/go-questionnaire/pkg/schema"
)

// SchemaIssue represents a schema document problem with optional location
// metadata.
type SchemaIssue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// SchemaValidationResult captures the outcome of checking a schema document.
type SchemaValidationResult struct {
	Valid  bool          `json:"valid"`
	Issues []SchemaIssue `json:"issues,omitempty"`
}

// ValidateSchema decodes raw as a questionnaire schema and reports whether it
// is usable: it must decode, carry a sections list, and pass the structural
// checks (ids present and unique, choices with options, matrices with rows
// and columns).
func ValidateSchema(ctx context.Context, src schema.Source, raw []byte) SchemaValidationResult {
	result := SchemaValidationResult{Valid: true}
	if src == nil {
		src = schema.SourceFromBytes("schema.json", raw)
	}

	doc, err := schema.NewDocument(src, raw)
	if err != nil {
		return invalid(src, err)
	}
	if _, err := parser.New(schema.NewParserOptions()).Parse(ctx, doc); err != nil {
		return invalid(src, err)
	}
	return result
}

func invalid(src schema.Source, err error) SchemaValidationResult {
	return SchemaValidationResult{
		Valid: false,
		Issues: []SchemaIssue{{
			Path:    src.Location(),
			Message: strings.TrimSpace(err.Error()),
		}},
	}
}
