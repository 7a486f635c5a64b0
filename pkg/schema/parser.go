package schema

import (
	"context"
	"errors"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// Parser decodes a Document into a questionnaire schema.
type Parser interface {
	Parse(ctx context.Context, doc Document) (model.Schema, error)
}

// ParserOptions toggles parser behaviour.
type ParserOptions struct {
	// SkipValidation returns decoded schemas without structural checks
	// (missing ids, duplicate field ids, choices without options).
	SkipValidation bool
}

// ParserOption mutates ParserOptions during construction.
type ParserOption func(*ParserOptions)

// WithoutValidation disables structural validation of parsed schemas.
func WithoutValidation() ParserOption {
	return func(opts *ParserOptions) {
		opts.SkipValidation = true
	}
}

// NewParserOptions applies ParserOption functions.
func NewParserOptions(options ...ParserOption) ParserOptions {
	cfg := ParserOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// ErrNoSections reports a document without a sections list.
var ErrNoSections = errors.New("schema: document has no sections")
