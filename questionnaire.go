// Package questionnaire is the top-level entry point: it loads schema
// documents, embeds a sample questionnaire, and wires sessions to a
// navigation controller for callers that do not need the individual packages.
package questionnaire

import (
	"context"
	"fmt"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/schema"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

// Schema aliases model.Schema for callers importing only the root package.
type Schema = model.Schema

// Answers aliases model.Answers.
type Answers = model.Answers

// Payload aliases model.Payload.
type Payload = model.Payload

// RenderOptions describes per-request renderer settings.
type RenderOptions = render.RenderOptions

// LoadSchema fetches and parses the schema at location, a file path or an
// http(s) URL. Loader options configure remote access.
func LoadSchema(ctx context.Context, location string, options ...schema.LoaderOption) (Schema, error) {
	src, err := schema.ParseSource(location)
	if err != nil {
		return Schema{}, err
	}
	doc, err := NewLoader(options...).Load(ctx, src)
	if err != nil {
		return Schema{}, fmt.Errorf("questionnaire: %w", err)
	}
	return NewParser().Parse(ctx, doc)
}

// ParseSchema parses an in-memory JSON or YAML document. name only feeds
// format detection and error messages.
func ParseSchema(ctx context.Context, name string, data []byte, options ...schema.ParserOption) (Schema, error) {
	doc, err := schema.NewDocument(schema.SourceFromBytes(name, data), data)
	if err != nil {
		return Schema{}, fmt.Errorf("questionnaire: %w", err)
	}
	return NewParser(options...).Parse(ctx, doc)
}

// NewController starts a session on s and wraps it in a navigation
// controller. The session restores any draft reachable through its options.
func NewController(ctx context.Context, s Schema, sessionOptions []session.Option, options ...navigation.Option) *navigation.Controller {
	return navigation.New(session.New(ctx, s, sessionOptions...), options...)
}
