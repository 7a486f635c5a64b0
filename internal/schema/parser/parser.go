package parser

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
)

// Parser decodes JSON or YAML schema documents.
type Parser struct {
	options schema.ParserOptions
}

var _ schema.Parser = (*Parser)(nil)

// New constructs a Parser from pre-resolved options.
func New(options schema.ParserOptions) *Parser {
	return &Parser{options: options}
}

// Parse decodes the document according to its detected format and, unless
// disabled, validates the result.
func (p *Parser) Parse(ctx context.Context, doc schema.Document) (model.Schema, error) {
	if err := ctx.Err(); err != nil {
		return model.Schema{}, err
	}

	var (
		out model.Schema
		err error
	)
	switch doc.Format() {
	case schema.FormatJSON:
		err = json.Unmarshal(doc.Raw(), &out)
	default:
		err = yaml.Unmarshal(doc.Raw(), &out)
	}
	if err != nil {
		return model.Schema{}, fmt.Errorf("schema parser: decode %s: %w", doc.Location(), err)
	}
	if out.Sections == nil {
		return model.Schema{}, fmt.Errorf("schema parser: %s: %w", doc.Location(), schema.ErrNoSections)
	}

	if !p.options.SkipValidation {
		if err := out.Validate(); err != nil {
			return model.Schema{}, fmt.Errorf("schema parser: %s: %w", doc.Location(), err)
		}
	}
	return out, nil
}
