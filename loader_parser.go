package questionnaire

import (
	internalLoader "github.com/goliatone/go-questionnaire/internal/schema/loader"
	internalParser "github.com/goliatone/go-questionnaire/internal/schema/parser"
	"github.com/goliatone/go-questionnaire/pkg/schema"
)

// NewLoader constructs a loader using the internal implementation while keeping
// the concrete type hidden from consumers.
func NewLoader(options ...schema.LoaderOption) schema.Loader {
	cfg := schema.NewLoaderOptions(options...)
	return internalLoader.New(cfg)
}

// NewParser constructs a parser backed by the internal implementation.
func NewParser(options ...schema.ParserOption) schema.Parser {
	cfg := schema.NewParserOptions(options...)
	return internalParser.New(cfg)
}
