package questionnaire

import (
	"context"
	_ "embed"
)

// SampleName is the file name of the embedded sample schema.
const SampleName = "research.json"

//go:embed schemas/research.json
var sampleSchema []byte

// SampleSchemaJSON returns a copy of the embedded sample document.
func SampleSchemaJSON() []byte {
	return append([]byte(nil), sampleSchema...)
}

// SampleSchema returns the built-in research questionnaire. It panics if the
// embedded document does not parse, which the package tests rule out.
func SampleSchema() Schema {
	s, err := ParseSchema(context.Background(), SampleName, sampleSchema)
	if err != nil {
		panic(err)
	}
	return s
}
