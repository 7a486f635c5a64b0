// Package visibility decides which fields are shown based on showIf
// conditions. Hidden fields keep their stored answers; visibility only gates
// rendering and validation.
package visibility

import "github.com/goliatone/go-questionnaire/pkg/model"

// Evaluator determines whether a field should be visible given the current
// answers.
type Evaluator interface {
	ShouldShow(field model.Field, ctx Context) bool
}

// Context provides inputs to an Evaluator. Values holds the current answers
// while Extras lets callers inject additional context for custom evaluators.
type Context struct {
	Values model.Answers
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field model.Field, ctx Context) bool

// ShouldShow delegates to the underlying function.
func (fn EvaluatorFunc) ShouldShow(field model.Field, ctx Context) bool {
	return fn(field, ctx)
}

// Resolver is the default Evaluator: a field without showIf is visible, and a
// field with showIf is visible iff the referenced answer is present and
// strictly equal to the expected value.
type Resolver struct{}

var _ Evaluator = Resolver{}

// New returns the default resolver.
func New() Resolver { return Resolver{} }

// ShouldShow implements Evaluator.
func (Resolver) ShouldShow(field model.Field, ctx Context) bool {
	if field.ShowIf == nil {
		return true
	}
	current, ok := ctx.Values[field.ShowIf.Field]
	if !ok {
		return false
	}
	return Equal(current, field.ShowIf.Equals)
}

// Equal compares two answer values without coercing across types: strings
// only equal strings, booleans only booleans, and numbers compare by value
// whatever their Go numeric type. nil equals nil. Composite values never
// compare equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if an, ok := model.Number(a); ok {
		bn, ok := model.Number(b)
		return ok && an == bn
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// VisibleFields returns the section's fields that evaluator shows for the
// given answers, in schema order. A nil evaluator uses Resolver.
func VisibleFields(section model.Section, answers model.Answers, evaluator Evaluator) []model.Field {
	if evaluator == nil {
		evaluator = Resolver{}
	}
	ctx := Context{Values: answers}
	out := make([]model.Field, 0, len(section.Fields))
	for _, field := range section.Fields {
		if evaluator.ShouldShow(field, ctx) {
			out = append(out, field)
		}
	}
	return out
}
