// Package model defines the questionnaire schema and answer types shared by
// the session, validators and renderers. Types live in internal/model and are
// re-exported here. Fields are a closed variant: Field.Spec is one of
// TextSpec, NumberSpec, TextareaSpec, ChoiceSpec, MatrixSpec, RatingSpec or
// RepeatSpec, and repeat subfields (ItemField) accept every spec except
// RepeatSpec so nesting stops at one level. Schema documents decode from the
// flat JSON/YAML shape (`type`, `options`, `itemFields`, `showIf`, ...).
package model
