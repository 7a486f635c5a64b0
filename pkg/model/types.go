package model

import internalmodel "github.com/goliatone/go-questionnaire/internal/model"

// Kind re-exports the internal field kind enumeration.
type Kind = internalmodel.Kind

const (
	KindText     = internalmodel.KindText
	KindEmail    = internalmodel.KindEmail
	KindTel      = internalmodel.KindTel
	KindDate     = internalmodel.KindDate
	KindTime     = internalmodel.KindTime
	KindDatetime = internalmodel.KindDatetime
	KindNumber   = internalmodel.KindNumber
	KindTextarea = internalmodel.KindTextarea
	KindDropdown = internalmodel.KindDropdown
	KindSingle   = internalmodel.KindSingle
	KindMulti    = internalmodel.KindMulti
	KindMatrix   = internalmodel.KindMatrix
	KindRating   = internalmodel.KindRating
	KindRepeat   = internalmodel.KindRepeat
)

const (
	DefaultRatingMax = internalmodel.DefaultRatingMax
	MaxRatingLevels  = internalmodel.MaxRatingLevels
)

type Schema = internalmodel.Schema
type Section = internalmodel.Section
type Field = internalmodel.Field
type ItemField = internalmodel.ItemField
type Condition = internalmodel.Condition
type Option = internalmodel.Option
type FieldSpec = internalmodel.FieldSpec
type ItemSpec = internalmodel.ItemSpec
type TextSpec = internalmodel.TextSpec
type NumberSpec = internalmodel.NumberSpec
type TextareaSpec = internalmodel.TextareaSpec
type ChoiceSpec = internalmodel.ChoiceSpec
type MatrixSpec = internalmodel.MatrixSpec
type RatingSpec = internalmodel.RatingSpec
type RepeatSpec = internalmodel.RepeatSpec
type Answers = internalmodel.Answers
type Payload = internalmodel.Payload

// ParseKind resolves a schema type name, including legacy aliases.
func ParseKind(name string) (Kind, bool) { return internalmodel.ParseKind(name) }

// IsBlank reports whether a value counts as unanswered.
func IsBlank(value any) bool { return internalmodel.IsBlank(value) }

// StringSlice reads a multi-choice value in either typed or decoded form.
func StringSlice(value any) ([]string, bool) { return internalmodel.StringSlice(value) }

// StringMap reads a matrix value in either typed or decoded form.
func StringMap(value any) (map[string]string, bool) { return internalmodel.StringMap(value) }

// Items reads a repeat value in either typed or decoded form.
func Items(value any) ([]map[string]any, bool) { return internalmodel.Items(value) }

// Number reads a numeric value of any Go numeric type.
func Number(value any) (float64, bool) { return internalmodel.Number(value) }
