// Package validation maps a field definition and its current value to an
// error message. Rules apply in a fixed precedence: required-ness first, then
// format rules (only when a value is present), then the length limit. An empty
// message means the value passes. Validation is pure: a field's result never
// depends on other fields; visibility gating is the caller's job.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/visibility"
)

const (
	MsgRequired      = "This field is required."
	MsgSelectOne     = "Please select at least one option."
	MsgAnswerAllRows = "Please answer all rows."
	MsgAddOneItem    = "Please add at least one item."
	MsgInvalidEmail  = "Enter a valid email."
	MsgInvalidPhone  = "Enter a valid phone number."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// patterns caches compiled tel patterns. A pattern that fails to compile is
// stored as nil and treated as no constraint.
var patterns sync.Map

// Validate returns the first violated rule's message for field holding value,
// or "" when the value passes.
func Validate(field model.Field, value any) string {
	if field.Required {
		if msg := required(field, value); msg != "" {
			return msg
		}
	}
	if msg := format(field, value); msg != "" {
		return msg
	}
	if field.MaxLength != nil {
		if s, ok := value.(string); ok && utf8.RuneCountInString(s) > *field.MaxLength {
			return fmt.Sprintf("Limit to %d characters.", *field.MaxLength)
		}
	}
	return ""
}

// ValidateItem validates one subfield value inside a repeat item.
func ValidateItem(field model.ItemField, value any) string {
	return Validate(field.Field(), value)
}

func required(field model.Field, value any) string {
	switch spec := field.Spec.(type) {
	case model.ChoiceSpec:
		if spec.Kind() == model.KindMulti {
			if selected, ok := model.StringSlice(value); !ok || len(selected) == 0 {
				return MsgSelectOne
			}
			return ""
		}
	case model.MatrixSpec:
		answered, _ := model.StringMap(value)
		if len(answered) < len(spec.Rows) {
			return MsgAnswerAllRows
		}
		return ""
	case model.RepeatSpec:
		return requiredItems(spec, value)
	}
	if model.IsBlank(value) {
		return MsgRequired
	}
	return ""
}

func requiredItems(spec model.RepeatSpec, value any) string {
	items, _ := model.Items(value)
	if len(items) == 0 {
		return MsgAddOneItem
	}
	if spec.MinItems != nil && len(items) < *spec.MinItems {
		return fmt.Sprintf("Add at least %d items.", *spec.MinItems)
	}
	for idx, item := range items {
		for _, sub := range spec.ItemFields {
			if sub.Required && model.IsBlank(item[sub.ID]) {
				return fmt.Sprintf("%s #%d: \"%s\" is required.", spec.Label(), idx+1, sub.DisplayLabel())
			}
		}
	}
	return ""
}

func format(field model.Field, value any) string {
	switch spec := field.Spec.(type) {
	case model.TextSpec:
		s, ok := value.(string)
		if !ok || s == "" {
			return ""
		}
		switch spec.Kind() {
		case model.KindEmail:
			if !emailPattern.MatchString(s) {
				return MsgInvalidEmail
			}
		case model.KindTel:
			if re := compilePattern(spec.Pattern); re != nil && !re.MatchString(s) {
				return MsgInvalidPhone
			}
		}
	case model.NumberSpec:
		n, ok := model.Number(value)
		if !ok {
			return ""
		}
		if spec.Min != nil && n < *spec.Min {
			return fmt.Sprintf("Must be at least %s.", formatNumber(*spec.Min))
		}
		if spec.Max != nil && n > *spec.Max {
			return fmt.Sprintf("Must be at most %s.", formatNumber(*spec.Max))
		}
	}
	return ""
}

func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	if cached, ok := patterns.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	patterns.Store(pattern, re)
	return re
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Issue is a failed field in a section-level validation pass.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result captures a section-level validation outcome.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"issues,omitempty"`
}

// Section validates every field of section that evaluator shows, in schema
// order. Hidden fields are skipped. A nil evaluator uses the default resolver.
func Section(section model.Section, answers model.Answers, evaluator visibility.Evaluator) Result {
	result := Result{Valid: true}
	for _, field := range visibility.VisibleFields(section, answers, evaluator) {
		if msg := Validate(field, answers[field.ID]); msg != "" {
			result.Valid = false
			result.Issues = append(result.Issues, Issue{Field: field.ID, Message: msg})
		}
	}
	return result
}

// Complete reports whether every visible field of section is either optional
// or currently valid. Optional fields with format errors do not block
// completeness.
func Complete(section model.Section, answers model.Answers, evaluator visibility.Evaluator) bool {
	for _, field := range visibility.VisibleFields(section, answers, evaluator) {
		if field.Required && Validate(field, answers[field.ID]) != "" {
			return false
		}
	}
	return true
}
