package model

import (
	"errors"
	"fmt"
)

var (
	errSchemaIDMissing = errors.New("model: schema id is required")
	errFieldIDMissing  = errors.New("model: field id is required")
)

// Validate checks the structural invariants renderers and the session rely on:
// every field has an id, field ids are unique across the whole schema and
// rating scales stay within MaxRatingLevels.
// Subfield ids only need to be unique within their repeat field.
func (s Schema) Validate() error {
	if s.ID == "" {
		return errSchemaIDMissing
	}
	seen := make(map[string]string)
	for si, section := range s.Sections {
		for fi, field := range section.Fields {
			if field.ID == "" {
				return fmt.Errorf("%w (section %d, field %d)", errFieldIDMissing, si+1, fi+1)
			}
			if owner, dup := seen[field.ID]; dup {
				return fmt.Errorf("model: duplicate field id %q in sections %q and %q", field.ID, owner, section.ID)
			}
			seen[field.ID] = section.ID
			if err := validateSpec(field); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSpec(field Field) error {
	switch spec := field.Spec.(type) {
	case ChoiceSpec:
		if len(spec.Options) == 0 {
			return fmt.Errorf("model: field %q: %s requires options", field.ID, spec.Kind())
		}
	case MatrixSpec:
		if len(spec.Rows) == 0 || len(spec.Columns) == 0 {
			return fmt.Errorf("model: field %q: matrix requires rows and columns", field.ID)
		}
	case RatingSpec:
		if err := validateRating(field.ID, spec); err != nil {
			return err
		}
	case RepeatSpec:
		items := make(map[string]struct{}, len(spec.ItemFields))
		for _, item := range spec.ItemFields {
			if item.ID == "" {
				return fmt.Errorf("model: field %q: %w for item field", field.ID, errFieldIDMissing)
			}
			if _, dup := items[item.ID]; dup {
				return fmt.Errorf("model: field %q: duplicate item field id %q", field.ID, item.ID)
			}
			items[item.ID] = struct{}{}
			if rating, ok := item.Spec.(RatingSpec); ok {
				if err := validateRating(field.ID+"."+item.ID, rating); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateRating(id string, spec RatingSpec) error {
	if spec.Max < 0 || spec.Max > MaxRatingLevels {
		return fmt.Errorf("model: field %q: rating max %d is outside 0..%d", id, spec.Max, MaxRatingLevels)
	}
	return nil
}
