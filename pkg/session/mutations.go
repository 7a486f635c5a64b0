package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/validation"
)

var (
	// ErrUnknownField is returned when a mutation names a field the schema does
	// not define.
	ErrUnknownField = errors.New("session: unknown field")
	// ErrKindMismatch is returned when a mutation does not apply to the
	// field's kind.
	ErrKindMismatch = errors.New("session: operation does not apply to field kind")
	// ErrItemIndex is returned for a repeat item index out of range.
	ErrItemIndex = errors.New("session: item index out of range")
)

func (s *Session) fieldLocked(fieldID string) (model.Field, error) {
	field, ok := s.schema.FieldByID(fieldID)
	if !ok {
		return model.Field{}, fmt.Errorf("%w %q", ErrUnknownField, fieldID)
	}
	return field, nil
}

// SetValue stores v as the answer for fieldID.
func (s *Session) SetValue(fieldID string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.fieldLocked(fieldID); err != nil {
		return err
	}
	s.answers[fieldID] = v
	s.persistLocked()
	return nil
}

// SetInput stores raw text typed into a field. Number fields parse the text;
// empty, unparsable or non-finite input clears the answer to nil.
func (s *Session) SetInput(fieldID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, err := s.fieldLocked(fieldID)
	if err != nil {
		return err
	}
	s.answers[fieldID] = parseInput(field.Kind(), raw)
	s.persistLocked()
	return nil
}

func parseInput(kind model.Kind, raw string) any {
	switch kind {
	case model.KindNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return n
	case model.KindRating:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil
		}
		return n
	default:
		return raw
	}
}

// ToggleOption adds or removes value from a multi-choice answer. Selection
// order is kept and values never repeat.
func (s *Session) ToggleOption(fieldID, value string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, err := s.fieldLocked(fieldID)
	if err != nil {
		return err
	}
	if field.Kind() != model.KindMulti {
		return fmt.Errorf("%w: toggle on %s field %q", ErrKindMismatch, field.Kind(), fieldID)
	}
	s.answers[fieldID] = toggle(s.answers[fieldID], value, on)
	s.persistLocked()
	return nil
}

func toggle(current any, value string, on bool) []string {
	selected, _ := model.StringSlice(current)
	out := make([]string, 0, len(selected)+1)
	present := false
	for _, v := range selected {
		if v == value {
			if present || !on {
				continue
			}
			present = true
		}
		out = append(out, v)
	}
	if on && !present {
		out = append(out, value)
	}
	return out
}

// SetMatrixCell records column as the answer for row.
func (s *Session) SetMatrixCell(fieldID, row, column string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, err := s.fieldLocked(fieldID)
	if err != nil {
		return err
	}
	if field.Kind() != model.KindMatrix {
		return fmt.Errorf("%w: matrix cell on %s field %q", ErrKindMismatch, field.Kind(), fieldID)
	}
	current, _ := model.StringMap(s.answers[fieldID])
	next := make(map[string]string, len(current)+1)
	for k, v := range current {
		next[k] = v
	}
	next[row] = column
	s.answers[fieldID] = next
	s.persistLocked()
	return nil
}

// SetRating stores level as the rating answer.
func (s *Session) SetRating(fieldID string, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, err := s.fieldLocked(fieldID)
	if err != nil {
		return err
	}
	spec, ok := field.Spec.(model.RatingSpec)
	if !ok {
		return fmt.Errorf("%w: rating on %s field %q", ErrKindMismatch, field.Kind(), fieldID)
	}
	if level < 1 || level > spec.Levels() {
		return fmt.Errorf("session: rating %d outside 1..%d", level, spec.Levels())
	}
	s.answers[fieldID] = level
	s.persistLocked()
	return nil
}

func (s *Session) repeatLocked(fieldID string) (model.RepeatSpec, []map[string]any, error) {
	field, err := s.fieldLocked(fieldID)
	if err != nil {
		return model.RepeatSpec{}, nil, err
	}
	spec, ok := field.Spec.(model.RepeatSpec)
	if !ok {
		return model.RepeatSpec{}, nil, fmt.Errorf("%w: item on %s field %q", ErrKindMismatch, field.Kind(), fieldID)
	}
	items, _ := model.Items(s.answers[fieldID])
	out := make([]map[string]any, len(items))
	for i, item := range items {
		copied := make(map[string]any, len(item))
		for k, v := range item {
			copied[k] = v
		}
		out[i] = copied
	}
	return spec, out, nil
}

// AppendItem adds an empty item to a repeat field and returns its index.
func (s *Session) AppendItem(fieldID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, items, err := s.repeatLocked(fieldID)
	if err != nil {
		return -1, err
	}
	items = append(items, map[string]any{})
	s.answers[fieldID] = items
	s.persistLocked()
	return len(items) - 1, nil
}

// RemoveItem deletes the item at index. Later items shift down so their
// labels follow their new positions.
func (s *Session) RemoveItem(fieldID string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, items, err := s.repeatLocked(fieldID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %d of %d", ErrItemIndex, index, len(items))
	}
	s.answers[fieldID] = append(items[:index], items[index+1:]...)
	s.persistLocked()
	return nil
}

// SetItemValue stores v for subfield subID of the item at index.
func (s *Session) SetItemValue(fieldID string, index int, subID string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, items, err := s.repeatLocked(fieldID)
	if err != nil {
		return err
	}
	return s.setItemLocked(fieldID, items, index, subID, v)
}

// SetItemInput stores raw text for a subfield, parsing numbers like SetInput.
func (s *Session) SetItemInput(fieldID string, index int, subID, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, items, err := s.repeatLocked(fieldID)
	if err != nil {
		return err
	}
	kind := model.KindText
	for _, sub := range spec.ItemFields {
		if sub.ID == subID {
			kind = sub.Kind()
			break
		}
	}
	return s.setItemLocked(fieldID, items, index, subID, parseInput(kind, raw))
}

// ToggleItemOption toggles value in a multi-choice subfield of one item.
func (s *Session) ToggleItemOption(fieldID string, index int, subID, value string, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, items, err := s.repeatLocked(fieldID)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %d of %d", ErrItemIndex, index, len(items))
	}
	return s.setItemLocked(fieldID, items, index, subID, toggle(items[index][subID], value, on))
}

func (s *Session) setItemLocked(fieldID string, items []map[string]any, index int, subID string, v any) error {
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: %d of %d", ErrItemIndex, index, len(items))
	}
	items[index][subID] = v
	s.answers[fieldID] = items
	s.persistLocked()
	return nil
}

// Touch marks the field as touched (on blur) and returns its current
// validation message.
func (s *Session) Touch(fieldID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	field, err := s.fieldLocked(fieldID)
	if err != nil {
		return "", err
	}
	s.touched[fieldID] = true
	return validation.Validate(field, s.answers[fieldID]), nil
}
