package webui

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/visibility"
)

// applyForm copies posted values for the current section's visible fields
// into the session and returns the ids of the fields whose answer changed.
// Controls missing from the form leave their answer alone; multi-choice
// controls are only read when their _multi marker is present, so an empty
// selection clears the answer.
func applyForm(sess *session.Session, form url.Values) []string {
	snap := sess.Snapshot()
	if len(snap.Schema.Sections) == 0 {
		return nil
	}
	section := snap.Schema.Sections[snap.Index]
	markers := make(map[string]bool)
	for _, name := range form[render.MultiFieldName] {
		markers[name] = true
	}

	var changed []string
	for _, field := range visibility.VisibleFields(section, snap.Answers, sess.Evaluator()) {
		current := snap.Answers[field.ID]
		if applyField(sess, field, current, form, markers) {
			changed = append(changed, field.ID)
		}
	}
	return changed
}

func applyField(sess *session.Session, field model.Field, current any, form url.Values, markers map[string]bool) bool {
	switch spec := field.Spec.(type) {
	case model.ChoiceSpec:
		if spec.Kind() == model.KindMulti {
			if !markers[field.ID] {
				return false
			}
			values := selection(form[field.ID], spec.Options)
			if sameSelection(current, values) {
				return false
			}
			return sess.SetValue(field.ID, values) == nil
		}
		return applyScalar(sess, field.ID, current, form)
	case model.MatrixSpec:
		answered, _ := model.StringMap(current)
		changed := false
		for r, row := range spec.Rows {
			column := form.Get(render.MatrixRowName(field.ID, r))
			if column == "" || column == answered[row] || !slices.Contains(spec.Columns, column) {
				continue
			}
			if sess.SetMatrixCell(field.ID, row, column) == nil {
				changed = true
			}
		}
		return changed
	case model.RatingSpec:
		raw := form.Get(field.ID)
		level, err := strconv.Atoi(raw)
		if err != nil {
			return false
		}
		if n, ok := model.Number(current); ok && int(n) == level {
			return false
		}
		return sess.SetRating(field.ID, level) == nil
	case model.RepeatSpec:
		return applyItems(sess, field.ID, spec, current, form, markers)
	default:
		return applyScalar(sess, field.ID, current, form)
	}
}

func applyScalar(sess *session.Session, fieldID string, current any, form url.Values) bool {
	if _, ok := form[fieldID]; !ok {
		return false
	}
	raw := form.Get(fieldID)
	if raw == valueText(current) {
		return false
	}
	return sess.SetInput(fieldID, raw) == nil
}

func applyItems(sess *session.Session, fieldID string, spec model.RepeatSpec, current any, form url.Values, markers map[string]bool) bool {
	items, _ := model.Items(current)
	changed := false
	for idx, item := range items {
		for _, sub := range spec.ItemFields {
			name := render.ItemName(fieldID, idx, sub.ID)
			if choice, ok := sub.Spec.(model.ChoiceSpec); ok && choice.Kind() == model.KindMulti {
				if !markers[name] {
					continue
				}
				values := selection(form[name], choice.Options)
				if sameSelection(item[sub.ID], values) {
					continue
				}
				if sess.SetItemValue(fieldID, idx, sub.ID, values) == nil {
					changed = true
				}
				continue
			}
			if _, ok := form[name]; !ok {
				continue
			}
			raw := form.Get(name)
			if raw == valueText(item[sub.ID]) {
				continue
			}
			if sess.SetItemInput(fieldID, idx, sub.ID, raw) == nil {
				changed = true
			}
		}
	}
	return changed
}

// selection keeps the posted values that name a known option, in option
// order and without repeats.
func selection(posted []string, options []model.Option) []string {
	out := make([]string, 0, len(posted))
	for _, opt := range options {
		if slices.Contains(posted, opt.Value) {
			out = append(out, opt.Value)
		}
	}
	return out
}

func sameSelection(current any, values []string) bool {
	if current == nil {
		return len(values) == 0
	}
	selected, ok := model.StringSlice(current)
	if !ok {
		return false
	}
	return slices.Equal(selected, values)
}

func valueText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	if n, ok := model.Number(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}
