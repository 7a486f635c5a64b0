package components

import (
	"bytes"
	"fmt"

	"github.com/goliatone/go-questionnaire/pkg/render"
)

const templatePrefix = "templates/components/"

// NewDefaultRegistry returns a registry with a component for every control.
func NewDefaultRegistry() *Registry {
	registry := New()
	registry.MustRegister(NameInput, Descriptor{Renderer: templateRenderer(templatePrefix + "input.tmpl")})
	registry.MustRegister(NameTextarea, Descriptor{Renderer: templateRenderer(templatePrefix + "textarea.tmpl")})
	registry.MustRegister(NameSelect, Descriptor{Renderer: templateRenderer(templatePrefix + "select.tmpl")})
	registry.MustRegister(NameChoice, Descriptor{Renderer: templateRenderer(templatePrefix + "choice.tmpl")})
	registry.MustRegister(NameMatrix, Descriptor{Renderer: templateRenderer(templatePrefix + "matrix.tmpl")})
	registry.MustRegister(NameRating, Descriptor{Renderer: templateRenderer(templatePrefix + "rating.tmpl")})
	registry.MustRegister(NameRepeat, Descriptor{Renderer: repeatRenderer})
	return registry
}

func templateRenderer(templateName string) Renderer {
	return func(buf *bytes.Buffer, field render.FieldView, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		rendered, err := data.Template.RenderTemplate(templateName, map[string]any{"field": field})
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

type repeatItem struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	HTML  string `json:"html"`
}

// repeatRenderer renders each item's subfields through RenderChild and wraps
// them in the repeat chrome.
func repeatRenderer(buf *bytes.Buffer, field render.FieldView, data ComponentData) error {
	if field.Repeat == nil {
		return fmt.Errorf("components: field %q has no repeat view", field.ID)
	}
	if data.Template == nil || data.RenderChild == nil {
		return fmt.Errorf("components: repeat %q needs a template renderer and child renderer", field.ID)
	}

	items := make([]repeatItem, 0, len(field.Repeat.Items))
	for _, item := range field.Repeat.Items {
		var inner bytes.Buffer
		for _, sub := range item.Fields {
			html, err := data.RenderChild(sub)
			if err != nil {
				return fmt.Errorf("components: repeat %q item %d: %w", field.ID, item.Index, err)
			}
			inner.WriteString(html)
		}
		items = append(items, repeatItem{Index: item.Index, Label: item.Label, HTML: inner.String()})
	}

	hint := field.Repeat.Hint
	if data.Sanitize != nil {
		hint = data.Sanitize(hint)
	}
	rendered, err := data.Template.RenderTemplate(templatePrefix+"repeat.tmpl", map[string]any{
		"field": field,
		"items": items,
		"hint":  hint,
	})
	if err != nil {
		return fmt.Errorf("components: render repeat %q: %w", field.ID, err)
	}
	buf.WriteString(rendered)
	return nil
}
