// Package html renders questionnaire views as server-side HTML pages whose
// buttons post navigation actions back to the web UI.
package html

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-questionnaire/pkg/render"
	rendertemplate "github.com/goliatone/go-questionnaire/pkg/render/template"
	gotemplate "github.com/goliatone/go-questionnaire/pkg/render/template/gotemplate"
	"github.com/goliatone/go-questionnaire/pkg/renderers/html/components"
)

const (
	formTemplate  = "templates/form.tmpl"
	fieldTemplate = "templates/field.tmpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.Engine
	components       *components.Registry
	policy           *bluemonday.Policy
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.Engine) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default control components.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithSanitizer sets the policy applied to help text and repeat hints.
// Defaults to bluemonday's UGC policy.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

type Renderer struct {
	templates  rendertemplate.Engine
	components *components.Registry
	policy     *bluemonday.Policy
	stylesheet string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}
	if cfg.policy == nil {
		cfg.policy = bluemonday.UGCPolicy()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:  renderer,
		components: cfg.components,
		policy:     cfg.policy,
		stylesheet: defaultStylesheet(),
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render emits the current section as a form. Every button submits the form
// with an action value the web UI dispatches on.
func (r *Renderer) Render(_ context.Context, view render.View, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	fields := make([]string, 0, len(view.Fields))
	for _, field := range view.Fields {
		html, err := r.renderField(field)
		if err != nil {
			return nil, err
		}
		fields = append(fields, html)
	}

	hidden := append([]render.HiddenField(nil), options.Hidden...)
	for _, name := range multiNames(view.Fields) {
		hidden = append(hidden, render.MultiMarker(name))
	}

	var payload string
	if view.Payload != nil {
		encoded, err := json.MarshalIndent(view.Payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("html renderer: encode payload: %w", err)
		}
		payload = string(encoded)
	}

	var stylesheet string
	if options.StylesheetURL == "" {
		stylesheet = r.stylesheet
	}

	result, err := r.templates.RenderTemplate(formTemplate, map[string]any{
		"view":   view,
		"fields": fields,
		"hidden": hidden,
		"options": map[string]any{
			"action":        options.Action,
			"partial":       options.Partial,
			"stylesheetUrl": options.StylesheetURL,
		},
		"stylesheet": stylesheet,
		"payload":    payload,
		"position":   view.Section.Index + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func (r *Renderer) renderField(field render.FieldView) (string, error) {
	descriptor, ok := r.components.Descriptor(string(field.Control))
	if !ok {
		return "", fmt.Errorf("html renderer: no component for control %q (field %q)", field.Control, field.ID)
	}

	var buf bytes.Buffer
	err := descriptor.Renderer(&buf, field, components.ComponentData{
		Template:    r.templates,
		Sanitize:    r.sanitize,
		RenderChild: r.renderChild,
	})
	if err != nil {
		return "", fmt.Errorf("html renderer: field %q: %w", field.ID, err)
	}
	return r.wrap(field, buf.String(), false)
}

func (r *Renderer) renderChild(field render.FieldView) (string, error) {
	descriptor, ok := r.components.Descriptor(string(field.Control))
	if !ok {
		return "", fmt.Errorf("no component for control %q (subfield %q)", field.Control, field.ID)
	}
	var buf bytes.Buffer
	if err := descriptor.Renderer(&buf, field, components.ComponentData{Template: r.templates, Sanitize: r.sanitize}); err != nil {
		return "", err
	}
	return r.wrap(field, buf.String(), true)
}

func (r *Renderer) wrap(field render.FieldView, control string, nested bool) (string, error) {
	return r.templates.RenderTemplate(fieldTemplate, map[string]any{
		"field":    field,
		"control":  control,
		"help":     r.sanitize(field.Help),
		"nested":   nested,
		"labelFor": labelFor(field.Control),
	})
}

func (r *Renderer) sanitize(s string) string {
	if s == "" || r.policy == nil {
		return s
	}
	return r.policy.Sanitize(s)
}

// labelFor reports whether the field label can point at a single control.
func labelFor(control render.Control) bool {
	switch control {
	case render.ControlInput, render.ControlTextarea, render.ControlSelect:
		return true
	}
	return false
}

func multiNames(fields []render.FieldView) []string {
	var names []string
	for _, field := range fields {
		if field.Choice != nil && field.Choice.Multiple {
			names = append(names, field.Name)
		}
		if field.Repeat != nil {
			for _, item := range field.Repeat.Items {
				names = append(names, multiNames(item.Fields)...)
			}
		}
	}
	return names
}
