package template

import "io"

// Engine renders the component templates behind the HTML renderer. Render
// takes either a template name or inline content. Every writer in out gets a
// copy of the output.
type Engine interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
