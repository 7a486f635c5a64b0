package questionnaire

import (
	"io/fs"

	"github.com/goliatone/go-questionnaire/pkg/renderers/html"
)

// EmbeddedTemplates exposes the built-in HTML renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the embedded stylesheet for mounting under /assets/.
func AssetsFS() fs.FS {
	return html.AssetsFS()
}
