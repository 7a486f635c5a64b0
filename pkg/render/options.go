package render

// RenderOptions carry per-request data renderers use to customise output
// without changing the view model.
type RenderOptions struct {
	// Action is the URL the rendered form posts to. Empty means the current
	// page.
	Action string
	// Partial renders only the form body without the surrounding document.
	Partial bool
	// Hidden are extra hidden inputs emitted inside the form.
	Hidden []HiddenField
	// StylesheetURL links an external stylesheet instead of inlining the
	// embedded one.
	StylesheetURL string
}
