package components

// Canonical component names, one per render.Control.
const (
	NameInput    = "input"
	NameTextarea = "textarea"
	NameSelect   = "select"
	NameChoice   = "choice"
	NameMatrix   = "matrix"
	NameRating   = "rating"
	NameRepeat   = "repeat"
)
