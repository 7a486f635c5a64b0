package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrEmptySchema is returned when there is no section to fill.
	ErrEmptySchema = errors.New("tui: schema has no sections")
)
