package tui

import (
	"io"
	"log/slog"
)

// UserAgent is recorded in the payload meta of terminal submissions.
const UserAgent = "questionnaire-tui"

// Theme captures optional message prefixes. Colors come from fatih/color and
// switch off automatically when output is not a terminal.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// Option configures the Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver used by the filler.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}

// WithProgress controls the submit spinner. It defaults to on when stderr is
// a terminal.
func WithProgress(enabled bool) Option {
	return func(f *Filler) {
		f.progress = enabled
	}
}

// WithProgressWriter sends the spinner to w instead of stderr.
func WithProgressWriter(w io.Writer) Option {
	return func(f *Filler) {
		if w != nil {
			f.progressOut = w
		}
	}
}

// WithConfirmSubmit asks before submitting on the last section. Enabled by
// default.
func WithConfirmSubmit(enabled bool) Option {
	return func(f *Filler) {
		f.confirmSubmit = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}
