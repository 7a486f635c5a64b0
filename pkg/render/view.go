package render

import (
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/session"
)

// Control identifies which widget renders a field.
type Control string

const (
	ControlInput    Control = "input"
	ControlTextarea Control = "textarea"
	ControlSelect   Control = "select"
	ControlChoice   Control = "choice"
	ControlMatrix   Control = "matrix"
	ControlRating   Control = "rating"
	ControlRepeat   Control = "repeat"
)

// View is the render-ready description of the current section.
type View struct {
	SessionID   string                   `json:"sessionId"`
	SchemaID    string                   `json:"schemaId"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Section     SectionView              `json:"section"`
	Sidebar     []navigation.SidebarItem `json:"sidebar"`
	Nav         NavView                  `json:"nav"`
	Notice      *session.Notice          `json:"notice,omitempty"`
	Fields      []FieldView              `json:"fields"`
	// ElementIDs maps each rendered field id to the id of its wrapper element.
	ElementIDs map[string]string `json:"elementIds"`
	Payload    *model.Payload    `json:"payload,omitempty"`
}

// SectionView identifies the section being rendered.
type SectionView struct {
	Index int    `json:"index"`
	Count int    `json:"count"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NavView says which navigation buttons are shown.
type NavView struct {
	ShowPrev   bool `json:"showPrev"`
	ShowNext   bool `json:"showNext"`
	ShowSubmit bool `json:"showSubmit"`
}

// FieldView is one rendered field. Exactly one of the control payloads is set,
// matching Control.
type FieldView struct {
	ID        string     `json:"id"`
	ElementID string     `json:"elementId"`
	ControlID string     `json:"controlId"`
	Name      string     `json:"name"`
	Label     string     `json:"label"`
	Help      string     `json:"help,omitempty"`
	Kind      model.Kind `json:"kind"`
	Control   Control    `json:"control"`
	Required  bool       `json:"required"`
	Error     string     `json:"error,omitempty"`

	Input    *InputView    `json:"input,omitempty"`
	Textarea *TextareaView `json:"textarea,omitempty"`
	Select   *SelectView   `json:"select,omitempty"`
	Choice   *ChoiceView   `json:"choice,omitempty"`
	Matrix   *MatrixView   `json:"matrix,omitempty"`
	Rating   *RatingView   `json:"rating,omitempty"`
	Repeat   *RepeatView   `json:"repeat,omitempty"`
}

// InputView is a single-line input.
type InputView struct {
	Type        string `json:"type"`
	Value       string `json:"value"`
	Placeholder string `json:"placeholder,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
	Step        string `json:"step,omitempty"`
	Pattern     string `json:"pattern,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// TextareaView is a multi-line input.
type TextareaView struct {
	Value       string `json:"value"`
	Placeholder string `json:"placeholder,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

// SelectView is a dropdown with a leading empty option.
type SelectView struct {
	Placeholder string       `json:"placeholder"`
	Options     []OptionView `json:"options"`
}

// ChoiceView is a list of radio buttons or checkboxes.
type ChoiceView struct {
	Multiple bool         `json:"multiple"`
	Options  []OptionView `json:"options"`
}

// OptionView is one selectable option.
type OptionView struct {
	ElementID string `json:"elementId,omitempty"`
	Value     string `json:"value"`
	Label     string `json:"label"`
	Selected  bool   `json:"selected"`
}

// MatrixView is a grid with one header row of columns and one radio group per
// row.
type MatrixView struct {
	Columns []string        `json:"columns"`
	Rows    []MatrixRowView `json:"rows"`
}

// MatrixRowView is one row of a matrix.
type MatrixRowView struct {
	Label string           `json:"label"`
	Name  string           `json:"name"`
	Cells []MatrixCellView `json:"cells"`
}

// MatrixCellView is one radio button of a matrix row.
type MatrixCellView struct {
	ElementID string `json:"elementId"`
	Column    string `json:"column"`
	Checked   bool   `json:"checked"`
}

// RatingView is a row of discrete levels.
type RatingView struct {
	Value  int               `json:"value"`
	Levels []RatingLevelView `json:"levels"`
}

// RatingLevelView is one rating level; levels up to the current value are
// active.
type RatingLevelView struct {
	ElementID string `json:"elementId"`
	Value     int    `json:"value"`
	Active    bool   `json:"active"`
}

// RepeatView is a growable list of items.
type RepeatView struct {
	Hint      string           `json:"hint"`
	AddLabel  string           `json:"addLabel"`
	ItemLabel string           `json:"itemLabel"`
	Items     []RepeatItemView `json:"items"`
}

// RepeatItemView is one item of a repeat field, labeled by its position.
type RepeatItemView struct {
	Index  int         `json:"index"`
	Label  string      `json:"label"`
	Fields []FieldView `json:"fields"`
}
