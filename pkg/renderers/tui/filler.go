// Package tui fills a questionnaire interactively in the terminal. It drives
// the same session and navigation controller as the web UI, so drafts,
// validation and submission behave identically.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/validation"
	"github.com/goliatone/go-questionnaire/pkg/visibility"
)

// skipLabel is offered first on optional single-value prompts.
const skipLabel = "(skip)"

var (
	headingColor = color.New(color.FgCyan, color.Bold).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	failureColor = color.New(color.FgRed).SprintFunc()
	subtleColor  = color.New(color.Faint).SprintFunc()
)

// Filler walks a session section by section with terminal prompts.
type Filler struct {
	driver        PromptDriver
	theme         Theme
	progress      bool
	progressOut   io.Writer
	confirmSubmit bool
	logger        *slog.Logger
}

// New constructs a Filler with the survey driver on stdout.
func New(options ...Option) *Filler {
	f := &Filler{
		progress:      term.IsTerminal(int(os.Stderr.Fd())),
		progressOut:   os.Stderr,
		confirmSubmit: true,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(ProcessStdio())
	}
	return f
}

// Fill prompts every visible field of the current section, advances with
// GoNext, and submits after the last section. A section that fails
// validation is shown again with its messages. Declining the final
// confirmation saves the draft and returns without submitting.
func (f *Filler) Fill(ctx context.Context, ctrl *navigation.Controller) (navigation.Result, error) {
	s := ctrl.Session()
	if len(s.Schema().Sections) == 0 {
		return navigation.Result{}, ErrEmptySchema
	}

	if err := f.intro(ctx, s.Schema()); err != nil {
		return navigation.Result{}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return navigation.Result{}, err
		}
		schema := s.Schema()
		index := s.Index()
		section := schema.Sections[index]

		heading := fmt.Sprintf("%d/%d %s", index+1, len(schema.Sections), section.Title)
		if err := f.driver.Info(ctx, headingColor(heading)); err != nil {
			return navigation.Result{}, err
		}
		if err := f.fillSection(ctx, s, section); err != nil {
			return navigation.Result{}, err
		}

		result := ctrl.GoNext()
		if !result.OK {
			if err := f.reportIssues(ctx, schema, result.Issues); err != nil {
				return navigation.Result{}, err
			}
			continue
		}
		if index < len(schema.Sections)-1 {
			continue
		}

		if f.confirmSubmit {
			ok, err := f.driver.Confirm(ctx, ConfirmConfig{Message: "Submit your answers?", Default: true})
			if err != nil {
				return navigation.Result{}, err
			}
			if !ok {
				notice := ctrl.Save(ctx)
				return navigation.Result{OK: true, Index: s.Index(), Notice: &notice}, f.notice(ctx, notice)
			}
		}

		result = f.submit(ctx, ctrl)
		if result.Notice != nil {
			if err := f.notice(ctx, *result.Notice); err != nil {
				return result, err
			}
		}
		if !result.OK && len(result.Issues) > 0 {
			if err := f.reportIssues(ctx, s.Schema(), result.Issues); err != nil {
				return result, err
			}
			continue
		}
		return result, nil
	}
}

func (f *Filler) intro(ctx context.Context, schema model.Schema) error {
	if schema.Title != "" {
		if err := f.driver.Info(ctx, headingColor(schema.Title)); err != nil {
			return err
		}
	}
	if schema.Description != "" {
		return f.driver.Info(ctx, subtleColor(schema.Description))
	}
	return nil
}

func (f *Filler) submit(ctx context.Context, ctrl *navigation.Controller) navigation.Result {
	if f.progress {
		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f.progressOut))
		sp.Suffix = " Submitting..."
		sp.Start()
		defer sp.Stop()
	}
	return ctrl.SubmitWithMeta(ctx, map[string]any{"userAgent": UserAgent})
}

func (f *Filler) notice(ctx context.Context, notice session.Notice) error {
	text := notice.Text
	switch notice.Kind {
	case session.NoticeSuccess:
		text = successColor(f.theme.InfoPrefix + text)
	case session.NoticeFailure:
		text = failureColor(f.theme.ErrorPrefix + text)
	default:
		text = f.theme.InfoPrefix + text
	}
	return f.driver.Info(ctx, text)
}

func (f *Filler) reportIssues(ctx context.Context, schema model.Schema, issues []validation.Issue) error {
	for _, issue := range issues {
		label := issue.Field
		if field, ok := schema.FieldByID(issue.Field); ok {
			label = field.DisplayLabel()
		}
		if err := f.driver.Info(ctx, failureColor(fmt.Sprintf("%s%s: %s", f.theme.ErrorPrefix, label, issue.Message))); err != nil {
			return err
		}
	}
	return nil
}

// fillSection prompts fields in order. Visibility is recomputed before each
// field so answers given earlier in the section reveal dependent fields.
func (f *Filler) fillSection(ctx context.Context, s *session.Session, section model.Section) error {
	evaluator := s.Evaluator()
	if evaluator == nil {
		evaluator = visibility.New()
	}
	for _, field := range section.Fields {
		if !evaluator.ShouldShow(field, visibility.Context{Values: s.Answers()}) {
			continue
		}
		if err := f.fillField(ctx, s, field); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillField(ctx context.Context, s *session.Session, field model.Field) error {
	for {
		current, _ := s.Value(field.ID)
		var err error
		switch spec := field.Spec.(type) {
		case model.MatrixSpec:
			err = f.fillMatrix(ctx, s, field, spec)
		case model.RepeatSpec:
			err = f.fillRepeat(ctx, s, field, spec)
		default:
			var value any
			value, err = f.ask(ctx, field, current)
			if err == nil {
				err = s.SetValue(field.ID, value)
			}
		}
		if err != nil {
			return err
		}

		msg, err := s.Touch(field.ID)
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		if err := f.driver.Info(ctx, failureColor(f.theme.ErrorPrefix+msg)); err != nil {
			return err
		}
	}
}

func (f *Filler) fillMatrix(ctx context.Context, s *session.Session, field model.Field, spec model.MatrixSpec) error {
	current, _ := s.Value(field.ID)
	selected, _ := model.StringMap(current)
	for _, row := range spec.Rows {
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      fmt.Sprintf("%s: %s", field.DisplayLabel(), row),
			Options:      spec.Columns,
			DefaultIndex: indexOf(spec.Columns, selected[row]),
			Help:         field.Help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(spec.Columns) {
			continue
		}
		if err := s.SetMatrixCell(field.ID, row, spec.Columns[idx]); err != nil {
			return err
		}
	}
	return nil
}

// fillRepeat offers removal of existing items, then adds items while the user
// confirms. Adding defaults to yes until MinItems is reached.
func (f *Filler) fillRepeat(ctx context.Context, s *session.Session, field model.Field, spec model.RepeatSpec) error {
	label := spec.Label()
	if spec.Hint != "" {
		if err := f.driver.Info(ctx, subtleColor(spec.Hint)); err != nil {
			return err
		}
	}

	for {
		count := itemCount(s, field.ID)
		if count == 0 {
			break
		}
		remove, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("%s has %d %s item(s). Remove one?", field.DisplayLabel(), count, label),
		})
		if err != nil {
			return err
		}
		if !remove {
			break
		}
		options := make([]string, count)
		for i := range options {
			options[i] = fmt.Sprintf("%s #%d", label, i+1)
		}
		idx, err := f.driver.Select(ctx, SelectConfig{Message: "Remove which item?", Options: options})
		if err != nil {
			return err
		}
		if err := s.RemoveItem(field.ID, idx); err != nil {
			return err
		}
	}

	minItems := 0
	if spec.MinItems != nil {
		minItems = *spec.MinItems
	}
	for {
		count := itemCount(s, field.ID)
		add, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add %s #%d to %s?", label, count+1, field.DisplayLabel()),
			Default: count < minItems || (field.Required && count == 0),
		})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}
		index, err := s.AppendItem(field.ID)
		if err != nil {
			return err
		}
		for _, sub := range spec.ItemFields {
			if err := f.fillItemField(ctx, s, field.ID, index, label, sub); err != nil {
				return err
			}
		}
	}
}

func (f *Filler) fillItemField(ctx context.Context, s *session.Session, fieldID string, index int, label string, sub model.ItemField) error {
	prompt := sub.Field()
	prompt.Label = fmt.Sprintf("%s #%d %s", label, index+1, sub.DisplayLabel())
	for {
		value, err := f.ask(ctx, prompt, nil)
		if err != nil {
			return err
		}
		if err := s.SetItemValue(fieldID, index, sub.ID, value); err != nil {
			return err
		}
		msg := validation.ValidateItem(sub, value)
		if msg == "" {
			return nil
		}
		if err := f.driver.Info(ctx, failureColor(f.theme.ErrorPrefix+msg)); err != nil {
			return err
		}
	}
}

// ask prompts for a single-valued field and returns the typed answer.
func (f *Filler) ask(ctx context.Context, field model.Field, current any) (any, error) {
	message := field.DisplayLabel()
	if field.Required {
		message += " *"
	}

	switch spec := field.Spec.(type) {
	case model.TextareaSpec:
		text, _ := current.(string)
		return f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: text, Help: field.Help})

	case model.ChoiceSpec:
		labels := make([]string, len(spec.Options))
		for i, opt := range spec.Options {
			labels[i] = opt.DisplayLabel()
		}
		if spec.Kind() == model.KindMulti {
			selected, _ := model.StringSlice(current)
			indices, err := f.driver.MultiSelect(ctx, SelectConfig{
				Message:  message,
				Options:  labels,
				Defaults: optionIndices(spec.Options, selected),
				Help:     field.Help,
			})
			if err != nil {
				return nil, err
			}
			values := make([]string, 0, len(indices))
			for _, i := range indices {
				if i >= 0 && i < len(spec.Options) {
					values = append(values, spec.Options[i].Value)
				}
			}
			return values, nil
		}
		text, _ := current.(string)
		values := make([]string, len(spec.Options))
		for i, opt := range spec.Options {
			values[i] = opt.Value
		}
		idx, err := f.pickOne(ctx, field, message, labels, indexOf(values, text))
		if err != nil || idx < 0 {
			return nil, err
		}
		return values[idx], nil

	case model.RatingSpec:
		levels := spec.Levels()
		labels := make([]string, levels)
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
		currentIdx := -1
		if n, ok := model.Number(current); ok {
			currentIdx = int(n) - 1
		}
		idx, err := f.pickOne(ctx, field, message, labels, currentIdx)
		if err != nil || idx < 0 {
			return nil, err
		}
		return idx + 1, nil

	default:
		raw, err := f.driver.Input(ctx, InputConfig{
			Message: message,
			Default: scalarString(current),
			Help:    field.Help,
			Validator: func(raw string) error {
				if msg := validation.Validate(field, inputValue(field, raw)); msg != "" {
					return errors.New(msg)
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
		return inputValue(field, raw), nil
	}
}

// pickOne shows a single select. Optional fields get a leading skip entry;
// choosing it returns -1.
func (f *Filler) pickOne(ctx context.Context, field model.Field, message string, labels []string, current int) (int, error) {
	options := labels
	offset := 0
	if !field.Required {
		options = append([]string{skipLabel}, labels...)
		offset = 1
	}
	defaultIdx := 0
	if current >= 0 {
		defaultIdx = current + offset
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      options,
		DefaultIndex: defaultIdx,
		Help:         field.Help,
	})
	if err != nil {
		return -1, err
	}
	idx -= offset
	if idx < 0 || idx >= len(labels) {
		return -1, nil
	}
	return idx, nil
}

// inputValue converts typed text to the stored answer: numbers parse, blank
// or unparsable numbers are absent.
func inputValue(field model.Field, raw string) any {
	if field.Kind() != model.KindNumber {
		return raw
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return n
}

func scalarString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	if n, ok := model.Number(value); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func optionIndices(options []model.Option, selected []string) []int {
	var out []int
	for _, value := range selected {
		for i, opt := range options {
			if opt.Value == value {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

func itemCount(s *session.Session, fieldID string) int {
	current, _ := s.Value(fieldID)
	items, _ := model.Items(current)
	return len(items)
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}
