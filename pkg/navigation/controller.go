// Package navigation moves a session between sections and submits it. Forward
// moves are gated on the current section validating; backward moves and
// jumps are not.
package navigation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/submit"
	"github.com/goliatone/go-questionnaire/pkg/validation"
	"github.com/goliatone/go-questionnaire/pkg/visibility"
)

const (
	TextSubmitted   = "Submission received."
	TextSubmitFail  = "Submission failed. Make sure the collector is running and try again."
	TextDraftSaved  = "Draft saved"
	TextDraftFailed = "Draft could not be saved."
)

// ErrNoSubmitter is logged when Submit runs without a configured submitter.
var ErrNoSubmitter = errors.New("navigation: no submitter configured")

// Result describes the outcome of a navigation or submit attempt.
type Result struct {
	OK      bool
	Index   int
	Issues  []validation.Issue
	Notice  *session.Notice
	Receipt *submit.Receipt
	Payload *model.Payload
}

// SidebarItem is one entry of the section list.
type SidebarItem struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Active    bool   `json:"active"`
	Completed bool   `json:"completed"`
}

// Controller drives a Session through its sections.
type Controller struct {
	session   *session.Session
	submitter submit.Submitter
	timeout   time.Duration
	meta      map[string]any
	logger    *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the collaborator payloads are handed to.
func WithSubmitter(submitter submit.Submitter) Option {
	return func(c *Controller) {
		c.submitter = submitter
	}
}

// WithSubmitTimeout bounds the submit call. Default: submit.DefaultTimeout.
func WithSubmitTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMeta adds a constant entry to every payload's meta object.
func WithMeta(key string, value any) Option {
	return func(c *Controller) {
		c.meta[key] = value
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a controller for s.
func New(s *session.Session, options ...Option) *Controller {
	c := &Controller{
		session: s,
		timeout: submit.DefaultTimeout,
		meta:    make(map[string]any),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Session returns the controlled session.
func (c *Controller) Session() *session.Session { return c.session }

func visibleIDs(section model.Section, answers model.Answers, evaluator visibility.Evaluator) []string {
	fields := visibility.VisibleFields(section, answers, evaluator)
	ids := make([]string, len(fields))
	for i, field := range fields {
		ids[i] = field.ID
	}
	return ids
}

// GoNext validates the current section's visible fields and marks them
// touched. It advances only when all of them pass, stopping at the last
// section.
func (c *Controller) GoNext() Result {
	c.session.ClearNotice()
	snap := c.session.Snapshot()
	if len(snap.Schema.Sections) == 0 {
		return Result{OK: true}
	}
	section := snap.Schema.Sections[snap.Index]
	evaluator := c.session.Evaluator()

	c.session.MarkTouched(visibleIDs(section, snap.Answers, evaluator)...)
	result := validation.Section(section, snap.Answers, evaluator)
	if !result.Valid {
		return Result{OK: false, Index: snap.Index, Issues: result.Issues}
	}
	return Result{OK: true, Index: c.session.SetIndex(snap.Index + 1)}
}

// GoPrev moves back one section, stopping at the first.
func (c *Controller) GoPrev() Result {
	c.session.ClearNotice()
	return Result{OK: true, Index: c.session.SetIndex(c.session.Index() - 1)}
}

// JumpTo moves to section i without validating. Out-of-range indices are
// clamped.
func (c *Controller) JumpTo(i int) Result {
	c.session.ClearNotice()
	return Result{OK: true, Index: c.session.SetIndex(i)}
}

// Save writes the draft immediately and records a notice.
func (c *Controller) Save(ctx context.Context) session.Notice {
	if c.session.SaveDraft(ctx) {
		return c.session.SetNotice(session.NoticeInfo, TextDraftSaved)
	}
	return c.session.SetNotice(session.NoticeFailure, TextDraftFailed)
}

// Submit validates every section in order and submits the payload.
func (c *Controller) Submit(ctx context.Context) Result {
	return c.SubmitWithMeta(ctx, nil)
}

// SubmitWithMeta is Submit with extra per-call meta entries (for example the
// request's user agent). On the first section that fails, it jumps there,
// marks its visible fields touched and returns without submitting. Otherwise
// it builds the payload, saves the draft and hands the payload to the
// submitter. The draft is kept either way.
func (c *Controller) SubmitWithMeta(ctx context.Context, extra map[string]any) Result {
	c.session.ClearNotice()
	snap := c.session.Snapshot()
	evaluator := c.session.Evaluator()

	for i, section := range snap.Schema.Sections {
		result := validation.Section(section, snap.Answers, evaluator)
		if result.Valid {
			continue
		}
		c.session.SetIndex(i)
		c.session.MarkTouched(visibleIDs(section, snap.Answers, evaluator)...)
		c.logger.Debug("navigation: submit blocked", "schema", snap.Schema.ID, "section", section.ID, "issues", len(result.Issues))
		return Result{OK: false, Index: i, Issues: result.Issues}
	}

	payload := c.buildPayload(snap, extra)
	c.session.SetLastPayload(payload)
	c.session.SaveDraft(ctx)

	receipt, err := c.deliver(ctx, payload)
	if err != nil {
		c.logger.Warn("navigation: submit failed", "schema", payload.SchemaID, "error", err)
		notice := c.session.SetNotice(session.NoticeFailure, TextSubmitFail)
		return Result{OK: false, Index: snap.Index, Notice: &notice, Payload: &payload}
	}
	c.logger.Info("navigation: submitted", "schema", payload.SchemaID, "artifact", receipt.ID)
	notice := c.session.SetNotice(session.NoticeSuccess, TextSubmitted)
	return Result{OK: true, Index: snap.Index, Notice: &notice, Receipt: &receipt, Payload: &payload}
}

func (c *Controller) deliver(ctx context.Context, payload model.Payload) (submit.Receipt, error) {
	if c.submitter == nil {
		return submit.Receipt{}, ErrNoSubmitter
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.submitter.Submit(ctx, payload)
}

func (c *Controller) buildPayload(snap session.Snapshot, extra map[string]any) model.Payload {
	meta := map[string]any{"sessionId": snap.ID}
	for k, v := range c.meta {
		meta[k] = v
	}
	for k, v := range extra {
		meta[k] = v
	}
	return model.Payload{
		SchemaID:    snap.Schema.ID,
		Title:       snap.Schema.Title,
		SubmittedAt: c.session.Now().UTC(),
		Answers:     snap.Answers,
		Meta:        meta,
	}
}

// Sidebar lists every section with its active and completed flags.
func (c *Controller) Sidebar() []SidebarItem {
	return Sidebar(c.session.Snapshot(), c.session.Evaluator())
}

// Sidebar computes the section list for a snapshot.
func Sidebar(snap session.Snapshot, evaluator visibility.Evaluator) []SidebarItem {
	items := make([]SidebarItem, len(snap.Schema.Sections))
	for i, section := range snap.Schema.Sections {
		items[i] = SidebarItem{
			Index:     i,
			ID:        section.ID,
			Title:     section.Title,
			Active:    i == snap.Index,
			Completed: validation.Complete(section, snap.Answers, evaluator),
		}
	}
	return items
}
