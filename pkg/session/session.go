// Package session owns the answer state of one person filling in one
// questionnaire: the schema in use, the answers, the current section, which
// fields have been touched and the last notice. Every mutation schedules a
// draft save. A Session is safe for concurrent use.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/visibility"
)

// NoticeKind classifies a transient status message.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient status message shown after save or submit.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
	At   time.Time  `json:"at"`
}

// Snapshot is an immutable copy of the session state for rendering.
type Snapshot struct {
	ID          string
	Schema      model.Schema
	Answers     model.Answers
	Index       int
	Touched     map[string]bool
	Notice      *Notice
	LastPayload *model.Payload
}

// Session holds the mutable state behind a questionnaire.
type Session struct {
	mu sync.Mutex

	id        string
	schema    model.Schema
	answers   model.Answers
	index     int
	touched   map[string]bool
	notice    *Notice
	payload   *model.Payload
	store     *draft.Store
	saver     *draft.AsyncSaver
	scope     string
	evaluator visibility.Evaluator
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithDrafts saves drafts in the background through saver and loads them from
// its store.
func WithDrafts(saver *draft.AsyncSaver) Option {
	return func(s *Session) {
		if saver != nil {
			s.saver = saver
			s.store = saver.Store()
		}
	}
}

// WithDraftStore saves drafts synchronously through store.
func WithDraftStore(store *draft.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
			s.saver = nil
		}
	}
}

// WithDraftScope keeps this session's drafts apart from other sessions that
// share the same store. Drafts are stored per scope and schema id; an empty
// scope stores them per schema id only.
func WithDraftScope(scope string) Option {
	return func(s *Session) {
		s.scope = scope
	}
}

// WithEvaluator overrides the visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(s *Session) {
		if evaluator != nil {
			s.evaluator = evaluator
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID sets the session identifier. Defaults to a random UUID.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithClock overrides the time source used for notices.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a session for schema and restores its draft, if any.
func New(ctx context.Context, schema model.Schema, options ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		schema:    schema,
		touched:   make(map[string]bool),
		evaluator: visibility.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.store == nil {
		s.store = draft.NewStore(nil, draft.WithLogger(s.logger))
	}
	s.answers = s.loadDraft(ctx, schema.ID)
	return s
}

// draftID is the id drafts for schemaID are stored under.
func (s *Session) draftID(schemaID string) string {
	if s.scope == "" {
		return schemaID
	}
	return s.scope + ":" + schemaID
}

func (s *Session) loadDraft(ctx context.Context, schemaID string) model.Answers {
	answers, ok := s.store.Load(ctx, s.draftID(schemaID))
	if !ok {
		return model.Answers{}
	}
	s.logger.Debug("session: restored draft", "session", s.id, "schema", schemaID, "answers", len(answers))
	return answers
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Evaluator returns the visibility evaluator in use.
func (s *Session) Evaluator() visibility.Evaluator { return s.evaluator }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Now returns the session clock's current time.
func (s *Session) Now() time.Time { return s.now() }

// Schema returns the schema currently in use.
func (s *Session) Schema() model.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Answers returns a deep copy of the current answers.
func (s *Session) Answers() model.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// Value returns a copy of one stored answer.
func (s *Session) Value(fieldID string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.answers[fieldID]
	if !ok {
		return nil, false
	}
	return model.Answers{fieldID: value}.Clone()[fieldID], true
}

// Index returns the current section index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// IsTouched reports whether the field has been blurred or validated.
func (s *Session) IsTouched(fieldID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched[fieldID]
}

// Snapshot copies the state needed to render the current section.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool, len(s.touched))
	for id := range s.touched {
		touched[id] = true
	}
	snap := Snapshot{
		ID:      s.id,
		Schema:  s.schema,
		Answers: s.answers.Clone(),
		Index:   s.index,
		Touched: touched,
	}
	if s.notice != nil {
		notice := *s.notice
		snap.Notice = &notice
	}
	if s.payload != nil {
		payload := *s.payload
		payload.Answers = payload.Answers.Clone()
		snap.LastPayload = &payload
	}
	return snap
}

// SetIndex moves to section i, clamped to the valid range.
func (s *Session) SetIndex(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = clamp(i, len(s.schema.Sections))
	return s.index
}

func clamp(i, count int) int {
	if i >= count {
		i = count - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// MarkTouched adds ids to the touched set.
func (s *Session) MarkTouched(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.touched[id] = true
	}
}

// Notice returns the last notice, if any.
func (s *Session) Notice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	return *s.notice, true
}

// SetNotice records a notice stamped with the session clock.
func (s *Session) SetNotice(kind NoticeKind, text string) Notice {
	notice := Notice{Kind: kind, Text: text, At: s.now()}
	s.mu.Lock()
	s.notice = &notice
	s.mu.Unlock()
	return notice
}

// ClearNotice drops the last notice.
func (s *Session) ClearNotice() {
	s.mu.Lock()
	s.notice = nil
	s.mu.Unlock()
}

// LastPayload returns the payload built by the most recent submit attempt.
func (s *Session) LastPayload() (model.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return model.Payload{}, false
	}
	payload := *s.payload
	payload.Answers = payload.Answers.Clone()
	return payload, true
}

// SetLastPayload records the payload built for a submit attempt.
func (s *Session) SetLastPayload(payload model.Payload) {
	payload.Answers = payload.Answers.Clone()
	s.mu.Lock()
	s.payload = &payload
	s.mu.Unlock()
}

// SaveDraft writes the current answers synchronously and reports whether the
// write succeeded. Pending background saves are flushed first so they cannot
// overwrite this one.
func (s *Session) SaveDraft(ctx context.Context) bool {
	if s.saver != nil {
		if err := s.saver.Flush(ctx); err != nil {
			s.logger.Warn("session: flush pending drafts", "session", s.id, "error", err)
		}
	}
	s.mu.Lock()
	id := s.draftID(s.schema.ID)
	answers := s.answers.Clone()
	s.mu.Unlock()
	return s.store.Save(ctx, id, answers)
}

// ReplaceSchema swaps the whole schema, resets navigation to the first
// section, clears touched fields and loads the draft stored for the new
// schema id once queued background saves are written. A schema without sections is ignored and false is returned.
func (s *Session) ReplaceSchema(ctx context.Context, schema model.Schema) bool {
	if schema.Sections == nil {
		s.logger.Debug("session: ignoring schema without sections", "session", s.id)
		return false
	}
	if s.saver != nil {
		if err := s.saver.Flush(ctx); err != nil {
			s.logger.Warn("session: flush pending drafts", "session", s.id, "error", err)
		}
	}
	answers := s.loadDraft(ctx, schema.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
	s.answers = answers
	s.index = 0
	s.touched = make(map[string]bool)
	s.notice = nil
	s.payload = nil
	s.logger.Info("session: schema replaced", "session", s.id, "schema", schema.ID, "sections", len(schema.Sections))
	return true
}

// ReplaceSchemaJSON decodes raw and replaces the schema. A document without a
// sections key is ignored without error.
func (s *Session) ReplaceSchemaJSON(ctx context.Context, raw []byte) (bool, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("session: decode schema: %w", err)
	}
	if _, ok := doc["sections"]; !ok {
		return false, nil
	}
	var schema model.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return false, fmt.Errorf("session: decode schema: %w", err)
	}
	return s.ReplaceSchema(ctx, schema), nil
}

// persistLocked schedules a draft save of the current answers. Callers hold mu.
func (s *Session) persistLocked() {
	id := s.draftID(s.schema.ID)
	if s.saver != nil {
		s.saver.Save(id, s.answers)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.store.Save(ctx, id, s.answers)
}
