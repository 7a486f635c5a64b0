// Package draft persists in-progress answers per questionnaire. Saves are
// best effort: storage failures are logged and swallowed so they never
// interrupt the person filling in the form, and a failed write leaves the
// previous draft intact.
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// KeyPrefix namespaces draft keys in the backend.
const KeyPrefix = "q:"

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("draft: backend closed")

// Backend is the durable key-value collaborator drafts are written to.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
}

// Store serializes answers into a Backend under namespaced keys.
type Store struct {
	backend Backend
	logger  *slog.Logger
	prefix  string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes swallowed storage failures to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeyPrefix overrides KeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewStore wraps backend. A nil backend keeps drafts in memory.
func NewStore(backend Backend, options ...Option) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		prefix:  KeyPrefix,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Key returns the backend key for a schema id.
func (s *Store) Key(schemaID string) string {
	return s.prefix + schemaID
}

// Save writes answers as the draft for schemaID. It reports whether the write
// succeeded; failures are logged, never returned.
func (s *Store) Save(ctx context.Context, schemaID string, answers model.Answers) bool {
	if answers == nil {
		answers = model.Answers{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		s.logger.Warn("draft: encode failed", "schema", schemaID, "error", err)
		return false
	}
	if err := s.backend.Put(ctx, s.Key(schemaID), data); err != nil {
		s.logger.Warn("draft: save failed", "schema", schemaID, "error", err)
		return false
	}
	s.logger.Debug("draft: saved", "schema", schemaID, "bytes", len(data))
	return true
}

// Load returns the stored draft for schemaID. ok is false when no draft
// exists or the stored bytes cannot be read or decoded.
func (s *Store) Load(ctx context.Context, schemaID string) (model.Answers, bool) {
	data, ok, err := s.backend.Get(ctx, s.Key(schemaID))
	if err != nil {
		s.logger.Warn("draft: load failed", "schema", schemaID, "error", err)
		return nil, false
	}
	if !ok || len(data) == 0 {
		return nil, false
	}
	var answers model.Answers
	if err := json.Unmarshal(data, &answers); err != nil || answers == nil {
		s.logger.Warn("draft: discarding unreadable draft", "schema", schemaID, "error", err)
		return nil, false
	}
	return answers, true
}
