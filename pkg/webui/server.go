// Package webui serves a questionnaire as plain HTML forms. Each browser gets
// its own session, keyed by a cookie; every post applies the submitted values
// to the session, runs the requested action and redirects back to the page.
package webui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/goliatone/go-questionnaire/pkg/collector"
	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/navigation"
	"github.com/goliatone/go-questionnaire/pkg/render"
	"github.com/goliatone/go-questionnaire/pkg/renderers/html"
	"github.com/goliatone/go-questionnaire/pkg/renderers/jsonview"
	"github.com/goliatone/go-questionnaire/pkg/session"
	"github.com/goliatone/go-questionnaire/pkg/submit"
)

const (
	// CookieName holds the session id.
	CookieName = "questionnaire_session"

	// MaxFormBytes caps a posted form.
	MaxFormBytes = 1 << 20

	// MaxSchemaBytes caps an uploaded schema or import document.
	MaxSchemaBytes = 10 << 20

	// DefaultSessionTTL is how long an idle session stays in memory.
	DefaultSessionTTL = 2 * time.Hour

	// DefaultMaxSessions caps the number of sessions held in memory.
	DefaultMaxSessions = 10000

	sweepInterval = time.Minute
)

// ErrInvalidAction is returned for a malformed action button value.
var ErrInvalidAction = errors.New("webui: invalid action")

// Server is the HTML front end.
type Server struct {
	mu        sync.Mutex
	schema    model.Schema
	sessions  map[string]*entry
	lastSweep time.Time

	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	registry  *render.Registry
	extra     []render.Renderer
	saver     *draft.AsyncSaver
	store     *draft.Store
	submitter submit.Submitter
	collector *collector.Server
	timeout   time.Duration
	logger    *slog.Logger
}

type entry struct {
	sess *session.Session
	seen time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithRenderer registers an additional output format, selectable with
// ?format=name.
func WithRenderer(renderer render.Renderer) Option {
	return func(s *Server) {
		if renderer != nil {
			s.extra = append(s.extra, renderer)
		}
	}
}

// WithDrafts saves session drafts in the background through saver.
func WithDrafts(saver *draft.AsyncSaver) Option {
	return func(s *Server) {
		s.saver = saver
	}
}

// WithDraftStore saves session drafts synchronously through store.
func WithDraftStore(store *draft.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithSubmitter sets where payloads go. Without one, payloads are stored
// by the collector given to WithCollector; with neither, submits fail.
func WithSubmitter(submitter submit.Submitter) Option {
	return func(s *Server) {
		s.submitter = submitter
	}
}

// WithCollector mounts the collector's submit route on the same router.
func WithCollector(c *collector.Server) Option {
	return func(s *Server) {
		s.collector = c
	}
}

// WithSessionTTL drops sessions idle for longer than ttl. Their drafts stay
// in the draft store.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxSessions caps the sessions held in memory; the least recently seen
// one is dropped to make room.
func WithMaxSessions(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithClock overrides the time source used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSubmitTimeout bounds each submit call.
func WithSubmitTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets the server logger; sessions and controllers share it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a server whose new sessions start on schema.
func New(schema model.Schema, options ...Option) (*Server, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("webui: default schema: %w", err)
	}
	s := &Server{
		schema:      schema,
		sessions:    make(map[string]*entry),
		ttl:         DefaultSessionTTL,
		maxSessions: DefaultMaxSessions,
		now:         time.Now,
		registry:    render.NewRegistry(),
		timeout:     submit.DefaultTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.submitter == nil && s.collector != nil {
		s.submitter = s.collector
	}

	htmlRenderer, err := html.New()
	if err != nil {
		return nil, fmt.Errorf("webui: html renderer: %w", err)
	}
	for _, renderer := range append([]render.Renderer{htmlRenderer, jsonview.New()}, s.extra...) {
		if err := s.registry.Register(renderer); err != nil {
			return nil, fmt.Errorf("webui: %w", err)
		}
	}
	return s, nil
}

// Handler returns the router: the questionnaire page, schema replacement,
// payload download, the embedded stylesheet and, when configured, the
// collector's submit route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(collector.Logging(s.logger))

	r.Get("/", s.handleView)
	r.Post("/", s.handleForm)
	r.Post("/schema", s.handleSchema)
	r.Post("/import/qq", s.handleImport)
	r.Get("/payload.json", s.handlePayload)
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(html.AssetsFS()))))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if s.collector != nil {
		r.Group(func(r chi.Router) {
			r.Use(collector.CORS)
			s.collector.Routes(r)
		})
	}
	return r
}

// Schema returns the schema new sessions start on.
func (s *Server) Schema() model.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Session returns a live session by id and marks it as seen.
func (s *Server) Session(id string) (*session.Session, bool) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(e.seen) > s.ttl {
		delete(s.sessions, id)
		return nil, false
	}
	e.seen = now
	return e.sess, true
}

// Sessions reports how many sessions are held in memory.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) setSchema(schema model.Schema) {
	s.mu.Lock()
	s.schema = schema
	s.mu.Unlock()
}

// sessionFor resolves the caller's session from the cookie, then the
// _session form value. A cookie carrying the id of a session that has
// expired brings it back with its draft. Otherwise a POST gets a new stored
// session and a cookie, and any other request gets a throwaway session that
// is never stored. The second result reports whether the id came from the
// cookie.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	cookieID := ""
	if cookie, err := r.Cookie(CookieName); err == nil {
		cookieID = cookie.Value
		if sess, ok := s.Session(cookieID); ok {
			return sess, true
		}
	}
	if id := r.FormValue(render.SessionFieldName); id != "" {
		if sess, ok := s.Session(id); ok {
			return sess, false
		}
	}
	if parsed, err := uuid.Parse(cookieID); err == nil && parsed.String() == cookieID {
		return s.newSession(r.Context(), cookieID), true
	}
	if r.Method != http.MethodPost {
		return session.New(r.Context(), s.Schema(), session.WithLogger(s.logger)), false
	}

	sess := s.newSession(r.Context(), uuid.NewString())
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, false
}

// newSession creates and stores a session whose drafts are kept under its
// own id.
func (s *Server) newSession(ctx context.Context, id string) *session.Session {
	options := []session.Option{
		session.WithID(id),
		session.WithDraftScope(id),
		session.WithLogger(s.logger),
	}
	switch {
	case s.saver != nil:
		options = append(options, session.WithDrafts(s.saver))
	case s.store != nil:
		options = append(options, session.WithDraftStore(s.store))
	}
	sess := session.New(ctx, s.Schema(), options...)

	now := s.now()
	s.mu.Lock()
	s.sweepLocked(now)
	for len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}
	s.sessions[id] = &entry{sess: sess, seen: now}
	s.mu.Unlock()
	s.logger.Debug("webui: session created", "session", id)
	return sess
}

// sweepLocked drops idle sessions, at most once per sweepInterval. Callers
// hold mu.
func (s *Server) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, e := range s.sessions {
		if now.Sub(e.seen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *Server) evictOldestLocked() {
	oldest := ""
	var seen time.Time
	for id, e := range s.sessions {
		if oldest == "" || e.seen.Before(seen) {
			oldest, seen = id, e.seen
		}
	}
	delete(s.sessions, oldest)
	s.logger.Debug("webui: session evicted", "session", oldest)
}

func (s *Server) controller(sess *session.Session) *navigation.Controller {
	return navigation.New(sess,
		navigation.WithSubmitter(s.submitter),
		navigation.WithSubmitTimeout(s.timeout),
		navigation.WithLogger(s.logger),
	)
}
