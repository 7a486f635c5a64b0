// Package collector receives submitted payloads over HTTP and writes each one
// to a JSON artifact. It can also serve a static front end from the same
// origin.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/submit"
)

const (
	// SubmitPath is the route payloads are posted to.
	SubmitPath = "/api/submit"

	// MaxBodyBytes caps the size of a submitted payload.
	MaxBodyBytes = 10 << 20

	// DefaultSubmissionsDir is where artifacts are written when no directory
	// is configured.
	DefaultSubmissionsDir = "submissions"
)

const (
	fallbackID      = "submission"
	timestampLayout = "20060102-150405"
)

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ErrRateLimited is returned by Submit when the rate limit is exhausted.
var ErrRateLimited = errors.New("collector: rate limit exceeded")

var _ submit.Submitter = (*Server)(nil)

// Response is the JSON body of a submit reply.
type Response struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server is the submission collector.
type Server struct {
	dir     string
	static  fs.FS
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithSubmissionsDir sets the directory artifacts are written to.
func WithSubmissionsDir(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// WithStatic serves files from files for every GET that is not an API route.
func WithStatic(files fs.FS) Option {
	return func(s *Server) {
		s.static = files
	}
}

// WithStaticDir serves files from a directory on disk.
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.static = os.DirFS(dir)
		}
	}
}

// WithRateLimit limits submissions to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for artifact names.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a collector.
func New(options ...Option) *Server {
	s := &Server{
		dir:    DefaultSubmissionsDir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Dir returns the submissions directory.
func (s *Server) Dir() string { return s.dir }

// Handler returns a standalone router: CORS and request logging on every
// response, the submit route, and static files when configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(Logging(s.logger))
	r.Use(CORS)
	s.Routes(r)
	if s.static != nil {
		r.Get("/*", s.serveStatic)
		r.Head("/*", s.serveStatic)
	}
	return r
}

// Routes registers the submit route on r so another router can host the
// collector on its own origin.
func (s *Server) Routes(r chi.Router) {
	r.With(s.rateLimit).Post(SubmitPath, s.handleSubmit)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Response{Error: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, Response{Error: err.Error()})
		return
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	if !json.Valid(raw) {
		var body any
		err := json.Unmarshal(raw, &body)
		writeJSON(w, http.StatusBadRequest, Response{Error: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}

	name, err := s.store(raw)
	if err != nil {
		s.logger.Error("collector: write artifact", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Error: "could not store submission"})
		return
	}
	s.logger.Info("collector: stored submission", "artifact", name, "bytes", len(raw))
	writeJSON(w, http.StatusOK, Response{OK: true, ID: name, Path: DefaultSubmissionsDir + "/" + name})
}

// Submit stores payload in process, as a POST to SubmitPath would. It lets a
// server that hosts the collector submit without a network round trip.
func (s *Server) Submit(ctx context.Context, payload model.Payload) (submit.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return submit.Receipt{}, err
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return submit.Receipt{}, ErrRateLimited
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return submit.Receipt{}, fmt.Errorf("collector: encode payload: %w", err)
	}
	name, err := s.store(raw)
	if err != nil {
		return submit.Receipt{}, err
	}
	s.logger.Info("collector: stored submission", "artifact", name, "bytes", len(raw))
	return submit.Receipt{ID: name, Path: DefaultSubmissionsDir + "/" + name}, nil
}

// store writes the payload pretty-printed, keeping the submitted key order.
func (s *Server) store(raw []byte) (string, error) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return "", fmt.Errorf("collector: indent payload: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("collector: create submissions dir: %w", err)
	}
	name := ArtifactName(ArtifactID(raw), s.now())
	if err := os.WriteFile(filepath.Join(s.dir, name), pretty.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("collector: write %s: %w", name, err)
	}
	return name, nil
}

// ArtifactID derives the artifact id from a payload: schemaId, then the
// legacy id key, with unsafe character runs replaced by "_". Payloads without
// either get "submission".
func ArtifactID(raw []byte) string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fallbackID
	}
	for _, key := range []string{"schemaId", "id"} {
		if id := idText(doc[key]); id != "" {
			return SanitizeID(id)
		}
	}
	return fallbackID
}

func idText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// SanitizeID replaces every run of characters outside [A-Za-z0-9_-] with "_".
func SanitizeID(id string) string {
	return unsafeIDChars.ReplaceAllString(id, "_")
}

// ArtifactName is "{id}-{YYYYMMDD-HHMMSS}.json" in local time.
func ArtifactName(id string, at time.Time) string {
	return fmt.Sprintf("%s-%s.json", id, at.Local().Format(timestampLayout))
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, Response{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
