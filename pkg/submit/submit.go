// Package submit posts completed payloads to the collector's /api/submit
// endpoint.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

// DefaultTimeout bounds a submit call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Path is the collector route payloads are posted to.
const Path = "/api/submit"

var (
	// ErrRejected reports a non-2xx response or a body without a truthy ok.
	ErrRejected = errors.New("submit: rejected by collector")
	// ErrTimeout reports that the collector did not answer in time.
	ErrTimeout = errors.New("submit: timed out")
	// ErrTransport reports a network or encoding failure.
	ErrTransport = errors.New("submit: transport failure")
)

// Receipt identifies the artifact the collector wrote.
type Receipt struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Submitter delivers a payload and returns the collector's receipt.
type Submitter interface {
	Submit(ctx context.Context, payload model.Payload) (Receipt, error)
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(ctx context.Context, payload model.Payload) (Receipt, error)

// Submit calls fn.
func (fn SubmitterFunc) Submit(ctx context.Context, payload model.Payload) (Receipt, error) {
	return fn(ctx, payload)
}

// HTTPSubmitter posts payloads as JSON over HTTP. It never retries.
type HTTPSubmitter struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ Submitter = (*HTTPSubmitter)(nil)

// Option configures an HTTPSubmitter.
type Option func(*HTTPSubmitter)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(h *HTTPSubmitter) {
		if client != nil {
			h.client = client
		}
	}
}

// WithTimeout bounds each submit call.
func WithTimeout(timeout time.Duration) Option {
	return func(h *HTTPSubmitter) {
		if timeout > 0 {
			h.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for submit outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(h *HTTPSubmitter) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New returns a submitter posting to baseURL + Path.
func New(baseURL string, options ...Option) *HTTPSubmitter {
	h := &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Endpoint returns the URL payloads are posted to.
func (h *HTTPSubmitter) Endpoint() string {
	return h.baseURL + Path
}

type response struct {
	OK    any    `json:"ok"`
	ID    string `json:"id"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Submit posts payload and waits at most the configured timeout.
func (h *HTTPSubmitter) Submit(ctx context.Context, payload model.Payload) (Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: encode payload: %v", ErrTransport, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Receipt{}, fmt.Errorf("%w after %s: %v", ErrTimeout, h.timeout, err)
		}
		return Receipt{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Receipt{}, fmt.Errorf("%w after %s: %v", ErrTimeout, h.timeout, err)
		}
		return Receipt{}, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}

	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Receipt{}, fmt.Errorf("%w: decode response: %v", ErrRejected, err)
	}
	if !truthy(decoded.OK) {
		if decoded.Error != "" {
			return Receipt{}, fmt.Errorf("%w: %s", ErrRejected, decoded.Error)
		}
		return Receipt{}, ErrRejected
	}

	h.logger.Info("submit: accepted", "schema", payload.SchemaID, "id", decoded.ID, "elapsed", time.Since(started))
	return Receipt{ID: decoded.ID, Path: decoded.Path}, nil
}

// truthy follows JSON truthiness: false, 0, "", null and absent are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
