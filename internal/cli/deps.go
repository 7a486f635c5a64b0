package cli

import (
	"context"
	"fmt"
	"time"

	questionnaire "github.com/goliatone/go-questionnaire"
	"github.com/goliatone/go-questionnaire/internal/config"
	"github.com/goliatone/go-questionnaire/pkg/draft"
	"github.com/goliatone/go-questionnaire/pkg/model"
	"github.com/goliatone/go-questionnaire/pkg/schema"
)

const remoteSchemaTimeout = 10 * time.Second

// loadSchema reads the schema at location, or the built-in sample when
// location is empty.
func loadSchema(ctx context.Context, location string) (model.Schema, error) {
	if location == "" {
		return questionnaire.SampleSchema(), nil
	}
	return questionnaire.LoadSchema(ctx, location, schema.WithHTTPFallback(remoteSchemaTimeout))
}

// openDrafts builds the configured draft store. The returned close function
// releases the backend and is never nil.
func (a *app) openDrafts(ctx context.Context) (*draft.Store, func() error, error) {
	noop := func() error { return nil }
	cfg := a.cfg.Drafts

	var (
		backend draft.Backend
		closer  = noop
	)
	switch cfg.Backend {
	case config.BackendMemory:
		backend = draft.NewMemoryBackend()
	case config.BackendFile:
		fb, err := draft.NewFileBackend(cfg.Path)
		if err != nil {
			return nil, noop, fmt.Errorf("drafts: %w", err)
		}
		backend = fb
	case config.BackendSQLite:
		sb, err := draft.NewSQLiteBackend(cfg.Path, draft.WithMkdirAll())
		if err != nil {
			return nil, noop, fmt.Errorf("drafts: %w", err)
		}
		backend, closer = sb, sb.Close
	case config.BackendRedis:
		rb, err := draft.NewRedisBackend(ctx, draft.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("drafts: %w", err)
		}
		backend, closer = rb, rb.Close
	default:
		return nil, noop, fmt.Errorf("drafts: unknown backend %q", cfg.Backend)
	}

	a.logger.Debug("drafts: backend ready", "backend", cfg.Backend, "path", cfg.Path)
	return draft.NewStore(backend, draft.WithLogger(a.logger)), closer, nil
}

func countFields(s model.Schema) int {
	n := 0
	for _, section := range s.Sections {
		n += len(section.Fields)
	}
	return n
}
