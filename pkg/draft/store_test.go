package draft

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-questionnaire/pkg/model"
)

func sampleAnswers() model.Answers {
	return model.Answers{
		"name":   "Ada",
		"age":    36.0,
		"tags":   []string{"a", "b"},
		"grid":   map[string]string{"r1": "c2"},
		"score":  4,
		"papers": []map[string]any{{"title": "On Engines", "year": 1843.0}},
	}
}

// roundTripped is what sampleAnswers looks like after a JSON round trip.
func roundTripped() model.Answers {
	return model.Answers{
		"name":   "Ada",
		"age":    36.0,
		"tags":   []any{"a", "b"},
		"grid":   map[string]any{"r1": "c2"},
		"score":  4.0,
		"papers": []any{map[string]any{"title": "On Engines", "year": 1843.0}},
	}
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	files, err := NewFileBackend(filepath.Join(t.TempDir(), "drafts"))
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	memDB, err := NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatalf("sqlite memory backend: %v", err)
	}
	t.Cleanup(func() { _ = memDB.Close() })
	fileDB, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "nested", "drafts.db"), WithMkdirAll())
	if err != nil {
		t.Fatalf("sqlite file backend: %v", err)
	}
	t.Cleanup(func() { _ = fileDB.Close() })

	out := map[string]Backend{
		"memory":        NewMemoryBackend(),
		"file":          files,
		"sqlite-memory": memDB,
		"sqlite-file":   fileDB,
	}
	if addr := os.Getenv("QUESTIONNAIRE_TEST_REDIS_ADDR"); addr != "" {
		rdb, err := NewRedisBackend(context.Background(), RedisOptions{Addr: addr})
		if err != nil {
			t.Fatalf("redis backend: %v", err)
		}
		t.Cleanup(func() { _ = rdb.Close() })
		out["redis"] = rdb
	}
	return out
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(backend)
			schemaID := "roundtrip-" + name

			if _, ok := store.Load(ctx, schemaID); ok {
				t.Fatalf("expected no draft before first save")
			}
			if !store.Save(ctx, schemaID, sampleAnswers()) {
				t.Fatalf("save reported failure")
			}
			got, ok := store.Load(ctx, schemaID)
			if !ok {
				t.Fatalf("expected draft after save")
			}
			if diff := cmp.Diff(roundTripped(), got); diff != "" {
				t.Fatalf("draft mismatch (-want +got):\n%s", diff)
			}

			if !store.Save(ctx, schemaID, model.Answers{"name": "Grace"}) {
				t.Fatalf("overwrite reported failure")
			}
			got, _ = store.Load(ctx, schemaID)
			if diff := cmp.Diff(model.Answers{"name": "Grace"}, got); diff != "" {
				t.Fatalf("overwrite mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreUsesPrefixedKey(t *testing.T) {
	backend := NewMemoryBackend()
	store := NewStore(backend)
	store.Save(context.Background(), "intake", model.Answers{"a": "b"})

	if diff := cmp.Diff([]string{"q:intake"}, backend.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreLoadIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)

	for _, raw := range []string{"not json", "[1,2,3]", "null", ""} {
		if err := backend.Put(ctx, store.Key("broken"), []byte(raw)); err != nil {
			t.Fatalf("put: %v", err)
		}
		if _, ok := store.Load(ctx, "broken"); ok {
			t.Fatalf("expected %q to read as no draft", raw)
		}
	}
}

type failingBackend struct {
	*MemoryBackend
	failPut bool
	failGet bool
}

func (f *failingBackend) Put(ctx context.Context, key string, data []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Put(ctx, key, data)
}

func (f *failingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.failGet {
		return nil, false, errors.New("unavailable")
	}
	return f.MemoryBackend.Get(ctx, key)
}

func TestStoreSwallowsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{MemoryBackend: NewMemoryBackend()}
	store := NewStore(backend)

	if !store.Save(ctx, "s", model.Answers{"name": "first"}) {
		t.Fatalf("initial save should succeed")
	}

	backend.failPut = true
	if store.Save(ctx, "s", model.Answers{"name": "second"}) {
		t.Fatalf("expected failed save to report false")
	}
	backend.failPut = false

	got, ok := store.Load(ctx, "s")
	if !ok || got["name"] != "first" {
		t.Fatalf("failed write must keep previous draft, got %v %v", got, ok)
	}

	backend.failGet = true
	if _, ok := store.Load(ctx, "s"); ok {
		t.Fatalf("read failure should load as no draft")
	}
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	store := NewStore(backend)
	for i := 0; i < 3; i++ {
		store.Save(context.Background(), "intake", model.Answers{"n": float64(i)})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		t.Fatalf("expected a single draft file, got %v", names)
	}
}

func TestSQLiteBackendClosed(t *testing.T) {
	backend, err := NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := backend.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := backend.Put(context.Background(), "k", []byte("{}")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewRedisBackendRequiresAddr(t *testing.T) {
	if _, err := NewRedisBackend(context.Background(), RedisOptions{}); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
