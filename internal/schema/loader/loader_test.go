package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-questionnaire/pkg/schema"
)

const minimal = `{"id":"demo","title":"Demo","sections":[]}`

func TestLoaderSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(minimal))
	}))
	defer server.Close()

	l := New(schema.NewLoaderOptions(
		schema.WithFileSystem(fstest.MapFS{"schemas/demo.json": {Data: []byte(minimal)}}),
		schema.WithHTTPFallback(time.Second),
	))

	sources := map[string]schema.Source{
		"file":   schema.SourceFromFile(path),
		"fs":     schema.SourceFromFS("schemas/demo.json"),
		"url":    schema.SourceFromURL(server.URL + "/schema.json"),
		"inline": schema.SourceFromBytes("posted", []byte(minimal)),
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			doc, err := l.Load(context.Background(), src)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if string(doc.Raw()) != minimal {
				t.Fatalf("unexpected payload %q", doc.Raw())
			}
			if doc.Location() != src.Location() {
				t.Fatalf("location mismatch: %q vs %q", doc.Location(), src.Location())
			}
		})
	}
}

func TestLoaderHTTPDisabledByDefault(t *testing.T) {
	l := New(schema.LoaderOptions{})
	_, err := l.Load(context.Background(), schema.SourceFromURL("http://example.invalid/schema.json"))
	if err == nil || !strings.Contains(err.Error(), "http support disabled") {
		t.Fatalf("expected http disabled error, got %v", err)
	}
}

func TestLoaderHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(server.Client())))
	_, err := l.Load(context.Background(), schema.SourceFromURL(server.URL))
	if err == nil || !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLoaderRejectsEmptyDocument(t *testing.T) {
	l := New(schema.LoaderOptions{})
	if _, err := l.Load(context.Background(), schema.SourceFromBytes("blank", []byte("  \n"))); err == nil {
		t.Fatalf("expected empty document error")
	}
}
