package source

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/hopgraph/pkg/cache"
	"github.com/matzehuels/hopgraph/pkg/errors"
)

const doc = `{"runs":[{"start_article":"A","destination_article":"B","steps":[{"article":"A"},{"article":"B"}]}]}`

func TestOpenKinds(t *testing.T) {
	tests := []struct {
		arg  string
		name string
	}{
		{"-", "stdin"},
		{"runs.json", "runs.json"},
		{"https://example.org/r.json", "https://example.org/r.json"},
		{"hf://datasets/org/traces/final.json", "https://huggingface.co/datasets/org/traces/resolve/main/final.json"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			src, err := Open(tt.arg, Options{})
			if err != nil {
				t.Fatalf("Open(%q) error: %v", tt.arg, err)
			}
			if got := src.Name(); got != tt.name {
				t.Errorf("Name() = %q, want %q", got, tt.name)
			}
		})
	}

	if _, err := Open("", Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty arg code = %v", errors.GetCode(err))
	}
}

func TestHubURL(t *testing.T) {
	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{"hf://datasets/org/traces/a/b.json", "https://huggingface.co/datasets/org/traces/resolve/main/a/b.json", false},
		{"hf://datasets/org/traces@v2/b.json", "https://huggingface.co/datasets/org/traces/resolve/v2/b.json", false},
		{"hf://models/org/m/b.json", "", true},
		{"hf://datasets/org/traces", "", true},
		{"hf://datasets/org/@v2/b.json", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := HubURL(tt.arg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("HubURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileAndStdin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(ctx, path, Options{})
	if err != nil || len(f.Runs) != 1 {
		t.Fatalf("file Load = %v, %v", f, err)
	}

	f, err = Load(ctx, "-", Options{Stdin: strings.NewReader(doc)})
	if err != nil || len(f.Runs) != 1 {
		t.Fatalf("stdin Load = %v, %v", f, err)
	}

	_, err = Load(ctx, filepath.Join(t.TempDir(), "nope.json"), Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file code = %v", errors.GetCode(err))
	}
}

func TestHTTPCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Cache: c, CacheTTL: time.Hour}
	ctx := context.Background()

	for range 2 {
		f, err := Load(ctx, srv.URL, opts)
		if err != nil || len(f.Runs) != 1 {
			t.Fatalf("Load = %v, %v", f, err)
		}
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (second load cached)", hits)
	}

	opts.Refresh = true
	if _, err := Load(ctx, srv.URL, opts); err != nil {
		t.Fatal(err)
	}
	if hits != 2 {
		t.Errorf("server hits after refresh = %d, want 2", hits)
	}
}

func TestHTTPRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(doc))
	}))
	defer srv.Close()

	f, err := Load(context.Background(), srv.URL, Options{RetryDelay: time.Millisecond})
	if err != nil || len(f.Runs) != 1 {
		t.Fatalf("Load = %v, %v", f, err)
	}
	if hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     errors.Code
		sentinel error
	}{
		{"not found", http.StatusNotFound, "", errors.ErrCodeNotFound, ErrNotFound},
		{"forbidden", http.StatusForbidden, "", errors.ErrCodeNetwork, ErrNetwork},
		{"bad body", http.StatusOK, "<html>", errors.ErrCodeInvalidRuns, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := cache.NewFileCache(t.TempDir())
			_, err := Load(context.Background(), srv.URL, Options{Cache: c, RetryDelay: time.Millisecond})
			if !errors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), tt.code)
			}
			if tt.sentinel != nil && !stderrors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
			if entries, _, _ := c.Stats(); entries != 0 {
				t.Errorf("failed fetch left %d cache entries", entries)
			}
		})
	}
}
