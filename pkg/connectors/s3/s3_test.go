package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// fakeS3 keeps objects for path-style PUT and GET requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeS3) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Authorization"), "AKIDTEST") {
		rw.WriteHeader(http.StatusForbidden)
		_, _ = rw.Write([]byte(`<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		s.objects[r.URL.Path] = b
		rw.Header().Set("ETag", `"etag"`)
	case http.MethodGet:
		b, ok := s.objects[r.URL.Path]
		if !ok {
			rw.WriteHeader(http.StatusNotFound)
			_, _ = rw.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
			return
		}
		_, _ = rw.Write(b)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func params(t *testing.T, extra map[string]any) registry.Params {
	t.Helper()
	srv := httptest.NewServer(&fakeS3{objects: map[string][]byte{}})
	t.Cleanup(srv.Close)
	p := registry.Params{
		"bucket":            "bucket",
		"access_key":        "AKIDTEST",
		"secret_access_key": "secret",
		"region":            "us-east-1",
		"endpoint":          srv.URL,
		"retries":           0,
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func TestWriteThenRead(t *testing.T) {
	p := params(t, map[string]any{"key": "dir/data.jsonl"})
	f, err := w.FromColumns([]string{"a", "b"}, [][]any{{1, 2}, {"x", "y"}})
	require.NoError(t, err)
	require.NoError(t, Write(context.Background(), f, p))

	got, err := Read(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got.Columns())
	require.Equal(t, int64(2), got.Cell(1, "a"))
}

func TestMissingKey(t *testing.T) {
	_, err := Read(context.Background(), params(t, map[string]any{"key": "nope.csv"}))
	var re *w.RemoteAccessError
	require.ErrorAs(t, err, &re)
	require.Contains(t, re.Msg, "File not found")
}

func TestAccessDenied(t *testing.T) {
	p := params(t, map[string]any{"key": "x.csv"})
	p["access_key"] = "AKIDOTHER"
	_, err := Read(context.Background(), p)
	var re *w.RemoteAccessError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "Access Denied", re.Msg)
}

func TestUploadDownload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(src, []byte("h\n1\n"), 0o644))
	p := params(t, map[string]any{"file": src, "key": "in/a.csv"})
	require.NoError(t, Upload(context.Background(), p))

	dst := filepath.Join(dir, "out", "b.csv")
	p["file"] = []any{dst}
	p["key"] = []any{"in/a.csv"}
	require.NoError(t, Download(context.Background(), p))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "h\n1\n", string(b))
}
