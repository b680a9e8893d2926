package ckan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

const apiKey = "secret"

// fakeCatalog serves one dataset, "test", from memory.
type fakeCatalog struct {
	mu    sync.Mutex
	files map[string][]byte
	srv   *httptest.Server
}

func newCatalog(t *testing.T) *fakeCatalog {
	c := &fakeCatalog{files: map[string][]byte{"test.csv": []byte("header\nvalue1\n")}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/3/action/package_show", c.packageShow)
	mux.HandleFunc("/api/3/action/resource_create", c.upload)
	mux.HandleFunc("/api/3/action/resource_update", c.upload)
	mux.HandleFunc("/files/", func(rw http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, _ = rw.Write(c.files[filepath.Base(r.URL.Path)])
	})
	c.srv = httptest.NewServer(c.auth(mux))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *fakeCatalog) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != apiKey {
			rw.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func (c *fakeCatalog) packageShow(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("id") != "test" {
		rw.WriteHeader(http.StatusNotFound)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []resource
	for name := range c.files {
		res = append(res, resource{ID: "id-" + name, Name: name, URL: c.srv.URL + "/files/" + name})
	}
	_ = json.NewEncoder(rw).Encode(map[string]any{
		"success": true,
		"result":  map[string]any{"id": "pkg", "resources": res},
	})
}

func (c *fakeCatalog) upload(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	f, _, err := r.FormFile("upload")
	if err != nil {
		rw.WriteHeader(http.StatusBadRequest)
		return
	}
	data, _ := io.ReadAll(f)
	c.mu.Lock()
	c.files[r.FormValue("name")] = data
	c.mu.Unlock()
	_, _ = rw.Write([]byte(`{"success": true}`))
}

func (c *fakeCatalog) params(extra map[string]any) registry.Params {
	p := registry.Params{"host": c.srv.URL, "dataset": "test", "api_key": apiKey, "retries": 0}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func TestWriteThenRead(t *testing.T) {
	c := newCatalog(t)
	f, err := w.FromColumns([]string{"header"}, [][]any{{"abc", "def"}})
	require.NoError(t, err)
	require.NoError(t, Write(context.Background(), f, c.params(map[string]any{"file": "new.csv"})))

	got, err := Read(context.Background(), c.params(map[string]any{"file": "new.csv"}))
	require.NoError(t, err)
	require.Equal(t, "abc", got.Cell(0, "header"))
	require.Equal(t, 2, got.Rows())
}

func TestAccessDenied(t *testing.T) {
	c := newCatalog(t)
	p := c.params(map[string]any{"file": "test.csv"})
	delete(p, "api_key")
	_, err := Read(context.Background(), p)
	var re *w.RemoteAccessError
	require.ErrorAs(t, err, &re)
	require.Equal(t, http.StatusForbidden, re.StatusCode)
	require.Regexp(t, "^Access Denied", err.Error())
}

func TestMissingDataset(t *testing.T) {
	c := newCatalog(t)
	p := c.params(map[string]any{"file": "test.csv"})
	p["dataset"] = "aaaaaaaa"
	_, err := Read(context.Background(), p)
	require.Regexp(t, "^Unable to find dataset", err.Error())
}

func TestMissingFile(t *testing.T) {
	c := newCatalog(t)
	_, err := Read(context.Background(), c.params(map[string]any{"file": "nope.csv"}))
	require.Regexp(t, "^File not found", err.Error())
}

func TestUploadDownload(t *testing.T) {
	c := newCatalog(t)
	dir := t.TempDir()
	local := filepath.Join(dir, "up.csv")
	require.NoError(t, os.WriteFile(local, []byte("a\n1\n"), 0o644))

	require.NoError(t, Upload(context.Background(), c.params(map[string]any{"file": local})))
	out := filepath.Join(dir, "down", "copy.csv")
	require.NoError(t, Download(context.Background(), c.params(map[string]any{
		"file":        []any{"up.csv"},
		"output_file": out,
	})))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "a\n1\n", string(b))
}
