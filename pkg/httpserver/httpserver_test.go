package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/recipe"
)

const testToken = "s3cret"

// newServer builds a server whose /run accepts testToken.
func newServer(t *testing.T, opts ...recipe.Option) *HTTPServer {
	t.Helper()
	t.Setenv("WRANGLES_API_TOKEN", testToken)
	return New(opts...)
}

func do(t *testing.T, s *HTTPServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doAuth(t, s, method, path, body, "Bearer "+testToken)
}

func doAuth(t *testing.T, s *HTTPServer, method, path, body, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := doAuth(t, newServer(t), http.MethodGet, "/hc", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestRunRecipe(t *testing.T) {
	body := `{
		"recipe": "wrangles:\n  - convert.case:\n      input: name\n      output: up\n      case: upper\n",
		"columns": ["name"],
		"data": [{"name": "ann"}, {"name": "bob"}]
	}`
	rec := do(t, newServer(t), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, []string{"name", "up"}, res.Columns)
	require.Equal(t, "BOB", res.Data[1]["up"])
}

func TestRunRecipeErrors(t *testing.T) {
	s := newServer(t)
	rec := do(t, s, http.MethodPost, "/run", `{"data": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/run", `{"recipe": "wrangles:\n  - nope.nothing: {}\n"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Function nope.nothing not recognized")

	rec = do(t, s, http.MethodPost, "/run", `{"recipe": "wrangles:\n  - convert.case:\n      input: missing\n", "data": [{"a": 1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Column missing does not exist")
}

func TestRunRequiresToken(t *testing.T) {
	body := `{"recipe": "wrangles:\n  - create.index:\n      output: id\n", "data": [{"a": 1}]}`
	s := newServer(t)

	rec := doAuth(t, s, http.MethodPost, "/run", body, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doAuth(t, s, http.MethodPost, "/run", body, "Bearer wrong")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	t.Setenv("WRANGLES_API_TOKEN", "")
	rec = do(t, New(), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunDoesNotReadEnvironment(t *testing.T) {
	t.Setenv("WRANGLES_TEST_SECRET", "hunter2")
	body := `{
		"recipe": "wrangles:\n  - create.column:\n      output: leak\n      value: ${WRANGLES_TEST_SECRET}\n",
		"data": [{"a": 1}]
	}`
	rec := do(t, newServer(t), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Variable WRANGLES_TEST_SECRET is not defined")
	require.NotContains(t, rec.Body.String(), "hunter2")

	body = `{
		"recipe": "wrangles:\n  - create.column:\n      output: v\n      value: ${NAME}\n",
		"variables": {"NAME": "posted"},
		"data": [{"a": 1}]
	}`
	rec = do(t, newServer(t), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "posted")
}

func TestRunBlocksConnectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.csv")
	require.NoError(t, os.WriteFile(path, []byte("secret\nvalue\n"), 0o600))
	body := fmt.Sprintf(`{"recipe": "read:\n  - file:\n      name: %s\n"}`, path)

	rec := do(t, newServer(t), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "file")
	require.NotContains(t, rec.Body.String(), "value")

	rec = do(t, newServer(t, recipe.WithConnectors("file")), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "value")

	body = `{"recipe": "write:\n  - dataframe:\n      columns: [a]\n", "data": [{"a": 1, "b": 2}]}`
	rec = do(t, newServer(t), http.MethodPost, "/run", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"columns":["a"]`)
}
