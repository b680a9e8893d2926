package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// fakeChat answers with the record's name upper-cased as "shout" and
// never returns "missing".
func fakeChat(t *testing.T, calls *atomic.Int64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer key" {
			rw.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rw.WriteHeader(http.StatusBadRequest)
			return
		}
		var record map[string]any
		_ = json.Unmarshal([]byte(req.Messages[len(req.Messages)-1].Content), &record)
		content, _ := json.Marshal(map[string]any{"shout": strings.ToUpper(record["name"].(string))})
		_ = json.NewEncoder(rw).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": string(content)}}},
		})
	}))
}

func TestAI(t *testing.T) {
	var calls atomic.Int64
	srv := fakeChat(t, &calls)
	defer srv.Close()

	f := frameOf(t, []string{"name", "other"}, []any{"ash", "misty", "brock"}, []any{1, 2, 3})
	out := run(t, AI, f, registry.Params{
		"api_key": "key",
		"url":     srv.URL,
		"input":   "name",
		"threads": 2,
		"output": registry.Mapping{
			Keys: []string{"shout", "missing"},
			Values: map[string]any{
				"shout":   map[string]any{"type": "string", "description": "the name in capitals"},
				"missing": "never answered",
			},
		},
	})
	require.Equal(t, []any{"ASH", "MISTY", "BROCK"}, column(t, out, "shout"))
	require.Equal(t, []any{"", "", ""}, column(t, out, "missing"))
	require.Equal(t, int64(3), calls.Load())
}

func TestAIAccessDenied(t *testing.T) {
	var calls atomic.Int64
	srv := fakeChat(t, &calls)
	defer srv.Close()

	f := frameOf(t, []string{"name"}, []any{"ash"})
	_, err := AI(context.Background(), f, registry.Params{"api_key": "wrong", "url": srv.URL, "output": "shout"})
	var re *w.RemoteAccessError
	require.ErrorAs(t, err, &re)
	require.Equal(t, http.StatusUnauthorized, re.StatusCode)
}

func TestAIFields(t *testing.T) {
	fields := aiFields([]any{"a", map[string]any{"b": map[string]any{"type": "integer"}}})
	require.Len(t, fields, 2)
	require.Equal(t, "a", fields[0].name)
	require.Equal(t, "string", fields[0].schema["type"])
	require.Equal(t, "integer", fields[1].schema["type"])
}
