package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/httpx"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/utils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

const (
	DefaultAIURL   = "https://api.openai.com/v1/chat/completions"
	DefaultAIModel = "gpt-4o-mini"
)

var errParseAI = errors.New("Unable to parse response from AI model")

const aiSystemPrompt = "You extract structured fields from a data record. " +
	"The user message is one record as JSON. Reply with a JSON object holding the requested fields."

type aiOptions struct {
	APIKey   string   `mapstructure:"api_key" validate:"required"`
	Input    []string `mapstructure:"input"`
	Output   any      `mapstructure:"output" validate:"required"`
	Model    string   `mapstructure:"model"`
	Threads  int      `mapstructure:"threads" validate:"gte=1"`
	Timeout  int      `mapstructure:"timeout" validate:"gte=1"`
	Retries  uint64   `mapstructure:"retries"`
	URL      string   `mapstructure:"url" validate:"url"`
	Messages []string `mapstructure:"messages"`
}

// aiField is one requested output column and its JSON schema.
type aiField struct {
	name   string
	schema map[string]any
}

func fieldSchema(v any) map[string]any {
	switch t := registry.Plain(v).(type) {
	case map[string]any:
		if _, ok := t["type"]; !ok {
			t["type"] = "string"
		}
		return t
	case string:
		return map[string]any{"type": "string", "description": t}
	}
	return map[string]any{"type": "string"}
}

// aiFields reads output as a name, a list of names or schema maps, or a
// map of name to schema. Recipe order is kept.
func aiFields(output any) []aiField {
	var out []aiField
	addMap := func(m any) {
		keys, _ := registry.KeysOf(m)
		plain, _ := registry.Plain(m).(map[string]any)
		for _, k := range keys {
			out = append(out, aiField{name: k, schema: fieldSchema(plain[k])})
		}
	}
	switch t := output.(type) {
	case []any:
		for _, item := range t {
			if _, ok := registry.KeysOf(item); ok {
				addMap(item)
				continue
			}
			out = append(out, aiField{name: w.String(item), schema: fieldSchema(nil)})
		}
	case string:
		out = append(out, aiField{name: t, schema: fieldSchema(nil)})
	default:
		addMap(t)
	}
	return out
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// AI asks an OpenAI compatible chat completions endpoint to fill the
// output columns from each row. Rows run concurrently, at most `threads`
// at a time; WRANGLES_THREADS sets the default.
func AI(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	opts := aiOptions{Model: DefaultAIModel, Threads: int(utils.GetEnvOrDefaultInt("WRANGLES_THREADS", 10)), Timeout: 15, URL: DefaultAIURL}
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	fields := aiFields(p["output"])
	if len(fields) == 0 {
		return nil, w.Configf("extract.ai requires at least one output")
	}
	inputs := f.Columns()
	if len(opts.Input) > 0 {
		var err error
		if inputs, err = columns.ExpandNames(f.Columns(), opts.Input); err != nil {
			return nil, err
		}
	}

	props := make(map[string]any, len(fields))
	required := make([]string, len(fields))
	for i, fd := range fields {
		props[fd.name] = fd.schema
		required[i] = fd.name
	}
	format := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name": "extract",
			"schema": map[string]any{
				"type":                 "object",
				"properties":           props,
				"required":             required,
				"additionalProperties": false,
			},
		},
	}
	messages := []chatMessage{{Role: "system", Content: aiSystemPrompt}}
	for _, m := range opts.Messages {
		messages = append(messages, chatMessage{Role: "system", Content: m})
	}

	client := httpx.New(time.Duration(opts.Timeout)*time.Second, opts.Retries)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+opts.APIKey)
	header.Set("Content-Type", "application/json")

	results := make([]map[string]any, f.Rows())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Threads)
	for r := 0; r < f.Rows(); r++ {
		record := make(map[string]any, len(inputs))
		for _, c := range inputs {
			record[c] = f.Cell(r, c)
		}
		g.Go(func() error {
			res, err := askRow(gctx, client, opts, header, messages, format, record)
			if err != nil {
				return fmt.Errorf("row %d: %w", r, err)
			}
			results[r] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Int("rows", f.Rows()).Int("threads", opts.Threads).Msg("ai extraction finished")

	for _, fd := range fields {
		col := make([]any, f.Rows())
		for r, res := range results {
			v, ok := res[fd.name]
			switch {
			case ok && v != nil:
				col[r] = v
			case fd.schema["default"] != nil:
				col[r] = fd.schema["default"]
			default:
				col[r] = ""
			}
		}
		if err := f.SetColumn(fd.name, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func askRow(ctx context.Context, client *httpx.Client, opts aiOptions, header http.Header, system []chatMessage, format map[string]any, record map[string]any) (map[string]any, error) {
	user, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("error marshalling row: %w", err)
	}
	body, err := json.Marshal(chatRequest{
		Model:          opts.Model,
		Messages:       append(append([]chatMessage(nil), system...), chatMessage{Role: "user", Content: string(user)}),
		ResponseFormat: format,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling request: %w", err)
	}
	resp, err := client.Do(ctx, httpx.Request{Method: http.MethodPost, URL: opts.URL, Header: header, Body: body})
	if err != nil {
		return nil, fmt.Errorf("error calling %s: %w", opts.URL, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, w.Remote(resp.StatusCode, "Access Denied: the AI endpoint rejected the api_key")
	case resp.StatusCode != http.StatusOK:
		return nil, w.Remote(resp.StatusCode, "AI endpoint returned status %d: %s", resp.StatusCode, string(resp.Body))
	}
	var cr chatResponse
	if err := json.Unmarshal(resp.Body, &cr); err != nil || len(cr.Choices) == 0 {
		return nil, errParseAI
	}
	out := map[string]any{}
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("%w: %s", errParseAI, err)
	}
	return out, nil
}
