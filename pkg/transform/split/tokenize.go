package split

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type tokenizeOptions struct {
	project.Columns `mapstructure:",squash"`
	Method          string `mapstructure:"method"`
	Functions       any    `mapstructure:"functions"`
}

var boundary = regexp.MustCompile(`\w+|[^\w]+`)

func tokenizer(opts tokenizeOptions) (func(string) ([]string, error), error) {
	method := opts.Method
	switch {
	case strings.HasPrefix(method, "custom."):
		leaf, err := registry.Resolver{Custom: opts.Functions}.Resolve(method)
		if err != nil {
			return nil, err
		}
		switch fn := leaf.(type) {
		case func(string) []string:
			return func(s string) ([]string, error) { return fn(s), nil }, nil
		case registry.CellFunc:
			return func(s string) ([]string, error) {
				l, ok := w.List(fn(s))
				if !ok {
					return nil, fmt.Errorf("%s did not return a list", method)
				}
				out := make([]string, len(l))
				for i, x := range l {
					out[i] = w.String(x)
				}
				return out, nil
			}, nil
		}
		return nil, w.Configf("%s is not a tokenizer: %T", method, leaf)
	case len(method) >= 6 && strings.EqualFold(method[:6], "regex:"):
		re, err := regexp.Compile(strings.TrimSpace(method[6:]))
		if err != nil {
			return nil, &w.ConfigurationError{Msg: "Invalid regex pattern: " + method[6:], Err: err}
		}
		return func(s string) ([]string, error) { return re.Split(s, -1), nil }, nil
	case method == "space":
		return func(s string) ([]string, error) { return strings.Fields(s), nil }, nil
	case method == "boundary":
		return func(s string) ([]string, error) { return boundary.FindAllString(s, -1), nil }, nil
	case method == "boundary_ignore_space":
		return func(s string) ([]string, error) {
			var out []string
			for _, tok := range boundary.FindAllString(s, -1) {
				if tok = strings.TrimSpace(tok); tok != "" {
					out = append(out, tok)
				}
			}
			return out, nil
		}, nil
	}
	return nil, w.Configf("Method must be one of: space, boundary, boundary_ignore_space, custom.<function>, regex:<pattern>")
}

// Tokenize splits text into a list of tokens. List cells are tokenized
// element by element and flattened.
func Tokenize(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	opts := tokenizeOptions{Method: "space"}
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	tok, err := tokenizer(opts)
	if err != nil {
		return nil, err
	}
	inputs, outputs, err := opts.Pairs(f)
	if err != nil {
		return nil, err
	}
	for i, in := range inputs {
		col, _ := f.Column(in)
		res := make([]any, len(col))
		for r, v := range col {
			texts := []string{w.String(v)}
			if l, ok := w.List(v); ok {
				texts = texts[:0]
				for _, x := range l {
					texts = append(texts, w.String(x))
				}
			}
			tokens := []any{}
			for _, s := range texts {
				parts, err := tok(s)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, toAny(parts)...)
			}
			res[r] = tokens
		}
		if err := f.SetColumn(outputs[i], res); err != nil {
			return nil, err
		}
	}
	return f, nil
}
