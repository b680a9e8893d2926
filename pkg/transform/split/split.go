// Package split breaks text, lists and dictionaries apart into lists or
// new columns.
package split

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Tree is the `split` namespace.
func Tree() registry.Map {
	return registry.Map{
		"dictionary": registry.Wrangle{Fn: Dictionary, Outputs: dictionaryOutputs},
		"list":       registry.Wrangle{Fn: List},
		"text":       registry.Wrangle{Fn: Text},
		"tokenize":   registry.Wrangle{Fn: Tokenize, Ambient: []string{"functions"}},
	}
}

type textOptions struct {
	Input     []string `mapstructure:"input" validate:"required"`
	Output    []string `mapstructure:"output"`
	Char      string   `mapstructure:"char"`
	Pad       *bool    `mapstructure:"pad"`
	Element   any      `mapstructure:"element"`
	Inclusive bool     `mapstructure:"inclusive"`
}

func singleInput(f *w.Frame, input []string) (string, error) {
	names, err := columns.ExpandNames(f.Columns(), input)
	if err != nil {
		return "", err
	}
	if len(names) != 1 {
		return "", w.Configf("Only a single column is allowed for input.")
	}
	return names[0], nil
}

func isWildcard(output []string) bool {
	return len(output) == 1 && strings.Contains(output[0], "*")
}

// splitter splits on a literal or on a `regex:` pattern. Inclusive keeps
// each separator as its own element.
func splitter(char string, inclusive bool) (func(string) []string, error) {
	if len(char) >= 6 && strings.EqualFold(char[:6], "regex:") {
		re, err := regexp.Compile(strings.TrimSpace(char[6:]))
		if err != nil {
			return nil, &w.ConfigurationError{Msg: "Invalid regex pattern: " + char[6:], Err: err}
		}
		return func(s string) []string {
			if !inclusive {
				return re.Split(s, -1)
			}
			var out []string
			last := 0
			for _, loc := range re.FindAllStringIndex(s, -1) {
				out = append(out, s[last:loc[0]], s[loc[0]:loc[1]])
				last = loc[1]
			}
			return append(out, s[last:])
		}, nil
	}
	if char == "" {
		return nil, w.Configf("char must not be empty")
	}
	return func(s string) []string {
		parts := strings.Split(s, char)
		if !inclusive {
			return parts
		}
		out := make([]string, 0, 2*len(parts)-1)
		for i, p := range parts {
			if i > 0 {
				out = append(out, char)
			}
			out = append(out, p)
		}
		return out
	}, nil
}

// element is a parsed `element` option: a single index or a slice.
type element struct {
	index             *int
	start, stop, step *int
}

func parseElement(v any) (*element, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(w.String(v))
	if !strings.Contains(s, ":") {
		i, err := strconv.Atoi(s)
		if err != nil {
			return nil, w.Configf("Invalid element %q", s)
		}
		return &element{index: &i}, nil
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return nil, w.Configf("Invalid element %q", s)
	}
	e := &element{}
	targets := []**int{&e.start, &e.stop, &e.step}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, w.Configf("Invalid element %q", s)
		}
		*targets[i] = &n
	}
	if e.step != nil && *e.step == 0 {
		return nil, w.Configf("Invalid element %q: step cannot be zero", s)
	}
	return e, nil
}

// pick returns one element (as a string) or a slice of parts with
// Python slice semantics.
func (e *element) pick(parts []string) any {
	n := len(parts)
	if e.index != nil {
		i := *e.index
		if i < 0 {
			i += n
		}
		if i < 0 || i >= n {
			return ""
		}
		return parts[i]
	}
	step := 1
	if e.step != nil {
		step = *e.step
	}
	clamp := func(p *int, def int) int {
		if p == nil {
			return def
		}
		i := *p
		if i < 0 {
			i += n
		}
		lo, hi := 0, n
		if step < 0 {
			lo, hi = -1, n-1
		}
		if i < lo {
			return lo
		}
		if i > hi {
			return hi
		}
		return i
	}
	var out []string
	if step > 0 {
		for i := clamp(e.start, 0); i < clamp(e.stop, n); i += step {
			out = append(out, parts[i])
		}
	} else {
		for i := clamp(e.start, n-1); i > clamp(e.stop, -1); i += step {
			out = append(out, parts[i])
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func padTo(row []any, n int) []any {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

// spread writes per-row lists to output columns. A single wildcard output
// numbers the columns from 1; several outputs take one element each.
// Rows are padded with "" when pad is set; a row with more elements
// than there are named outputs is an error.
func spread(f *w.Frame, rows [][]any, output []string, pad bool) error {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	names := output
	if isWildcard(output) {
		names = make([]string, width)
		for i := range names {
			names[i] = strings.ReplaceAll(output[0], "*", strconv.Itoa(i+1))
		}
		pad = true
	}
	cols := make([][]any, len(names))
	for i := range cols {
		cols[i] = make([]any, len(rows))
	}
	for r, row := range rows {
		if len(row) > len(names) {
			return w.Configf("row %d split into %d values for %d output columns", r, len(row), len(names))
		}
		if len(row) < len(names) {
			if !pad {
				return w.Configf("row %d split into %d values for %d output columns; set pad: true", r, len(row), len(names))
			}
			row = padTo(row, len(names))
		}
		for i := range names {
			cols[i][r] = row[i]
		}
	}
	for i, n := range names {
		if err := f.SetColumn(n, cols[i]); err != nil {
			return err
		}
	}
	return nil
}

// Text splits a string column on char. A single output receives lists;
// several outputs, or a wildcard output, receive one element each.
func Text(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	opts := textOptions{Char: ","}
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	in, err := singleInput(f, opts.Input)
	if err != nil {
		return nil, err
	}
	output := opts.Output
	if len(output) == 0 {
		output = []string{in}
	}
	toColumns := len(output) > 1 || isWildcard(output)
	pad := toColumns
	if opts.Pad != nil {
		pad = *opts.Pad
	}
	split, err := splitter(opts.Char, opts.Inclusive)
	if err != nil {
		return nil, err
	}
	el, err := parseElement(opts.Element)
	if err != nil {
		return nil, err
	}

	vals, _ := f.Strings(in)
	results := make([]any, len(vals))
	for i, v := range vals {
		parts := split(v)
		if el == nil {
			results[i] = toAny(parts)
			continue
		}
		switch picked := el.pick(parts).(type) {
		case string:
			results[i] = picked
		case []string:
			results[i] = toAny(picked)
		}
	}

	if !toColumns {
		if pad {
			width := 0
			for _, r := range results {
				if l, ok := r.([]any); ok && len(l) > width {
					width = len(l)
				}
			}
			for i, r := range results {
				if l, ok := r.([]any); ok {
					results[i] = padTo(l, width)
				}
			}
		}
		return f, f.SetColumn(output[0], results)
	}
	rows := make([][]any, len(results))
	for i, r := range results {
		if l, ok := r.([]any); ok {
			rows[i] = l
		} else {
			rows[i] = []any{r}
		}
	}
	return f, spread(f, rows, output, pad)
}

type listOptions struct {
	Input  []string `mapstructure:"input" validate:"required"`
	Output []string `mapstructure:"output" validate:"required,min=1"`
}

// List spreads a list column (or JSON array text) across columns.
func List(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts listOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	in, err := singleInput(f, opts.Input)
	if err != nil {
		return nil, err
	}
	col, _ := f.Column(in)
	if len(col) == 0 {
		return f, nil
	}
	rows := make([][]any, len(col))
	for i, v := range col {
		if w.IsEmpty(v) {
			rows[i] = []any{}
			continue
		}
		l, ok := w.List(v)
		if !ok {
			return nil, w.Configf("%s is not a valid list", w.String(v))
		}
		rows[i] = l
	}
	return f, spread(f, rows, opts.Output, true)
}
