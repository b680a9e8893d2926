package split

import (
	"context"
	"sort"
	"strings"

	"github.com/danthegoodman1/gojsonutils"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/io/jsonlio"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type dictionaryOptions struct {
	Input   []string       `mapstructure:"input" validate:"required"`
	Output  []any          `mapstructure:"output"`
	Default map[string]any `mapstructure:"default"`
	Flatten bool           `mapstructure:"flatten"`
}

// parseDict returns the keys (document order for JSON text, sorted for
// map cells) and values of a dictionary cell.
func parseDict(v any, flatten bool) ([]string, map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		m := t
		if flatten {
			flat, err := gojsonutils.Flatten(t, nil)
			if err != nil {
				return nil, nil, w.Configf("cannot flatten %s: %s", w.String(v), err)
			}
			m, _ = flat.(map[string]any)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, m, nil
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			if keys, m, err := jsonlio.DecodeObject([]byte(s), flatten); err == nil {
				return keys, m, nil
			}
		}
	}
	return nil, nil, w.Configf("%s is not a valid Dictionary", w.String(v))
}

// outputEntries reads `output` as names or single-key rename maps.
func outputEntries(output []any) []columns.Entry {
	var out []columns.Entry
	for _, item := range output {
		if keys, ok := registry.KeysOf(item); ok {
			plain, _ := registry.Plain(item).(map[string]any)
			for _, k := range keys {
				out = append(out, columns.Entry{From: k, To: w.String(plain[k])})
			}
			continue
		}
		s := w.String(item)
		out = append(out, columns.Entry{From: s, To: s})
	}
	return out
}

// dictionaryOutputs lists the rename targets of `output` that do not
// depend on the data: patterns and optional keys are left out.
func dictionaryOutputs(p registry.Params) []string {
	var out []string
	for _, e := range outputEntries(columnsOf(p["output"])) {
		if !columns.IsPattern(e.From) && !strings.HasSuffix(e.From, "?") {
			out = append(out, e.To)
		}
	}
	return out
}

func columnsOf(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

// Dictionary turns the keys of dictionary cells into columns. Later
// inputs win on overlapping keys; `default` fills keys a row lacks.
func Dictionary(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts dictionaryOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	inputs, err := columns.ExpandNames(f.Columns(), opts.Input)
	if err != nil {
		return nil, err
	}

	var order []string
	seen := map[string]bool{}
	addKeys := func(keys []string) {
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}
	defKeys, _ := registry.KeysOf(p["default"])
	addKeys(defKeys)

	rows := make([]map[string]any, f.Rows())
	for r := range rows {
		row := make(map[string]any, len(opts.Default))
		for k, v := range opts.Default {
			row[k] = v
		}
		for _, in := range inputs {
			v := f.Cell(r, in)
			if w.IsEmpty(v) {
				continue
			}
			keys, m, err := parseDict(v, opts.Flatten)
			if err != nil {
				return nil, err
			}
			addKeys(keys)
			for k, x := range m {
				row[k] = x
			}
		}
		rows[r] = row
	}

	mapping := make([]columns.Entry, len(order))
	for i, k := range order {
		mapping[i] = columns.Entry{From: k, To: k}
	}
	if len(opts.Output) > 0 {
		if mapping, err = columns.Expand(order, outputEntries(opts.Output)); err != nil {
			return nil, err
		}
	}
	for _, e := range mapping {
		col := make([]any, len(rows))
		for r, row := range rows {
			col[r] = row[e.From]
		}
		if err := f.SetColumn(e.To, col); err != nil {
			return nil, err
		}
	}
	return f, nil
}
