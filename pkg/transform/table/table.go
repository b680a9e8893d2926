// Package table holds steps that reshape the table itself rather than
// cell values: renaming, dropping, copying and filtering columns and rows,
// and merging columns together.
package table

import (
	"context"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/where"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func Tree() registry.Map {
	return registry.Map{
		"copy": registry.Step[Copy](),
		"drop": registry.Step[Drop](),
		// filter consumes where itself instead of being wrapped by it
		"filter": registry.Wrangle{Fn: registry.Step[Filter]().Fn, Ambient: []string{"where"}},
		"merge": registry.Map{
			"coalesce":    registry.Step[Coalesce](),
			"concatenate": registry.Step[Concatenate](),
		},
		"rename": registry.Wrangle{Fn: Rename},
	}
}

// Rename renames columns. Options are either input and output lists,
// which pair up in order, or a map of old to new names. Keys may use
// wildcards and regex: patterns; map entries apply in key order.
func Rename(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var entries []columns.Entry
	if _, ok := p["input"]; ok {
		var opts struct {
			Input  []string `mapstructure:"input" validate:"required,min=1"`
			Output []string `mapstructure:"output" validate:"required,min=1"`
		}
		if err := p.Decode(&opts); err != nil {
			return nil, err
		}
		if len(opts.Input) != len(opts.Output) {
			return nil, w.Configf("The lists for input and output must be the same length.")
		}
		for i := range opts.Input {
			entries = append(entries, columns.Entry{From: opts.Input[i], To: opts.Output[i]})
		}
	} else {
		m := make(map[string]string, len(p))
		for k, v := range p {
			m[k] = w.String(v)
		}
		entries = columns.FromMap(m)
	}
	if len(entries) == 0 {
		return nil, w.Configf("rename needs input and output or a mapping of columns")
	}

	expanded, err := columns.Expand(f.Columns(), entries)
	if err != nil {
		return nil, err
	}
	mapping := make(map[string]string, len(expanded))
	for _, e := range expanded {
		if e.From != e.To {
			mapping[e.From] = e.To
		}
	}
	return f, f.Rename(mapping)
}

// Drop removes columns. Patterns are allowed; a literal name that does
// not exist is an error unless marked optional with a trailing ?.
type Drop struct {
	Columns []string `mapstructure:"columns" validate:"required,min=1"`
}

func (t *Drop) Name() string { return "drop" }

func (t *Drop) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	names, err := columns.ExpandNames(f.Columns(), t.Columns)
	if err != nil {
		return nil, err
	}
	f.Drop(names...)
	return f, nil
}

// Copy duplicates input columns under the output names.
type Copy struct {
	Input  []string `mapstructure:"input" validate:"required,min=1"`
	Output []string `mapstructure:"output" validate:"required,min=1"`
}

func (t *Copy) Name() string { return "copy" }

func (t *Copy) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	if len(t.Input) != len(t.Output) {
		return nil, w.Configf("The lists for input and output must be the same length.")
	}
	for i, in := range t.Input {
		col, ok := f.Column(in)
		if !ok {
			return nil, w.Missing(in)
		}
		if err := f.SetColumn(t.Output[i], append([]any(nil), col...)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Filter keeps the rows matching a where clause and, when Input is set,
// whose Input cell is one of Equal and none of NotEqual.
type Filter struct {
	Where       string   `mapstructure:"where"`
	WhereParams any      `mapstructure:"where_params"`
	Input       string   `mapstructure:"input" validate:"required_without=Where"`
	Equal       []string `mapstructure:"equal"`
	NotEqual    []string `mapstructure:"not_equal"`
}

func (t *Filter) Name() string { return "filter" }

func (t *Filter) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	if t.Where != "" {
		var err error
		f, err = where.Filter(ctx, f, t.Where, registry.Plain(t.WhereParams))
		if err != nil {
			return nil, err
		}
	}
	if t.Input == "" {
		return f, nil
	}
	col, ok := f.Column(t.Input)
	if !ok {
		return nil, w.Missing(t.Input)
	}
	equal := set(t.Equal)
	notEqual := set(t.NotEqual)
	var keep []int
	for r, v := range col {
		s := w.String(v)
		if len(equal) > 0 && !equal[s] {
			continue
		}
		if notEqual[s] {
			continue
		}
		keep = append(keep, r)
	}
	return f.Take(keep), nil
}

func set(vals []string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}
