package table

import (
	"context"
	"strings"

	"github.com/admariner/wrangles/pkg/columns"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Concatenate joins the values of several columns, or the elements of a
// single list column, with Char.
type Concatenate struct {
	Input     []string `mapstructure:"input" validate:"required,min=1"`
	Output    string   `mapstructure:"output" validate:"required"`
	Char      string   `mapstructure:"char"`
	SkipEmpty bool     `mapstructure:"skip_empty"`
}

func (t *Concatenate) SetDefaults() { t.Char = " " }

func (t *Concatenate) Name() string { return "merge.concatenate" }

func (t *Concatenate) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	in, err := columns.ExpandNames(f.Columns(), t.Input)
	if err != nil {
		return nil, err
	}
	out := make([]any, f.Rows())
	for r := range out {
		var parts []any
		if len(in) == 1 {
			if w.IsEmpty(f.Cell(r, in[0])) {
				out[r] = ""
				continue
			}
			l, ok := w.List(f.Cell(r, in[0]))
			if !ok {
				return nil, w.Configf("%s is not a valid list", w.String(f.Cell(r, in[0])))
			}
			parts = l
		} else {
			for _, c := range in {
				parts = append(parts, f.Cell(r, c))
			}
		}
		strs := make([]string, 0, len(parts))
		for _, p := range parts {
			if t.SkipEmpty && w.IsEmpty(p) {
				continue
			}
			strs = append(strs, w.String(p))
		}
		out[r] = strings.Join(strs, t.Char)
	}
	return f, f.SetColumn(t.Output, out)
}

// Coalesce takes the first non-empty value across the inputs.
type Coalesce struct {
	Input  []string `mapstructure:"input" validate:"required,min=1"`
	Output string   `mapstructure:"output" validate:"required"`
}

func (t *Coalesce) Name() string { return "merge.coalesce" }

func (t *Coalesce) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	in, err := columns.ExpandNames(f.Columns(), t.Input)
	if err != nil {
		return nil, err
	}
	out := make([]any, f.Rows())
	for r := range out {
		out[r] = ""
		for _, c := range in {
			if v := f.Cell(r, c); !w.IsEmpty(v) {
				out[r] = v
				break
			}
		}
	}
	return f, f.SetColumn(t.Output, out)
}
