// Package outliers bounds numeric values.
package outliers

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Clip caps numeric cells to [Min, Max]. Integer cells stay integers and
// non-numeric cells pass through.
type Clip struct {
	project.Columns `mapstructure:",squash"`
	Min             *float64 `mapstructure:"min"`
	Max             *float64 `mapstructure:"max"`
}

func Wrangle() registry.Wrangle { return registry.Step[Clip]() }

func (t *Clip) Name() string { return "clip" }

func (t *Clip) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	if t.Min == nil && t.Max == nil {
		return nil, w.Configf("clip needs min or max")
	}
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			if w.IsEmpty(v) {
				continue
			}
			x, ok := w.Float(v)
			if !ok {
				continue
			}
			c := x
			if t.Min != nil && c < *t.Min {
				c = *t.Min
			}
			if t.Max != nil && c > *t.Max {
				c = *t.Max
			}
			if c == x {
				continue
			}
			if _, isInt := v.(int64); isInt {
				vals[i] = int64(c)
			} else {
				vals[i] = c
			}
		}
		return vals, nil
	})
}
