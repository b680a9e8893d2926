package format

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// MapValues replaces cells whose text is a key of Values. Unmatched
// cells are kept.
type MapValues struct {
	project.Columns `mapstructure:",squash"`
	Values          map[string]any `mapstructure:"values" validate:"required"`
}

func (t *MapValues) Name() string { return "format.map_values" }

func (t *MapValues) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			if w.IsEmpty(v) {
				continue
			}
			if nv, ok := t.Values[w.String(v)]; ok {
				vals[i] = nv
			}
		}
		return vals, nil
	})
}
