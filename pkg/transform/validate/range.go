package validate

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Range accepts numbers within [Min, Max]. Either bound may be omitted;
// non-numeric cells are invalid.
type Range struct {
	project.Columns `mapstructure:",squash"`
	Min             *float64 `mapstructure:"min"`
	Max             *float64 `mapstructure:"max"`
}

func (t *Range) Name() string { return "validate.range" }

func (t *Range) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	if t.Min == nil && t.Max == nil {
		return nil, w.Configf("validate.range needs min or max")
	}
	return f, check(f, t.Columns, t.Name(), func(v any) bool {
		x, ok := w.Float(v)
		if !ok {
			return false
		}
		return (t.Min == nil || x >= *t.Min) && (t.Max == nil || x <= *t.Max)
	})
}
