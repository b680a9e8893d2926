package impute

import (
	"context"
	"math"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Mean fills gaps with the column mean. Integer columns get the mean
// rounded to the nearest integer.
type Mean struct {
	project.Columns `mapstructure:",squash"`
}

func (t *Mean) Name() string { return "impute.mean" }

func (t *Mean) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		xs, ints := numbers(vals)
		if len(xs) == 0 {
			return vals, nil
		}
		var sum float64
		for _, x := range xs {
			sum += x
		}
		mean := sum / float64(len(xs))
		if ints {
			return fill(vals, int64(math.Round(mean))), nil
		}
		return fill(vals, mean), nil
	})
}
