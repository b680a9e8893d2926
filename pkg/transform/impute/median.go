package impute

import (
	"context"
	"sort"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type Median struct {
	project.Columns `mapstructure:",squash"`
}

func (t *Median) Name() string { return "impute.median" }

func (t *Median) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		xs, ints := numbers(vals)
		if len(xs) == 0 {
			return vals, nil
		}
		sort.Float64s(xs)
		mid := len(xs) / 2
		med := xs[mid]
		if len(xs)%2 == 0 {
			med = (xs[mid-1] + xs[mid]) / 2
		}
		if ints {
			// integer division, as for the observed values
			return fill(vals, int64(med)), nil
		}
		return fill(vals, med), nil
	})
}
