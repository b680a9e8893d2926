package impute

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Mode fills gaps with the most frequent value. Ties go to the value
// that reached the top count first.
type Mode struct {
	project.Columns `mapstructure:",squash"`
}

func (t *Mode) Name() string { return "impute.mode" }

func (t *Mode) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		counts := map[string]int{}
		var best any
		var bestc int
		for _, v := range vals {
			if w.IsEmpty(v) {
				continue
			}
			k := w.String(v)
			counts[k]++
			if counts[k] > bestc {
				bestc = counts[k]
				best = v
			}
		}
		if bestc == 0 {
			return vals, nil
		}
		return fill(vals, best), nil
	})
}
