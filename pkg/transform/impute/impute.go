// Package impute fills null and empty cells from a constant, a column
// statistic or the nearest neighbouring rows.
package impute

import (
	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

func Tree() registry.Map {
	return registry.Map{
		"constant": registry.Step[Constant](),
		"knn":      registry.Step[KNN](),
		"mean":     registry.Step[Mean](),
		"median":   registry.Step[Median](),
		"mode":     registry.Step[Mode](),
	}
}

// fill replaces every empty cell of vals with v.
func fill(vals []any, v any) []any {
	for i := range vals {
		if w.IsEmpty(vals[i]) {
			vals[i] = v
		}
	}
	return vals
}

// numbers returns the numeric non-empty cells and whether all of them
// are integers.
func numbers(vals []any) ([]float64, bool) {
	out := make([]float64, 0, len(vals))
	ints := true
	for _, v := range vals {
		if w.IsEmpty(v) {
			continue
		}
		x, ok := w.Float(v)
		if !ok {
			continue
		}
		if _, isInt := v.(int64); !isInt {
			ints = false
		}
		out = append(out, x)
	}
	return out, ints
}
