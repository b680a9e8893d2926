package format

import (
	"context"
	"strings"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Trim strips leading and trailing whitespace from text cells.
type Trim struct {
	project.Columns `mapstructure:",squash"`
}

func (t *Trim) Name() string { return "format.trim" }

func (t *Trim) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			if s, ok := v.(string); ok {
				vals[i] = strings.TrimSpace(s)
			}
		}
		return vals, nil
	})
}

// RemoveDuplicates drops repeated elements of list cells, keeping the
// first occurrence. Other cells pass through.
type RemoveDuplicates struct {
	project.Columns `mapstructure:",squash"`
}

func (t *RemoveDuplicates) Name() string { return "format.remove_duplicates" }

func (t *RemoveDuplicates) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			l, ok := v.([]any)
			if !ok {
				continue
			}
			seen := make(map[string]bool, len(l))
			out := make([]any, 0, len(l))
			for _, x := range l {
				k := w.String(x)
				if seen[k] {
					continue
				}
				seen[k] = true
				out = append(out, x)
			}
			vals[i] = out
		}
		return vals, nil
	})
}
