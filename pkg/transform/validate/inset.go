package validate

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type InSet struct {
	project.Columns `mapstructure:",squash"`
	Values          []string `mapstructure:"values" validate:"required,min=1"`
}

func (t *InSet) Name() string { return "validate.in" }

func (t *InSet) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	allowed := make(map[string]struct{}, len(t.Values))
	for _, v := range t.Values {
		allowed[v] = struct{}{}
	}
	return f, check(f, t.Columns, t.Name(), func(v any) bool {
		_, ok := allowed[w.String(v)]
		return ok
	})
}
