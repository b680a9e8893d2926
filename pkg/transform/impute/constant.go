package impute

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type Constant struct {
	project.Columns `mapstructure:",squash"`
	Value           any `mapstructure:"value"`
}

func (t *Constant) Name() string { return "impute.constant" }

func (t *Constant) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	v := w.Normalize(registry.Plain(t.Value))
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		return fill(vals, v), nil
	})
}
