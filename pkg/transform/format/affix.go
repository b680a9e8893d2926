package format

import (
	"context"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Prefix prepends value to every cell rendered as text.
type Prefix struct {
	project.Columns `mapstructure:",squash"`
	Value           string `mapstructure:"value" validate:"required"`
}

func (t *Prefix) Name() string { return "format.prefix" }

func (t *Prefix) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			vals[i] = t.Value + w.String(v)
		}
		return vals, nil
	})
}

// Suffix appends value to every cell rendered as text.
type Suffix struct {
	project.Columns `mapstructure:",squash"`
	Value           string `mapstructure:"value" validate:"required"`
}

func (t *Suffix) Name() string { return "format.suffix" }

func (t *Suffix) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			vals[i] = w.String(v) + t.Value
		}
		return vals, nil
	})
}
