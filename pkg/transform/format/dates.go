package format

import (
	"context"

	"github.com/ncruces/go-strftime"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/transform/extract"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// DateFormat renders date cells with a strftime-style format such as
// "%Y-%m-%d". Empty cells are left empty.
type DateFormat struct {
	project.Columns `mapstructure:",squash"`
	Format          string `mapstructure:"format" validate:"required"`
}

func (t *DateFormat) Name() string { return "format.date_format" }

func (t *DateFormat) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			if w.IsEmpty(v) {
				vals[i] = ""
				continue
			}
			d, err := extract.ParseDate(v)
			if err != nil {
				return nil, err
			}
			vals[i] = strftime.Format(t.Format, d)
		}
		return vals, nil
	})
}
