package standardize

import (
	"context"
	"regexp"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Replace substitutes every match of Find. Value may refer to groups as
// \1 or ${1}.
type Replace struct {
	project.Columns `mapstructure:",squash"`
	Find            string `mapstructure:"find" validate:"required"`
	Value           string `mapstructure:"value"`
	re              *regexp.Regexp
}

func (t *Replace) Name() string { return "replace" }

var backref = regexp.MustCompile(`\\(\d+)`)

func (t *Replace) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	if t.re == nil {
		re, err := regexp.Compile(t.Find)
		if err != nil {
			return nil, &w.ConfigurationError{Msg: "Invalid regex pattern: " + t.Find, Err: err}
		}
		t.re = re
	}
	repl := backref.ReplaceAllString(t.Value, `$${$1}`)
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			if w.IsEmpty(v) {
				continue
			}
			vals[i] = t.re.ReplaceAllString(w.String(v), repl)
		}
		return vals, nil
	})
}
