package extract

import (
	"context"
	"regexp"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type regexOptions struct {
	project.Columns `mapstructure:",squash"`
	Find            string `mapstructure:"find" validate:"required"`
}

// Regex returns every match of find as a list. A pattern with exactly one
// capture group yields the group instead of the whole match.
func Regex(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts regexOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(opts.Find)
	if err != nil {
		return nil, &w.ConfigurationError{Msg: "Invalid regex pattern: " + opts.Find, Err: err}
	}
	err = project.Apply(f, opts.Spec(project.DefaultSeparator), func(vals []string) ([]any, error) {
		return mapStrings(vals, func(s string) any {
			found := []any{}
			for _, m := range re.FindAllStringSubmatch(s, -1) {
				if len(m) == 2 {
					found = append(found, m[1])
					continue
				}
				found = append(found, m[0])
			}
			return found
		}), nil
	})
	return f, err
}
