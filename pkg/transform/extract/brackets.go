package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var bracketPatterns = map[string]string{
	"round":  `\(([^()]*)\)`,
	"square": `\[([^\[\]]*)\]`,
	"curly":  `\{([^{}]*)\}`,
	"angled": `<([^<>]*)>`,
}

var bracketOrder = []string{"round", "square", "curly", "angled"}

type bracketOptions struct {
	project.Columns `mapstructure:",squash"`
	Find            []string `mapstructure:"find" validate:"dive,oneof=round square curly angled all"`
	IncludeBrackets bool     `mapstructure:"include_brackets"`
}

// bracketRegexp builds one alternation over the selected bracket kinds.
// "all" selects every kind, but only when it is the only entry.
func bracketRegexp(find []string) *regexp.Regexp {
	want := map[string]bool{}
	for _, k := range find {
		want[k] = true
	}
	if len(find) == 0 || (len(find) == 1 && want["all"]) {
		for _, k := range bracketOrder {
			want[k] = true
		}
	}
	var alts []string
	for _, k := range bracketOrder {
		if want[k] {
			alts = append(alts, bracketPatterns[k])
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// Brackets returns the text found inside brackets, joined with ", ".
func Brackets(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts bracketOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	re := bracketRegexp(opts.Find)
	err := project.Apply(f, opts.Spec(project.DefaultSeparator), func(vals []string) ([]any, error) {
		return mapStrings(vals, func(s string) any {
			if re == nil {
				return ""
			}
			var found []string
			for _, m := range re.FindAllStringSubmatch(s, -1) {
				if opts.IncludeBrackets {
					found = append(found, m[0])
					continue
				}
				for _, g := range m[1:] {
					if g != "" {
						found = append(found, g)
						break
					}
				}
			}
			return strings.Join(found, ", ")
		}), nil
	})
	return f, err
}
