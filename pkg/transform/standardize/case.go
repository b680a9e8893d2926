package standardize

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Case converts text cells to lower, upper, title or sentence case.
// Non-text cells are untouched.
type Case struct {
	project.Columns `mapstructure:",squash"`
	Case            string `mapstructure:"case" validate:"oneof=lower upper title sentence"`
}

func (t *Case) SetDefaults() { t.Case = "lower" }

func (t *Case) Name() string { return "convert.case" }

func (t *Case) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	conv := caser(t.Case)
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			if s, ok := v.(string); ok {
				vals[i] = conv(s)
			}
		}
		return vals, nil
	})
}

func caser(name string) func(string) string {
	switch name {
	case "upper":
		return cases.Upper(language.Und).String
	case "title":
		return cases.Title(language.Und).String
	case "sentence":
		return sentence
	}
	return cases.Lower(language.Und).String
}

// sentence upper-cases the first rune and lower-cases the rest.
func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[n:])
}
