package format

import (
	"context"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/admariner/wrangles/pkg/project"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// RemoveAccents folds accented letters to their base letter, e.g. é to e.
type RemoveAccents struct {
	project.Columns `mapstructure:",squash"`
}

func (t *RemoveAccents) Name() string { return "format.remove_accents" }

func (t *RemoveAccents) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, project.Zip(f, t.Columns, func(vals []any) ([]any, error) {
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				continue
			}
			// a transformer holds state, so one per call
			tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
			folded, _, err := transform.String(tr, s)
			if err != nil {
				return nil, err
			}
			vals[i] = folded
		}
		return vals, nil
	})
}
