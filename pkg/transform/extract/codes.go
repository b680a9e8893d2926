package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var codeToken = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9_\-]*[A-Za-z0-9]`)

const minCodeLen = 5

// isCode accepts tokens that mix letters and digits and are not plain
// measurements like 14kg.
func isCode(tok string) bool {
	if len(tok) < minCodeLen {
		return false
	}
	var letters, digits bool
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letters = true
		}
	}
	if !letters || !digits {
		return false
	}
	ms := measurements(tok)
	return len(ms) != 1 || ms[0].span != tok
}

func codes(s string) []any {
	out := []any{}
	seen := map[string]bool{}
	for _, tok := range codeToken.FindAllString(s, -1) {
		tok = strings.Trim(tok, "-_")
		if seen[tok] || !isCode(tok) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// Codes lists the alphanumeric codes (part numbers, SKUs) in the input.
func Codes(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts project.Columns
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	err := project.Apply(f, opts.Spec(project.CodeSeparator), func(vals []string) ([]any, error) {
		return mapStrings(vals, func(s string) any { return codes(s) }), nil
	})
	return f, err
}
