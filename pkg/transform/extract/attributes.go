package extract

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type attributeOptions struct {
	project.Columns `mapstructure:",squash"`
	ResponseContent string `mapstructure:"responseContent" validate:"oneof=span object"`
	AttributeType   string `mapstructure:"attribute_type"`
	DesiredUnit     string `mapstructure:"desired_unit"`
	Bound           string `mapstructure:"bound"`
}

// measurement is one quantity found in text.
type measurement struct {
	span       string
	value      float64
	unit       *unit
	start, end int
}

func (m measurement) base() float64 { return m.value*m.unit.factor + m.unit.offset }

func (m measurement) standard() string {
	return strconv.FormatFloat(m.value, 'f', -1, 64) + " " + m.unit.symbol
}

func (m measurement) object() map[string]any {
	return map[string]any{
		"span":     m.span,
		"standard": m.standard(),
		"symbol":   m.unit.symbol,
		"unit":     m.unit.name,
		"value":    m.value,
	}
}

func (m measurement) convert(to *unit) measurement {
	if to == nil || to.kind != m.unit.kind {
		return m
	}
	v := (m.base() - to.offset) / to.factor
	m.value = math.Round(v*1e9) / 1e9
	m.unit = to
	return m
}

// measurements finds quantities in s in the order they appear. A match
// must not touch a letter or digit on either side.
func measurements(s string) []measurement {
	var out []measurement
	for _, loc := range measureRe.FindAllStringSubmatchIndex(s, -1) {
		start, end := loc[0], loc[1]
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); start > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.') {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(s[end:]); end < len(s) && (unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("^²³/", r)) {
			continue
		}
		v, err := strconv.ParseFloat(s[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		out = append(out, measurement{
			span:  s[start:end],
			value: v,
			unit:  byAlias[s[loc[4]:loc[5]]],
			start: start,
			end:   end,
		})
	}
	return out
}

var rangeJoiners = map[string]bool{"to": true, "-": true, "–": true, "~": true}

// applyBound collapses runs like "13kg to 14.5kg to 18.2kg" to a single
// value of the run.
func applyBound(s string, ms []measurement, bound string) []measurement {
	var out []measurement
	for i := 0; i < len(ms); {
		j := i + 1
		for j < len(ms) && ms[j].unit.kind == ms[i].unit.kind && rangeJoiners[strings.TrimSpace(s[ms[j-1].end:ms[j].start])] {
			j++
		}
		run := append([]measurement(nil), ms[i:j]...)
		if len(run) > 1 {
			sort.SliceStable(run, func(a, b int) bool { return run[a].base() < run[b].base() })
			switch bound {
			case "min":
				run = run[:1]
			case "max":
				run = run[len(run)-1:]
			default:
				run = run[(len(run)-1)/2 : (len(run)-1)/2+1]
			}
		}
		out = append(out, run...)
		i = j
	}
	return out
}

// Attributes finds measurements such as 5kg or 0.5m. Without an
// attribute_type the result is a map of type to findings; with one it is
// the list of findings of that type.
func Attributes(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	opts := attributeOptions{ResponseContent: "span", Bound: "mid"}
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	switch opts.Bound {
	case "min", "mid", "max":
	default:
		return nil, w.Configf("Invalid boundary setting. min, mid or max permitted.")
	}
	kind := ""
	if opts.AttributeType != "" {
		k, ok := attributeKinds[opts.AttributeType]
		if !ok {
			return nil, w.Configf("Invalid attribute_type %q", opts.AttributeType)
		}
		kind = k
	}
	var desired *unit
	if opts.DesiredUnit != "" {
		u, ok := lookupUnit(opts.DesiredUnit)
		if !ok {
			return nil, w.Configf("Unknown desired_unit %q", opts.DesiredUnit)
		}
		desired = u
	}

	render := func(m measurement) any {
		if desired != nil && desired.kind == m.unit.kind {
			m = m.convert(desired)
			if opts.ResponseContent == "span" {
				return m.standard()
			}
		}
		if opts.ResponseContent == "object" {
			return m.object()
		}
		return m.span
	}

	err := project.Apply(f, opts.Spec(project.CodeSeparator), func(vals []string) ([]any, error) {
		return mapStrings(vals, func(s string) any {
			found := applyBound(s, measurements(s), opts.Bound)
			if kind != "" {
				list := []any{}
				for _, m := range found {
					if m.unit.kind == kind {
						list = append(list, render(m))
					}
				}
				return list
			}
			byKind := map[string]any{}
			for _, m := range found {
				prev, _ := byKind[m.unit.kind].([]any)
				byKind[m.unit.kind] = append(prev, render(m))
			}
			return byKind
		}), nil
	})
	return f, err
}
