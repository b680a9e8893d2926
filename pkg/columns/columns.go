// Package columns resolves column specifications (literal names, optional
// `name?` markers, `*` wildcards and `regex:` patterns) against the live
// columns of a table.
package columns

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

const regexPrefix = "regex:"

// Entry pairs a column pattern with its rename target.
type Entry struct {
	From string
	To   string
}

// Identity builds entries that select each spec without renaming it.
func Identity(specs []string) []Entry {
	out := make([]Entry, len(specs))
	for i, s := range specs {
		out[i] = Entry{From: s, To: s}
	}
	return out
}

// FromMap builds entries from a rename map, ordered by key.
func FromMap(m map[string]string) []Entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Entry, len(keys))
	for i, k := range keys {
		out[i] = Entry{From: k, To: m[k]}
	}
	return out
}

// IsPattern reports whether spec is matched by pattern rather than by name.
func IsPattern(spec string) bool {
	return hasRegexPrefix(spec) || strings.Contains(spec, "*")
}

func hasRegexPrefix(s string) bool {
	return len(s) >= len(regexPrefix) && strings.EqualFold(s[:len(regexPrefix)], regexPrefix)
}

// Compile desugars a wildcard entry into a regex entry. Each unescaped `*`
// in the key becomes `(.*)`; each unescaped `*` in the value becomes a
// reference to the next capture group. Other entries are returned as-is.
func Compile(e Entry) Entry {
	if hasRegexPrefix(e.From) || !strings.Contains(e.From, "*") {
		return e
	}
	group := 0
	return Entry{
		From: regexPrefix + replaceStars(e.From, func() string { return "(.*)" }),
		To: replaceStars(e.To, func() string {
			group++
			return `\g<` + strconv.Itoa(group) + `>`
		}),
	}
}

// replaceStars substitutes every `*` not preceded by a backslash.
func replaceStars(s string, repl func() string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '*' && (i == 0 || s[i-1] != '\\') {
			b.WriteString(repl())
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// compilePattern compiles the body of a `regex:` spec for full-string matching.
func compilePattern(spec string) (*regexp.Regexp, error) {
	body := strings.TrimSpace(spec[len(regexPrefix):])
	re, err := regexp.Compile(`^(?:` + body + `)$`)
	if err != nil {
		return nil, &wrangles.ConfigurationError{Msg: fmt.Sprintf("Invalid regex pattern: %s", body), Err: err}
	}
	return re, nil
}

// Expand resolves entries against all into an ordered input -> output
// mapping. Pattern entries come first, in entry order and table order
// within an entry; an earlier pattern keeps a column a later one also
// matches. Literal entries are merged on top and win on collision.
func Expand(all []string, spec []Entry) ([]Entry, error) {
	var out []Entry
	pos := map[string]int{}
	present := make(map[string]struct{}, len(all))
	for _, c := range all {
		present[c] = struct{}{}
	}

	var literals []Entry
	for _, raw := range spec {
		e := Compile(raw)
		if !hasRegexPrefix(e.From) {
			literals = append(literals, e)
			continue
		}
		re, err := compilePattern(e.From)
		if err != nil {
			return nil, err
		}
		tmpl := ""
		rename := e.From != e.To
		if rename {
			tmpl, err = template(re, e.To)
			if err != nil {
				return nil, err
			}
		}
		var renamed []string
		for _, c := range all {
			if !re.MatchString(c) {
				continue
			}
			to := c
			if rename {
				to = re.ReplaceAllString(c, tmpl)
			}
			renamed = append(renamed, to)
			if _, dup := pos[c]; dup {
				continue
			}
			pos[c] = len(out)
			out = append(out, Entry{From: c, To: to})
		}
		if hasDuplicates(renamed) {
			logger.Warn().Str("pattern", raw.From).Msg("Renamed columns contain duplicate values. Consider including a wildcard or regex capture group.")
		}
	}

	for _, e := range literals {
		name, to := e.From, e.To
		if _, ok := present[name]; !ok {
			if strings.HasSuffix(name, "?") {
				name = strings.TrimSuffix(name, "?")
				if to == e.From {
					to = name
				}
				if _, ok := present[name]; !ok {
					continue
				}
			} else {
				return nil, wrangles.Missing(name)
			}
		}
		if i, ok := pos[name]; ok {
			out[i].To = to
			continue
		}
		pos[name] = len(out)
		out = append(out, Entry{From: name, To: to})
	}
	return out, nil
}

// ExpandNames resolves specs against all and returns the matched names,
// deduplicated, in first-seen order.
func ExpandNames(all []string, specs []string) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	add := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	present := make(map[string]struct{}, len(all))
	for _, c := range all {
		present[c] = struct{}{}
	}
	for _, s := range specs {
		e := Compile(Entry{From: s, To: s})
		if hasRegexPrefix(e.From) {
			re, err := compilePattern(e.From)
			if err != nil {
				return nil, err
			}
			for _, c := range all {
				if re.MatchString(c) {
					add(c)
				}
			}
			continue
		}
		name := s
		if _, ok := present[name]; !ok {
			if !strings.HasSuffix(name, "?") {
				return nil, wrangles.Missing(name)
			}
			name = strings.TrimSuffix(name, "?")
			if _, ok := present[name]; !ok {
				continue
			}
		}
		add(name)
	}
	return out, nil
}

// template converts a rename value with `\N` or `\g<name>` group references
// into a Go replacement template, checking every reference exists in re.
func template(re *regexp.Regexp, value string) (string, error) {
	bad := func() error {
		return wrangles.Configf("Invalid regex pattern: %s. Are you missing a capture group?", value)
	}
	names := map[string]bool{}
	for _, n := range re.SubexpNames() {
		if n != "" {
			names[n] = true
		}
	}
	ref := func(g string) (string, error) {
		if n, err := strconv.Atoi(g); err == nil {
			if n > re.NumSubexp() {
				return "", bad()
			}
			return "${" + g + "}", nil
		}
		if !names[g] {
			return "", bad()
		}
		return "${" + g + "}", nil
	}

	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '$':
			b.WriteString("$$")
		case c == '\\' && i+1 < len(value):
			next := value[i+1]
			switch {
			case next >= '0' && next <= '9':
				j := i + 1
				for j < len(value) && j < i+3 && value[j] >= '0' && value[j] <= '9' {
					j++
				}
				r, err := ref(value[i+1 : j])
				if err != nil {
					return "", err
				}
				b.WriteString(r)
				i = j - 1
			case next == 'g' && i+2 < len(value) && value[i+2] == '<':
				end := strings.IndexByte(value[i+3:], '>')
				if end < 0 {
					return "", bad()
				}
				r, err := ref(value[i+3 : i+3+end])
				if err != nil {
					return "", err
				}
				b.WriteString(r)
				i += 3 + end
			default:
				// escaped literal, e.g. `\*`
				b.WriteByte(next)
				i++
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func hasDuplicates(names []string) bool {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}

// AsList lifts a scalar or list option value into a list of names.
func AsList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			out = append(out, wrangles.String(x))
		}
		return out
	}
	return []string{wrangles.String(v)}
}
