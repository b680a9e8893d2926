package recipe

import (
	"os"
	"regexp"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var varRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substitute replaces ${NAME} references throughout v. A string that is
// exactly one reference takes the variable's value with its type; inside
// longer text the value is rendered as text. Variables win over the
// environment, which is consulted only when env is set. An undefined name
// is an error.
func substitute(v any, vars map[string]any, env bool) (any, error) {
	switch t := v.(type) {
	case string:
		return substituteString(t, vars, env)
	case registry.Mapping:
		var out registry.Mapping
		for _, k := range t.Keys {
			x, err := substitute(t.Values[k], vars, env)
			if err != nil {
				return nil, err
			}
			out.Set(k, x)
		}
		if out.Values == nil {
			out.Values = map[string]any{}
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			y, err := substitute(x, vars, env)
			if err != nil {
				return nil, err
			}
			out[i] = y
		}
		return out, nil
	}
	return v, nil
}

func substituteString(s string, vars map[string]any, env bool) (any, error) {
	lookup := func(name string) (any, error) {
		if v, ok := vars[name]; ok {
			return v, nil
		}
		if !env {
			return nil, w.Configf("Variable %s is not defined", name)
		}
		if v, ok := os.LookupEnv(name); ok {
			return v, nil
		}
		return nil, w.Configf("Variable %s is not defined", name)
	}
	if m := varRe.FindStringSubmatch(s); m != nil && m[0] == s {
		return lookup(m[1])
	}
	var err error
	out := varRe.ReplaceAllStringFunc(s, func(ref string) string {
		v, lerr := lookup(ref[2 : len(ref)-1])
		if lerr != nil && err == nil {
			err = lerr
		}
		return w.String(v)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
