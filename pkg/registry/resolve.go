package registry

import (
	"strings"

	"github.com/admariner/wrangles/pkg/wrangles"
)

// Resolver looks dotted step names up in function trees.
type Resolver struct {
	// Builtin is the read-only stock tree.
	Builtin any
	// Custom holds user functions addressed as `custom.<path>`.
	Custom any
	// Override is checked before Builtin for names without the custom
	// prefix. It has the same shape as Builtin.
	Override any
	// Default is appended to non-custom paths, e.g. "read" turns `file`
	// into `file.read`.
	Default string
}

// Resolve returns the leaf at name.
func (r Resolver) Resolve(name string) (any, error) {
	if r.Builtin == nil && r.Custom == nil && r.Override == nil {
		return nil, wrangles.ErrNoFunctions
	}
	path := strings.Split(strings.TrimSpace(name), ".")
	if path[0] == "custom" {
		if len(path) == 1 {
			return nil, wrangles.Configf("Custom function not defined correctly")
		}
		return walk(r.Custom, path[1:], name)
	}
	if r.Default != "" {
		path = append(path, r.Default)
	}
	if r.Override != nil {
		if v, err := walk(r.Override, path, name); err == nil {
			return v, nil
		}
	}
	return walk(r.Builtin, path, name)
}

func walk(root any, path []string, name string) (any, error) {
	cur := root
	for _, seg := range path {
		ns, ok := node(cur)
		if !ok || !ns.Has(seg) {
			return nil, &wrangles.UnknownFunctionError{Name: name}
		}
		cur = ns.Get(seg)
	}
	return cur, nil
}
