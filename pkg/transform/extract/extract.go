// Package extract pulls structured values out of free text columns.
package extract

import (
	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/registry"
)

var logger = gologger.NewLogger()

// Tree is the `extract` namespace.
func Tree() registry.Map {
	return registry.Map{
		"ai":              registry.Wrangle{Fn: AI, Ambient: []string{"api_key"}},
		"attributes":      registry.Wrangle{Fn: Attributes},
		"brackets":        registry.Wrangle{Fn: Brackets},
		"codes":           registry.Wrangle{Fn: Codes},
		"date_properties": registry.Wrangle{Fn: DateProperties},
		"date_range":      registry.Wrangle{Fn: DateRange},
		"html":            registry.Wrangle{Fn: HTML},
		"regex":           registry.Wrangle{Fn: Regex},
	}
}

func mapStrings(vals []string, fn func(string) any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = fn(v)
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
