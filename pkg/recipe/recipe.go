// Package recipe loads declarative recipes and runs them: read steps
// build a table, wrangle steps transform it, write steps persist it, and
// run actions fire around the whole thing.
package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

// Recipe is a parsed recipe document. Variables are substituted when it
// runs, so one Recipe can run many times with different variables.
type Recipe struct {
	root registry.Mapping
}

// Step is one named entry of a recipe section.
type Step struct {
	Name   string
	Params registry.Params
}

type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
	JSON Format = "json"
)

// Load reads a recipe file, choosing the format by extension.
func Load(path string) (*Recipe, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe: %w", err)
	}
	format := YAML
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = TOML
	case ".json":
		format = JSON
	}
	return Parse(b, format)
}

// Parse decodes recipe text. JSON goes through the YAML decoder, which
// accepts it and keeps key order.
func Parse(data []byte, format Format) (*Recipe, error) {
	var root any
	switch format {
	case TOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, &w.ConfigurationError{Msg: "invalid TOML recipe", Err: err}
		}
		root = sortedMapping(m)
	case YAML, JSON, "":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &w.ConfigurationError{Msg: "invalid recipe", Err: err}
		}
		if len(doc.Content) == 0 {
			return &Recipe{}, nil
		}
		v, err := fromNode(doc.Content[0])
		if err != nil {
			return nil, err
		}
		root = v
	default:
		return nil, w.Configf("unknown recipe format %q", format)
	}
	m, ok := root.(registry.Mapping)
	if !ok {
		return nil, w.Configf("recipe must be a mapping of sections")
	}
	for _, k := range m.Keys {
		switch k {
		case "read", "wrangles", "write", "run":
		default:
			return nil, w.Configf("unknown recipe section %q", k)
		}
	}
	return &Recipe{root: m}, nil
}

// fromNode converts a YAML node into Mapping, []any and scalar values.
func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		var m registry.Mapping
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.ScalarNode && k.Tag == "!!merge" {
				merged, err := fromNode(v)
				if err != nil {
					return nil, err
				}
				if mm, ok := merged.(registry.Mapping); ok {
					for _, mk := range mm.Keys {
						m.Set(mk, mm.Values[mk])
					}
				}
				continue
			}
			val, err := fromNode(v)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, val)
		}
		if m.Values == nil {
			m.Values = map[string]any{}
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &w.ConfigurationError{Msg: fmt.Sprintf("line %d", n.Line), Err: err}
		}
		return w.Normalize(v), nil
	}
	return nil, nil
}

func sortedMapping(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var m registry.Mapping
		for _, k := range keys {
			m.Set(k, sortedMapping(t[k]))
		}
		if m.Values == nil {
			m.Values = map[string]any{}
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = sortedMapping(x)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = sortedMapping(x)
		}
		return out
	}
	return w.Normalize(v)
}

// steps reads a section as an ordered list of steps. The section may be a
// list of single-key mappings or one mapping of steps.
func steps(section any) ([]Step, error) {
	var out []Step
	add := func(m registry.Mapping) error {
		for _, k := range m.Keys {
			p, err := params(m.Values[k])
			if err != nil {
				return fmt.Errorf("step %s: %w", k, err)
			}
			out = append(out, Step{Name: k, Params: p})
		}
		return nil
	}
	switch t := section.(type) {
	case nil:
		return nil, nil
	case registry.Mapping:
		return out, add(t)
	case []any:
		for _, item := range t {
			switch s := item.(type) {
			case registry.Mapping:
				if err := add(s); err != nil {
					return nil, err
				}
			case string:
				out = append(out, Step{Name: s, Params: registry.Params{}})
			default:
				return nil, w.Configf("a recipe step must be a mapping, got %T", item)
			}
		}
		return out, nil
	}
	return nil, w.Configf("a recipe section must be a list or a mapping, got %T", section)
}

func params(v any) (registry.Params, error) {
	switch t := v.(type) {
	case nil:
		return registry.Params{}, nil
	case registry.Mapping:
		p := make(registry.Params, len(t.Values))
		for k, x := range t.Values {
			p[k] = x
		}
		return p, nil
	}
	return nil, w.Configf("step options must be a mapping, got %T", v)
}
