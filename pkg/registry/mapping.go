package registry

import (
	"reflect"
	"sort"
)

// Mapping is a recipe mapping that remembers the order its keys were
// written in. Option decoding sees it as a plain map.
type Mapping struct {
	Keys   []string
	Values map[string]any
}

// Set adds or replaces key, keeping first-seen order.
func (m *Mapping) Set(key string, v any) {
	if m.Values == nil {
		m.Values = map[string]any{}
	}
	if _, ok := m.Values[key]; !ok {
		m.Keys = append(m.Keys, key)
	}
	m.Values[key] = v
}

// Plain converts Mapping values, at any depth, to map[string]any.
func Plain(v any) any {
	switch t := v.(type) {
	case Mapping:
		out := make(map[string]any, len(t.Values))
		for k, x := range t.Values {
			out[k] = Plain(x)
		}
		return out
	case *Mapping:
		return Plain(*t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Plain(x)
		}
		return out
	case Params:
		return Plain(map[string]any(t))
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Plain(x)
		}
		return out
	}
	return v
}

// KeysOf returns the keys of a mapping value: document order for a
// Mapping, sorted for a plain map.
func KeysOf(v any) ([]string, bool) {
	switch t := v.(type) {
	case Mapping:
		return append([]string(nil), t.Keys...), true
	case *Mapping:
		return append([]string(nil), t.Keys...), true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, true
	case Params:
		return KeysOf(map[string]any(t))
	}
	return nil, false
}

var mappingType = reflect.TypeOf(Mapping{})

func mappingHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to == mappingType {
		return data, nil
	}
	switch data.(type) {
	case Mapping, *Mapping:
		return Plain(data), nil
	}
	return data, nil
}
