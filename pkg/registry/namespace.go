package registry

import (
	"reflect"
	"strings"
)

// Namespace is one node of a function tree.
type Namespace interface {
	Has(name string) bool
	Get(name string) any
}

// Map is a namespace backed by map keys.
type Map map[string]any

func (m Map) Has(name string) bool {
	_, ok := m[name]
	return ok
}

func (m Map) Get(name string) any { return m[name] }

// Attrs is a namespace backed by the exported fields and methods of a
// struct value. Names match a `wrangle:"name"` field tag first, then field
// and method names case-insensitively.
type Attrs struct {
	V any
}

func (a Attrs) Has(name string) bool {
	_, ok := a.lookup(name)
	return ok
}

func (a Attrs) Get(name string) any {
	v, _ := a.lookup(name)
	return v
}

func (a Attrs) lookup(name string) (any, bool) {
	rv := reflect.ValueOf(a.V)
	if !rv.IsValid() {
		return nil, false
	}
	for i := 0; i < rv.NumMethod(); i++ {
		if strings.EqualFold(rv.Type().Method(i).Name, name) {
			return rv.Method(i).Interface(), true
		}
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag := sf.Tag.Get("wrangle"); tag != "" {
			if tag == name {
				return rv.Field(i).Interface(), true
			}
			continue
		}
		if strings.EqualFold(sf.Name, name) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// node selects the namespace variant for v, or false for a leaf.
func node(v any) (Namespace, bool) {
	switch t := v.(type) {
	case Namespace:
		return t, true
	case map[string]any:
		return Map(t), true
	case Mapping:
		return Map(t.Values), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		return Attrs{V: v}, true
	}
	return nil, false
}
