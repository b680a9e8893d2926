// Package format reshapes cell text without changing its meaning.
package format

import (
	"github.com/admariner/wrangles/pkg/registry"
)

// Tree is the `format` namespace.
func Tree() registry.Map {
	return registry.Map{
		"date_format":       registry.Step[DateFormat](),
		"map_values":        registry.Step[MapValues](),
		"prefix":            registry.Step[Prefix](),
		"remove_accents":    registry.Step[RemoveAccents](),
		"remove_duplicates": registry.Step[RemoveDuplicates](),
		"suffix":            registry.Step[Suffix](),
		"trim":              registry.Step[Trim](),
	}
}
