// Package standardize rewrites text cells into a canonical spelling.
package standardize

import (
	"github.com/admariner/wrangles/pkg/registry"
)

// Tree holds convert.case and replace.
func Tree() registry.Map {
	return registry.Map{
		"convert": registry.Map{
			"case": registry.Step[Case](),
		},
		"replace": registry.Step[Replace](),
	}
}
