// Package validate checks column values against an allowed set or range.
// Without an output the step fails on the first offending column; with
// one it writes a true/false column per input instead.
package validate

import (
	"fmt"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func Tree() registry.Map {
	return registry.Map{
		"in":    registry.Step[InSet](),
		"range": registry.Step[Range](),
	}
}

// check runs ok over every non-empty cell of each input column.
func check(f *w.Frame, c project.Columns, step string, ok func(any) bool) error {
	if len(c.Output) == 0 {
		in, _, err := c.Pairs(f)
		if err != nil {
			return err
		}
		for _, name := range in {
			col, _ := f.Column(name)
			var bad int
			for _, v := range col {
				if !w.IsEmpty(v) && !ok(v) {
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%s: column %s has %d invalid values", step, name, bad)
			}
		}
		return nil
	}
	return project.Zip(f, c, func(vals []any) ([]any, error) {
		for i, v := range vals {
			vals[i] = w.IsEmpty(v) || ok(v)
		}
		return vals, nil
	})
}
