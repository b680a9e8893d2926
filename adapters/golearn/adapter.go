// Package golearn converts frame columns into
// github.com/sjwhitworth/golearn/base instances.
package golearn

import (
	"fmt"

	"github.com/sjwhitworth/golearn/base"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Attributes returns one float attribute per feature column followed by a
// categorical class attribute.
func Attributes(features []string, class string) []base.Attribute {
	attrs := make([]base.Attribute, 0, len(features)+1)
	for _, n := range features {
		attrs = append(attrs, base.NewFloatAttribute(n))
	}
	ca := base.NewCategoricalAttribute()
	ca.SetName(class)
	return append(attrs, ca)
}

// ToDenseInstances copies the given rows of f into DenseInstances over
// attrs, as built by Attributes. Every feature cell must be numeric. When
// withClass is false the class column is left unset, for instances that
// are about to be predicted. Instances that share attrs are compatible.
func ToDenseInstances(f *w.Frame, attrs []base.Attribute, rows []int, withClass bool) (*base.DenseInstances, error) {
	inst := base.NewDenseInstances()
	specs := make([]base.AttributeSpec, len(attrs))
	for i, a := range attrs {
		if !f.Has(a.GetName()) {
			return nil, w.Missing(a.GetName())
		}
		specs[i] = inst.AddAttribute(a)
	}
	class := attrs[len(attrs)-1]
	if err := inst.AddClassAttribute(class); err != nil {
		return nil, err
	}
	if err := inst.Extend(len(rows)); err != nil {
		return nil, err
	}

	for i, r := range rows {
		for c, a := range attrs[:len(attrs)-1] {
			x, ok := w.Float(f.Cell(r, a.GetName()))
			if !ok {
				return nil, fmt.Errorf("row %d: %s is not numeric", r, a.GetName())
			}
			inst.Set(specs[c], i, base.PackFloatToBytes(x))
		}
		if withClass {
			inst.Set(specs[len(specs)-1], i, class.GetSysValFromString(w.String(f.Cell(r, class.GetName()))))
		}
	}
	return inst, nil
}
