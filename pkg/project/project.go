// Package project maps a step's input columns onto its output columns and
// calls a column function once per pair or once over the joined inputs.
package project

import (
	"fmt"
	"strings"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/wrangles"
)

const (
	// DefaultSeparator joins input columns in aggregate mode.
	DefaultSeparator = " "
	// CodeSeparator joins inputs whose values may legitimately contain
	// spaces that must not merge into one token.
	CodeSeparator = " AAA "
)

const cardinalityMsg = "Extract must output to a single column or equal amount of columns as input."

type Mode int

const (
	// Zipped calls the function once per input/output pair.
	Zipped Mode = iota
	// Aggregate joins all inputs row-wise and calls the function once.
	Aggregate
)

// Plan is a validated pairing of input and output columns.
type Plan struct {
	Mode    Mode
	Inputs  []string
	Outputs []string
}

// NewPlan expands input against cols and pairs it with output. An empty
// output writes back over the inputs.
func NewPlan(cols, input, output []string) (Plan, error) {
	in, err := columns.ExpandNames(cols, input)
	if err != nil {
		return Plan{}, err
	}
	out := output
	if len(out) == 0 {
		out = in
	}
	switch {
	case len(in) == len(out):
		return Plan{Mode: Zipped, Inputs: in, Outputs: out}, nil
	case len(out) == 1 && len(in) > 1:
		return Plan{Mode: Aggregate, Inputs: in, Outputs: out}, nil
	}
	return Plan{}, wrangles.Configf(cardinalityMsg)
}

// Spec is the column part of a step's options.
type Spec struct {
	Input     []string
	Output    []string
	Separator string
}

// ValuesFunc maps one column of text values to one column of results of
// the same length.
type ValuesFunc func(values []string) ([]any, error)

// CellsFunc is ValuesFunc over raw cells.
type CellsFunc func(values []any) ([]any, error)

// Apply runs fn over the columns described by s, writing results into f.
func Apply(f *wrangles.Frame, s Spec, fn ValuesFunc) error {
	return ApplyCells(f, s, func(vals []any) ([]any, error) {
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = wrangles.String(v)
		}
		return fn(strs)
	})
}

// ApplyCells is Apply without coercing cells to text. In aggregate mode
// the function still receives the joined text of each row.
func ApplyCells(f *wrangles.Frame, s Spec, fn CellsFunc) error {
	plan, err := NewPlan(f.Columns(), s.Input, s.Output)
	if err != nil {
		return err
	}
	sep := s.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	if plan.Mode == Aggregate {
		joined := make([]any, f.Rows())
		parts := make([]string, len(plan.Inputs))
		for r := range joined {
			for i, in := range plan.Inputs {
				parts[i] = wrangles.String(f.Cell(r, in))
			}
			joined[r] = strings.Join(parts, sep)
		}
		return call(f, fn, joined, plan.Outputs[0])
	}

	for i, in := range plan.Inputs {
		col, _ := f.Column(in)
		vals := append([]any(nil), col...)
		if err := call(f, fn, vals, plan.Outputs[i]); err != nil {
			return err
		}
	}
	return nil
}

func call(f *wrangles.Frame, fn CellsFunc, vals []any, output string) error {
	res, err := fn(vals)
	if err != nil {
		return err
	}
	if len(res) != len(vals) {
		return fmt.Errorf("column function returned %d values for %d rows", len(res), len(vals))
	}
	return f.SetColumn(output, res)
}

// Columns is the input/output block most steps embed in their options
// with `mapstructure:",squash"`.
type Columns struct {
	Input  []string `mapstructure:"input" validate:"required,min=1"`
	Output []string `mapstructure:"output"`
}

// Spec returns the projector spec for c joined with sep.
func (c Columns) Spec(sep string) Spec {
	return Spec{Input: c.Input, Output: c.Output, Separator: sep}
}

// Pairs expands c against f and pairs each input with its output. Unlike
// NewPlan it never aggregates: counts must match.
func (c Columns) Pairs(f *wrangles.Frame) ([]string, []string, error) {
	in, err := columns.ExpandNames(f.Columns(), c.Input)
	if err != nil {
		return nil, nil, err
	}
	out := c.Output
	if len(out) == 0 {
		out = in
	}
	if len(in) != len(out) {
		return nil, nil, wrangles.Configf("The list of inputs and outputs must be the same length")
	}
	return in, out, nil
}

// Zip applies fn to each input column and writes the result to the paired
// output. Inputs and outputs must pair one to one.
func Zip(f *wrangles.Frame, c Columns, fn CellsFunc) error {
	in, out, err := c.Pairs(f)
	if err != nil {
		return err
	}
	for i, name := range in {
		col, _ := f.Column(name)
		if err := call(f, fn, append([]any(nil), col...), out[i]); err != nil {
			return err
		}
	}
	return nil
}
