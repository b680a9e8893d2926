// Package registry holds the function trees recipe steps resolve against,
// the option decoding shared by every step, and ambient parameter binding.
package registry

import (
	"context"
	"fmt"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/wrangles"
)

type (
	// Func is a wrangle over a whole table.
	Func func(ctx context.Context, f *wrangles.Frame, p Params) (*wrangles.Frame, error)
	// ReadFunc loads a table from a connector.
	ReadFunc func(ctx context.Context, p Params) (*wrangles.Frame, error)
	// WriteFunc persists a table through a connector.
	WriteFunc func(ctx context.Context, f *wrangles.Frame, p Params) error
	// ActionFunc is a side effect run before or after a pipeline.
	ActionFunc func(ctx context.Context, p Params) error
)

// Wrangle registers a Func together with the ambient parameters it reads.
type Wrangle struct {
	Fn      Func
	Ambient []string
	// Outputs names the columns the step would create from p. Nil means
	// `output` is read as names, or as mappings keyed by name.
	Outputs func(p Params) []string
}

func (w Wrangle) Accepts() []string { return w.Ambient }

type Reader struct {
	Fn      ReadFunc
	Ambient []string
}

func (r Reader) Accepts() []string { return r.Ambient }

type Writer struct {
	Fn      WriteFunc
	Ambient []string
}

func (w Writer) Accepts() []string { return w.Ambient }

type Action struct {
	Fn      ActionFunc
	Ambient []string
}

func (a Action) Accepts() []string { return a.Ambient }

// CellFunc is a user function applied to each cell of the input columns.
type CellFunc = func(string) any

// ColumnFunc is a user function applied to a whole input column.
type ColumnFunc = func([]string) []any

// AsWrangle turns a resolved leaf into a Wrangle. Per-cell and per-column
// user functions run through the column projector with the step's
// input/output options.
func AsWrangle(leaf any) (Wrangle, error) {
	switch fn := leaf.(type) {
	case Wrangle:
		return fn, nil
	case *Wrangle:
		return *fn, nil
	case Func:
		return Wrangle{Fn: fn}, nil
	case func(context.Context, *wrangles.Frame, Params) (*wrangles.Frame, error):
		return Wrangle{Fn: fn}, nil
	case CellFunc:
		return columnWrangle(func(vals []string) ([]any, error) {
			out := make([]any, len(vals))
			for i, v := range vals {
				out[i] = fn(v)
			}
			return out, nil
		}), nil
	case ColumnFunc:
		return columnWrangle(func(vals []string) ([]any, error) { return fn(vals), nil }), nil
	}
	return Wrangle{}, fmt.Errorf("%T is not a wrangle", leaf)
}

type columnOptions struct {
	Input  []string `mapstructure:"input" validate:"required,min=1"`
	Output []string `mapstructure:"output"`
}

func columnWrangle(fn project.ValuesFunc) Wrangle {
	return Wrangle{Fn: func(ctx context.Context, f *wrangles.Frame, p Params) (*wrangles.Frame, error) {
		var opts columnOptions
		if err := p.Decode(&opts); err != nil {
			return nil, err
		}
		return f, project.Apply(f, project.Spec{Input: opts.Input, Output: opts.Output}, fn)
	}}
}

// AsReader turns a resolved leaf into a Reader.
func AsReader(leaf any) (Reader, error) {
	switch fn := leaf.(type) {
	case Reader:
		return fn, nil
	case ReadFunc:
		return Reader{Fn: fn}, nil
	case func(context.Context, Params) (*wrangles.Frame, error):
		return Reader{Fn: fn}, nil
	}
	return Reader{}, fmt.Errorf("%T is not a reader", leaf)
}

// AsWriter turns a resolved leaf into a Writer.
func AsWriter(leaf any) (Writer, error) {
	switch fn := leaf.(type) {
	case Writer:
		return fn, nil
	case WriteFunc:
		return Writer{Fn: fn}, nil
	case func(context.Context, *wrangles.Frame, Params) error:
		return Writer{Fn: fn}, nil
	}
	return Writer{}, fmt.Errorf("%T is not a writer", leaf)
}

// AsAction turns a resolved leaf into an Action.
func AsAction(leaf any) (Action, error) {
	switch fn := leaf.(type) {
	case Action:
		return fn, nil
	case ActionFunc:
		return Action{Fn: fn}, nil
	case func(context.Context, Params) error:
		return Action{Fn: fn}, nil
	}
	return Action{}, fmt.Errorf("%T is not an action", leaf)
}

// Defaulter is implemented by step option structs that need non-zero
// defaults before decoding.
type Defaulter interface {
	SetDefaults()
}

// Step registers an option struct that is itself a Transform. Every call
// decodes a fresh T from the step's params and applies it.
func Step[T any, PT interface {
	*T
	wrangles.Transform
}]() Wrangle {
	return Wrangle{Fn: func(ctx context.Context, f *wrangles.Frame, p Params) (*wrangles.Frame, error) {
		var t T
		step := PT(&t)
		if d, ok := any(step).(Defaulter); ok {
			d.SetDefaults()
		}
		if err := p.Decode(step); err != nil {
			return nil, err
		}
		return step.Apply(ctx, f)
	}}
}
