// Package create adds generated columns: constants, row indexes,
// identifiers and content hashes.
package create

import (
	"context"

	"github.com/google/uuid"

	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/utils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func Tree() registry.Map {
	return registry.Map{
		"column": registry.Step[Column](),
		"hash":   registry.Step[Hash](),
		"id":     registry.Step[ID](),
		"index":  registry.Step[Index](),
		"uuid":   registry.Step[UUID](),
	}
}

// Column sets every output column to Value.
type Column struct {
	Output []string `mapstructure:"output" validate:"required,min=1"`
	Value  any      `mapstructure:"value"`
}

func (t *Column) Name() string { return "create.column" }

func (t *Column) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	v := registry.Plain(t.Value)
	for _, out := range t.Output {
		f.Fill(out, v)
	}
	return f, nil
}

// Index numbers rows from Start in increments of Step.
type Index struct {
	Output string `mapstructure:"output" validate:"required"`
	Start  int64  `mapstructure:"start"`
	Step   int64  `mapstructure:"step" validate:"ne=0"`
}

func (t *Index) SetDefaults() { t.Start, t.Step = 1, 1 }

func (t *Index) Name() string { return "create.index" }

func (t *Index) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	col := make([]any, f.Rows())
	for i := range col {
		col[i] = t.Start + int64(i)*t.Step
	}
	return f, f.SetColumn(t.Output, col)
}

// UUID fills each output with random version 4 UUIDs.
type UUID struct {
	Output []string `mapstructure:"output" validate:"required,min=1"`
}

func (t *UUID) Name() string { return "create.uuid" }

func (t *UUID) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	return f, generate(f, t.Output, func() string { return uuid.NewString() })
}

// ID fills each output with k-sortable ids or random nanoids.
type ID struct {
	Output []string `mapstructure:"output" validate:"required,min=1"`
	Method string   `mapstructure:"method" validate:"oneof=ksuid nanoid"`
	Prefix string   `mapstructure:"prefix"`
	Size   int      `mapstructure:"size" validate:"gte=1,lte=64"`
}

func (t *ID) SetDefaults() { t.Method, t.Size = "ksuid", 21 }

func (t *ID) Name() string { return "create.id" }

func (t *ID) Apply(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	gen := func() string { return utils.GenKSortedID(t.Prefix) }
	if t.Method == "nanoid" {
		gen = func() string { return utils.GenRandomID(t.Prefix, t.Size) }
	}
	return f, generate(f, t.Output, gen)
}

func generate(f *w.Frame, outputs []string, gen func() string) error {
	for _, out := range outputs {
		col := make([]any, f.Rows())
		for i := range col {
			col[i] = gen()
		}
		if err := f.SetColumn(out, col); err != nil {
			return err
		}
	}
	return nil
}
