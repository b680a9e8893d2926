package wrangles

import (
	"context"
	"fmt"
)

// Transform is one wrangle step applied to a Frame. A step may mutate the
// frame in place or return a replacement.
type Transform interface {
	Name() string
	Apply(ctx context.Context, f *Frame) (*Frame, error)
}

// TransformFunc adapts a function to a Transform.
type TransformFunc struct {
	Label string
	Fn    func(ctx context.Context, f *Frame) (*Frame, error)
}

func (t TransformFunc) Name() string { return t.Label }

func (t TransformFunc) Apply(ctx context.Context, f *Frame) (*Frame, error) {
	return t.Fn(ctx, f)
}

// Pipeline composes a sequence of Transforms. Steps run strictly in order;
// the first failure aborts the run.
type Pipeline struct {
	steps []Transform
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Add(t Transform) *Pipeline {
	p.steps = append(p.steps, t)
	return p
}

func (p *Pipeline) Len() int { return len(p.steps) }

func (p *Pipeline) Run(ctx context.Context, f *Frame) (*Frame, error) {
	cur := f
	for i, t := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := t.Apply(ctx, cur)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, t.Name(), err)
		}
		if out != nil {
			cur = out
		}
	}
	return cur, nil
}
