package recipe

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/where"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// generic options apply to the table a connector read or is about to
// write, and are never passed to the connector.
var generic = []string{"columns", "not_columns", "where", "where_params", "order_by", "if"}

type shapeOptions struct {
	Columns     []string `mapstructure:"columns"`
	NotColumns  []string `mapstructure:"not_columns"`
	Where       string   `mapstructure:"where"`
	WhereParams any      `mapstructure:"where_params"`
	OrderBy     string   `mapstructure:"order_by"`
	If          any      `mapstructure:"if"`
}

func splitGeneric(p registry.Params) (registry.Params, registry.Params) {
	g := registry.Params{}
	for _, k := range generic {
		if v, ok := p[k]; ok {
			g[k] = v
		}
	}
	return p.Without(generic...), g
}

// shape applies the generic options: where, then column selection, then
// order_by.
func shape(ctx context.Context, f *w.Frame, g registry.Params) (*w.Frame, error) {
	var o shapeOptions
	if err := g.Decode(&o); err != nil {
		return nil, err
	}
	var err error
	if o.Where != "" {
		if f, err = where.Filter(ctx, f, o.Where, registry.Plain(o.WhereParams)); err != nil {
			return nil, err
		}
	}
	if len(o.Columns) > 0 {
		sel, err := columns.ExpandNames(f.Columns(), o.Columns)
		if err != nil {
			return nil, err
		}
		if f, err = f.Select(sel); err != nil {
			return nil, err
		}
	}
	if len(o.NotColumns) > 0 {
		drop, err := columns.ExpandNames(f.Columns(), o.NotColumns)
		if err != nil {
			return nil, err
		}
		f = f.Clone()
		f.Drop(drop...)
	}
	if o.OrderBy != "" {
		keys, err := w.ParseOrderBy(o.OrderBy)
		if err != nil {
			return nil, w.Configf("%s", err)
		}
		if f, err = w.SortBy(f, keys); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (rn *runner) read(ctx context.Context) (*w.Frame, error) {
	list, err := rn.section("read")
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		if rn.input != nil {
			return rn.input, nil
		}
		return w.NewFrame(), nil
	}
	frames, err := rn.readAll(ctx, list)
	if err != nil {
		return nil, err
	}
	return w.Union(frames...), nil
}

// readAll reads each step, dropping those whose `if` is false.
func (rn *runner) readAll(ctx context.Context, list []Step) ([]*w.Frame, error) {
	var frames []*w.Frame
	for _, s := range list {
		f, err := rn.readStep(ctx, s)
		if err != nil {
			return nil, err
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
	return frames, nil
}

type joinOptions struct {
	How     string   `mapstructure:"how" validate:"omitempty,oneof=inner left right outer"`
	LeftOn  []string `mapstructure:"left_on" validate:"required,min=1"`
	RightOn []string `mapstructure:"right_on" validate:"required,min=1"`
}

func (rn *runner) readStep(ctx context.Context, s Step) (*w.Frame, error) {
	if ok, err := skip(ctx, s.Params); err != nil || ok {
		return nil, err
	}
	p, g := splitGeneric(s.Params)
	lg := zerolog.Ctx(ctx).With().Str("read", s.Name).Logger()

	var f *w.Frame
	switch s.Name {
	case "union", "concatenate", "join":
		sources, err := steps(p["sources"])
		if err != nil {
			return nil, err
		}
		frames, err := rn.readAll(ctx, sources)
		if err != nil {
			return nil, err
		}
		switch s.Name {
		case "union":
			f = w.Union(frames...)
		case "concatenate":
			f = w.Concat(frames...)
		case "join":
			var jo joinOptions
			if err := p.Without("sources").Decode(&jo); err != nil {
				return nil, err
			}
			if len(frames) != 2 {
				return nil, w.Configf("join needs exactly two sources, got %d", len(frames))
			}
			how := jo.How
			if how == "" {
				how = "inner"
			}
			if f, err = w.Join(frames[0], frames[1], how, jo.LeftOn, jo.RightOn); err != nil {
				return nil, err
			}
		}
	default:
		leaf, err := rn.resolver("read", rn.connectorTree()).Resolve(s.Name)
		if err != nil {
			return nil, err
		}
		rd, err := registry.AsReader(leaf)
		if err != nil {
			return nil, w.Configf("%s: %s", s.Name, err)
		}
		p = registry.Bind(p, rd.Accepts(), rn.ambient(nil))
		if f, err = rd.Fn(ctx, p); err != nil {
			return nil, fmt.Errorf("read %s: %w", s.Name, err)
		}
	}
	f, err := shape(ctx, f, g.Without("if"))
	if err != nil {
		return nil, err
	}
	lg.Info().Int("rows", f.Rows()).Int("columns", f.Cols()).Msg("read complete")
	return f, nil
}

func (rn *runner) write(ctx context.Context, f *w.Frame) (*w.Frame, error) {
	list, err := rn.section("write")
	if err != nil {
		return nil, err
	}
	out := f
	res := rn.resolver("write", rn.connectorTree())
	for _, s := range list {
		if ok, err := skip(ctx, s.Params); err != nil {
			return nil, err
		} else if ok {
			continue
		}
		p, g := splitGeneric(s.Params)
		shaped, err := shape(ctx, f, g.Without("if"))
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", s.Name, err)
		}
		if s.Name == "dataframe" {
			if len(p) > 0 {
				return nil, w.Configf("dataframe write only takes columns, not_columns, where and order_by")
			}
			out = shaped
			continue
		}
		leaf, err := res.Resolve(s.Name)
		if err != nil {
			return nil, err
		}
		wr, err := registry.AsWriter(leaf)
		if err != nil {
			return nil, w.Configf("%s: %s", s.Name, err)
		}
		p = registry.Bind(p, wr.Accepts(), rn.ambient(nil))
		if err := wr.Fn(ctx, shaped, p); err != nil {
			return nil, fmt.Errorf("write %s: %w", s.Name, err)
		}
		zerolog.Ctx(ctx).Info().Str("write", s.Name).Int("rows", shaped.Rows()).Msg("write complete")
	}
	return out, nil
}
