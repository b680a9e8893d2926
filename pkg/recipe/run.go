package recipe

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/gologger"
	"github.com/admariner/wrangles/pkg/registry"
	"github.com/admariner/wrangles/pkg/utils"
	"github.com/admariner/wrangles/pkg/where"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type options struct {
	functions  any
	variables  map[string]any
	common     map[string]any
	input      *w.Frame
	noEnv      bool
	connectors []string
	restricted bool
}

type Option func(*options)

// WithFunctions supplies user functions. They are reachable as
// `custom.<path>` and, under their own names, override built-in steps and
// connectors of the same path.
func WithFunctions(fns any) Option { return func(o *options) { o.functions = fns } }

// WithVariables supplies values for ${NAME} references. Repeated options
// merge, later values winning.
func WithVariables(vars map[string]any) Option {
	return func(o *options) {
		if o.variables == nil {
			o.variables = make(map[string]any, len(vars))
		}
		for k, v := range vars {
			o.variables[k] = v
		}
	}
}

// WithCommon supplies parameters, such as api_key, that any step
// declaring them receives unless it sets them itself.
func WithCommon(common map[string]any) Option {
	return func(o *options) { o.common = common }
}

// WithoutEnv stops ${NAME} references from falling back to the process
// environment, so only supplied variables resolve.
func WithoutEnv() Option { return func(o *options) { o.noEnv = true } }

// WithConnectors limits read, write and run steps to the named top-level
// connectors. The `dataframe` write is always available. Calling it with no
// names leaves only that.
func WithConnectors(names ...string) Option {
	return func(o *options) {
		o.connectors = append(o.connectors, names...)
		o.restricted = true
	}
}

// WithDataframe starts the run from f when the recipe has no read section.
func WithDataframe(f *w.Frame) Option { return func(o *options) { o.input = f } }

type runner struct {
	options
	doc registry.Mapping
}

// Run executes r and returns the final table: the table a `dataframe`
// write produced, or else the table after the last wrangle.
func Run(ctx context.Context, r *Recipe, opts ...Option) (*w.Frame, error) {
	runID := ksuid.New().String()
	lg := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = lg.WithContext(context.WithValue(ctx, gologger.RunIDKey, runID))

	rn := &runner{}
	for _, o := range opts {
		o(&rn.options)
	}
	if r == nil {
		r = &Recipe{}
	}
	doc, err := substitute(r.root, rn.variables, !rn.noEnv)
	if err != nil {
		return nil, err
	}
	rn.doc = doc.(registry.Mapping)

	out, err := rn.run(ctx)
	if err != nil {
		lg.Error().Err(err).Msg("recipe failed")
		if ferr := rn.actions(ctx, "on_failure", err); ferr != nil {
			lg.Error().Err(ferr).Msg("on_failure actions failed")
		}
		return nil, err
	}
	return out, nil
}

func (rn *runner) run(ctx context.Context) (*w.Frame, error) {
	if err := rn.actions(ctx, "on_start", nil); err != nil {
		return nil, err
	}
	pipeline, err := rn.pipeline()
	if err != nil {
		return nil, err
	}
	f, err := rn.read(ctx)
	if err != nil {
		return nil, err
	}
	f, err = pipeline.Run(ctx, f)
	if err != nil {
		return nil, err
	}
	out, err := rn.write(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := rn.actions(ctx, "on_success", nil); err != nil {
		return nil, err
	}
	return out, nil
}

// Pipeline compiles only the wrangles section of r, for callers that feed
// tables in themselves, such as chunked streaming.
func Pipeline(r *Recipe, opts ...Option) (*w.Pipeline, error) {
	rn := &runner{}
	for _, o := range opts {
		o(&rn.options)
	}
	doc, err := substitute(r.root, rn.variables, !rn.noEnv)
	if err != nil {
		return nil, err
	}
	rn.doc = doc.(registry.Mapping)
	return rn.pipeline()
}

func (rn *runner) section(name string) ([]Step, error) {
	return steps(rn.doc.Values[name])
}

func (rn *runner) ambient(err error) registry.Ambient {
	return registry.Ambient{
		Functions: rn.functions,
		Variables: rn.variables,
		Error:     err,
		Common:    rn.common,
	}
}

// connectorTree is the built-in connector tree, cut down to the allowed
// connectors when the run is restricted.
func (rn *runner) connectorTree() registry.Map {
	all := Connectors()
	if !rn.restricted {
		return all
	}
	allowed := registry.Map{}
	for _, name := range rn.connectors {
		if c, ok := all[name]; ok {
			allowed[name] = c
		}
	}
	return allowed
}

func (rn *runner) resolver(def string, builtin registry.Map) registry.Resolver {
	return registry.Resolver{Builtin: builtin, Custom: rn.functions, Override: rn.functions, Default: def}
}

// skip evaluates a step's `if` condition.
func skip(ctx context.Context, p registry.Params) (bool, error) {
	cond, ok := p["if"]
	if !ok {
		return false, nil
	}
	switch c := cond.(type) {
	case bool:
		return !c, nil
	case string:
		run, err := where.Eval(ctx, c, nil)
		return !run, err
	}
	return false, w.Configf("if must be a condition, got %T", cond)
}

func (rn *runner) pipeline() (*w.Pipeline, error) {
	list, err := rn.section("wrangles")
	if err != nil {
		return nil, err
	}
	res := rn.resolver("", Wrangles())
	p := w.NewPipeline()
	for _, s := range list {
		leaf, err := res.Resolve(s.Name)
		if err != nil {
			return nil, err
		}
		wr, err := registry.AsWrangle(leaf)
		if err != nil {
			return nil, w.Configf("%s: %s", s.Name, err)
		}
		p.Add(rn.transform(s, wr))
	}
	return p, nil
}

func (rn *runner) transform(s Step, wr registry.Wrangle) w.Transform {
	return w.TransformFunc{Label: s.Name, Fn: func(ctx context.Context, f *w.Frame) (*w.Frame, error) {
		if ok, err := skip(ctx, s.Params); err != nil || ok {
			return f, err
		}
		p := registry.Bind(s.Params.Without("if"), wr.Accepts(), rn.ambient(nil))
		lg := zerolog.Ctx(ctx).With().Str("step", s.Name).Logger()
		lg.Debug().Int("rows", f.Rows()).Msg("running wrangle")

		clause, filtered := p["where"].(string)
		if !filtered || utils.ContainsString(wr.Accepts(), "where") {
			return wr.Fn(ctx, f, p)
		}
		wparams := registry.Plain(p["where_params"])
		p = p.Without("where", "where_params")
		outputs, err := placeholderColumns(f, p, wr)
		if err != nil {
			return nil, err
		}
		return where.Apply(ctx, f, clause, wparams, outputs, func(ctx context.Context, sub *w.Frame) (*w.Frame, error) {
			return wr.Fn(ctx, sub, p)
		})
	}}
}

// placeholderColumns names the columns a step creates, for a where clause
// that selects no rows. Pattern outputs depend on the data and are
// skipped, as are optional names; without an output the inputs are
// resolved against f.
func placeholderColumns(f *w.Frame, p registry.Params, wr registry.Wrangle) ([]string, error) {
	if wr.Outputs != nil {
		return wr.Outputs(p), nil
	}
	out, ok := p["output"]
	if !ok || out == nil {
		return columns.ExpandNames(f.Columns(), columns.AsList(registry.Plain(p["input"])))
	}
	var specs []string
	add := func(v any) {
		if keys, ok := registry.KeysOf(v); ok {
			specs = append(specs, keys...)
			return
		}
		specs = append(specs, w.String(v))
	}
	if list, ok := out.([]any); ok {
		for _, v := range list {
			add(v)
		}
	} else {
		add(out)
	}
	names := specs[:0]
	for _, s := range specs {
		if columns.IsPattern(s) || strings.HasSuffix(s, "?") {
			continue
		}
		names = append(names, s)
	}
	return names, nil
}

func (rn *runner) actions(ctx context.Context, hook string, cause error) error {
	run, _ := rn.doc.Values["run"].(registry.Mapping)
	list, err := steps(run.Values[hook])
	if err != nil {
		return err
	}
	res := rn.resolver("run", rn.connectorTree())
	for _, s := range list {
		leaf, err := res.Resolve(s.Name)
		if err != nil {
			return err
		}
		act, err := registry.AsAction(leaf)
		if err != nil {
			return w.Configf("%s: %s", s.Name, err)
		}
		if ok, err := skip(ctx, s.Params); err != nil {
			return err
		} else if ok {
			continue
		}
		p := registry.Bind(s.Params.Without("if"), act.Accepts(), rn.ambient(cause))
		zerolog.Ctx(ctx).Info().Str("hook", hook).Str("action", s.Name).Msg("running action")
		if err := act.Fn(ctx, p); err != nil {
			return fmt.Errorf("%s %s: %w", hook, s.Name, err)
		}
	}
	return nil
}
