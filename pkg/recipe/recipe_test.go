package recipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func parse(t *testing.T, text string) *Recipe {
	t.Helper()
	r, err := Parse([]byte(text), YAML)
	require.NoError(t, err)
	return r
}

func run(t *testing.T, text string, opts ...Option) *w.Frame {
	t.Helper()
	out, err := Run(context.Background(), parse(t, text), opts...)
	require.NoError(t, err)
	return out
}

func frame(t *testing.T, names []string, cols ...[]any) *w.Frame {
	t.Helper()
	f, err := w.FromColumns(names, cols)
	require.NoError(t, err)
	return f
}

func TestReadTestConnector(t *testing.T) {
	out := run(t, `
read:
  - test:
      rows: 3
      values:
        zeta: z
        alpha: <int>
`)
	require.Equal(t, 3, out.Rows())
	require.Equal(t, []string{"zeta", "alpha"}, out.Columns())
	require.Equal(t, "z", out.Cell(2, "zeta"))
}

func TestWranglesInOrder(t *testing.T) {
	out := run(t, `
wrangles:
  - convert.case:
      input: name
      output: upper
      case: upper
  - format.prefix:
      input: upper
      value: "n-"
  - create.index:
      output: id
`, WithDataframe(frame(t, []string{"name"}, []any{"ann", "bob"})))
	require.Equal(t, []string{"name", "upper", "id"}, out.Columns())
	require.Equal(t, "n-BOB", out.Cell(1, "upper"))
	require.Equal(t, int64(2), out.Cell(1, "id"))
}

func TestWherePlaceholder(t *testing.T) {
	r := parse(t, `
wrangles:
  - convert.case:
      input: name
      output: upper
      case: upper
      where: n > ?
      where_params: [1]
`)
	in := frame(t, []string{"name", "n"}, []any{"a", "b", "c"}, []any{1, 2, 3})
	out, err := Run(context.Background(), r, WithDataframe(in))
	require.NoError(t, err)
	col, _ := out.Column("upper")
	require.Equal(t, []any{"", "B", "C"}, col)

	none := frame(t, []string{"name", "n"}, []any{"a"}, []any{0})
	out, err = Run(context.Background(), r, WithDataframe(none))
	require.NoError(t, err)
	require.Equal(t, "", out.Cell(0, "upper"))
}

func TestWhereSelectsNothing(t *testing.T) {
	in := func() *w.Frame {
		return frame(t, []string{"col1", "col2", "n", "d"}, []any{"a"}, []any{"b"}, []any{1}, []any{`{"k": 1}`})
	}
	cases := []struct {
		name string
		step string
		want []string
	}{
		{"wildcard input", "convert.case:\n      input: col*\n      case: upper", []string{"col1", "col2", "n", "d"}},
		{"optional input", "convert.case:\n      input: [col1, missing?]\n      case: upper", []string{"col1", "col2", "n", "d"}},
		{"named output", "convert.case:\n      input: col1\n      output: up\n      case: upper", []string{"col1", "col2", "n", "d", "up"}},
		{"pattern output", "split.dictionary:\n      input: d\n      output: ['*', 'k?', {k: renamed}]", []string{"col1", "col2", "n", "d", "renamed"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := run(t, "wrangles:\n  - "+c.step+"\n      where: n > 100\n", WithDataframe(in()))
			require.Equal(t, c.want, out.Columns())
			require.Equal(t, "a", out.Cell(0, "col1"))
		})
	}

	_, err := Run(context.Background(), parse(t, "wrangles:\n  - convert.case:\n      input: nope\n      case: upper\n      where: n > 100\n"), WithDataframe(in()))
	require.True(t, w.IsMissingColumn(err))
}

func TestVariables(t *testing.T) {
	t.Setenv("WRANGLES_TEST_SUFFIX", "!")
	out := run(t, `
read:
  - test:
      rows: ${ROWS}
      values:
        v: "${WORD}${WRANGLES_TEST_SUFFIX}"
`, WithVariables(map[string]any{"ROWS": 2, "WORD": "hi"}))
	require.Equal(t, 2, out.Rows())
	require.Equal(t, "hi!", out.Cell(0, "v"))

	_, err := Run(context.Background(), parse(t, `
wrangles:
  - create.column:
      output: x
      value: ${NOT_DEFINED_ANYWHERE}
`))
	require.True(t, w.IsConfiguration(err))
}

func TestIfSkipsStep(t *testing.T) {
	out := run(t, `
wrangles:
  - create.column:
      output: skipped
      value: 1
      if: 1 = 2
  - create.column:
      output: kept
      value: 1
      if: 2 > 1
`, WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.Equal(t, []string{"a", "kept"}, out.Columns())
}

func TestReadShapes(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("id,name,extra\n2,bob,x\n1,ann,y\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("id,score\n1,10\n2,20\n"), 0o644))

	out := run(t, `
read:
  - file:
      name: ${A}
      not_columns: extra
      order_by: id
`, WithVariables(map[string]any{"A": a}))
	require.Equal(t, []string{"id", "name"}, out.Columns())
	require.Equal(t, "ann", out.Cell(0, "name"))

	out = run(t, `
read:
  - join:
      how: inner
      left_on: id
      right_on: id
      sources:
        - file:
            name: ${A}
        - file:
            name: ${B}
`, WithVariables(map[string]any{"A": a, "B": b}))
	require.Equal(t, []string{"id", "name", "extra", "score"}, out.Columns())
	require.Equal(t, "20", out.Cell(0, "score"))

	out = run(t, `
read:
  - file:
      name: ${A}
  - file:
      name: ${B}
`, WithVariables(map[string]any{"A": a, "B": b}))
	require.Equal(t, 4, out.Rows())
	require.Equal(t, []string{"id", "name", "extra", "score"}, out.Columns())

	out = run(t, `
read:
  - file:
      name: ${A}
      if: 1 = 0
`, WithVariables(map[string]any{"A": a}))
	require.Equal(t, 0, out.Rows())
}

func TestWriteFileAndDataframe(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.jsonl")
	out := run(t, `
read:
  - test:
      rows: 2
      values:
        a: x
        b: y
write:
  - file:
      name: ${DST}
      columns: a
  - dataframe:
      columns: b
`, WithVariables(map[string]any{"DST": dst}))
	require.Equal(t, []string{"b"}, out.Columns())
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "{\"a\":\"x\"}\n{\"a\":\"x\"}\n", string(b))
}

func TestCustomFunctionsAndOverride(t *testing.T) {
	var read bool
	fns := map[string]any{
		"shout": registry.CellFunc(func(s string) any { return s + "!" }),
		"file": map[string]any{
			"read": registry.ReadFunc(func(ctx context.Context, p registry.Params) (*w.Frame, error) {
				read = true
				return w.FromColumns([]string{"v"}, [][]any{{"a", "b"}})
			}),
		},
	}
	out := run(t, `
read:
  - file:
      name: ignored.csv
wrangles:
  - custom.shout:
      input: v
`, WithFunctions(fns))
	require.True(t, read)
	require.Equal(t, "b!", out.Cell(1, "v"))

	_, err := Run(context.Background(), parse(t, "wrangles:\n  - custom.missing:\n      input: v\n"), WithFunctions(fns))
	var ue *w.UnknownFunctionError
	require.ErrorAs(t, err, &ue)
}

func TestRunActions(t *testing.T) {
	var calls []string
	var seen error
	fns := map[string]any{
		"note": registry.ActionFunc(func(ctx context.Context, p registry.Params) error {
			calls = append(calls, w.String(p["msg"]))
			return nil
		}),
		"failed": registry.Action{
			Fn: func(ctx context.Context, p registry.Params) error {
				seen, _ = p["error"].(error)
				return nil
			},
			Ambient: []string{"error"},
		},
	}
	text := `
run:
  on_start:
    - custom.note:
        msg: start
  on_success:
    - custom.note:
        msg: done
  on_failure:
    - custom.failed: {}
wrangles:
  - convert.case:
      input: %s
`
	_, err := Run(context.Background(), parse(t, fmt.Sprintf(text, "a")), WithFunctions(fns), WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.NoError(t, err)
	require.Equal(t, []string{"start", "done"}, calls)
	require.Nil(t, seen)

	_, err = Run(context.Background(), parse(t, fmt.Sprintf(text, "nope")), WithFunctions(fns), WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.True(t, w.IsMissingColumn(err))
	require.Error(t, seen)
	require.Equal(t, err.Error(), seen.Error())
}

func TestSuccessActionFailureRunsFailureHook(t *testing.T) {
	var seen error
	fns := map[string]any{
		"boom": registry.ActionFunc(func(ctx context.Context, p registry.Params) error {
			return fmt.Errorf("notify failed")
		}),
		"failed": registry.Action{
			Fn: func(ctx context.Context, p registry.Params) error {
				seen, _ = p["error"].(error)
				return nil
			},
			Ambient: []string{"error"},
		},
	}
	_, err := Run(context.Background(), parse(t, `
run:
  on_success:
    - custom.boom: {}
  on_failure:
    - custom.failed: {}
`), WithFunctions(fns), WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.ErrorContains(t, err, "notify failed")
	require.Error(t, seen)
	require.Equal(t, err.Error(), seen.Error())
}

func TestWithoutEnv(t *testing.T) {
	t.Setenv("WRANGLES_TEST_SECRET", "hunter2")
	text := "wrangles:\n  - create.column:\n      output: x\n      value: ${WRANGLES_TEST_SECRET}\n"
	in := frame(t, []string{"a"}, []any{"x"})

	out := run(t, text, WithDataframe(in))
	require.Equal(t, "hunter2", out.Cell(0, "x"))

	_, err := Run(context.Background(), parse(t, text), WithDataframe(in), WithoutEnv())
	require.True(t, w.IsConfiguration(err))
	require.ErrorContains(t, err, "Variable WRANGLES_TEST_SECRET is not defined")

	out = run(t, text, WithDataframe(in), WithoutEnv(), WithVariables(map[string]any{"WRANGLES_TEST_SECRET": "given"}))
	require.Equal(t, "given", out.Cell(0, "x"))
}

func TestWithConnectors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o600))
	text := fmt.Sprintf("read:\n  - file:\n      name: %s\nwrite:\n  - dataframe:\n      columns: [a]\n", path)

	_, err := Run(context.Background(), parse(t, text), WithConnectors())
	var uf *w.UnknownFunctionError
	require.ErrorAs(t, err, &uf)

	_, err = Run(context.Background(), parse(t, "read:\n  - test:\n      rows: 1\n"), WithConnectors("file"))
	require.ErrorAs(t, err, &uf)

	out := run(t, text, WithConnectors("file"))
	require.Equal(t, 1, out.Rows())
	require.Equal(t, []string{"a"}, out.Columns())
}

func TestCommonParamsOnlyWhereDeclared(t *testing.T) {
	var got registry.Params
	fns := map[string]any{
		"capture": registry.Wrangle{
			Fn: func(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
				got = p
				return f, nil
			},
			Ambient: []string{"api_key"},
		},
	}
	run(t, "wrangles:\n  - custom.capture:\n      other: 1\n", WithFunctions(fns), WithCommon(map[string]any{"api_key": "k", "user": "u"}))
	require.Equal(t, "k", got["api_key"])
	require.NotContains(t, got, "user")
}

func TestParseFormats(t *testing.T) {
	r, err := Parse([]byte(`{"wrangles": [{"create.column": {"output": "c", "value": 5}}]}`), JSON)
	require.NoError(t, err)
	out, err := Run(context.Background(), r, WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.NoError(t, err)
	require.Equal(t, int64(5), out.Cell(0, "c"))

	r, err = Parse([]byte("[[wrangles]]\n[wrangles.\"create.column\"]\noutput = \"c\"\nvalue = \"t\"\n"), TOML)
	require.NoError(t, err)
	out, err = Run(context.Background(), r, WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.NoError(t, err)
	require.Equal(t, "t", out.Cell(0, "c"))

	_, err = Parse([]byte("wrangle:\n  - x: {}\n"), YAML)
	require.True(t, w.IsConfiguration(err))
}

func TestLoadByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"write": [{"dataframe": {}}]}`), 0o644))
	r, err := Load(path)
	require.NoError(t, err)
	out, err := Run(context.Background(), r, WithDataframe(frame(t, []string{"a"}, []any{"x"})))
	require.NoError(t, err)
	require.Equal(t, 1, out.Rows())
}
