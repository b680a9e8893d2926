package format

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func apply(t *testing.T, name string, p registry.Params, col []any) []any {
	t.Helper()
	f, err := w.FromColumns([]string{"in"}, [][]any{col})
	require.NoError(t, err)
	step, ok := Tree()[name].(registry.Wrangle)
	require.True(t, ok, "no step %s", name)
	p = p.Clone()
	p["input"], p["output"] = "in", "out"
	out, err := step.Fn(context.Background(), f, p)
	require.NoError(t, err)
	got, ok := out.Column("out")
	require.True(t, ok)
	return got
}

func TestFormatSteps(t *testing.T) {
	cases := []struct {
		step string
		p    registry.Params
		in   []any
		want []any
	}{
		{"trim", registry.Params{}, []any{"  a ", "b\t", int64(3)}, []any{"a", "b", int64(3)}},
		{"prefix", registry.Params{"value": "x-"}, []any{"a", int64(1)}, []any{"x-a", "x-1"}},
		{"suffix", registry.Params{"value": "!"}, []any{"a", ""}, []any{"a!", "!"}},
		{"remove_duplicates", registry.Params{}, []any{[]any{"a", "b", "a"}, "plain"}, []any{[]any{"a", "b"}, "plain"}},
		{"remove_accents", registry.Params{}, []any{"Crème Brûlée", "naïve"}, []any{"Creme Brulee", "naive"}},
		{"map_values", registry.Params{"values": map[string]any{"y": "yes", "n": "no"}}, []any{"y", "n", "?"}, []any{"yes", "no", "?"}},
		{"date_format", registry.Params{"format": "%Y/%m/%d"}, []any{"2023-01-05", ""}, []any{"2023/01/05", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.step, func(t *testing.T) {
			require.Equal(t, tc.want, apply(t, tc.step, tc.p, tc.in))
		})
	}
}

func TestPrefixRequiresValue(t *testing.T) {
	f, err := w.FromColumns([]string{"in"}, [][]any{{"a"}})
	require.NoError(t, err)
	_, err = registry.Step[Prefix]().Fn(context.Background(), f, registry.Params{"input": "in"})
	require.Error(t, err)
	require.True(t, w.IsConfiguration(err))
}

func TestTrimInPlace(t *testing.T) {
	f, err := w.FromColumns([]string{"a", "b"}, [][]any{{" x "}, {" y"}})
	require.NoError(t, err)
	out, err := registry.Step[Trim]().Fn(context.Background(), f, registry.Params{"input": []any{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, "x", out.Cell(0, "a"))
	require.Equal(t, "y", out.Cell(0, "b"))
}

func TestDateFormatLayouts(t *testing.T) {
	d := time.Date(2021, time.March, 7, 15, 4, 5, 0, time.UTC)
	cases := map[string]string{
		"%Y-%m-%d":          "2021-03-07",
		"%d/%m/%y %H:%M:%S": "07/03/21 15:04:05",
		"%I%p":              "03PM",
		"%A %B %e":          "Sunday March  7",
		"%a %b %j":          "Sun Mar 066",
		"100%%":             "100%",
	}
	for layout, want := range cases {
		got := apply(t, "date_format", registry.Params{"format": layout}, []any{d})
		require.Equal(t, []any{want}, got, layout)
	}
}
