package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/wrangles"
)

func upper(vals []string) ([]any, error) {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = strings.ToUpper(v)
	}
	return out, nil
}

func testFrame(t *testing.T) *wrangles.Frame {
	f, err := wrangles.FromColumns([]string{"a", "b", "c"}, [][]any{{"x", "y"}, {"p", "q"}, {1, 2}})
	require.NoError(t, err)
	return f
}

func TestNewPlanCardinality(t *testing.T) {
	cols := []string{"a", "b", "c"}
	cases := []struct {
		name    string
		in, out []string
		mode    Mode
		err     bool
	}{
		{"one to one", []string{"a"}, []string{"x"}, Zipped, false},
		{"default output", []string{"a", "b"}, nil, Zipped, false},
		{"aggregate", []string{"a", "b"}, []string{"x"}, Aggregate, false},
		{"zipped", []string{"a", "b"}, []string{"x", "y"}, Zipped, false},
		{"too many outputs", []string{"a", "b"}, []string{"x", "y", "z"}, 0, true},
		{"one to many", []string{"a"}, []string{"x", "y"}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPlan(cols, tc.in, tc.out)
			if tc.err {
				require.True(t, wrangles.IsConfiguration(err))
				require.EqualError(t, err, cardinalityMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.mode, p.Mode)
		})
	}
}

func TestApplyZipped(t *testing.T) {
	f := testFrame(t)
	require.NoError(t, Apply(f, Spec{Input: []string{"a", "b"}, Output: []string{"A", "B"}}, upper))
	require.Equal(t, []string{"a", "b", "c", "A", "B"}, f.Columns())
	require.Equal(t, "Y", f.Cell(1, "A"))
	require.Equal(t, "P", f.Cell(0, "B"))
}

func TestApplyInPlace(t *testing.T) {
	f := testFrame(t)
	require.NoError(t, Apply(f, Spec{Input: []string{"a"}}, upper))
	require.Equal(t, "X", f.Cell(0, "a"))
}

func TestApplyAggregate(t *testing.T) {
	f := testFrame(t)
	echo := func(vals []string) ([]any, error) {
		out := make([]any, len(vals))
		for i, v := range vals {
			out[i] = v
		}
		return out, nil
	}
	require.NoError(t, Apply(f, Spec{Input: []string{"a", "c"}, Output: []string{"o"}}, echo))
	require.Equal(t, "x 1", f.Cell(0, "o"))

	require.NoError(t, Apply(f, Spec{Input: []string{"a", "c"}, Output: []string{"o"}, Separator: CodeSeparator}, echo))
	require.Equal(t, "y AAA 2", f.Cell(1, "o"))
}

func TestApplyWildcardInput(t *testing.T) {
	f, err := wrangles.FromColumns([]string{"col1", "col2", "other"}, [][]any{{"a"}, {"b"}, {"c"}})
	require.NoError(t, err)
	require.NoError(t, Apply(f, Spec{Input: []string{"col*"}}, upper))
	require.Equal(t, "A", f.Cell(0, "col1"))
	require.Equal(t, "B", f.Cell(0, "col2"))
	require.Equal(t, "c", f.Cell(0, "other"))
}

func TestApplyMissingInput(t *testing.T) {
	f := testFrame(t)
	err := Apply(f, Spec{Input: []string{"nope"}}, upper)
	require.True(t, wrangles.IsMissingColumn(err))
}

func TestApplyLengthMismatch(t *testing.T) {
	f := testFrame(t)
	err := Apply(f, Spec{Input: []string{"a"}}, func([]string) ([]any, error) { return []any{"1"}, nil })
	require.Error(t, err)
}
