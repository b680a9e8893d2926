package profile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

func TestCollectorAcrossChunks(t *testing.T) {
	a, err := w.FromColumns([]string{"n", "s"}, [][]any{{1, 4, nil}, {"x", "y", "x"}})
	require.NoError(t, err)
	b, err := w.FromColumns([]string{"n", "b"}, [][]any{{2.5}, {true}})
	require.NoError(t, err)

	c := NewCollector(2)
	c.ConsumeFrame(a)
	c.ConsumeFrame(b)

	cols := c.Columns()
	require.Len(t, cols, 3)

	n := cols[0]
	require.Equal(t, "n", n.Name)
	require.Equal(t, w.KindFloat, n.Kind)
	require.Equal(t, 3, n.Count)
	require.Equal(t, 1, n.Nulls)
	require.Equal(t, 1.0, n.Num.Min)
	require.Equal(t, 4.0, n.Num.Max)
	require.InDelta(t, 2.5, n.Num.Mean(), 1e-9)

	s := cols[1]
	require.Equal(t, []Freq{{Value: "x", Count: 2}, {Value: "y", Count: 1}}, s.Top(2))

	require.Equal(t, 1, cols[2].Bool.True)
}

func TestReports(t *testing.T) {
	f, err := w.FromColumns([]string{"name"}, [][]any{{"a", "", "a"}})
	require.NoError(t, err)
	c := NewCollector(5)
	c.ConsumeFrame(f)

	text := c.ReportText()
	require.True(t, strings.Contains(text, "- name (string): count=2 nulls=1"), text)

	js := c.ReportJSON()
	require.Len(t, js.Columns, 1)
	require.Equal(t, "string", js.Columns[0].Kind)
	require.Nil(t, js.Columns[0].Num)
	require.Equal(t, []Freq{{Value: "a", Count: 2}}, js.Columns[0].Top)
}
