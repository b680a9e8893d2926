package columns

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/wrangles"
)

func TestExpandIdentity(t *testing.T) {
	cols := []string{"c", "a", "b"}
	got, err := Expand(cols, Identity(cols))
	require.NoError(t, err)
	require.Equal(t, []Entry{{"c", "c"}, {"a", "a"}, {"b", "b"}}, got)
}

func TestExpandWildcardRename(t *testing.T) {
	got, err := Expand([]string{"a_1", "a_2", "b"}, []Entry{{"a_*", "x_*"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"a_1", "x_1"}, {"a_2", "x_2"}}, got)
}

func TestExpandWarnsOnDuplicateRenames(t *testing.T) {
	var buf bytes.Buffer
	prev := logger
	logger = zerolog.New(&buf)
	defer func() { logger = prev }()

	got, err := Expand([]string{"a_1", "b_1", "c"}, []Entry{{"*_1", "x"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"a_1", "x"}, {"b_1", "x"}}, got)
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), "Renamed columns contain duplicate values")
	require.Contains(t, buf.String(), `"pattern":"*_1"`)

	buf.Reset()
	_, err = Expand([]string{"a_1", "b_1"}, []Entry{{"*_1", "x_*"}})
	require.NoError(t, err)
	require.Empty(t, buf.String())
}

func TestExpandMultipleWildcards(t *testing.T) {
	got, err := Expand([]string{"p1_q2", "zz"}, []Entry{{"p*_q*", "q*-p*"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"p1_q2", "q1-p2"}}, got)
}

func TestExpandRegexRename(t *testing.T) {
	cols := []string{"Name 1", "Name 2", "Other"}
	got, err := Expand(cols, []Entry{{`regex:Name (\d)`, `Out \1`}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"Name 1", "Out 1"}, {"Name 2", "Out 2"}}, got)

	got, err = Expand(cols, []Entry{{`regex:Name (?P<n>\d)`, `N\g<n>`}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"Name 1", "N1"}, {"Name 2", "N2"}}, got)

	// identical key and value keep the matched names
	got, err = Expand(cols, []Entry{{`regex:Name (\d)`, `regex:Name (\d)`}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"Name 1", "Name 1"}, {"Name 2", "Name 2"}}, got)
}

func TestExpandRegexIsFullMatch(t *testing.T) {
	got, err := Expand([]string{"abc", "xabc"}, []Entry{{"regex:abc", "regex:abc"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"abc", "abc"}}, got)
}

func TestExpandBadGroupReference(t *testing.T) {
	_, err := Expand([]string{"a_1"}, []Entry{{`regex:a_\d`, `x_\1`}})
	require.Error(t, err)
	require.True(t, wrangles.IsConfiguration(err))
	require.Contains(t, err.Error(), "Are you missing a capture group?")

	_, err = Expand([]string{"a_1"}, []Entry{{`regex:a_(`, `x`}})
	require.True(t, wrangles.IsConfiguration(err))
}

func TestExpandOptional(t *testing.T) {
	got, err := Expand([]string{"a"}, []Entry{{"missing?", "missing?"}})
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = Expand([]string{"a"}, []Entry{{"a?", "a?"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"a", "a"}}, got)

	// a column literally named with a trailing ? is matched as-is
	got, err = Expand([]string{"why?"}, []Entry{{"why?", "because"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"why?", "because"}}, got)
}

func TestExpandMissing(t *testing.T) {
	_, err := Expand([]string{"a"}, []Entry{{"missing", "missing"}})
	require.True(t, wrangles.IsMissingColumn(err))
	require.EqualError(t, err, "Column missing does not exist")
}

func TestExpandLiteralOverridesWildcard(t *testing.T) {
	got, err := Expand([]string{"a_1", "a_2"}, []Entry{{"a_1", "first"}, {"a_*", "x_*"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"a_1", "first"}, {"a_2", "x_2"}}, got)
}

func TestExpandEarlierPatternWins(t *testing.T) {
	got, err := Expand([]string{"ab", "ac"}, []Entry{{"a*", "1*"}, {"ab*", "2*"}})
	require.NoError(t, err)
	require.Equal(t, []Entry{{"ab", "1b"}, {"ac", "1c"}}, got)
}

func TestExpandNames(t *testing.T) {
	cols := []string{"a_1", "b", "a_2", "c"}
	got, err := ExpandNames(cols, []string{"c", "a_*", "a_1", "nope?"})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a_1", "a_2"}, got)

	got, err = ExpandNames(cols, []string{`regex:[bc]`})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, got)

	_, err = ExpandNames(cols, []string{"d"})
	require.True(t, wrangles.IsMissingColumn(err))
}

func TestCompileIsPure(t *testing.T) {
	require.Equal(t, Entry{`regex:col_(.*)_(.*)`, `new_\g<1>_\g<2>`}, Compile(Entry{"col_*_*", "new_*_*"}))
	require.Equal(t, Entry{`regex:a\*(.*)`, `b\*\g<1>`}, Compile(Entry{`a\**`, `b\**`}))
	require.Equal(t, Entry{"plain", "plain"}, Compile(Entry{"plain", "plain"}))
}

func TestAsList(t *testing.T) {
	require.Equal(t, []string{"a"}, AsList("a"))
	require.Equal(t, []string{"a", "1"}, AsList([]any{"a", 1}))
	require.Nil(t, AsList(nil))
}
