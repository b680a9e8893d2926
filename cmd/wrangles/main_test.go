package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/admariner/wrangles/pkg/recipe"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestStreamRecipe(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "name\nann\nbob\ncy\n")
	out := filepath.Join(dir, "out.jsonl")
	r, err := recipe.Parse([]byte(`
wrangles:
  - convert.case:
      input: name
      output: upper
      case: upper
`), recipe.YAML)
	require.NoError(t, err)

	require.NoError(t, streamRecipe(context.Background(), r, in, out, 2, nil))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t,
		"{\"name\":\"ann\",\"upper\":\"ANN\"}\n{\"name\":\"bob\",\"upper\":\"BOB\"}\n{\"name\":\"cy\",\"upper\":\"CY\"}\n",
		string(b))
}

func TestOpenSourceUnsupported(t *testing.T) {
	_, _, err := openSource("data.xlsx", 10, false)
	require.Error(t, err)
	_, err = openSink("out.json")
	require.Error(t, err)
}

func TestProfileCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.csv", "n,s\n1,a\n3,a\n")

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"profile", in, "--env-file", writeFile(t, dir, "test.env", "WRANGLES_TEST=1\n")})
	require.NoError(t, cmd.Execute())

	text := out.String()
	require.True(t, strings.Contains(text, "- n (int): count=2 nulls=0 min=1 max=3 mean=2"), text)
	require.True(t, strings.Contains(text, `* "a": 2`), text)
	require.Equal(t, "1", os.Getenv("WRANGLES_TEST"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--env-file", writeFile(t, t.TempDir(), "empty.env", "")})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "wrangles "+version+"\n", out.String())
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	_, err := schedule(context.Background(), "not a cron", []string{"r.yml"}, false, nil)
	require.Error(t, err)

	c, err := schedule(context.Background(), "*/5 * * * *", []string{"a.yml", "b.yml"}, false, nil)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 2)
}
