package standardize

import (
	"context"
	"testing"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func frame(t *testing.T, vals ...any) *w.Frame {
	t.Helper()
	f, err := w.FromColumns([]string{"s"}, [][]any{vals})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestCase(t *testing.T) {
	in := []any{"  Foo  ", "hELLO wORLD", nil}
	cases := map[string][]any{
		"lower":    {"  foo  ", "hello world", nil},
		"upper":    {"  FOO  ", "HELLO WORLD", nil},
		"title":    {"  Foo  ", "Hello World", nil},
		"sentence": {"  foo  ", "Hello world", nil},
	}
	for name, want := range cases {
		f := frame(t, in...)
		out, err := registry.Step[Case]().Fn(context.Background(), f, registry.Params{"input": "s", "case": name})
		if err != nil {
			t.Fatal(err)
		}
		for i, v := range want {
			if got := out.Cell(i, "s"); got != v {
				t.Fatalf("%s: row %d got %q want %q", name, i, got, v)
			}
		}
	}
}

func TestCaseDefaultsToLower(t *testing.T) {
	f := frame(t, "BAR")
	out, err := registry.Step[Case]().Fn(context.Background(), f, registry.Params{"input": "s", "output": "t"})
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Cell(0, "t"); v != "bar" {
		t.Fatalf("lower failed, got %q", v)
	}
	if v := out.Cell(0, "s"); v != "BAR" {
		t.Fatalf("input changed to %q", v)
	}
}

func TestCaseRejectsUnknown(t *testing.T) {
	_, err := registry.Step[Case]().Fn(context.Background(), frame(t, "x"), registry.Params{"input": "s", "case": "camel"})
	if !w.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	f := frame(t, "foo", "2021-03-07", "")
	out, err := Tree()["replace"].(registry.Wrangle).Fn(context.Background(), f, registry.Params{
		"input": "s",
		"find":  `(\d+)-(\d+)-(\d+)`,
		"value": `\3/\2/\1`,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []any{"foo", "07/03/2021", ""}
	for i, v := range want {
		if got := out.Cell(i, "s"); got != v {
			t.Fatalf("row %d got %q want %q", i, got, v)
		}
	}

	out, err = registry.Step[Replace]().Fn(context.Background(), frame(t, "foo"), registry.Params{"input": "s", "find": "o+", "value": "O"})
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Cell(0, "s"); v != "fO" {
		t.Fatalf("regex replace failed, got %q", v)
	}
}

func TestReplaceBadPattern(t *testing.T) {
	_, err := registry.Step[Replace]().Fn(context.Background(), frame(t, "x"), registry.Params{"input": "s", "find": "("})
	if !w.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
