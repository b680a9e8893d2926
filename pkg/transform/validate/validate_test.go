package validate

import (
	"context"
	"strings"
	"testing"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func frame(t *testing.T, vals ...any) *w.Frame {
	t.Helper()
	f, err := w.FromColumns([]string{"c"}, [][]any{vals})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestInSet(t *testing.T) {
	step := Tree()["in"].(registry.Wrangle)
	_, err := step.Fn(context.Background(), frame(t, "a", "b", nil), registry.Params{"input": "c", "values": []any{"a", "b"}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = step.Fn(context.Background(), frame(t, "a", "z", "y"), registry.Params{"input": "c", "values": []any{"a"}})
	if err == nil || !strings.Contains(err.Error(), "column c has 2 invalid values") {
		t.Fatalf("got %v", err)
	}
}

func TestInSetOutput(t *testing.T) {
	out, err := registry.Step[InSet]().Fn(context.Background(), frame(t, "a", "z", ""), registry.Params{"input": "c", "output": "ok", "values": "a"})
	if err != nil {
		t.Fatal(err)
	}
	want := []any{true, false, true}
	for i, v := range want {
		if got := out.Cell(i, "ok"); got != v {
			t.Fatalf("row %d got %v", i, got)
		}
	}
}

func TestRange(t *testing.T) {
	step := Tree()["range"].(registry.Wrangle)
	if _, err := step.Fn(context.Background(), frame(t, 1, 2.5, nil), registry.Params{"input": "c", "min": 0, "max": 3}); err != nil {
		t.Fatal(err)
	}
	if _, err := step.Fn(context.Background(), frame(t, 1, 9), registry.Params{"input": "c", "max": 3}); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if _, err := step.Fn(context.Background(), frame(t, 1), registry.Params{"input": "c"}); !w.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	out, err := step.Fn(context.Background(), frame(t, -1, "x", 2), registry.Params{"input": "c", "output": "ok", "min": 0})
	if err != nil {
		t.Fatal(err)
	}
	want := []any{false, false, true}
	for i, v := range want {
		if got := out.Cell(i, "ok"); got != v {
			t.Fatalf("row %d got %v", i, got)
		}
	}
}
