package impute

import (
	"context"
	"testing"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func makeFloatFrame(t *testing.T) *w.Frame {
	t.Helper()
	f, err := w.FromColumns([]string{"x"}, [][]any{{1.0, nil, 3.0, "", nil}})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func run(t *testing.T, step string, f *w.Frame, p registry.Params) *w.Frame {
	t.Helper()
	out, err := Tree()[step].(registry.Wrangle).Fn(context.Background(), f, p)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestConstant(t *testing.T) {
	out := run(t, "constant", makeFloatFrame(t), registry.Params{"input": "x", "value": 2.5})
	for i := 0; i < out.Rows(); i++ {
		if w.IsEmpty(out.Cell(i, "x")) {
			t.Fatalf("constant imputer left null at row %d", i)
		}
	}
	if v := out.Cell(1, "x"); v != 2.5 {
		t.Fatalf("got %v", v)
	}
	if v := out.Cell(2, "x"); v != 3.0 {
		t.Fatalf("observed value changed to %v", v)
	}
}

func TestMean(t *testing.T) {
	out := run(t, "mean", makeFloatFrame(t), registry.Params{"input": "x", "output": "y"})
	if v := out.Cell(3, "y"); v != 2.0 {
		t.Fatalf("mean imputer got %v", v)
	}
	if v := out.Cell(3, "x"); v != "" {
		t.Fatalf("input was modified: %v", v)
	}

	f, _ := w.FromColumns([]string{"n"}, [][]any{{1, 2, nil}})
	out = run(t, "mean", f, registry.Params{"input": "n"})
	if v := out.Cell(2, "n"); v != int64(2) {
		t.Fatalf("integer mean got %#v", v)
	}
}

func TestMedian(t *testing.T) {
	f, _ := w.FromColumns([]string{"x"}, [][]any{{1.0, 10.0, 2.0, nil, 4.0}})
	out := run(t, "median", f, registry.Params{"input": "x"})
	if v := out.Cell(3, "x"); v != 3.0 {
		t.Fatalf("median imputer got %v", v)
	}
}

func TestMode(t *testing.T) {
	f, _ := w.FromColumns([]string{"s"}, [][]any{{"a", "b", nil, "b", ""}})
	out := run(t, "mode", f, registry.Params{"input": "s"})
	if v := out.Cell(2, "s"); v != "b" {
		t.Fatalf("mode imputer got %v", v)
	}
	if v := out.Cell(4, "s"); v != "b" {
		t.Fatalf("mode imputer got %v", v)
	}
}

func TestAllEmptyLeftAlone(t *testing.T) {
	f, _ := w.FromColumns([]string{"x"}, [][]any{{nil, ""}})
	for _, step := range []string{"mean", "median", "mode"} {
		out := run(t, step, f.Clone(), registry.Params{"input": "x"})
		if v := out.Cell(0, "x"); v != nil {
			t.Fatalf("%s filled an all-empty column with %v", step, v)
		}
	}
}

func TestKNN(t *testing.T) {
	f, err := w.FromColumns([]string{"x", "y", "label"}, [][]any{
		{0.0, 0.1, 0.2, 10.0, 10.1, 10.2, 0.05, 10.05},
		{0.0, 0.1, 0.0, 10.0, 10.2, 10.1, 0.05, 10.05},
		{"low", "low", "low", "high", "high", "high", nil, ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := run(t, "knn", f, registry.Params{"input": "label", "features": []any{"x", "y"}})
	if v := out.Cell(6, "label"); v != "low" {
		t.Fatalf("row 6 got %v", v)
	}
	if v := out.Cell(7, "label"); v != "high" {
		t.Fatalf("row 7 got %v", v)
	}
}

func TestKNNMissingFeature(t *testing.T) {
	f, _ := w.FromColumns([]string{"x", "label"}, [][]any{{1.0}, {nil}})
	_, err := registry.Step[KNN]().Fn(context.Background(), f, registry.Params{"input": "label", "features": "z"})
	if !w.IsMissingColumn(err) {
		t.Fatalf("expected missing column, got %v", err)
	}
}
