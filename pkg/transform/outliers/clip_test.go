package outliers

import (
	"context"
	"testing"

	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func TestClip(t *testing.T) {
	f, err := w.FromColumns([]string{"x"}, [][]any{{-5, 3.5, 12, "n/a", nil}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Wrangle().Fn(context.Background(), f, registry.Params{"input": "x", "min": 0, "max": 10})
	if err != nil {
		t.Fatal(err)
	}
	want := []any{int64(0), 3.5, int64(10), "n/a", nil}
	for i, v := range want {
		if got := out.Cell(i, "x"); got != v {
			t.Fatalf("row %d got %#v want %#v", i, got, v)
		}
	}
}

func TestClipNeedsBound(t *testing.T) {
	f, _ := w.FromColumns([]string{"x"}, [][]any{{1}})
	_, err := Wrangle().Fn(context.Background(), f, registry.Params{"input": "x"})
	if !w.IsConfiguration(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
