package ioutils

import (
	"io"
	"path/filepath"
	"testing"
)

func TestGzipRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "data.csv.gz")
	w, err := CreateMaybeCompressed(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "a,b\n1,2\n"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := OpenMaybeCompressed(p)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "a,b\n1,2\n" {
		t.Fatalf("got %q", b)
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"a.csv":         FormatCSV,
		"A.TXT":         FormatCSV,
		"b.tsv.gz":      FormatTSV,
		"c.ndjson":      FormatJSONL,
		"d.json":        FormatJSON,
		"dir/e.parquet": FormatParquet,
	}
	for name, want := range cases {
		got, err := DetectFormat(name)
		if err != nil || got != want {
			t.Fatalf("%s: got %q, %v", name, got, err)
		}
	}
	if _, err := DetectFormat("f.xlsx"); err == nil {
		t.Fatal("expected unsupported error")
	}
}
