package jsonlio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `{"id": 1, "name": "alpha", "tags": ["a", "b"]}
{"id": 2, "name": "beta", "score": 2.5}

{"name": "gamma", "id": 3, "meta": {"k": "v"}}
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestJSONLInferAndRead(t *testing.T) {
	p := writeFixture(t, "sample.jsonl", sample)
	r, f, err := Open(p, ReaderOptions{SampleRows: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	schema, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if len(schema.Columns) != 4 {
		t.Fatalf("expected 4 sampled columns, got %d", len(schema.Columns))
	}
	fr, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if fr.Rows() != 3 {
		t.Fatalf("expected 3 rows, got %d", fr.Rows())
	}
	if got := strings.Join(fr.Columns(), ","); got != "id,name,tags,score,meta" {
		t.Fatalf("unexpected column order %s", got)
	}
	if fr.Cell(2, "id") != int64(3) || fr.Cell(1, "score") != 2.5 {
		t.Fatalf("bad numbers: %v", fr.Records())
	}
	if fr.Cell(0, "score") != nil {
		t.Fatal("missing key should be null")
	}
}

func TestFlatten(t *testing.T) {
	fr, err := ReadFrame(strings.NewReader(`{"a": {"b": 1, "c": "x"}, "d": true}`), ReaderOptions{Flatten: true})
	if err != nil {
		t.Fatal(err)
	}
	if fr.Cols() != 3 {
		t.Fatalf("expected 3 flat columns, got %v", fr.Columns())
	}
	if fr.Columns()[0] != "d" {
		t.Fatalf("untouched keys come first, got %v", fr.Columns())
	}
	for _, c := range fr.Columns() {
		if _, nested := fr.Cell(0, c).(map[string]any); nested {
			t.Fatalf("column %s still nested", c)
		}
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	fr, err := ReadFrame(strings.NewReader(sample), ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := WriteRecords(&sb, fr); err != nil {
		t.Fatal(err)
	}
	back, err := ReadRecords(strings.NewReader(sb.String()), ReaderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if back.Rows() != 3 || strings.Join(back.Columns(), ",") != strings.Join(fr.Columns(), ",") {
		t.Fatalf("round trip changed shape: %v", back.Columns())
	}
	if tags, ok := back.Cell(0, "tags").([]any); !ok || len(tags) != 2 {
		t.Fatalf("list lost: %#v", back.Cell(0, "tags"))
	}
}

func TestNotAnObject(t *testing.T) {
	if _, err := ReadFrame(strings.NewReader("[1,2]\n"), ReaderOptions{}); err == nil {
		t.Fatal("expected error for non-object line")
	}
}
