package csvio

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

const irisCSV = `sepal_length,sepal_width,petal_length,petal_width,species
5.1,3.5,1.4,0.2,setosa
4.9,,1.4,0.2,setosa
7.0,3.2,4.7,1.4,versicolor
6.4,3.2,,1.5,versicolor
6.3,3.3,6.0,2.5,virginica
`

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestInferAndRead(t *testing.T) {
	p := writeFixture(t, "iris_nulls.csv", irisCSV)
	r, f, err := Open(p, ReaderOptions{HasHeader: true, InferTypes: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	schema, _, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if len(schema.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(schema.Columns))
	}
	if schema.Columns[0].Type != w.KindFloat {
		t.Fatalf("expected first column float, got %s", schema.Columns[0].Type)
	}
	if schema.Columns[4].Type != w.KindString {
		t.Fatalf("expected last column to be string kind, got %s", schema.Columns[4].Type)
	}
	fr, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if fr.Rows() != 5 {
		t.Fatalf("expected 5 rows, got %d", fr.Rows())
	}
	if fr.Cell(1, "sepal_width") != nil {
		t.Fatalf("empty typed cell should be null, got %v", fr.Cell(1, "sepal_width"))
	}
	if fr.Cell(2, "sepal_length") != 7.0 {
		t.Fatalf("got %v", fr.Cell(2, "sepal_length"))
	}
}

func TestReadUntypedKeepsText(t *testing.T) {
	fr, err := ReadFrame(strings.NewReader("code,qty\n007,\n"), ReaderOptions{HasHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	if fr.Cell(0, "code") != "007" || fr.Cell(0, "qty") != "" {
		t.Fatalf("got %v", fr.Records())
	}
}

func TestSniffDelimiterAndGzip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "semi.csv.gz")
	out, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(out)
	_, _ = zw.Write([]byte("a;b\n1;2\n"))
	_ = zw.Close()
	_ = out.Close()

	r, c, err := Open(p, ReaderOptions{HasHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	schema, names, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, "|") != "a|b" {
		t.Fatalf("bad header %v", names)
	}
	fr, err := r.ReadAll(schema)
	if err != nil {
		t.Fatal(err)
	}
	if fr.Cell(0, "b") != "2" {
		t.Fatalf("got %v", fr.Cell(0, "b"))
	}
}

func TestStrictShortRecord(t *testing.T) {
	r := NewReaderFrom(strings.NewReader("a,b\n1\n"), ReaderOptions{HasHeader: true, Delimiter: ',', Strict: true})
	schema, _, err := r.InferSchema()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadAll(schema); err == nil {
		t.Fatal("expected short record error")
	}

	r = NewReaderFrom(strings.NewReader("a,b\n1\n"), ReaderOptions{HasHeader: true, Delimiter: ','})
	schema, _, _ = r.InferSchema()
	if _, err := r.ReadAll(schema); err != nil {
		t.Fatal(err)
	}
	if r.Warnings() != "short_records=1" {
		t.Fatalf("got %q", r.Warnings())
	}
}

func TestWriteRoundTrip(t *testing.T) {
	f, err := w.FromColumns([]string{"s", "l"}, [][]any{{"x", nil}, {[]string{"a"}, 1.5}})
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := Write(&sb, f, WriterOptions{}); err != nil {
		t.Fatal(err)
	}
	want := "s,l\nx,\"[\"\"a\"\"]\"\n,1.5\n"
	if sb.String() != want {
		t.Fatalf("got %q", sb.String())
	}
}

func TestReadEmpty(t *testing.T) {
	fr, err := ReadFrame(strings.NewReader(""), ReaderOptions{HasHeader: true})
	if err != nil {
		t.Fatal(err)
	}
	if fr.Rows() != 0 || fr.Cols() != 0 {
		t.Fatal("expected empty frame")
	}
}
