package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	parquet "github.com/segmentio/parquet-go"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Reader walks the row groups of a Parquet file. Nested columns are named
// by their dotted path; repeated values become lists.
type Reader struct {
	closer io.Closer
	file   *parquet.File
	names  []string
	group  int
	rows   parquet.Rows
	buf    []parquet.Row
}

func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r, err := NewReader(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads Parquet from any random-access source, such as a
// downloaded object held in memory.
func NewReader(ra io.ReaderAt, size int64) (*Reader, error) {
	pf, err := parquet.OpenFile(ra, size)
	if err != nil {
		return nil, fmt.Errorf("error in parquet.OpenFile: %w", err)
	}
	var names []string
	for _, path := range pf.Schema().Columns() {
		names = append(names, strings.Join(path, "."))
	}
	return &Reader{file: pf, names: names, buf: make([]parquet.Row, 256)}, nil
}

func (r *Reader) Close() error {
	if r.rows != nil {
		_ = r.rows.Close()
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

func (r *Reader) Columns() []string { return append([]string(nil), r.names...) }

// ReadAll loads every remaining row.
func (r *Reader) ReadAll() (*w.Frame, error) {
	f := w.NewFrame(r.names...)
	for {
		n, err := r.readInto(f, len(r.buf))
		if errors.Is(err, io.EOF) {
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return f, nil
		}
	}
}

// readInto appends up to max rows to f, crossing row groups as needed.
func (r *Reader) readInto(f *w.Frame, max int) (int, error) {
	groups := r.file.RowGroups()
	total := 0
	for total < max {
		if r.rows == nil {
			if r.group >= len(groups) {
				if total == 0 {
					return 0, io.EOF
				}
				return total, nil
			}
			r.rows = groups[r.group].Rows()
			r.group++
		}
		want := max - total
		if want > len(r.buf) {
			want = len(r.buf)
		}
		n, err := r.rows.ReadRows(r.buf[:want])
		for _, row := range r.buf[:n] {
			f.AppendRow(r.record(row))
		}
		total += n
		if errors.Is(err, io.EOF) {
			_ = r.rows.Close()
			r.rows = nil
			continue
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Reader) record(row parquet.Row) map[string]any {
	m := make(map[string]any, len(r.names))
	seen := make(map[int]int, len(r.names))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(r.names) {
			continue
		}
		name := r.names[col]
		seen[col]++
		val := cellOf(v)
		switch seen[col] {
		case 1:
			m[name] = val
		case 2:
			m[name] = []any{m[name], val}
		default:
			m[name] = append(m[name].([]any), val)
		}
	}
	return m
}

func cellOf(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return v.String()
}
