package wrangles

import (
	"fmt"
	"sort"
)

// Schema describes the logical shape of a dataset.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// Kind enumerates the logical cell types a column can hold.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindList
	KindMap
	KindMixed
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindMixed:
		return "mixed"
	}
	return "invalid"
}

// Frame is an ordered set of equal-length named columns. Cells are
// heterogeneous: nil, bool, int64, float64, string, time.Time, []any or
// map[string]any. A nil cell is null.
type Frame struct {
	names []string
	cols  [][]any
	index map[string]int // name -> col index
	nrows int
}

// NewFrame returns an empty frame with the named columns.
func NewFrame(names ...string) *Frame {
	f := &Frame{index: make(map[string]int, len(names))}
	for _, n := range names {
		if _, ok := f.index[n]; ok {
			continue
		}
		f.index[n] = len(f.names)
		f.names = append(f.names, n)
		f.cols = append(f.cols, nil)
	}
	return f
}

// FromSchema returns an empty frame with the schema's columns in order.
func FromSchema(s Schema) *Frame {
	names := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		names[i] = cs.Name
	}
	return NewFrame(names...)
}

// FromColumns builds a frame from parallel name and column slices.
func FromColumns(names []string, cols [][]any) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("frame: %d names for %d columns", len(names), len(cols))
	}
	f := NewFrame()
	for i, n := range names {
		if err := f.SetColumn(n, cols[i]); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// FromRecords builds a frame from row maps. Columns listed in order come
// first; any other keys follow in first-seen order (sorted within a record).
func FromRecords(records []map[string]any, order []string) *Frame {
	f := NewFrame(order...)
	for _, rec := range records {
		f.AppendRow(rec)
	}
	return f
}

func (f *Frame) Rows() int { return f.nrows }
func (f *Frame) Cols() int { return len(f.names) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the live cell slice for name.
func (f *Frame) Column(name string) ([]any, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Strings returns the column coerced cell by cell with String.
func (f *Frame) Strings(name string) ([]string, bool) {
	col, ok := f.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]string, len(col))
	for i, v := range col {
		out[i] = String(v)
	}
	return out, true
}

// SetColumn replaces or appends a column. The first column set on an empty
// frame fixes the row count.
func (f *Frame) SetColumn(name string, values []any) error {
	if len(f.names) == 0 && f.nrows == 0 {
		f.nrows = len(values)
	}
	if len(values) != f.nrows {
		return fmt.Errorf("column %s has %d values, frame has %d rows", name, len(values), f.nrows)
	}
	for i := range values {
		values[i] = Normalize(values[i])
	}
	if i, ok := f.index[name]; ok {
		f.cols[i] = values
		return nil
	}
	f.index[name] = len(f.names)
	f.names = append(f.names, name)
	f.cols = append(f.cols, values)
	return nil
}

// Fill sets a column where every row holds v.
func (f *Frame) Fill(name string, v any) {
	col := make([]any, f.nrows)
	for i := range col {
		col[i] = v
	}
	_ = f.SetColumn(name, col)
}

func (f *Frame) Cell(row int, name string) any {
	i, ok := f.index[name]
	if !ok || row < 0 || row >= f.nrows {
		return nil
	}
	return f.cols[i][row]
}

// SetCell sets a single cell value by name (row must exist).
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	if row < 0 || row >= f.nrows {
		return fmt.Errorf("row %d out of range", row)
	}
	f.cols[i][row] = Normalize(v)
	return nil
}

// AppendNullRow appends a row with all-null values.
func (f *Frame) AppendNullRow() {
	for i := range f.cols {
		f.cols[i] = append(f.cols[i], nil)
	}
	f.nrows++
}

// AppendRow appends one row. Keys that are not yet columns become new
// columns, null-filled for earlier rows.
func (f *Frame) AppendRow(values map[string]any) {
	var extra []string
	for k := range values {
		if _, ok := f.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		f.index[k] = len(f.names)
		f.names = append(f.names, k)
		f.cols = append(f.cols, make([]any, f.nrows))
	}
	for i, n := range f.names {
		f.cols[i] = append(f.cols[i], Normalize(values[n]))
	}
	f.nrows++
}

// Record returns row as a name -> cell map.
func (f *Frame) Record(row int) map[string]any {
	m := make(map[string]any, len(f.names))
	for i, n := range f.names {
		m[n] = f.cols[i][row]
	}
	return m
}

func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, f.nrows)
	for r := 0; r < f.nrows; r++ {
		out[r] = f.Record(r)
	}
	return out
}

// Drop removes columns; unknown names are ignored.
func (f *Frame) Drop(names ...string) {
	if len(names) == 0 {
		return
	}
	gone := make(map[string]struct{}, len(names))
	for _, n := range names {
		gone[n] = struct{}{}
	}
	keepNames := f.names[:0:0]
	keepCols := f.cols[:0:0]
	for i, n := range f.names {
		if _, ok := gone[n]; ok {
			continue
		}
		keepNames = append(keepNames, n)
		keepCols = append(keepCols, f.cols[i])
	}
	f.names, f.cols = keepNames, keepCols
	f.reindex()
}

// Rename renames columns in place, keeping their positions.
func (f *Frame) Rename(mapping map[string]string) error {
	next := make([]string, len(f.names))
	copy(next, f.names)
	for from, to := range mapping {
		i, ok := f.index[from]
		if !ok {
			return Missing(from)
		}
		next[i] = to
	}
	seen := make(map[string]struct{}, len(next))
	for _, n := range next {
		if _, dup := seen[n]; dup {
			return Configf("rename would create duplicate column %q", n)
		}
		seen[n] = struct{}{}
	}
	f.names = next
	f.reindex()
	return nil
}

// Select returns a new frame holding only the named columns, in that order.
// Cell slices are shared with f.
func (f *Frame) Select(names []string) (*Frame, error) {
	out := &Frame{index: make(map[string]int, len(names)), nrows: f.nrows}
	for _, n := range names {
		i, ok := f.index[n]
		if !ok {
			return nil, Missing(n)
		}
		if _, dup := out.index[n]; dup {
			continue
		}
		out.index[n] = len(out.names)
		out.names = append(out.names, n)
		out.cols = append(out.cols, f.cols[i])
	}
	return out, nil
}

// Take returns a new frame with the given rows, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := &Frame{
		names: f.Columns(),
		cols:  make([][]any, len(f.cols)),
		index: make(map[string]int, len(f.names)),
		nrows: len(rows),
	}
	for i, col := range f.cols {
		nc := make([]any, len(rows))
		for j, r := range rows {
			nc[j] = col[r]
		}
		out.cols[i] = nc
	}
	out.reindex()
	return out
}

// Clone copies the frame structure and cell slices. Nested list and map
// cells are shared.
func (f *Frame) Clone() *Frame {
	out := &Frame{names: f.Columns(), cols: make([][]any, len(f.cols)), nrows: f.nrows}
	for i, col := range f.cols {
		out.cols[i] = append([]any(nil), col...)
	}
	out.reindex()
	return out
}

// Schema infers a column schema from the cells currently held.
func (f *Frame) Schema() Schema {
	s := Schema{Columns: make([]ColumnSchema, len(f.names))}
	for i, n := range f.names {
		k, nullable := KindInvalid, false
		for _, v := range f.cols[i] {
			if v == nil {
				nullable = true
				continue
			}
			vk := KindOf(v)
			switch {
			case k == KindInvalid:
				k = vk
			case k == vk:
			case (k == KindInt && vk == KindFloat) || (k == KindFloat && vk == KindInt):
				k = KindFloat
			default:
				k = KindMixed
			}
		}
		if k == KindInvalid {
			k = KindString
		}
		s.Columns[i] = ColumnSchema{Name: n, Type: k, Nullable: nullable}
	}
	return s
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.names))
	for i, n := range f.names {
		f.index[n] = i
	}
}
