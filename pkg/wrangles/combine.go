package wrangles

import (
	"fmt"
	"sort"
	"strings"
)

// Union appends the rows of frames in order. Columns are unioned in
// first-seen order; cells a frame lacks are null.
func Union(frames ...*Frame) *Frame {
	out := NewFrame()
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, n := range fr.names {
			if !out.Has(n) {
				out.index[n] = len(out.names)
				out.names = append(out.names, n)
				out.cols = append(out.cols, make([]any, out.nrows))
			}
		}
		for i, n := range out.names {
			src, ok := fr.Column(n)
			if !ok {
				out.cols[i] = append(out.cols[i], make([]any, fr.nrows)...)
				continue
			}
			out.cols[i] = append(out.cols[i], src...)
		}
		out.nrows += fr.nrows
	}
	return out
}

// Concat places frames side by side. Shorter frames are padded with nulls;
// a repeated column name takes the later frame's values.
func Concat(frames ...*Frame) *Frame {
	rows := 0
	for _, fr := range frames {
		if fr != nil && fr.nrows > rows {
			rows = fr.nrows
		}
	}
	out := &Frame{index: map[string]int{}, nrows: rows}
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for i, n := range fr.names {
			col := make([]any, rows)
			copy(col, fr.cols[i])
			if j, ok := out.index[n]; ok {
				out.cols[j] = col
				continue
			}
			out.index[n] = len(out.names)
			out.names = append(out.names, n)
			out.cols = append(out.cols, col)
		}
	}
	return out
}

// Join merges right into left on key columns. how is one of inner, left,
// right or outer. Right-hand columns that collide with left names are
// suffixed with "_right".
func Join(left, right *Frame, how string, leftOn, rightOn []string) (*Frame, error) {
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, Configf("join requires left_on and right_on with the same number of columns")
	}
	for _, n := range leftOn {
		if !left.Has(n) {
			return nil, Missing(n)
		}
	}
	for _, n := range rightOn {
		if !right.Has(n) {
			return nil, Missing(n)
		}
	}
	switch how {
	case "", "inner", "left", "right", "outer":
	default:
		return nil, Configf("join how must be one of inner, left, right, outer; got %q", how)
	}

	key := func(f *Frame, on []string, r int) string {
		parts := make([]string, len(on))
		for i, n := range on {
			parts[i] = String(f.Cell(r, n))
		}
		return strings.Join(parts, "\x1f")
	}
	rightIdx := map[string][]int{}
	for r := 0; r < right.nrows; r++ {
		k := key(right, rightOn, r)
		rightIdx[k] = append(rightIdx[k], r)
	}

	// Right-hand key columns with the same name as the left key are merged.
	shared := map[string]bool{}
	for i := range leftOn {
		if leftOn[i] == rightOn[i] {
			shared[rightOn[i]] = true
		}
	}
	rightNames := make([]string, 0, right.Cols())
	rightOut := map[string]string{}
	for _, n := range right.names {
		if shared[n] {
			continue
		}
		outName := n
		if left.Has(n) {
			outName = n + "_right"
		}
		rightNames = append(rightNames, n)
		rightOut[n] = outName
	}

	out := NewFrame(left.Columns()...)
	for _, n := range rightNames {
		out.index[rightOut[n]] = len(out.names)
		out.names = append(out.names, rightOut[n])
		out.cols = append(out.cols, nil)
	}
	emit := func(l, r int) {
		row := make(map[string]any, len(out.names))
		if l >= 0 {
			for _, n := range left.names {
				row[n] = left.Cell(l, n)
			}
		}
		if r >= 0 {
			for _, n := range rightNames {
				row[rightOut[n]] = right.Cell(r, n)
			}
			if l < 0 {
				for i, n := range leftOn {
					row[n] = right.Cell(r, rightOn[i])
				}
			}
		}
		out.AppendRow(row)
	}

	matchedRight := make([]bool, right.nrows)
	for l := 0; l < left.nrows; l++ {
		rs := rightIdx[key(left, leftOn, l)]
		if len(rs) == 0 {
			if how == "left" || how == "outer" {
				emit(l, -1)
			}
			continue
		}
		for _, r := range rs {
			matchedRight[r] = true
			emit(l, r)
		}
	}
	if how == "right" || how == "outer" {
		for r := 0; r < right.nrows; r++ {
			if !matchedRight[r] {
				emit(-1, r)
			}
		}
	}
	return out, nil
}

// SortKey orders a frame by one column.
type SortKey struct {
	Column     string
	Descending bool
}

// ParseOrderBy parses "col1, col2 DESC" into sort keys.
func ParseOrderBy(s string) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k := SortKey{Column: part}
		upper := strings.ToUpper(part)
		switch {
		case strings.HasSuffix(upper, " DESC"):
			k.Column, k.Descending = strings.TrimSpace(part[:len(part)-5]), true
		case strings.HasSuffix(upper, " ASC"):
			k.Column = strings.TrimSpace(part[:len(part)-4])
		}
		k.Column = strings.Trim(k.Column, `"`)
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("order_by %q names no columns", s)
	}
	return keys, nil
}

// SortBy returns a stably sorted copy of f.
func SortBy(f *Frame, keys []SortKey) (*Frame, error) {
	for _, k := range keys {
		if !f.Has(k.Column) {
			return nil, Missing(k.Column)
		}
	}
	rows := make([]int, f.nrows)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		for _, k := range keys {
			c := Compare(f.Cell(rows[a], k.Column), f.Cell(rows[b], k.Column))
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return f.Take(rows), nil
}
