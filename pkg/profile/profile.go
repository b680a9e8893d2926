// Package profile summarises the columns of one or more frames.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

type NumStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
}

func (n *NumStats) Mean() float64 {
	if n.Count == 0 {
		return 0
	}
	return n.Sum / float64(n.Count)
}

type BoolStats struct {
	True  int `json:"true"`
	False int `json:"false"`
}

type ColumnProfile struct {
	Name  string
	Kind  w.Kind
	Count int
	Nulls int
	Num   *NumStats
	Bool  *BoolStats
	Freqs map[string]int
	// order in which values were first seen, used to break frequency ties
	seen []string
}

// Collector accumulates column statistics across chunks. Columns are added
// as they first appear.
type Collector struct {
	cols  []*ColumnProfile
	index map[string]int
	topK  int
}

func NewCollector(topK int) *Collector {
	return &Collector{index: make(map[string]int), topK: topK}
}

func (c *Collector) column(name string) *ColumnProfile {
	if i, ok := c.index[name]; ok {
		return c.cols[i]
	}
	cp := &ColumnProfile{Name: name, Freqs: make(map[string]int)}
	c.index[name] = len(c.cols)
	c.cols = append(c.cols, cp)
	return cp
}

func (c *Collector) ConsumeFrame(f *w.Frame) {
	for _, name := range f.Columns() {
		cp := c.column(name)
		col, _ := f.Column(name)
		for _, v := range col {
			if w.IsEmpty(v) {
				cp.Nulls++
				continue
			}
			cp.Count++
			k := w.KindOf(v)
			cp.Kind = merge(cp.Kind, k)
			switch k {
			case w.KindInt, w.KindFloat:
				x, _ := w.Float(v)
				if cp.Num == nil {
					cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
				}
				cp.Num.Count++
				cp.Num.Min = math.Min(cp.Num.Min, x)
				cp.Num.Max = math.Max(cp.Num.Max, x)
				cp.Num.Sum += x
			case w.KindBool:
				if cp.Bool == nil {
					cp.Bool = &BoolStats{}
				}
				if v.(bool) {
					cp.Bool.True++
				} else {
					cp.Bool.False++
				}
			}
			if c.topK > 0 {
				s := w.String(v)
				if cp.Freqs[s] == 0 {
					cp.seen = append(cp.seen, s)
				}
				cp.Freqs[s]++
			}
		}
	}
}

func merge(a, b w.Kind) w.Kind {
	switch {
	case a == w.KindInvalid || a == b:
		return b
	case (a == w.KindInt && b == w.KindFloat) || (a == w.KindFloat && b == w.KindInt):
		return w.KindFloat
	}
	return w.KindMixed
}

type Freq struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Top returns the k most frequent values, earliest seen first on ties.
func (cp *ColumnProfile) Top(k int) []Freq {
	out := make([]Freq, 0, len(cp.seen))
	for _, s := range cp.seen {
		out = append(out, Freq{Value: s, Count: cp.Freqs[s]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

func (c *Collector) Columns() []*ColumnProfile { return c.cols }

func (c *Collector) ReportText() string {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for _, cp := range c.cols {
		kind := cp.Kind
		if kind == w.KindInvalid {
			kind = w.KindString
		}
		fmt.Fprintf(&b, "- %s (%v): count=%d nulls=%d", cp.Name, kind, cp.Count, cp.Nulls)
		switch {
		case cp.Num != nil:
			fmt.Fprintf(&b, " min=%.6g max=%.6g mean=%.6g", cp.Num.Min, cp.Num.Max, cp.Num.Mean())
		case cp.Bool != nil:
			fmt.Fprintf(&b, " true=%d false=%d", cp.Bool.True, cp.Bool.False)
		}
		b.WriteString("\n")
		for _, fr := range cp.Top(c.topK) {
			fmt.Fprintf(&b, "  * %q: %d\n", fr.Value, fr.Count)
		}
	}
	return b.String()
}

type JSONProfile struct {
	Columns []JSONColumn `json:"columns"`
}

type JSONColumn struct {
	Name  string     `json:"name"`
	Kind  string     `json:"kind"`
	Count int        `json:"count"`
	Nulls int        `json:"nulls"`
	Num   *JSONNum   `json:"num,omitempty"`
	Bool  *BoolStats `json:"bool,omitempty"`
	Top   []Freq     `json:"top,omitempty"`
}

type JSONNum struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

func (c *Collector) ReportJSON() JSONProfile {
	out := JSONProfile{Columns: make([]JSONColumn, 0, len(c.cols))}
	for _, cp := range c.cols {
		kind := cp.Kind
		if kind == w.KindInvalid {
			kind = w.KindString
		}
		jc := JSONColumn{
			Name:  cp.Name,
			Kind:  kind.String(),
			Count: cp.Count,
			Nulls: cp.Nulls,
			Bool:  cp.Bool,
			Top:   cp.Top(c.topK),
		}
		if cp.Num != nil {
			jc.Num = &JSONNum{Min: cp.Num.Min, Max: cp.Num.Max, Mean: cp.Num.Mean()}
		}
		out.Columns = append(out.Columns, jc)
	}
	return out
}
