package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type ReaderOptions struct {
	HasHeader  bool
	Delimiter  rune // 0 = sniff, default ','
	SampleRows int  // for inference; default 100
	Strict     bool // if true, error on short/long records
	InferTypes bool // if false every cell is read as text
}

type Reader struct {
	r     *csv.Reader
	opt   ReaderOptions
	buf   [][]string
	names []string
	// repair/warning counters
	shortRecords int
	longRecords  int
}

// Open opens a CSV file (or stdin for "-") and returns a Reader. Gzip input
// is detected by extension or magic bytes.
func Open(path string, opt ReaderOptions) (*Reader, io.Closer, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, nil, err
	}
	return NewReaderFrom(rc, opt), rc, nil
}

// NewReaderFrom constructs a Reader from an arbitrary io.Reader (stdin, pipe,
// object body).
func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	br := bufio.NewReaderSize(r, 64*1024)
	rr := csv.NewReader(br)
	if opt.Delimiter == 0 {
		d, lazy := sniffDelimiterAndQuotes(br)
		rr.Comma = d
		rr.LazyQuotes = lazy
	} else {
		rr.Comma = opt.Delimiter
	}
	rr.FieldsPerRecord = -1
	return &Reader{r: rr, opt: opt}
}

// InferSchema reads header (if present) and samples rows to determine column
// kinds. It returns io.EOF for empty input.
func (r *Reader) InferSchema() (w.Schema, []string, error) {
	var names []string
	rec, err := r.r.Read()
	if err != nil {
		return w.Schema{}, nil, err
	}
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i := range rec {
			names[i] = strings.ToValidUTF8(rec[i], "?")
		}
		// strip BOM on first header cell if present
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
		rec, err = r.r.Read()
		if errors.Is(err, io.EOF) {
			rec = nil
		} else if err != nil {
			return w.Schema{}, nil, err
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
	}

	var sample [][]string
	if rec != nil {
		sample = append(sample, rec)
	}
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for rec != nil && len(sample) < max {
		rr, err := r.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.Schema{}, nil, err
		}
		sample = append(sample, rr)
	}

	kinds := make([]w.Kind, len(names))
	for i := range kinds {
		kinds[i] = w.KindString
	}
	if r.opt.InferTypes {
		copy(kinds, inferKinds(sample, len(names)))
	}
	schema := w.Schema{Columns: make([]w.ColumnSchema, len(names))}
	for i := range names {
		schema.Columns[i] = w.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	// retain sampled rows for subsequent ReadAll
	r.buf = append(r.buf, sample...)
	r.names = names
	return schema, names, nil
}

// ReadAll loads the rest of the CSV into a Frame.
func (r *Reader) ReadAll(schema w.Schema) (*w.Frame, error) {
	f := w.FromSchema(schema)
	for {
		rec, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := r.append(f, schema, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ReadFrame reads a whole CSV stream. Empty input gives an empty frame.
func ReadFrame(src io.Reader, opt ReaderOptions) (*w.Frame, error) {
	r := NewReaderFrom(src, opt)
	schema, _, err := r.InferSchema()
	if errors.Is(err, io.EOF) {
		return w.NewFrame(), nil
	}
	if err != nil {
		return nil, err
	}
	return r.ReadAll(schema)
}

func (r *Reader) next() ([]string, error) {
	if len(r.buf) > 0 {
		rec := r.buf[0]
		r.buf = r.buf[1:]
		return rec, nil
	}
	return r.r.Read()
}

func (r *Reader) append(f *w.Frame, schema w.Schema, rec []string) error {
	if len(rec) > len(schema.Columns) {
		r.longRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv long record at row %d: need %d fields, got %d", f.Rows()+1, len(schema.Columns), len(rec))
		}
	}
	f.AppendNullRow()
	row := f.Rows() - 1
	for i, cs := range schema.Columns {
		if i >= len(rec) {
			r.shortRecords++
			if r.opt.Strict {
				return fmt.Errorf("csv short record at row %d: need %d fields, got %d", row+1, len(schema.Columns), len(rec))
			}
			continue
		}
		if v := parseCell(rec[i], cs.Type, r.opt.InferTypes); v != nil {
			_ = f.SetCell(row, cs.Name, v)
		}
	}
	return nil
}

// parseCell converts one field. Untyped reads keep the raw text, empty
// included; typed reads leave empty or unparsable cells null.
func parseCell(raw string, kind w.Kind, typed bool) any {
	if !typed {
		return strings.ToValidUTF8(raw, "?")
	}
	val := strings.ToValidUTF8(strings.TrimSpace(raw), "?")
	if val == "" {
		return nil
	}
	switch kind {
	case w.KindFloat:
		if x, err := strconv.ParseFloat(val, 64); err == nil {
			return x
		}
	case w.KindInt:
		if x, err := strconv.ParseInt(val, 10, 64); err == nil {
			return x
		}
	case w.KindBool:
		if x, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			return x
		}
	default:
		return val
	}
	return nil
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(rows [][]string, ncol int) []w.Kind {
	kinds := make([]w.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			if numre.MatchString(v) {
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
				continue
			}
			lv := strings.ToLower(v)
			if lv == "true" || lv == "false" {
				boolean++
				continue
			}
			str++
		}
		switch {
		case boolean > 0 && num == 0 && str == 0:
			kinds[c] = w.KindBool
		case num > 0 && boolean == 0 && str == 0:
			if integer == num {
				kinds[c] = w.KindInt
			} else {
				kinds[c] = w.KindFloat
			}
		default:
			kinds[c] = w.KindString
		}
	}
	return kinds
}

func sniffDelimiterAndQuotes(br *bufio.Reader) (rune, bool) {
	sample, _ := br.Peek(4096)
	if len(sample) == 0 {
		return ',', false
	}
	// only the first line decides; quoted text further down is noise
	if nl := strings.IndexByte(string(sample), '\n'); nl > 0 {
		sample = sample[:nl]
	}
	candidates := []byte{',', '\t', ';', '|'}
	best := byte(',')
	bestCount := 0
	for _, c := range candidates {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount = cnt
			best = c
		}
	}
	quoteCount := 0
	for _, b := range sample {
		if b == '"' {
			quoteCount++
		}
	}
	return rune(best), quoteCount%2 != 0
}

// Warnings returns a summary string of any repairs/mismatches encountered.
func (r *Reader) Warnings() string {
	if r.shortRecords == 0 && r.longRecords == 0 {
		return ""
	}
	parts := []string{}
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	return strings.Join(parts, ", ")
}
