package jsonlio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/danthegoodman1/gojsonutils"

	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type ReaderOptions struct {
	SampleRows int
	// Flatten turns nested objects into dotted top-level keys.
	Flatten bool
}

type Reader struct {
	r   *bufio.Reader
	opt ReaderOptions
	buf []record
}

// record is one decoded object with its keys in document order.
type record struct {
	keys   []string
	values map[string]any
}

func Open(path string, opt ReaderOptions) (*Reader, io.Closer, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, nil, err
	}
	return NewReaderFrom(rc, opt), rc, nil
}

func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	return &Reader{r: bufio.NewReader(r), opt: opt}
}

// InferSchema samples up to SampleRows records. Columns appear in first-seen
// key order.
func (r *Reader) InferSchema() (w.Schema, error) {
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	for len(r.buf) < max {
		rec, err := r.decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return w.Schema{}, err
		}
		r.buf = append(r.buf, rec)
	}
	f := w.NewFrame()
	for _, rec := range r.buf {
		appendRecord(f, rec)
	}
	return f.Schema(), nil
}

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
		appendRecord(f, rec)
	}
	return f, nil
}

// ReadFrame reads a whole JSON lines stream.
func ReadFrame(src io.Reader, opt ReaderOptions) (*w.Frame, error) {
	r := NewReaderFrom(src, opt)
	schema, err := r.InferSchema()
	if err != nil {
		return nil, err
	}
	return r.ReadAll(schema)
}

// ReadRecords reads a JSON array of objects, as written by WriteRecords.
func ReadRecords(src io.Reader, opt ReaderOptions) (*w.Frame, error) {
	dec := json.NewDecoder(src)
	dec.UseNumber()
	var raws []json.RawMessage
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("error decoding JSON records: %w", err)
	}
	f := w.NewFrame()
	for i, raw := range raws {
		rec, err := decodeOrdered(raw, opt.Flatten)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		appendRecord(f, rec)
	}
	return f, nil
}

func (r *Reader) next() (record, error) {
	if len(r.buf) > 0 {
		rec := r.buf[0]
		r.buf = r.buf[1:]
		return rec, nil
	}
	return r.decode()
}

func (r *Reader) decode() (record, error) {
	for {
		line, err := r.r.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			return decodeOrdered(line, r.opt.Flatten)
		}
		if err != nil {
			return record{}, err
		}
	}
}

func decodeOrdered(raw []byte, flatten bool) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return record{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return record{}, fmt.Errorf("line is not a JSON object")
	}
	rec := record{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return record{}, err
		}
		key, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return record{}, err
		}
		if _, dup := rec.values[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.values[key] = normalize(v)
	}
	if flatten {
		return flattenRecord(rec)
	}
	return rec, nil
}

// normalize resolves json.Number values nested anywhere in v.
func normalize(v any) any {
	switch t := v.(type) {
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	}
	return w.Normalize(v)
}

func flattenRecord(rec record) (record, error) {
	flat, err := gojsonutils.Flatten(rec.values, nil)
	if err != nil {
		return record{}, fmt.Errorf("error flattening JSON map: %w", err)
	}
	m, ok := flat.(map[string]any)
	if !ok {
		return record{}, fmt.Errorf("got a non flat map: %+v", flat)
	}
	out := record{values: m}
	seen := map[string]bool{}
	for _, k := range rec.keys {
		if _, ok := m[k]; ok {
			out.keys = append(out.keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	// nested keys follow the untouched ones in sorted order
	sort.Strings(rest)
	out.keys = append(out.keys, rest...)
	return out, nil
}

func appendRecord(f *w.Frame, rec record) {
	for _, k := range rec.keys {
		if !f.Has(k) {
			f.Fill(k, nil)
		}
	}
	f.AppendRow(rec.values)
}

// DecodeObject decodes one JSON object, returning its keys in document
// order. Nested objects become dotted keys when flatten is set.
func DecodeObject(raw []byte, flatten bool) ([]string, map[string]any, error) {
	rec, err := decodeOrdered(raw, flatten)
	if err != nil {
		return nil, nil, err
	}
	return rec.keys, rec.values, nil
}
