package jsonlio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"time"

	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

func WriteAll(path string, f *w.Frame) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, f); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Write encodes f as one JSON object per line, keys in column order.
func Write(dst io.Writer, f *w.Frame) error {
	bw := bufio.NewWriter(dst)
	names := f.Columns()
	for r := 0; r < f.Rows(); r++ {
		b, err := encodeRow(f, names, r)
		if err != nil {
			return err
		}
		_, _ = bw.Write(b)
		_ = bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteRecords encodes f as a JSON array of objects.
func WriteRecords(dst io.Writer, f *w.Frame) error {
	bw := bufio.NewWriter(dst)
	names := f.Columns()
	_ = bw.WriteByte('[')
	for r := 0; r < f.Rows(); r++ {
		if r > 0 {
			_ = bw.WriteByte(',')
		}
		b, err := encodeRow(f, names, r)
		if err != nil {
			return err
		}
		_, _ = bw.Write(b)
	}
	_ = bw.WriteByte(']')
	return bw.Flush()
}

func encodeRow(f *w.Frame, names []string, r int) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v := f.Cell(r, n)
		if t, ok := v.(time.Time); ok {
			v = t.Format(time.RFC3339)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
