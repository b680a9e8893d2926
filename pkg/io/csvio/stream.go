package csvio

import (
	"encoding/csv"
	"errors"
	"io"

	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// StreamReader reads CSV into Frame chunks of up to ChunkSize rows.
type StreamReader struct {
	r         *Reader
	schema    w.Schema
	chunkSize int
}

// NewStreamReader opens the file, infers schema (respecting options), and returns a StreamReader.
func NewStreamReader(path string, opt ReaderOptions, chunkSize int) (*StreamReader, io.Closer, error) {
	rr, c, err := Open(path, opt)
	if err != nil {
		return nil, nil, err
	}
	schema, _, err := rr.InferSchema()
	if err != nil && !errors.Is(err, io.EOF) {
		_ = c.Close()
		return nil, nil, err
	}
	return &StreamReader{r: rr, schema: schema, chunkSize: chunkSize}, c, nil
}

// Next returns the next chunk frame or io.EOF when complete.
func (s *StreamReader) Next() (*w.Frame, error) {
	if s.chunkSize <= 0 {
		s.chunkSize = 1024
	}
	if len(s.schema.Columns) == 0 {
		return nil, io.EOF
	}
	f := w.FromSchema(s.schema)
	for f.Rows() < s.chunkSize {
		rec, err := s.r.next()
		if errors.Is(err, io.EOF) {
			if f.Rows() == 0 {
				return nil, io.EOF
			}
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		if err := s.r.append(f, s.schema, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *StreamReader) Schema() w.Schema { return s.schema }

// StreamWriter appends frames to a CSV file with a header written once. The
// first frame fixes the column order.
type StreamWriter struct {
	w     *csv.Writer
	out   io.WriteCloser
	names []string
}

func NewStreamWriter(path string, opt WriterOptions) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{w: newCSVWriter(out, opt), out: out}, nil
}

func (s *StreamWriter) Write(fr *w.Frame) error {
	if s.names == nil {
		s.names = fr.Columns()
		if err := s.w.Write(s.names); err != nil {
			return err
		}
	}
	if err := writeRows(s.w, fr, s.names); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *StreamWriter) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}
