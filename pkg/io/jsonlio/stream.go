package jsonlio

import (
	"bufio"
	"errors"
	"io"

	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type StreamReader struct {
	r         *Reader
	schema    w.Schema
	chunkSize int
}

func NewStreamReader(path string, chunkSize int) (*StreamReader, io.Closer, error) {
	r, c, err := Open(path, ReaderOptions{})
	if err != nil {
		return nil, nil, err
	}
	// sampled records stay buffered in r and are replayed by Next
	schema, err := r.InferSchema()
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return &StreamReader{r: r, schema: schema, chunkSize: chunkSize}, c, nil
}

func (s *StreamReader) Next() (*w.Frame, error) {
	if s.chunkSize <= 0 {
		s.chunkSize = 1024
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
		appendRecord(f, rec)
	}
	return f, nil
}

func (s *StreamReader) Schema() w.Schema { return s.schema }

type StreamWriter struct {
	w   *bufio.Writer
	out io.WriteCloser
}

func NewStreamWriter(path string) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{w: bufio.NewWriter(out), out: out}, nil
}

func (s *StreamWriter) Write(f *w.Frame) error {
	return Write(s.w, f)
}

func (s *StreamWriter) Close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}
