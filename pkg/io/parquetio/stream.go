package parquetio

import (
	"errors"
	"io"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

// StreamReader reads Parquet rows in chunks as Frames.
type StreamReader struct {
	r         *Reader
	chunkSize int
}

func NewStreamReader(path string, chunkSize int) (*StreamReader, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	return &StreamReader{r: r, chunkSize: chunkSize}, nil
}

func (s *StreamReader) Close() error { return s.r.Close() }

func (s *StreamReader) Next() (*w.Frame, error) {
	f := w.NewFrame(s.r.names...)
	n, err := s.r.readInto(f, s.chunkSize)
	if n == 0 && err == nil {
		err = io.EOF
	}
	if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
		return nil, err
	}
	return f, nil
}

// StreamWriter writes Frames to a Parquet file incrementally.
type StreamWriter = Writer

func NewStreamWriter(path string) (*StreamWriter, error) { return Create(path) }
