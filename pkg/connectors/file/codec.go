// Package file reads and writes tables as local files and holds the
// format codecs the remote connectors share.
package file

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/admariner/wrangles/pkg/io/csvio"
	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	"github.com/admariner/wrangles/pkg/io/jsonlio"
	"github.com/admariner/wrangles/pkg/io/parquetio"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Format carries the options that shape how bytes become a table.
type Format struct {
	Delimiter  string `mapstructure:"delimiter" validate:"max=1"`
	Header     *bool  `mapstructure:"header"`
	InferTypes bool   `mapstructure:"infer_types"`
	Flatten    bool   `mapstructure:"flatten"`
}

func (o Format) delimiter(kind iox.Format) rune {
	if o.Delimiter != "" {
		r, _ := utf8.DecodeRuneInString(o.Delimiter)
		return r
	}
	if kind == iox.FormatTSV {
		return '\t'
	}
	return 0
}

func (o Format) header() bool { return o.Header == nil || *o.Header }

// Decode reads a table in the format implied by name.
func Decode(name string, src io.Reader, o Format) (*w.Frame, error) {
	kind, err := iox.DetectFormat(name)
	if err != nil {
		return nil, w.Configf("%s", err)
	}
	if kind == iox.FormatParquet {
		b, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}
		r, err := parquetio.NewReader(bytes.NewReader(b), int64(len(b)))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.ReadAll()
	}

	src, err = iox.Decompress(src)
	if err != nil {
		return nil, err
	}
	switch kind {
	case iox.FormatJSONL:
		return jsonlio.ReadFrame(src, jsonlio.ReaderOptions{Flatten: o.Flatten})
	case iox.FormatJSON:
		return jsonlio.ReadRecords(src, jsonlio.ReaderOptions{Flatten: o.Flatten})
	}
	return csvio.ReadFrame(src, csvio.ReaderOptions{
		HasHeader:  o.header(),
		Delimiter:  o.delimiter(kind),
		InferTypes: o.InferTypes,
	})
}

// Encode writes f in the format implied by name, gzip compressed when
// name ends in .gz.
func Encode(name string, dst io.Writer, f *w.Frame, o Format) error {
	kind, err := iox.DetectFormat(name)
	if err != nil {
		return w.Configf("%s", err)
	}
	if kind == iox.FormatParquet {
		return encodeParquet(dst, f)
	}
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		zw := gzip.NewWriter(dst)
		if err := encodeText(kind, zw, f, o); err != nil {
			return err
		}
		return zw.Close()
	}
	return encodeText(kind, dst, f, o)
}

func encodeText(kind iox.Format, dst io.Writer, f *w.Frame, o Format) error {
	switch kind {
	case iox.FormatJSONL:
		return jsonlio.Write(dst, f)
	case iox.FormatJSON:
		return jsonlio.WriteRecords(dst, f)
	}
	return csvio.Write(dst, f, csvio.WriterOptions{Delimiter: o.delimiter(kind), NoHeader: !o.header()})
}

// encodeParquet stages the file on disk; the parquet writer needs a
// seekable local file.
func encodeParquet(dst io.Writer, f *w.Frame) error {
	tmp, err := os.CreateTemp("", "wrangles-*.parquet")
	if err != nil {
		return err
	}
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)
	if err := parquetio.WriteAll(path, f); err != nil {
		return fmt.Errorf("error writing parquet: %w", err)
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	return err
}
