package csvio

import (
	"encoding/csv"
	"io"

	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type WriterOptions struct {
	Delimiter rune // default ','
	NoHeader  bool
}

// WriteAll writes a Frame to a CSV file (gzip when the path ends in .gz).
func WriteAll(path string, f *w.Frame, opt WriterOptions) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, f, opt); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Write encodes f as CSV. Lists and maps are written as JSON text.
func Write(dst io.Writer, f *w.Frame, opt WriterOptions) error {
	cw := newCSVWriter(dst, opt)
	if !opt.NoHeader {
		if err := cw.Write(f.Columns()); err != nil {
			return err
		}
	}
	if err := writeRows(cw, f, f.Columns()); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func newCSVWriter(dst io.Writer, opt WriterOptions) *csv.Writer {
	cw := csv.NewWriter(dst)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	return cw
}

func writeRows(cw *csv.Writer, f *w.Frame, names []string) error {
	row := make([]string, len(names))
	for r := 0; r < f.Rows(); r++ {
		for c, n := range names {
			row[c] = w.String(f.Cell(r, n))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}
