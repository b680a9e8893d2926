package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"github.com/admariner/wrangles/pkg/columns"
	"github.com/admariner/wrangles/pkg/gologger"
	iox "github.com/admariner/wrangles/pkg/io/ioutils"
	"github.com/admariner/wrangles/pkg/io/parquetio"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

var logger = gologger.NewLogger()

// ErrNotFound is wrapped by read errors for a missing file.
var ErrNotFound = fs.ErrNotExist

type readOptions struct {
	Name   string `mapstructure:"name" validate:"required"`
	Format `mapstructure:",squash"`
}

type writeOptions struct {
	Name    string   `mapstructure:"name" validate:"required"`
	Columns []string `mapstructure:"columns"`
	Format  `mapstructure:",squash"`
}

// Tree is the `file` connector.
func Tree() registry.Map {
	return registry.Map{
		"read":  registry.Reader{Fn: Read},
		"write": registry.Writer{Fn: Write},
	}
}

// Read loads the file named by the `name` option.
func Read(ctx context.Context, p registry.Params) (*w.Frame, error) {
	var opts readOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	f, err := ReadFile(opts.Name, opts.Format)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("name", opts.Name).Int("rows", f.Rows()).Msg("file read")
	return f, nil
}

// ReadFile decodes a local file.
func ReadFile(name string, o Format) (*w.Frame, error) {
	if _, err := iox.DetectFormat(name); err != nil {
		return nil, w.Configf("%s", err)
	}
	src, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("File not found: %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return Decode(name, src, o)
}

// Write stores the table at `name`, optionally restricted to `columns`.
func Write(ctx context.Context, f *w.Frame, p registry.Params) error {
	var opts writeOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	out, err := Columns(f, opts.Columns)
	if err != nil {
		return err
	}
	if err := WriteFile(opts.Name, out, opts.Format); err != nil {
		return err
	}
	logger.Debug().Str("name", opts.Name).Int("rows", out.Rows()).Msg("file written")
	return nil
}

// WriteFile encodes f to a local file, creating parent directories.
func WriteFile(name string, f *w.Frame, o Format) error {
	kind, err := iox.DetectFormat(name)
	if err != nil {
		return w.Configf("%s", err)
	}
	if kind == iox.FormatParquet {
		return parquetio.WriteAll(name, f)
	}
	// CreateMaybeCompressed handles .gz itself
	dst, err := iox.CreateMaybeCompressed(name)
	if err != nil {
		return err
	}
	if err := encodeText(kind, dst, f, o); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Columns narrows f to the named columns, wildcards allowed. No names
// keeps every column.
func Columns(f *w.Frame, names []string) (*w.Frame, error) {
	if len(names) == 0 {
		return f, nil
	}
	sel, err := columns.ExpandNames(f.Columns(), names)
	if err != nil {
		return nil, err
	}
	return f.Select(sel)
}
