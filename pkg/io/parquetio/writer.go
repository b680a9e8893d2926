package parquetio

import (
	"encoding/json"
	"fmt"
	"time"

	local "github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	pw "github.com/xitongsys/parquet-go/writer"

	w "github.com/admariner/wrangles/pkg/wrangles"
)

func parquetSchemaJSON(s w.Schema) string {
	// Build a minimal JSON schema for parquet-go JSONWriter
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case w.KindFloat:
			tag += "DOUBLE"
		case w.KindInt:
			tag += "INT64"
		case w.KindBool:
			tag += "BOOLEAN"
		default:
			// text, times, lists and maps are stored as UTF8 text
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, _ := json.Marshal(sc)
	return string(b)
}

// rowJSON renders one row the way JSONWriter expects it: a JSON object
// string with nulls omitted.
func rowJSON(f *w.Frame, schema w.Schema, r int) (string, error) {
	rec := make(map[string]any, len(schema.Columns))
	for _, cs := range schema.Columns {
		v := f.Cell(r, cs.Name)
		if v == nil {
			continue
		}
		switch cs.Type {
		case w.KindFloat:
			x, _ := w.Float(v)
			rec[cs.Name] = x
		case w.KindInt, w.KindBool:
			rec[cs.Name] = v
		default:
			if t, ok := v.(time.Time); ok {
				rec[cs.Name] = t.Format(time.RFC3339)
				continue
			}
			rec[cs.Name] = w.String(v)
		}
	}
	b, err := json.Marshal(rec)
	return string(b), err
}

// Writer appends frames to a Parquet file. The schema is fixed by the
// first frame written.
type Writer struct {
	fw     source.ParquetFile
	pw     *pw.JSONWriter
	schema w.Schema
}

func Create(path string) (*Writer, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, err
	}
	return &Writer{fw: fw}, nil
}

func (wr *Writer) Write(f *w.Frame) error {
	if wr.pw == nil {
		wr.schema = f.Schema()
		jw, err := pw.NewJSONWriter(parquetSchemaJSON(wr.schema), wr.fw, 4)
		if err != nil {
			return fmt.Errorf("parquet writer init: %w", err)
		}
		wr.pw = jw
	}
	for r := 0; r < f.Rows(); r++ {
		rec, err := rowJSON(f, wr.schema, r)
		if err != nil {
			return err
		}
		if err := wr.pw.Write(rec); err != nil {
			return fmt.Errorf("parquet write row: %w", err)
		}
	}
	return nil
}

func (wr *Writer) Close() error {
	if wr.pw != nil {
		if err := wr.pw.WriteStop(); err != nil {
			_ = wr.fw.Close()
			return err
		}
	}
	return wr.fw.Close()
}

// WriteAll writes a Frame to a Parquet file using parquet-go JSONWriter.
func WriteAll(path string, f *w.Frame) error {
	wr, err := Create(path)
	if err != nil {
		return err
	}
	if err := wr.Write(f); err != nil {
		_ = wr.Close()
		return err
	}
	return wr.Close()
}
