package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/admariner/wrangles/pkg/project"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// dateLayouts are month-first dash forms tried before dateparse.
var dateLayouts = []string{"01-02-2006", "1-2-2006", "01-02-2006 15:04:05"}

// ParseDate reads a date cell. Time cells pass through.
func ParseDate(v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	s := strings.TrimSpace(w.String(v))
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, &w.ConfigurationError{Msg: fmt.Sprintf("unable to parse %q as a date", s), Err: err}
	}
	return t, nil
}

var dateProperties = map[string]func(time.Time) any{
	"day":         func(t time.Time) any { return int64(t.Day()) },
	"day_of_year": func(t time.Time) any { return int64(t.YearDay()) },
	"month":       func(t time.Time) any { return int64(t.Month()) },
	"month_name":  func(t time.Time) any { return t.Month().String() },
	// Monday is 0
	"weekday":       func(t time.Time) any { return int64((t.Weekday() + 6) % 7) },
	"week_day_name": func(t time.Time) any { return t.Weekday().String() },
	"week_year": func(t time.Time) any {
		_, wk := t.ISOWeek()
		return int64(wk)
	},
	"quarter": func(t time.Time) any { return int64((t.Month()-1)/3 + 1) },
}

type datePropertyOptions struct {
	project.Columns `mapstructure:",squash"`
	Property        string `mapstructure:"property" validate:"required"`
}

func dateProperty(prop func(time.Time) any, v any) (any, error) {
	if w.IsEmpty(v) {
		return "", nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return nil, err
	}
	return prop(t), nil
}

// DateProperties reads one calendar property from date columns. Several
// inputs into a single output give a list per row.
func DateProperties(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	var opts datePropertyOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	prop, ok := dateProperties[opts.Property]
	if !ok {
		return nil, w.Configf("%q not a valid date property.", opts.Property)
	}
	plan, err := project.NewPlan(f.Columns(), opts.Input, opts.Output)
	if err != nil {
		return nil, err
	}

	results := make([][]any, len(plan.Inputs))
	for i, in := range plan.Inputs {
		col, _ := f.Column(in)
		results[i] = make([]any, len(col))
		for r, v := range col {
			if results[i][r], err = dateProperty(prop, v); err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", in, r, err)
			}
		}
	}
	if plan.Mode == project.Zipped {
		for i, out := range plan.Outputs {
			if err := f.SetColumn(out, results[i]); err != nil {
				return nil, err
			}
		}
		return f, nil
	}
	rows := make([]any, f.Rows())
	for r := range rows {
		row := make([]any, len(results))
		for i := range results {
			row[i] = results[i][r]
		}
		rows[r] = row
	}
	return f, f.SetColumn(plan.Outputs[0], rows)
}

type dateRangeOptions struct {
	StartTime string `mapstructure:"start_time" validate:"required"`
	EndTime   string `mapstructure:"end_time" validate:"required"`
	Output    string `mapstructure:"output" validate:"required"`
	Range     string `mapstructure:"range"`
}

// DateRange counts the periods of a frequency between two date columns.
// The count is the number of anchored points in [start, end] minus one.
func DateRange(ctx context.Context, f *w.Frame, p registry.Params) (*w.Frame, error) {
	opts := dateRangeOptions{Range: "days"}
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	fr, ok := frequencies[opts.Range]
	if !ok {
		return nil, w.Configf("%q not a valid frequency", opts.Range)
	}
	for _, c := range []string{opts.StartTime, opts.EndTime} {
		if !f.Has(c) {
			return nil, w.Missing(c)
		}
	}
	out := make([]any, f.Rows())
	for r := range out {
		start, err := ParseDate(f.Cell(r, opts.StartTime))
		if err != nil {
			return nil, err
		}
		end, err := ParseDate(f.Cell(r, opts.EndTime))
		if err != nil {
			return nil, err
		}
		// compare wall clocks
		start = time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), time.UTC)
		end = time.Date(end.Year(), end.Month(), end.Day(), end.Hour(), end.Minute(), end.Second(), end.Nanosecond(), time.UTC)
		n := fr.count(start, end)
		if n > 0 {
			n--
		}
		out[r] = int64(n)
	}
	return f, f.SetColumn(opts.Output, out)
}
