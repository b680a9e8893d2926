// Package where evaluates SQL row predicates against a table by loading
// it into an in-memory SQLite database.
package where

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/admariner/wrangles/pkg/wrangles"
)

// Table is the name a where clause sees the frame under.
const Table = "df"

// rowKey holds the 1-based frame row of each loaded record.
const rowKey = "_wrangles_row"

func open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error in PingContext: %w", err)
	}
	return db, nil
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqlValue(v any) any {
	switch t := v.(type) {
	case nil, int64, float64, string, []byte:
		return t
	case bool:
		if t {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return wrangles.String(v)
}

func load(ctx context.Context, db *sql.DB, f *wrangles.Frame) error {
	cols := f.Columns()
	defs := make([]string, len(cols))
	marks := make([]string, len(cols)+1)
	marks[0] = "?"
	for i, c := range cols {
		// NUMERIC affinity lets numeric text compare as numbers
		defs[i] = quote(c) + " NUMERIC"
		marks[i+1] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s INTEGER PRIMARY KEY", Table, rowKey)
	if len(defs) > 0 {
		create += ", " + strings.Join(defs, ", ")
	}
	if _, err := db.ExecContext(ctx, create+")"); err != nil {
		return wrangles.Configf("cannot load table for where clause: %s", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error in BeginTx: %w", err)
	}
	defer tx.Rollback()
	names := append([]string{rowKey}, cols...)
	for i := range names {
		names[i] = quote(names[i])
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", Table, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("error in PrepareContext: %w", err)
	}
	defer stmt.Close()
	args := make([]any, len(cols)+1)
	for r := 0; r < f.Rows(); r++ {
		args[0] = int64(r + 1)
		for i, c := range cols {
			args[i+1] = sqlValue(f.Cell(r, c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("error inserting row %d: %w", r, err)
		}
	}
	return tx.Commit()
}

// bindArgs accepts positional params as a list or named params as a map.
func bindArgs(params any) []any {
	switch t := params.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = sqlValue(wrangles.Normalize(v))
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = sql.Named(k, sqlValue(wrangles.Normalize(t[k])))
		}
		return out
	}
	return []any{sqlValue(wrangles.Normalize(params))}
}

// Rows returns the indexes of the rows clause selects, in table order.
func Rows(ctx context.Context, f *wrangles.Frame, clause string, params any) ([]int, error) {
	db, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := load(ctx, db, f); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %[2]s FROM %[1]s WHERE %[3]s ORDER BY %[2]s", Table, rowKey, clause)
	rows, err := db.QueryContext(ctx, q, bindArgs(params)...)
	if err != nil {
		return nil, wrangles.Configf("invalid where clause %q: %s", clause, err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error in Scan: %w", err)
		}
		out = append(out, int(id-1))
	}
	return out, rows.Err()
}

// Mask returns one bool per row of f.
func Mask(ctx context.Context, f *wrangles.Frame, clause string, params any) ([]bool, error) {
	sel, err := Rows(ctx, f, clause, params)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, f.Rows())
	for _, r := range sel {
		mask[r] = true
	}
	return mask, nil
}

// Filter returns the rows of f that clause selects.
func Filter(ctx context.Context, f *wrangles.Frame, clause string, params any) (*wrangles.Frame, error) {
	sel, err := Rows(ctx, f, clause, params)
	if err != nil {
		return nil, err
	}
	return f.Take(sel), nil
}

// Eval evaluates a standalone boolean SQL expression.
func Eval(ctx context.Context, expr string, params any) (bool, error) {
	db, err := open(ctx)
	if err != nil {
		return false, err
	}
	defer db.Close()
	var ok int64
	err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT CASE WHEN (%s) THEN 1 ELSE 0 END", expr), bindArgs(params)...).Scan(&ok)
	if err != nil {
		return false, wrangles.Configf("invalid condition %q: %s", expr, err)
	}
	return ok == 1, nil
}

// Apply runs fn over the rows of f that clause selects and merges the
// result back. Columns fn creates hold a placeholder in unselected rows:
// [] when the computed values are lists, "" otherwise. Columns that
// already existed keep their values in unselected rows. When nothing is
// selected fn is not called and each missing output column is filled
// with "".
func Apply(ctx context.Context, f *wrangles.Frame, clause string, params any, outputs []string, fn func(context.Context, *wrangles.Frame) (*wrangles.Frame, error)) (*wrangles.Frame, error) {
	sel, err := Rows(ctx, f, clause, params)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("where", clause).Int("selected", len(sel)).Int("rows", f.Rows()).Msg("where clause evaluated")
	if len(sel) == 0 {
		for _, o := range outputs {
			if !f.Has(o) {
				f.Fill(o, "")
			}
		}
		return f, nil
	}

	sub, err := fn(ctx, f.Take(sel))
	if err != nil {
		return nil, err
	}
	if sub.Rows() != len(sel) {
		return nil, wrangles.Configf("a step with a where clause must not change the row count (%d rows in, %d out)", len(sel), sub.Rows())
	}

	out := wrangles.NewFrame()
	for _, name := range sub.Columns() {
		computed, _ := sub.Column(name)
		var col []any
		if prior, ok := f.Column(name); ok {
			col = append([]any(nil), prior...)
		} else {
			col = make([]any, f.Rows())
			ph := placeholder(computed)
			for i := range col {
				col[i] = ph()
			}
		}
		for j, r := range sel {
			col[r] = computed[j]
		}
		if err := out.SetColumn(name, col); err != nil {
			return nil, err
		}
	}
	if out.Cols() == 0 {
		return f, nil
	}
	return out, nil
}

func placeholder(computed []any) func() any {
	for _, v := range computed {
		if v == nil {
			continue
		}
		if _, ok := v.([]any); ok {
			return func() any { return []any{} }
		}
		break
	}
	return func() any { return "" }
}
