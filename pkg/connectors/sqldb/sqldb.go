// Package sqldb connects recipes to SQL databases through database/sql:
// SQLite, PostgreSQL, MySQL and SQL Server.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/admariner/wrangles/pkg/connectors/file"
	"github.com/admariner/wrangles/pkg/registry"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

// Dialect captures what differs between the supported servers.
type Dialect struct {
	Name        string
	Driver      string
	DefaultPort int
	// Placeholder renders the i-th (1-based) bind parameter.
	Placeholder func(i int) string
	Quote       func(name string) string
	// Truncate empties a table.
	Truncate string
	DSN      func(c Conn) string
}

func ansiQuote(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

var (
	SQLite = Dialect{
		Name:        "sqlite",
		Driver:      "sqlite",
		Placeholder: func(int) string { return "?" },
		Quote:       ansiQuote,
		Truncate:    "DELETE FROM %s",
		DSN:         func(c Conn) string { return c.Database },
	}
	Postgres = Dialect{
		Name:        "postgres",
		Driver:      "pgx",
		DefaultPort: 5432,
		Placeholder: func(i int) string { return "$" + strconv.Itoa(i) },
		Quote:       ansiQuote,
		Truncate:    "TRUNCATE TABLE %s",
		DSN: func(c Conn) string {
			u := url.URL{
				Scheme: "postgres",
				User:   url.UserPassword(c.User, c.Password),
				Host:   c.Host + ":" + strconv.Itoa(c.port(5432)),
				Path:   "/" + c.Database,
			}
			return u.String()
		},
	}
	MySQL = Dialect{
		Name:        "mysql",
		Driver:      "mysql",
		DefaultPort: 3306,
		Placeholder: func(int) string { return "?" },
		Quote: func(name string) string {
			parts := strings.Split(name, ".")
			for i, p := range parts {
				parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
			}
			return strings.Join(parts, ".")
		},
		Truncate: "TRUNCATE TABLE %s",
		DSN: func(c Conn) string {
			return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
				c.User, c.Password, c.Host, c.port(3306), c.Database)
		},
	}
	MSSQL = Dialect{
		Name:        "mssql",
		Driver:      "sqlserver",
		DefaultPort: 1433,
		Placeholder: func(i int) string { return "@p" + strconv.Itoa(i) },
		Quote: func(name string) string {
			parts := strings.Split(name, ".")
			for i, p := range parts {
				parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
			}
			return strings.Join(parts, ".")
		},
		Truncate: "TRUNCATE TABLE %s",
		DSN: func(c Conn) string {
			u := url.URL{
				Scheme:   "sqlserver",
				User:     url.UserPassword(c.User, c.Password),
				Host:     c.Host + ":" + strconv.Itoa(c.port(1433)),
				RawQuery: url.Values{"database": {c.Database}}.Encode(),
			}
			return u.String()
		},
	}
)

// Conn is either a full connection string or its parts.
type Conn struct {
	Connection string `mapstructure:"connection"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
}

func (c Conn) port(def int) int {
	if c.Port != 0 {
		return c.Port
	}
	return def
}

type readOptions struct {
	Conn    `mapstructure:",squash"`
	Command string `mapstructure:"command" validate:"required_without=Table"`
	Table   string `mapstructure:"table"`
	Params  []any  `mapstructure:"params"`
}

type writeOptions struct {
	Conn    `mapstructure:",squash"`
	Table   string   `mapstructure:"table" validate:"required"`
	Action  string   `mapstructure:"action" validate:"omitempty,oneof=INSERT TRUNCATE insert truncate"`
	Columns []string `mapstructure:"columns"`
}

// Tree builds the connector for d.
func Tree(d Dialect) registry.Map {
	return registry.Map{
		"read":  registry.Reader{Fn: d.Read},
		"write": registry.Writer{Fn: d.Write},
	}
}

func (d Dialect) open(ctx context.Context, c Conn) (*sql.DB, error) {
	dsn := c.Connection
	if dsn == "" {
		dsn = d.DSN(c)
	}
	if dsn == "" {
		return nil, w.Configf("%s connector needs connection or database", d.Name)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error connecting to %s: %w", d.Name, err)
	}
	return db, nil
}

// Read runs `command` with `params`, or selects all of `table`.
func (d Dialect) Read(ctx context.Context, p registry.Params) (*w.Frame, error) {
	var opts readOptions
	if err := p.Decode(&opts); err != nil {
		return nil, err
	}
	db, err := d.open(ctx, opts.Conn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := opts.Command
	if query == "" {
		query = "SELECT * FROM " + d.Quote(opts.Table)
	}
	rows, err := db.QueryContext(ctx, query, opts.Params...)
	if err != nil {
		return nil, fmt.Errorf("error in QueryContext: %w", err)
	}
	defer rows.Close()
	f, err := scan(rows)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("connector", d.Name).Int("rows", f.Rows()).Msg("query read")
	return f, nil
}

func scan(rows *sql.Rows) (*w.Frame, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	f := w.NewFrame(names...)
	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		rec := make(map[string]any, len(names))
		for i, n := range names {
			if b, ok := vals[i].([]byte); ok {
				rec[n] = string(b)
				continue
			}
			rec[n] = vals[i]
		}
		f.AppendRow(rec)
	}
	return f, rows.Err()
}

// Write inserts every row into `table`; TRUNCATE empties it first.
func (d Dialect) Write(ctx context.Context, f *w.Frame, p registry.Params) error {
	var opts writeOptions
	if err := p.Decode(&opts); err != nil {
		return err
	}
	out, err := file.Columns(f, opts.Columns)
	if err != nil {
		return err
	}
	db, err := d.open(ctx, opts.Conn)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error in BeginTx: %w", err)
	}
	defer tx.Rollback()

	table := d.Quote(opts.Table)
	if strings.EqualFold(opts.Action, "TRUNCATE") {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(d.Truncate, table)); err != nil {
			return fmt.Errorf("error truncating %s: %w", opts.Table, err)
		}
	}

	names := out.Columns()
	quoted := make([]string, len(names))
	marks := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
		marks[i] = d.Placeholder(i + 1)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for r := 0; r < out.Rows(); r++ {
		for i, n := range names {
			args[i] = value(out.Cell(r, n))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("error inserting row %d: %w", r, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error in Commit: %w", err)
	}
	zerolog.Ctx(ctx).Debug().Str("connector", d.Name).Str("table", opts.Table).Int("rows", out.Rows()).Msg("rows written")
	return nil
}

// value maps a cell to a driver argument; lists and maps become JSON text.
func value(v any) any {
	switch v.(type) {
	case []any, map[string]any:
		return w.String(v)
	}
	return v
}
