package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/Startitecture/storm-sub007/dialect"
)

// Driver adapts a *database/sql.DB to dialect.Driver.
type Driver struct {
	Conn
	dialect string
}

// NewDriver returns a Driver executing through c.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{Conn: c, dialect: dialect}
}

// Open opens a database and returns a Driver for it. The database/sql
// driver registered under the dialect name is imported by the caller, e.g.
// github.com/microsoft/go-mssqldb for dialect.SQLServer.
func Open(dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", dialect, err)
	}
	return OpenDB(dialect, db), nil
}

// OpenDB returns a Driver for an opened database.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{ExecQuerier: db, dialect: dialect})
}

// DB returns the database of the driver.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect returns the dialect of the driver. Driver names registered by
// instrumentation wrappers (e.g. "sqlserver-otel") report their base dialect.
func (d Driver) Dialect() string {
	for _, name := range []string{dialect.SQLServer, dialect.SQLite} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Tx begins a transaction with the default isolation level.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx begins a transaction with opts.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: begin: %w", err)
	}
	return &Tx{Conn: Conn{ExecQuerier: tx, dialect: d.dialect}, Tx: tx}, nil
}

// Close closes the database.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx is a transaction of a Driver. Statements run on its connection.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier is implemented by *sql.DB, *sql.Tx and *sql.Conn.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier on top of an ExecQuerier. Statement
// arguments are passed as []any; Exec reports into a *Result and Query
// into a *Rows.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec executes a statement that returns no rows. v is nil or a *Result.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, err := arguments(args)
	if err != nil {
		return err
	}
	var res *Result
	switch v := v.(type) {
	case nil:
	case *Result:
		res = v
	default:
		return fmt.Errorf("dialect/sql: exec: invalid type %T, expect *sql.Result", v)
	}
	ex, release, err := c.session(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	defer func() { rerr = errors.Join(rerr, release()) }()
	r, err := ex.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if res != nil {
		*res = r
	}
	return nil
}

// Query executes a statement that returns rows into v, a *Rows. Closing
// the rows releases the connection they were read from.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	rows, ok := v.(*Rows)
	if !ok || rows == nil {
		return fmt.Errorf("dialect/sql: query: invalid type %T, expect *sql.Rows", v)
	}
	argv, err := arguments(args)
	if err != nil {
		return err
	}
	ex, release, err := c.session(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	r, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", errors.Join(err, release()))
	}
	*rows = Rows{ColumnScanner: releasingRows{ColumnScanner: r, release: release}}
	return nil
}

func arguments(args any) ([]any, error) {
	argv, ok := args.([]any)
	if !ok {
		return nil, fmt.Errorf("dialect/sql: invalid type %T, expect []any for args", args)
	}
	return argv, nil
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows is the cursor a Query scans into.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// TxOptions is an alias to sql.TxOptions.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the subset of *sql.Rows a forward-only result cursor
// provides.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// releasingRows releases the connection of a cursor once it is closed.
type releasingRows struct {
	ColumnScanner
	release func() error
}

func (r releasingRows) Close() error {
	return errors.Join(r.ColumnScanner.Close(), r.release())
}
