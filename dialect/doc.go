// Package dialect defines the driver interfaces storm clients execute
// compiled statements through.
//
// # Dialect Constants
//
//	dialect.SQLServer = "sqlserver"
//	dialect.SQLite    = "sqlite"
//
// Statements are always compiled as T-SQL. The SQLite dialect exists for
// in-process tests of the SELECT forms.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface adds Commit and Rollback to the ExecQuerier operations.
//
// # Sub-packages
//
//   - dialect/sql: statement emitter, bulk commands and the database/sql driver
//   - dialect/sql/sqlgraph: join plan resolution and constraint error classification
package dialect
