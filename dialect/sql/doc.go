// Package sql renders selections as T-SQL text and executes statements
// through database/sql.
//
// # Statements
//
// Compile renders a selection as a SELECT, an IF EXISTS check or a DELETE;
// CompileUpdate renders an UPDATE with the given assignments:
//
//	sel := selection.From[FakeData]().
//		Matching("ValueColumn", 2).
//		Between("FakeDataId", 10, 20)
//	stmt, err := sql.Compile(sel, sql.Select)
//
// Identifiers are delimited with brackets and parameters are numbered
// @0, @1, ... in emission order. Statement.Args holds the values in that
// order.
//
// # Bulk Commands
//
// MergeInto and InsertInto compile statements that read their source rows
// from one table-valued parameter:
//
//	stmt, err := sql.MergeInto(desc, "ParentId", "Ordinal").
//		DeleteUnmatchedInSource("ParentId").
//		SelectResults("FakeChildId", "ParentId", "Ordinal").
//		Compile()
//	args, err := stmt.Args(rows)
//
// The parameter defaults to @<Singular>Rows of type [schema].[<Singular>TableType].
//
// # Drivers
//
// Driver adapts a *database/sql.DB to dialect.Driver. StatsDriver and
// DebugDriver wrap any dialect.Driver with statement statistics and
// logging. WithSessionContext sets SQL Server session context values before every
// statement.
package sql
