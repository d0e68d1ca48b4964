// Package storm compiles typed row selections and bulk commands into
// parameterized T-SQL.
//
// Row types are declared once through the schema, schema/field and
// schema/edge packages. The selection package builds immutable query
// descriptions over them, dialect/sql renders those descriptions as
// SELECT, EXISTS, DELETE, UPDATE, MERGE and INSERT text, and the client
// package executes the result against a dialect.Driver.
//
// This package holds what is shared by all of them: typed errors, the
// statement Cache contract and the YAML Config.
package storm
