package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/schema"
)

// BulkParameter is the table-valued parameter a bulk command reads its
// source rows from.
type BulkParameter struct {
	// Name is the parameter name without the leading @.
	Name string
	// Schema and TypeName name the user-defined table type of the parameter.
	Schema   string
	TypeName string
	// Columns are the columns of the table type in declaration order.
	Columns []*schema.Column
}

// DefaultBulkParameter returns the parameter conventionally declared for
// the table of d: @FakeChildRows of type [dbo].[FakeChildTableType] for
// the table FakeChildren, with every base column of d.
func DefaultBulkParameter(d *schema.Descriptor) BulkParameter {
	name := singular(d.Table)
	return BulkParameter{
		Name:     name + "Rows",
		Schema:   d.Schema,
		TypeName: name + "TableType",
		Columns:  d.BaseColumns(),
	}
}

// singular singularizes the last word of a CamelCase table name.
func singular(table string) string {
	i := strings.LastIndexFunc(table, unicode.IsUpper)
	if i < 0 {
		i = 0
	}
	word := inflect.Singularize(strings.ToLower(table[i:]))
	if word == "" {
		return table
	}
	return table[:i] + inflect.Capitalize(word)
}

// Placeholder returns the parameter reference used in statement text.
func (p BulkParameter) Placeholder() string {
	return "@" + p.Name
}

// QualifiedType returns the bracketed name of the table type.
func (p BulkParameter) QualifiedType() string {
	return Quote(p.Schema) + "." + Quote(p.TypeName)
}

// Column returns the parameter column with the given name.
func (p BulkParameter) Column(name string) (*schema.Column, bool) {
	key := schema.Fold(name)
	for _, c := range p.Columns {
		if schema.Fold(c.Name) == key || schema.Fold(c.Physical()) == key {
			return c, true
		}
	}
	return nil, false
}

// BulkRows are the values bound to a bulk parameter. Converting them to the
// table-valued type of a driver is the job of the connection.
type BulkRows struct {
	TypeName string
	Columns  []string
	Rows     [][]any
}

// Len returns the number of rows.
func (r BulkRows) Len() int { return len(r.Rows) }

// Bind reads every parameter column of every row.
func (p BulkParameter) Bind(rows []schema.Row) (BulkRows, error) {
	b := BulkRows{
		TypeName: p.QualifiedType(),
		Columns:  make([]string, len(p.Columns)),
		Rows:     make([][]any, 0, len(rows)),
	}
	for i, c := range p.Columns {
		b.Columns[i] = c.Physical()
	}
	for _, row := range rows {
		values := make([]any, len(p.Columns))
		for i, c := range p.Columns {
			v, ok := row.Get(c.Name)
			if !ok {
				return BulkRows{}, storm.NewUnknownColumnError(p.TypeName, c.Name)
			}
			values[i] = v
		}
		b.Rows = append(b.Rows, values)
	}
	return b, nil
}

// BulkStatement is a compiled MERGE or INSERT that reads from one bulk
// parameter.
type BulkStatement struct {
	Text  string
	Param BulkParameter
	// Keys are the merge key columns, empty for inserts.
	Keys []*schema.Column
	// Results are the columns of the rows returned by the statement, empty
	// when the statement returns no rows.
	Results []*schema.Column
}

// Args binds rows to the bulk parameter and returns the statement
// arguments.
func (s *BulkStatement) Args(rows []schema.Row) ([]any, error) {
	b, err := s.Param.Bind(rows)
	if err != nil {
		return nil, err
	}
	return []any{sql.Named(s.Param.Name, b)}, nil
}

// ReadResults reads every row of a forward-only cursor by ordinal and
// closes it.
func ReadResults(rows ColumnScanner, n int) (results [][]any, rerr error) {
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	for rows.Next() {
		values := make([]any, n)
		dest := make([]any, n)
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan result %d: %w", len(results), err)
		}
		results = append(results, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: read results: %w", err)
	}
	return results, nil
}

// resultColumns resolves requested result columns against d.
func resultColumns(d *schema.Descriptor, names []string) ([]*schema.Column, error) {
	cols := make([]*schema.Column, len(names))
	for i, name := range names {
		c, ok := d.BaseColumn(name)
		if !ok {
			return nil, storm.NewUnknownColumnError(d.Name, name)
		}
		cols[i] = c
	}
	return cols, nil
}

func quoteColumns(cols []*schema.Column, prefix string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + Quote(c.Physical())
	}
	return strings.Join(out, ", ")
}
