package client

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Startitecture/storm-sub007/dialect/sql"
	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
	"github.com/Startitecture/storm-sub007/schema"
	"github.com/Startitecture/storm-sub007/selection"
)

// Select returns the rows matched by sel. Each row is keyed by the names of
// the projected columns.
func (c *Client) Select(ctx context.Context, sel *selection.Selection) ([]schema.Values, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	stmt, err := c.compile(ctx, sel, sql.Select)
	if err != nil {
		return nil, err
	}
	rows := &sql.Rows{}
	if err := c.execer().Query(ctx, stmt.Text, stmt.Args, rows); err != nil {
		return nil, wrapQuery(sel, "select", err)
	}
	values, err := scanValues(rows, sel.Projection())
	if err != nil {
		return nil, wrapQuery(sel, "select", err)
	}
	return values, nil
}

// First returns the first row matched by sel, or nil when there is none.
func (c *Client) First(ctx context.Context, sel *selection.Selection) (schema.Values, error) {
	values, err := c.Select(ctx, sel)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

// Exists reports whether sel matches at least one row.
func (c *Client) Exists(ctx context.Context, sel *selection.Selection) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	stmt, err := c.compile(ctx, sel, sql.Exists)
	if err != nil {
		return false, err
	}
	rows := &sql.Rows{}
	if err := c.execer().Query(ctx, stmt.Text, stmt.Args, rows); err != nil {
		return false, wrapQuery(sel, "exists", err)
	}
	results, err := sql.ReadResults(rows, 1)
	if err != nil {
		return false, wrapQuery(sel, "exists", err)
	}
	if len(results) != 1 {
		return false, wrapQuery(sel, "exists", fmt.Errorf("expected one row, got %d", len(results)))
	}
	return truthy(results[0][0]), nil
}

// Delete deletes the rows matched by sel and returns the number of rows
// affected.
func (c *Client) Delete(ctx context.Context, sel *selection.Selection) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	stmt, err := c.compile(ctx, sel, sql.Delete)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, sel.Descriptor().Name, "delete", stmt)
}

// Update applies the assignments to the rows matched by sel and returns
// the number of rows affected.
//
//	n, err := c.Update(ctx, sel.Matching("FakeDataId", 12),
//		sql.Set("ValueColumn", 3),
//		sql.Set("NullableColumn", nil),
//	)
func (c *Client) Update(ctx context.Context, sel *selection.Selection, assignments ...sql.Assignment) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	stmt, err := c.compileUpdate(ctx, sel, assignments)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, sel.Descriptor().Name, "update", stmt)
}

func (c *Client) exec(ctx context.Context, typ, op string, stmt *sql.Statement) (int64, error) {
	var res sql.Result
	if err := c.execer().Exec(ctx, stmt.Text, stmt.Args, &res); err != nil {
		return 0, wrapMutation(typ, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapMutation(typ, op, err)
	}
	return n, nil
}

// scanValues reads every row of rows into a map keyed by the projected
// column names and closes rows.
func scanValues(rows *sql.Rows, projection []sqlgraph.ColumnRef) (_ []schema.Values, rerr error) {
	defer func() {
		if err := rows.Close(); rerr == nil {
			rerr = err
		}
	}()
	var values []schema.Values
	for rows.Next() {
		dest := make([]any, len(projection))
		for i, ref := range projection {
			if ref.Decl != nil && ref.Decl.Type == schema.TypeUUID {
				dest[i] = new(uuid.NullUUID)
			} else {
				dest[i] = new(any)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(values), err)
		}
		row := make(schema.Values, len(projection))
		for i, ref := range projection {
			switch v := dest[i].(type) {
			case *uuid.NullUUID:
				if v.Valid {
					row[ref.Name] = v.UUID
				} else {
					row[ref.Name] = nil
				}
			case *any:
				row[ref.Name] = *v
			}
		}
		values = append(values, row)
	}
	return values, rows.Err()
}

// truthy converts the result of an IF EXISTS check.
func truthy(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int32:
		return v != 0
	case int:
		return v != 0
	case []byte:
		return len(v) > 0 && v[0] != '0'
	case string:
		return v != "" && v != "0"
	default:
		return false
	}
}
