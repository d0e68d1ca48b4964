package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/Startitecture/storm-sub007/contrib/correlate"
	"github.com/Startitecture/storm-sub007/dialect/sql"
	"github.com/Startitecture/storm-sub007/schema"
)

// BulkResult holds the outcome of a bulk command.
type BulkResult struct {
	// Columns are the columns of the returned rows.
	Columns []*schema.Column
	// Rows are the returned rows in the order the server produced them.
	Rows [][]any
	// Correlated holds the returned row of each submitted row, in the order
	// the rows were submitted. It is empty when the returned rows do not
	// carry every merge key, and nil at the index of a submitted row that
	// returned no row.
	Correlated [][]any
	// RowsAffected is set for commands that return no rows.
	RowsAffected int64
}

// Values returns the correlated result of the i-th submitted row keyed by
// column name, or nil when there is none.
func (r *BulkResult) Values(i int) schema.Values {
	if i < 0 || i >= len(r.Correlated) || r.Correlated[i] == nil {
		return nil
	}
	v := make(schema.Values, len(r.Columns))
	for j, c := range r.Columns {
		v[c.Name] = r.Correlated[i][j]
	}
	return v
}

// Merge merges rows into the target of cmd.
//
//	res, err := c.Merge(ctx, sql.MergeInto(desc, "ParentId", "Ordinal").
//		DeleteUnmatchedInSource("ParentId").
//		SelectResults("FakeChildId", "ParentId", "Ordinal"), rows)
func (c *Client) Merge(ctx context.Context, cmd *sql.MergeCommand, rows []schema.Row) (*BulkResult, error) {
	stmt, err := cmd.Compile()
	if err != nil {
		return nil, err
	}
	return c.bulk(ctx, "merge", stmt, rows)
}

// Insert inserts rows into the target of cmd.
func (c *Client) Insert(ctx context.Context, cmd *sql.InsertCommand, rows []schema.Row) (*BulkResult, error) {
	stmt, err := cmd.Compile()
	if err != nil {
		return nil, err
	}
	return c.bulk(ctx, "insert", stmt, rows)
}

// bulk executes a compiled bulk statement. Statements returning rows run
// in a transaction that is committed only after the result cursor has
// been read and closed.
func (c *Client) bulk(ctx context.Context, op string, stmt *sql.BulkStatement, rows []schema.Row) (*BulkResult, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	typ := stmt.Param.TypeName
	args, err := stmt.Args(rows)
	if err != nil {
		return nil, err
	}
	res := &BulkResult{Columns: stmt.Results}
	if len(stmt.Results) == 0 {
		var r sql.Result
		if err := c.execer().Exec(ctx, stmt.Text, args, &r); err != nil {
			return nil, wrapMutation(typ, op, err)
		}
		if res.RowsAffected, err = r.RowsAffected(); err != nil {
			return nil, wrapMutation(typ, op, err)
		}
		return res, nil
	}
	err = c.WithTx(ctx, func(tx *Client) error {
		cursor := &sql.Rows{}
		if err := tx.execer().Query(ctx, stmt.Text, args, cursor); err != nil {
			return err
		}
		res.Rows, err = sql.ReadResults(cursor, len(stmt.Results))
		return err
	})
	if err != nil {
		return nil, wrapMutation(typ, op, err)
	}
	if err := res.correlate(rows, stmt.Keys); err != nil {
		return nil, wrapMutation(typ, op, err)
	}
	c.log.DebugContext(ctx, "bulk command", "op", op, "rows", len(rows), "results", len(res.Rows))
	return res, nil
}

// correlate pairs the returned rows with the submitted rows by their merge
// keys. Rows are never paired by position.
func (r *BulkResult) correlate(rows []schema.Row, keys []*schema.Column) error {
	if len(keys) == 0 {
		return nil
	}
	columns := make([]string, len(keys))
	ordinals := make([]int, len(keys))
	for i, k := range keys {
		ordinals[i] = -1
		for j, c := range r.Columns {
			if c == k {
				ordinals[i] = j
				break
			}
		}
		if ordinals[i] < 0 {
			return nil
		}
		columns[i] = k.Name
	}
	correlated, errs, err := correlate.Correlate(rows, columns, r.Rows, ordinals...)
	if err != nil {
		return err
	}
	for i, err := range errs {
		if errors.Is(err, correlate.ErrAmbiguous) {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	r.Correlated = correlated
	return nil
}
