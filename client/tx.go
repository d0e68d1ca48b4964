package client

import (
	"context"
	"errors"
	"fmt"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/dialect"
)

// WithTx runs fn with a client bound to a new transaction. The transaction
// is committed when fn returns nil and rolled back otherwise, including when
// fn panics. A client that is already bound to a transaction runs fn with
// itself.
//
//	err := c.WithTx(ctx, func(tx *client.Client) error {
//		if _, err := tx.Delete(ctx, stale); err != nil {
//			return err
//		}
//		_, err := tx.Merge(ctx, merge, rows)
//		return err
//	})
func (c *Client) WithTx(ctx context.Context, fn func(tx *Client) error) (err error) {
	if err := c.ready(); err != nil {
		return err
	}
	if c.tx != nil {
		return fn(c)
	}
	tx, err := c.driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("storm: starting a transaction: %w", err)
	}
	txc := &Client{
		config: c.config,
		stats:  c.stats,
		tx:     tx,
	}
	txc.driver = &txDriver{drv: c.driver, tx: tx}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(txc); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return errors.Join(err, &storm.RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storm: committing transaction: %w", err)
	}
	return nil
}

// txDriver wraps the given dialect.Tx with a nop dialect.Driver implementation.
type txDriver struct {
	drv dialect.Driver
	tx  dialect.Tx
}

// Tx returns the transaction wrapper (txDriver) to avoid Commit or Rollback calls
// from the internal builders. Should be called only by the internal builders.
func (tx *txDriver) Tx(context.Context) (dialect.Tx, error) { return tx, nil }

// Dialect returns the dialect of the driver we started the transaction from.
func (tx *txDriver) Dialect() string { return tx.drv.Dialect() }

// Close is a nop close.
func (*txDriver) Close() error { return nil }

// Commit is a nop commit for the internal builders.
// User must call `Tx.Commit` in order to commit the transaction.
func (*txDriver) Commit() error { return nil }

// Rollback is a nop rollback for the internal builders.
// User must call `Tx.Rollback` in order to rollback the transaction.
func (*txDriver) Rollback() error { return nil }

// Exec calls tx.Exec.
func (tx *txDriver) Exec(ctx context.Context, query string, args, v any) error {
	return tx.tx.Exec(ctx, query, args, v)
}

// Query calls tx.Query.
func (tx *txDriver) Query(ctx context.Context, query string, args, v any) error {
	return tx.tx.Query(ctx, query, args, v)
}

var _ dialect.Driver = (*txDriver)(nil)
