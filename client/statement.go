package client

import (
	"context"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/dialect/sql"
	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
	"github.com/Startitecture/storm-sub007/schema"
	"github.com/Startitecture/storm-sub007/selection"
)

// cachedStatement is the cached form of a compiled statement. Arguments
// are never cached; they are read from the selection on every call.
type cachedStatement struct {
	Text string `msgpack:"text"`
}

// compile returns the statement text of sel in the given form, reading it
// from the cache when an equal selection was compiled before.
func (c *Client) compile(ctx context.Context, sel *selection.Selection, form sql.Form) (*sql.Statement, error) {
	if sel == nil {
		return nil, storm.NewCompilationError(form.String(), "nil selection")
	}
	if err := sel.Err(); err != nil {
		return nil, err
	}
	key := c.cacheKey(sel, form.String(), "")
	compile := func() (*sql.Statement, error) { return sql.Compile(sel, form) }
	return c.cached(ctx, key, sel.Parameters(), compile)
}

// compileUpdate is compile for UPDATE statements. The assigned columns and
// which of them are NULL are part of the key.
func (c *Client) compileUpdate(ctx context.Context, sel *selection.Selection, assignments []sql.Assignment) (*sql.Statement, error) {
	if sel == nil {
		return nil, storm.NewCompilationError("update", "nil selection")
	}
	if err := sel.Err(); err != nil {
		return nil, err
	}
	var (
		sig  strings.Builder
		args []any
	)
	for _, a := range assignments {
		sig.WriteString(schema.Fold(a.Column))
		if selection.IsNull(a.Value) {
			sig.WriteString("=null")
		} else {
			args = append(args, a.Value)
		}
		sig.WriteByte(';')
	}
	args = append(args, sel.Parameters()...)
	key := c.cacheKey(sel, "update", sig.String())
	compile := func() (*sql.Statement, error) { return sql.CompileUpdate(sel, assignments...) }
	return c.cached(ctx, key, args, compile)
}

func (c *Client) cacheKey(sel *selection.Selection, op, suffix string) storm.CacheKey {
	fp := sel.Fingerprint()
	if suffix != "" {
		fp += ":" + suffix
	}
	return storm.CacheKey{
		Table:       sql.TableName(sel.Descriptor()),
		Operation:   op,
		Fingerprint: fp,
	}
}

func (c *Client) cached(ctx context.Context, key storm.CacheKey, args []any, compile func() (*sql.Statement, error)) (*sql.Statement, error) {
	if c.cache == nil {
		return compile()
	}
	if data, err := c.cache.Get(ctx, key.String()); err != nil {
		c.log.WarnContext(ctx, "statement cache get failed", "key", key.String(), "error", err)
	} else if data != nil {
		var cs cachedStatement
		if err := msgpack.Unmarshal(data, &cs); err == nil {
			c.stats.hits.Add(1)
			c.log.DebugContext(ctx, "statement cache hit", "key", key.String())
			return &sql.Statement{Text: cs.Text, Args: args}, nil
		}
		c.log.WarnContext(ctx, "statement cache entry is corrupt", "key", key.String())
	}
	c.stats.misses.Add(1)
	stmt, err := compile()
	if err != nil {
		return nil, err
	}
	c.log.DebugContext(ctx, "statement compiled", "key", key.String(), "args", len(stmt.Args))
	data, err := msgpack.Marshal(cachedStatement{Text: stmt.Text})
	if err == nil {
		err = c.cache.Set(ctx, key.String(), data, c.cacheTTL)
	}
	if err != nil {
		c.log.WarnContext(ctx, "statement cache set failed", "key", key.String(), "error", err)
	}
	return stmt, nil
}

// wrapQuery wraps a failed read.
func wrapQuery(sel *selection.Selection, op string, err error) error {
	return storm.NewQueryError(sel.Descriptor().Name, op, err)
}

// wrapMutation wraps a failed write, classifying constraint violations.
func wrapMutation(typ, op string, err error) error {
	return storm.NewMutationError(typ, op, sqlgraph.WrapConstraintError(err))
}
