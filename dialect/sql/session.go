package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Startitecture/storm-sub007/dialect"
)

// sessionKeyRe matches the session context keys that may be set.
var sessionKeyRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// resetTimeout bounds clearing session context values from a pooled
// connection after the statement finished.
const resetTimeout = 5 * time.Second

func validSessionKey(s string) bool {
	return s != "" && len(s) <= 128 && sessionKeyRe.MatchString(s)
}

// unicodeLiteral returns s as a T-SQL Unicode string literal.
func unicodeLiteral(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type sessionKey struct{}

type sessionValue struct{ key, value string }

// WithSessionContext returns a context whose statements run after
//
//	EXEC sp_set_session_context N'<key>', N'<value>'
//
// on the connection they use, e.g. to feed row-level security predicates.
// Values set on a pooled connection are cleared once the statement (or the
// rows it returned) is done. Transactions keep them until they end.
func WithSessionContext(ctx context.Context, key, value string) context.Context {
	prev, _ := ctx.Value(sessionKey{}).([]sessionValue)
	vals := make([]sessionValue, len(prev), len(prev)+1)
	copy(vals, prev)
	return context.WithValue(ctx, sessionKey{}, append(vals, sessionValue{key: key, value: value}))
}

// WithSessionContextInt calls WithSessionContext with the decimal
// representation of value.
func WithSessionContextInt(ctx context.Context, key string, value int) context.Context {
	return WithSessionContext(ctx, key, strconv.Itoa(value))
}

// SessionContextValue returns the last value set for key on ctx.
func SessionContextValue(ctx context.Context, key string) (string, bool) {
	vals, _ := ctx.Value(sessionKey{}).([]sessionValue)
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i].key == key {
			return vals[i].value, true
		}
	}
	return "", false
}

func nop() error { return nil }

// session returns the ExecQuerier a statement on ctx runs on, with the
// session context of ctx applied, and the func releasing it.
func (c Conn) session(ctx context.Context) (ExecQuerier, func() error, error) {
	vals, _ := ctx.Value(sessionKey{}).([]sessionValue)
	if len(vals) == 0 {
		return c.ExecQuerier, nop, nil
	}
	if c.dialect != dialect.SQLServer {
		return nil, nil, fmt.Errorf("session context is not supported by %s", c.dialect)
	}
	for _, v := range vals {
		if !validSessionKey(v.key) {
			return nil, nil, fmt.Errorf("invalid session context key: %q", v.key)
		}
	}
	var (
		ex      ExecQuerier
		release = nop
	)
	switch e := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = e
	case *sql.DB:
		conn, err := e.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, release = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("session context needs a *sql.DB or *sql.Tx, got %T", c.ExecQuerier)
	}
	var keys []string
	for _, v := range vals {
		if _, err := ex.ExecContext(ctx, setSessionContext(v.key, v.value)); err != nil {
			return nil, nil, errors.Join(err, release())
		}
		if !slices.Contains(keys, v.key) {
			keys = append(keys, v.key)
		}
	}
	if _, ok := ex.(*sql.Tx); ok {
		return ex, release, nil
	}
	return ex, func() error {
		// ctx may be canceled by now.
		rctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
		defer cancel()
		for _, k := range keys {
			if _, err := ex.ExecContext(rctx, resetSessionContext(k)); err != nil {
				return errors.Join(err, release())
			}
		}
		return release()
	}, nil
}

func setSessionContext(key, value string) string {
	return "EXEC sp_set_session_context " + unicodeLiteral(key) + ", " + unicodeLiteral(value)
}

func resetSessionContext(key string) string {
	return "EXEC sp_set_session_context " + unicodeLiteral(key) + ", NULL"
}
