// Package correlate pairs the rows returned by a bulk statement with the
// rows that were submitted, by key rather than by position.
//
// A MERGE returns its output rows in no particular order, so the server
// generated identity of a submitted row has to be found through the natural
// key both rows share:
//
//	results, err := sql.ReadResults(rows, len(stmt.Results))
//	ordered, errs, err := correlate.Correlate(submitted, []string{"ParentId", "Ordinal"}, results, 1, 2)
//	// ordered[i] is the result row of submitted[i], or nil with errs[i] set.
//
// Keys are msgpack encodings of the key values with compact integers, so an
// int read from a row and an int64 scanned from the database compare equal.
package correlate

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/schema"
)

var (
	// ErrNotFound is returned for a row without a matching result.
	ErrNotFound = errors.New("correlate: no result for row")
	// ErrAmbiguous is returned for a row matched by more than one result.
	ErrAmbiguous = errors.New("correlate: more than one result for row")
)

// KeyFunc extracts a key from a value.
type KeyFunc[V any] func(V) (string, error)

// Key encodes values as a comparable key.
func Key(values ...any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	for _, v := range values {
		v, err := normalize(v)
		if err != nil {
			return "", err
		}
		if err := enc.Encode(v); err != nil {
			return "", fmt.Errorf("correlate: encode key: %w", err)
		}
	}
	return buf.String(), nil
}

// normalize resolves pointers and driver values so that equal values read
// from different sources encode the same.
func normalize(v any) (any, error) {
	for v != nil {
		if vr, ok := v.(driver.Valuer); ok {
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil, nil
			}
			x, err := vr.Value()
			if err != nil {
				return nil, fmt.Errorf("correlate: key value: %w", err)
			}
			if x == nil || reflect.TypeOf(x) == reflect.TypeOf(v) {
				return x, nil
			}
			v = x
			continue
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			break
		}
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	return v, nil
}

// RowKey returns a KeyFunc that reads the given columns of a row.
func RowKey(columns ...string) KeyFunc[schema.Row] {
	return func(row schema.Row) (string, error) {
		values := make([]any, len(columns))
		for i, c := range columns {
			v, ok := row.Get(c)
			if !ok {
				return "", storm.NewUnknownColumnError(fmt.Sprintf("%T", row), c)
			}
			values[i] = v
		}
		return Key(values...)
	}
}

// ResultKey returns a KeyFunc that reads the given ordinals of a result row.
func ResultKey(ordinals ...int) KeyFunc[[]any] {
	return func(result []any) (string, error) {
		values := make([]any, len(ordinals))
		for i, o := range ordinals {
			if o < 0 || o >= len(result) {
				return "", fmt.Errorf("correlate: ordinal %d out of range for %d columns", o, len(result))
			}
			values[i] = result[o]
		}
		return Key(values...)
	}
}

// Keys returns the key of every value.
func Keys[V any](values []V, keyFn KeyFunc[V]) ([]string, error) {
	keys := make([]string, len(values))
	for i, v := range values {
		k, err := keyFn(v)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

// GroupByKey groups values by key.
func GroupByKey[V any](values []V, keyFn KeyFunc[V]) (map[string][]V, error) {
	groups := make(map[string][]V)
	for _, v := range values {
		k, err := keyFn(v)
		if err != nil {
			return nil, err
		}
		groups[k] = append(groups[k], v)
	}
	return groups, nil
}

// OrderByKeys reorders values to match the order of keys. A key without a
// value yields the zero value and ErrNotFound, a key with several values
// yields ErrAmbiguous.
func OrderByKeys[V any](keys []string, values []V, keyFn KeyFunc[V]) ([]V, []error, error) {
	groups, err := GroupByKey(values, keyFn)
	if err != nil {
		return nil, nil, err
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		switch g := groups[key]; len(g) {
		case 0:
			errs[i] = ErrNotFound
		case 1:
			result[i] = g[0]
		default:
			errs[i] = ErrAmbiguous
		}
	}
	return result, errs, nil
}

// Correlate pairs every submitted row with the result whose values at
// ordinals equal the row's values of columns.
func Correlate(rows []schema.Row, columns []string, results [][]any, ordinals ...int) ([][]any, []error, error) {
	if len(columns) == 0 || len(columns) != len(ordinals) {
		return nil, nil, fmt.Errorf("correlate: %d key columns for %d ordinals", len(columns), len(ordinals))
	}
	keys, err := Keys(rows, RowKey(columns...))
	if err != nil {
		return nil, nil, err
	}
	return OrderByKeys(keys, results, ResultKey(ordinals...))
}
