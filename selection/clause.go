package selection

import (
	"database/sql/driver"
	"reflect"

	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
)

// Op is the comparison of a predicate clause.
type Op uint8

// Predicate operators.
const (
	// OpEqual renders as = @N.
	OpEqual Op = iota
	// OpLike renders as LIKE @N. Equality on nullable string columns uses it.
	OpLike
	// OpIsNull renders as IS NULL and takes no parameter.
	OpIsNull
	// OpBetween renders as BETWEEN @N AND @M.
	OpBetween
	// OpGreaterOrEqual renders as >= @N.
	OpGreaterOrEqual
	// OpLessOrEqual renders as <= @N.
	OpLessOrEqual
	// OpIn renders as IN (@N, @M, ...).
	OpIn
)

var opNames = [...]string{
	OpEqual:          "=",
	OpLike:           "LIKE",
	OpIsNull:         "IS NULL",
	OpBetween:        "BETWEEN",
	OpGreaterOrEqual: ">=",
	OpLessOrEqual:    "<=",
	OpIn:             "IN",
}

// String returns the SQL operator.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "?"
}

// Clause is one predicate of a selection.
type Clause struct {
	Op Op
	// Ref is the column reference the clause was built with.
	Ref    string
	Column sqlgraph.ColumnRef
	// Values holds the parameter values in emission order.
	Values []any
}

// IsNull reports whether v stands for SQL NULL: nil, a nil pointer, or a
// driver.Valuer whose value is nil.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	if vr, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(vr)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}
		x, err := vr.Value()
		return err == nil && x == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
