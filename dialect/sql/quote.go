package sql

import (
	"strconv"
	"strings"

	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
	"github.com/Startitecture/storm-sub007/schema"
)

// Quote returns ident delimited with brackets. A closing bracket inside the
// identifier is doubled.
func Quote(ident string) string {
	return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
}

// TableName returns the qualified name of the table backing d.
func TableName(d *schema.Descriptor) string {
	return Quote(d.Schema) + "." + Quote(d.Table)
}

// Placeholder returns the name of the n-th statement parameter.
func Placeholder(n int) string {
	return "@" + strconv.Itoa(n)
}

// joinRef returns the reference columns of a join are qualified with.
func joinRef(root *schema.Descriptor, j *sqlgraph.Join) string {
	switch {
	case j == nil:
		return TableName(root)
	case j.Alias != "":
		return Quote(j.Alias)
	default:
		return TableName(j.Target)
	}
}

// columnRef returns the qualified column of a resolved reference.
func columnRef(root *schema.Descriptor, ref sqlgraph.ColumnRef) string {
	return joinRef(root, ref.Join) + "." + Quote(ref.Column)
}
