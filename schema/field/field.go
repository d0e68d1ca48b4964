package field

import (
	"fmt"

	"github.com/Startitecture/storm-sub007/schema"
)

// Builder declares one column.
type Builder struct {
	desc *schema.Column
}

func newBuilder(name string, t schema.Type) *Builder {
	return &Builder{desc: &schema.Column{Name: name, Type: t}}
}

// Bool returns a new builder for a BIT column.
func Bool(name string) *Builder { return newBuilder(name, schema.TypeBool) }

// Int returns a new builder for an INT column.
func Int(name string) *Builder { return newBuilder(name, schema.TypeInt) }

// Int64 returns a new builder for a BIGINT column.
func Int64(name string) *Builder { return newBuilder(name, schema.TypeInt64) }

// Float returns a new builder for a FLOAT column.
func Float(name string) *Builder { return newBuilder(name, schema.TypeFloat) }

// Decimal returns a new builder for a DECIMAL column.
func Decimal(name string) *Builder { return newBuilder(name, schema.TypeDecimal) }

// String returns a new builder for an NVARCHAR column.
func String(name string) *Builder { return newBuilder(name, schema.TypeString) }

// Time returns a new builder for a DATETIME2 column.
func Time(name string) *Builder { return newBuilder(name, schema.TypeTime) }

// UUID returns a new builder for a UNIQUEIDENTIFIER column.
func UUID(name string) *Builder { return newBuilder(name, schema.TypeUUID) }

// Bytes returns a new builder for a VARBINARY column.
func Bytes(name string) *Builder { return newBuilder(name, schema.TypeBytes) }

// Key marks the column as part of the primary key.
func (b *Builder) Key() *Builder {
	b.desc.Key = true
	return b
}

// Identity marks the column as generated by the server on insert.
func (b *Builder) Identity() *Builder {
	b.desc.Identity = true
	return b
}

// Nullable marks the column as accepting NULL.
func (b *Builder) Nullable() *Builder {
	b.desc.Nullable = true
	return b
}

// StorageKey sets the physical column name.
func (b *Builder) StorageKey(column string) *Builder {
	b.desc.Column = column
	return b
}

// SQLType overrides the T-SQL type used when the column is declared in a
// staging table.
func (b *Builder) SQLType(t string) *Builder {
	b.desc.SQLType = t
	return b
}

// Size sets the maximum length of a string or bytes column.
func (b *Builder) Size(n int) *Builder {
	switch b.desc.Type {
	case schema.TypeString:
		b.desc.SQLType = fmt.Sprintf("NVARCHAR(%d)", n)
	case schema.TypeBytes:
		b.desc.SQLType = fmt.Sprintf("VARBINARY(%d)", n)
	}
	return b
}

// Precision sets the precision and scale of a decimal column.
func (b *Builder) Precision(precision, scale int) *Builder {
	if b.desc.Type == schema.TypeDecimal {
		b.desc.SQLType = fmt.Sprintf("DECIMAL(%d, %d)", precision, scale)
	}
	return b
}

// Through declares that the column is read through the relation at path.
func (b *Builder) Through(path ...string) *Builder {
	b.desc.Path = append([]string(nil), path...)
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *schema.Column {
	d := *b.desc
	d.Path = append([]string(nil), b.desc.Path...)
	if d.Related() && d.Column == "" {
		d.Column = schema.RelatedColumnName(d.Path, d.Name)
	}
	return &d
}

var _ schema.Field = (*Builder)(nil)
