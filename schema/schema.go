package schema

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// Type is the value kind of a column.
type Type uint8

// Column value kinds.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeInt64
	TypeFloat
	TypeDecimal
	TypeString
	TypeTime
	TypeUUID
	TypeBytes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat:   "float",
	TypeDecimal: "decimal",
	TypeString:  "string",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
}

var sqlTypes = [...]string{
	TypeBool:    "BIT",
	TypeInt:     "INT",
	TypeInt64:   "BIGINT",
	TypeFloat:   "FLOAT",
	TypeDecimal: "DECIMAL(18, 4)",
	TypeString:  "NVARCHAR(MAX)",
	TypeTime:    "DATETIME2",
	TypeUUID:    "UNIQUEIDENTIFIER",
	TypeBytes:   "VARBINARY(MAX)",
}

// String returns the type name.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// SQLType returns the T-SQL type used when no explicit type is declared.
func (t Type) SQLType() string {
	if t > TypeInvalid && int(t) < len(sqlTypes) {
		return sqlTypes[t]
	}
	return ""
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, name := range typeNames {
		if i > 0 && name == s {
			*t = Type(i)
			return nil
		}
	}
	return fmt.Errorf("schema: unknown column type %q", text)
}

// AliasStyle selects how columns reached through a relation are aliased
// in a projection.
type AliasStyle uint8

const (
	// Concatenated aliases relation columns as [PathColumn] (flat rows).
	Concatenated AliasStyle = iota
	// Dotted aliases relation columns as [Path.Column] (nested rows).
	Dotted
)

// String returns the style name.
func (s AliasStyle) String() string {
	if s == Dotted {
		return "dotted"
	}
	return "concatenated"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AliasStyle) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "concatenated", "flat":
		*s = Concatenated
	case "dotted", "nested":
		*s = Dotted
	default:
		return fmt.Errorf("schema: unknown alias style %q", text)
	}
	return nil
}

// Alias returns the projection alias of a column reached through path.
func (s AliasStyle) Alias(path []string, column string) string {
	if s == Dotted {
		return strings.Join(path, ".") + "." + column
	}
	return strings.Join(path, "") + column
}

// JoinKind is the join used to reach a related row type.
type JoinKind uint8

const (
	// Inner renders as INNER JOIN.
	Inner JoinKind = iota
	// Left renders as LEFT JOIN.
	Left
)

// String returns the SQL keyword of the join kind.
func (k JoinKind) String() string {
	if k == Left {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *JoinKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "", "inner":
		*k = Inner
	case "left":
		*k = Left
	default:
		return fmt.Errorf("schema: unknown join kind %q", text)
	}
	return nil
}

// Column describes one declared column of a row type.
type Column struct {
	// Name is the attribute name used to reference the column.
	Name string
	// Column is the physical column name. Empty means Name.
	Column string
	// Path is the relation path the column is read through. Empty for
	// columns of the row type's own table.
	Path []string
	// Type is the value kind of the column.
	Type Type
	// SQLType overrides the T-SQL type used in staging declarations.
	SQLType string
	// Nullable reports whether the column accepts NULL.
	Nullable bool
	// Key marks a primary key column.
	Key bool
	// Identity marks a server-generated column.
	Identity bool
}

// Physical returns the physical column name.
func (c *Column) Physical() string {
	if c.Column != "" {
		return c.Column
	}
	return c.Name
}

// Related reports whether the column is read through a relation.
func (c *Column) Related() bool {
	return len(c.Path) > 0
}

// DeclaredType returns the T-SQL type of the column.
func (c *Column) DeclaredType() string {
	if c.SQLType != "" {
		return c.SQLType
	}
	return c.Type.SQLType()
}

// Relation describes a join from a row type (or one of its relations) to
// another row type. The path is the identity of the relation: two relations
// to the same target with different paths are distinct joins.
type Relation struct {
	Path       []string
	Kind       JoinKind
	FromColumn string
	// Target identifies the related row type by Go type. TargetName is used
	// when Target is nil, e.g. for descriptors declared in YAML.
	Target     reflect.Type
	TargetName string
	ToColumn   string
	// Aliased forces an alias even when the target table is not yet joined.
	Aliased bool
}

// PathString returns the dotted relation path.
func (r *Relation) PathString() string {
	return strings.Join(r.Path, ".")
}

// AliasToken returns the alias used when the relation is aliased.
func (r *Relation) AliasToken() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

// Parent returns the path of the relation this one joins from, or nil
// when it joins from the row type itself.
func (r *Relation) Parent() []string {
	if len(r.Path) <= 1 {
		return nil
	}
	return r.Path[:len(r.Path)-1]
}

// TargetLabel returns a printable name of the target row type.
func (r *Relation) TargetLabel() string {
	if r.Target != nil {
		return r.Target.Name()
	}
	return r.TargetName
}

// Signature returns a string that identifies the relation structurally.
func (r *Relation) Signature() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%t", r.Kind, r.PathString(), r.FromColumn, r.TargetLabel(), r.ToColumn, r.Aliased)
}

// Table names the table backing a row type.
type Table struct {
	Schema string
	Name   string
	Style  AliasStyle
}

// Field is implemented by column builders.
type Field interface {
	Descriptor() *Column
}

// Edge is implemented by relation builders.
type Edge interface {
	Descriptor() *Relation
}

// Definition declares the columns and relations of a row type.
//
//	type FakeData struct{ ... }
//
//	func (FakeData) Table() schema.Table { return schema.Table{Name: "FakeData"} }
//
//	func (FakeData) Fields() []schema.Field {
//	    return []schema.Field{
//	        field.Int("FakeDataId").Key().Identity(),
//	        field.String("NullableColumn").Nullable(),
//	    }
//	}
//
//	func (FakeData) Edges() []schema.Edge {
//	    return []schema.Edge{
//	        edge.InnerJoin[FakeRelated]().On("FakeDataId", "FakeDataId"),
//	    }
//	}
type Definition interface {
	Table() Table
	Fields() []Field
	Edges() []Edge
}

// Row is a row-shaped record whose column values can be read by name.
type Row interface {
	Get(column string) (any, bool)
}

// Values is a Row backed by a map.
type Values map[string]any

// Get implements Row. Names are matched exactly first, then case-insensitively.
func (v Values) Get(column string) (any, bool) {
	if x, ok := v[column]; ok {
		return x, true
	}
	key := Fold(column)
	for k, x := range v {
		if Fold(k) == key {
			return x, true
		}
	}
	return nil, false
}

// Fold returns the case-folded form of an identifier. SQL Server compares
// identifiers case-insensitively under its default collations.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Descriptor is the immutable metadata of one row type.
type Descriptor struct {
	// Type is the Go type the descriptor was registered for. It is nil for
	// descriptors declared by name.
	Type      reflect.Type
	Name      string
	Schema    string
	Table     string
	Style     AliasStyle
	Columns   []*Column
	Relations []*Relation

	byName     map[string]*Column
	byPhysical map[string]*Column
	byPath     map[string]*Relation
}

// New builds and validates a descriptor.
func New(name string, table Table, columns []*Column, relations []*Relation) (*Descriptor, error) {
	if table.Name == "" {
		table.Name = name
	}
	d := &Descriptor{
		Name:       name,
		Schema:     table.Schema,
		Table:      table.Name,
		Style:      table.Style,
		Columns:    columns,
		Relations:  relations,
		byName:     make(map[string]*Column, len(columns)),
		byPhysical: make(map[string]*Column, len(columns)),
		byPath:     make(map[string]*Relation, len(relations)),
	}
	if res := Validate(d); res.HasErrors() {
		return nil, res.Err()
	}
	for _, c := range columns {
		d.byName[Fold(c.Name)] = c
		if !c.Related() {
			d.byPhysical[Fold(c.Physical())] = c
		}
	}
	for _, r := range relations {
		d.byPath[Fold(r.PathString())] = r
	}
	return d, nil
}

// String returns the row type name.
func (d *Descriptor) String() string {
	return d.Name
}

// Column returns the column declared with the given name.
func (d *Descriptor) Column(name string) (*Column, bool) {
	c, ok := d.byName[Fold(name)]
	return c, ok
}

// BaseColumn returns the column of the row type's own table with the given
// physical or declared name.
func (d *Descriptor) BaseColumn(name string) (*Column, bool) {
	if c, ok := d.byPhysical[Fold(name)]; ok {
		return c, true
	}
	if c, ok := d.byName[Fold(name)]; ok && !c.Related() {
		return c, true
	}
	return nil, false
}

// BaseColumns returns the columns of the row type's own table in
// declaration order.
func (d *Descriptor) BaseColumns() []*Column {
	cols := make([]*Column, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !c.Related() {
			cols = append(cols, c)
		}
	}
	return cols
}

// Keys returns the key columns in declaration order.
func (d *Descriptor) Keys() []*Column {
	var keys []*Column
	for _, c := range d.Columns {
		if c.Key && !c.Related() {
			keys = append(keys, c)
		}
	}
	return keys
}

// Relation returns the relation declared at the given path.
func (d *Descriptor) Relation(path ...string) (*Relation, bool) {
	r, ok := d.byPath[Fold(strings.Join(path, "."))]
	return r, ok
}

// RelatedColumnName derives the physical column of a related column from
// its declared name by removing the relation path prefix, so that
// "RelatedAliasName" and "RelatedAlias.Name" read [RelatedAlias].[Name].
func RelatedColumnName(path []string, name string) string {
	for _, prefix := range []string{strings.Join(path, ".") + ".", strings.Join(path, "")} {
		if len(name) > len(prefix) && strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}
