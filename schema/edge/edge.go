package edge

import (
	"reflect"

	"github.com/Startitecture/storm-sub007/schema"
)

// Builder declares one relation.
type Builder struct {
	desc *schema.Relation
}

// InnerJoin returns a builder for an INNER JOIN to T. The path defaults to
// the name of T.
func InnerJoin[T any](path ...string) *Builder {
	return join(schema.Inner, reflect.TypeFor[T](), path)
}

// LeftJoin returns a builder for a LEFT JOIN to T. The path defaults to
// the name of T.
func LeftJoin[T any](path ...string) *Builder {
	return join(schema.Left, reflect.TypeFor[T](), path)
}

// To returns a builder for a join to a row type registered by name.
func To(kind schema.JoinKind, target string, path ...string) *Builder {
	if len(path) == 0 {
		path = []string{target}
	}
	return &Builder{desc: &schema.Relation{
		Kind:       kind,
		TargetName: target,
		Path:       append([]string(nil), path...),
	}}
}

func join(kind schema.JoinKind, t reflect.Type, path []string) *Builder {
	if len(path) == 0 {
		path = []string{t.Name()}
	}
	return &Builder{desc: &schema.Relation{
		Kind:   kind,
		Target: t,
		Path:   append([]string(nil), path...),
	}}
}

// On sets the join columns: from is read on the parent, to on the target.
func (b *Builder) On(from, to string) *Builder {
	b.desc.FromColumn = from
	b.desc.ToColumn = to
	return b
}

// Aliased renders the relation with its alias even when it is the first
// to reach its table.
func (b *Builder) Aliased() *Builder {
	b.desc.Aliased = true
	return b
}

// Descriptor implements the schema.Edge interface by returning its descriptor.
func (b *Builder) Descriptor() *schema.Relation {
	d := *b.desc
	d.Path = append([]string(nil), b.desc.Path...)
	return &d
}

var _ schema.Edge = (*Builder)(nil)
