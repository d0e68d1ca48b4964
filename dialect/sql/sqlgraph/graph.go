// Package sqlgraph resolves the relations of a row type into an ordered,
// aliased join plan and classifies constraint errors returned by SQL Server.
package sqlgraph

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/schema"
)

// Join is one relation of a join plan.
type Join struct {
	Relation *schema.Relation
	Target   *schema.Descriptor
	// Alias is empty when the join is rendered with the bare table name.
	Alias string
	// Parent is the join the relation joins from, or nil for the root.
	Parent *Join
}

// Path returns the relation path of the join.
func (j *Join) Path() []string {
	return j.Relation.Path
}

// ColumnRef is a column resolved against a join plan.
type ColumnRef struct {
	// Name is the name the column is referenced by.
	Name string
	// Column is the physical column name.
	Column string
	// Join is the join the column is read from, or nil for the root table.
	Join *Join
	// Decl is the declared column.
	Decl *schema.Column
	// Alias is the projection alias of a related column, empty otherwise.
	Alias string
}

// JoinPlan is the resolved, ordered set of joins of a row type. INNER joins
// come first in declaration order, then LEFT joins in declaration order.
type JoinPlan struct {
	Root  *schema.Descriptor
	Joins []*Join

	columns []ColumnRef
	byPath  map[string]*Join
}

// Join returns the join at the given relation path.
func (p *JoinPlan) Join(path ...string) (*Join, bool) {
	j, ok := p.byPath[schema.Fold(strings.Join(path, "."))]
	return j, ok
}

// Columns returns every declared column of the root row type in
// declaration order.
func (p *JoinPlan) Columns() []ColumnRef {
	return p.columns
}

// Column resolves a column reference. A reference is a declared column
// name, a physical column of the root table, or Path.Column naming a
// column of a joined row type.
func (p *JoinPlan) Column(ref string) (ColumnRef, error) {
	if c, ok := p.Root.Column(ref); ok {
		return p.declared(c), nil
	}
	if c, ok := p.Root.BaseColumn(ref); ok {
		return p.declared(c), nil
	}
	if i := strings.LastIndexByte(ref, '.'); i > 0 {
		path := strings.Split(ref[:i], ".")
		if j, ok := p.Join(path...); ok {
			if c, ok := j.Target.BaseColumn(ref[i+1:]); ok {
				alias := p.Root.Style.Alias(j.Relation.Path, c.Physical())
				return ColumnRef{Name: alias, Column: c.Physical(), Join: j, Decl: c, Alias: alias}, nil
			}
		}
	}
	return ColumnRef{}, storm.NewUnknownColumnError(p.Root.Name, ref)
}

func (p *JoinPlan) declared(c *schema.Column) ColumnRef {
	ref := ColumnRef{Name: c.Name, Column: c.Physical(), Decl: c}
	if c.Related() {
		ref.Join = p.byPath[schema.Fold(strings.Join(c.Path, "."))]
		ref.Alias = p.Root.Style.Alias(c.Path, c.Physical())
	}
	return ref
}

// Stats is a snapshot of resolver cache counters.
type Stats struct {
	// Hits counts Resolve calls served from the cache.
	Hits int64
	// Walks counts relation walks, i.e. cache misses that built a plan.
	Walks int64
}

// Resolver builds join plans and memoizes them per row type and set of
// additional relations. It is safe for concurrent use.
type Resolver struct {
	registry *schema.Registry
	plans    sync.Map
	group    singleflight.Group
	hits     atomic.Int64
	walks    atomic.Int64
}

// NewResolver returns a resolver that looks up relation targets in reg.
func NewResolver(reg *schema.Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Default is the resolver backed by schema.Default.
var Default = NewResolver(schema.Default)

// Registry returns the registry relation targets are looked up in.
func (r *Resolver) Registry() *schema.Registry {
	return r.registry
}

// Stats returns the cache counters.
func (r *Resolver) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Walks: r.walks.Load()}
}

// Resolve returns the join plan of d extended with the given relations.
func (r *Resolver) Resolve(d *schema.Descriptor, extra ...*schema.Relation) (*JoinPlan, error) {
	key := planKey(d, extra)
	if p, ok := r.plans.Load(key); ok {
		r.hits.Add(1)
		return p.(*JoinPlan), nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		if p, ok := r.plans.Load(key); ok {
			return p, nil
		}
		r.walks.Add(1)
		p, err := r.walk(d, extra)
		if err != nil {
			return nil, err
		}
		r.plans.Store(key, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*JoinPlan), nil
}

func planKey(d *schema.Descriptor, extra []*schema.Relation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%p", d)
	for _, rel := range extra {
		b.WriteByte('|')
		b.WriteString(rel.Signature())
	}
	return b.String()
}

func (r *Resolver) walk(d *schema.Descriptor, extra []*schema.Relation) (*JoinPlan, error) {
	rels := make([]*schema.Relation, 0, len(d.Relations)+len(extra))
	rels = append(rels, d.Relations...)
	for _, rel := range extra {
		if len(rel.Path) == 0 || rel.FromColumn == "" || rel.ToColumn == "" {
			return nil, storm.NewRelationError(d.Name, rel.PathString(), "", "relation path and join columns must be set")
		}
		rels = append(rels, rel)
	}
	declared := make(map[string]*schema.Relation, len(rels))
	for _, rel := range rels {
		path := schema.Fold(rel.PathString())
		if _, ok := declared[path]; ok {
			return nil, storm.NewRelationError(d.Name, rel.PathString(), "", "relation declared more than once")
		}
		if parent := rel.Parent(); parent != nil {
			p, ok := declared[schema.Fold(strings.Join(parent, "."))]
			if !ok {
				return nil, storm.NewRelationError(d.Name, rel.PathString(), "", "parent relation is not declared before it")
			}
			if p.Kind == schema.Left && rel.Kind == schema.Inner {
				return nil, storm.NewRelationError(d.Name, rel.PathString(), "", "inner join cannot follow a left join")
			}
		}
		declared[path] = rel
	}

	ordered := make([]*schema.Relation, 0, len(rels))
	for _, kind := range []schema.JoinKind{schema.Inner, schema.Left} {
		for _, rel := range rels {
			if rel.Kind == kind {
				ordered = append(ordered, rel)
			}
		}
	}

	plan := &JoinPlan{
		Root:   d,
		Joins:  make([]*Join, 0, len(ordered)),
		byPath: make(map[string]*Join, len(ordered)),
	}
	// exposed maps the folded name each join is exposed under to what
	// claimed it. Bare tables are exposed under their table name.
	var (
		tables  = map[string]struct{}{tableKey(d): {}}
		aliases = make(map[string]string)
		exposed = map[string]string{schema.Fold(d.Table): "table " + d.Table}
	)
	for _, rel := range ordered {
		j, err := r.join(plan, rel)
		if err != nil {
			return nil, err
		}
		key := tableKey(j.Target)
		if _, ok := tables[key]; ok || rel.Aliased {
			j.Alias = rel.AliasToken()
			name := schema.Fold(j.Alias)
			if prev, ok := aliases[name]; ok {
				return nil, storm.NewRelationError(d.Name, rel.PathString(), "", fmt.Sprintf("alias %q is already used by relation %s", j.Alias, prev))
			}
			if prev, ok := exposed[name]; ok {
				return nil, storm.NewRelationError(d.Name, rel.PathString(), "", fmt.Sprintf("alias %q is the exposed name of %s", j.Alias, prev))
			}
			aliases[name] = rel.PathString()
		} else {
			name := schema.Fold(j.Target.Table)
			if prev, ok := aliases[name]; ok {
				return nil, storm.NewRelationError(d.Name, rel.PathString(), "", fmt.Sprintf("table %s clashes with the alias of relation %s", j.Target.Table, prev))
			}
			if _, ok := exposed[name]; !ok {
				exposed[name] = "table " + j.Target.Table
			}
		}
		tables[key] = struct{}{}
		plan.Joins = append(plan.Joins, j)
		plan.byPath[schema.Fold(rel.PathString())] = j
	}

	plan.columns = make([]ColumnRef, 0, len(d.Columns))
	for _, c := range d.Columns {
		ref := plan.declared(c)
		if c.Related() {
			if ref.Join == nil {
				return nil, storm.NewRelationError(d.Name, strings.Join(c.Path, "."), c.Name, "column is read through an undeclared relation")
			}
			if _, ok := ref.Join.Target.BaseColumn(c.Physical()); !ok {
				return nil, storm.NewRelationError(d.Name, strings.Join(c.Path, "."), c.Name,
					fmt.Sprintf("column %s is not declared on %s", c.Physical(), ref.Join.Target.Name))
			}
		}
		plan.columns = append(plan.columns, ref)
	}
	return plan, nil
}

// join resolves the target of a relation and checks both join columns.
func (r *Resolver) join(plan *JoinPlan, rel *schema.Relation) (*Join, error) {
	d := plan.Root
	target, err := r.registry.Target(rel)
	if err != nil {
		return nil, &storm.SchemaError{Type: d.Name, Relation: rel.PathString(), Message: "cannot resolve target " + rel.TargetLabel(), Cause: err}
	}
	j := &Join{Relation: rel, Target: target}
	from := d
	if parent := rel.Parent(); parent != nil {
		j.Parent = plan.byPath[schema.Fold(strings.Join(parent, "."))]
		from = j.Parent.Target
	}
	if _, ok := from.BaseColumn(rel.FromColumn); !ok {
		return nil, storm.NewRelationError(d.Name, rel.PathString(), rel.FromColumn, "join column is not declared on "+from.Name)
	}
	if _, ok := target.BaseColumn(rel.ToColumn); !ok {
		return nil, storm.NewRelationError(d.Name, rel.PathString(), rel.ToColumn, "join column is not declared on "+target.Name)
	}
	return j, nil
}

func tableKey(d *schema.Descriptor) string {
	return schema.Fold(d.Schema + "." + d.Table)
}
