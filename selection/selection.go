package selection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/dialect/sql/sqlgraph"
	"github.com/Startitecture/storm-sub007/schema"
)

// Selection is an immutable description of a query over one row type.
// Builder methods return a new selection and never modify the receiver.
type Selection struct {
	resolver *sqlgraph.Resolver
	desc     *schema.Descriptor
	extra    []*schema.Relation
	plan     *sqlgraph.JoinPlan
	// columns holds the references passed to Select, nil for all columns.
	columns    []string
	projection []sqlgraph.ColumnRef
	where      []Clause
	unions     []*Selection
	err        error
}

// Option configures a new selection.
type Option func(*Selection)

// WithResolver sets the resolver used to build join plans. It defaults to
// sqlgraph.Default.
func WithResolver(r *sqlgraph.Resolver) Option {
	return func(s *Selection) {
		if r != nil {
			s.resolver = r
		}
	}
}

// From starts a selection of every declared column of T.
func From[T any](opts ...Option) *Selection {
	s := newSelection(opts)
	d, err := s.resolver.Registry().Describe(reflect.TypeFor[T]())
	if err != nil {
		s.err = err
		return s
	}
	return s.start(d)
}

// FromDescriptor starts a selection of every declared column of d.
func FromDescriptor(d *schema.Descriptor, opts ...Option) *Selection {
	s := newSelection(opts)
	if d == nil {
		s.err = storm.NewCompilationError("select", "nil descriptor")
		return s
	}
	return s.start(d)
}

func newSelection(opts []Option) *Selection {
	s := &Selection{resolver: sqlgraph.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selection) start(d *schema.Descriptor) *Selection {
	s.desc = d
	plan, err := s.resolver.Resolve(d)
	if err != nil {
		s.err = err
		return s
	}
	s.plan = plan
	s.projection = plan.Columns()
	return s
}

// Err returns the first error recorded by a builder call.
func (s *Selection) Err() error { return s.err }

// Descriptor returns the descriptor of the selected row type.
func (s *Selection) Descriptor() *schema.Descriptor { return s.desc }

// Plan returns the join plan of the selection.
func (s *Selection) Plan() *sqlgraph.JoinPlan { return s.plan }

// Projection returns the selected columns in emission order.
func (s *Selection) Projection() []sqlgraph.ColumnRef { return s.projection }

// Where returns the clauses of the selection, excluding unions.
func (s *Selection) Where() []Clause { return s.where }

// Unions returns the unioned siblings in union order.
func (s *Selection) Unions() []*Selection { return s.unions }

// Clauses returns the clauses of the selection followed by the clauses of
// every union.
func (s *Selection) Clauses() []Clause {
	clauses := append([]Clause(nil), s.where...)
	for _, u := range s.unions {
		clauses = append(clauses, u.Clauses()...)
	}
	return clauses
}

// Parameters returns the parameter values in placeholder order.
func (s *Selection) Parameters() []any {
	var params []any
	for _, c := range s.where {
		params = append(params, c.Values...)
	}
	for _, u := range s.unions {
		params = append(params, u.Parameters()...)
	}
	return params
}

func (s *Selection) clone() *Selection {
	c := *s
	c.extra = append([]*schema.Relation(nil), s.extra...)
	c.columns = append([]string(nil), s.columns...)
	c.projection = append([]sqlgraph.ColumnRef(nil), s.projection...)
	c.where = append([]Clause(nil), s.where...)
	c.unions = append([]*Selection(nil), s.unions...)
	return &c
}

func (s *Selection) fail(err error) *Selection {
	c := s.clone()
	c.err = err
	return c
}

func (s *Selection) add(op Op, column string, values ...any) *Selection {
	if s.err != nil {
		return s
	}
	ref, err := s.plan.Column(column)
	if err != nil {
		return s.fail(err)
	}
	return s.push(Clause{Op: op, Ref: column, Column: ref, Values: values})
}

func (s *Selection) push(clause Clause) *Selection {
	c := s.clone()
	c.where = append(c.where, clause)
	return c
}

// likeEscaper quotes the T-SQL LIKE wildcards so a pattern matches only
// itself.
var likeEscaper = strings.NewReplacer("[", "[[]", "%", "[%]", "_", "[_]")

// Matching adds an equality clause. A nil value matches NULL and consumes
// no parameter; a value compared with a nullable string column uses LIKE
// with its wildcards escaped.
func (s *Selection) Matching(column string, value any) *Selection {
	if s.err != nil {
		return s
	}
	ref, err := s.plan.Column(column)
	if err != nil {
		return s.fail(err)
	}
	clause := Clause{Op: OpEqual, Ref: column, Column: ref, Values: []any{value}}
	switch {
	case IsNull(value):
		clause.Op, clause.Values = OpIsNull, nil
	case ref.Decl.Type == schema.TypeString && ref.Decl.Nullable:
		clause.Op = OpLike
		if v, ok := value.(string); ok {
			clause.Values[0] = likeEscaper.Replace(v)
		}
	}
	return s.push(clause)
}

// Between adds an inclusive range clause.
func (s *Selection) Between(column string, low, high any) *Selection {
	return s.add(OpBetween, column, low, high)
}

// GreaterOrEqual adds a lower bound clause.
func (s *Selection) GreaterOrEqual(column string, value any) *Selection {
	return s.add(OpGreaterOrEqual, column, value)
}

// LessOrEqual adds an upper bound clause.
func (s *Selection) LessOrEqual(column string, value any) *Selection {
	return s.add(OpLessOrEqual, column, value)
}

// Include adds a set membership clause.
func (s *Selection) Include(column string, values ...any) *Selection {
	if s.err != nil {
		return s
	}
	if len(values) == 0 {
		return s.fail(storm.NewCompilationError("select", "include on %s has no values", column))
	}
	return s.add(OpIn, column, values...)
}

// Select sets the projected columns. With no columns every declared column
// is selected.
func (s *Selection) Select(columns ...string) *Selection {
	if s.err != nil {
		return s
	}
	c := s.clone()
	c.columns = nil
	c.projection = s.plan.Columns()
	if len(columns) > 0 {
		c.columns = append([]string(nil), columns...)
		c.projection = make([]sqlgraph.ColumnRef, 0, len(columns))
		for _, name := range columns {
			ref, err := s.plan.Column(name)
			if err != nil {
				return s.fail(err)
			}
			c.projection = append(c.projection, ref)
		}
	}
	for _, u := range c.unions {
		if len(u.projection) != len(c.projection) {
			return s.fail(storm.NewCompilationError("select", "%s selects %d columns, its union with %s selects %d",
				s.desc.Name, len(c.projection), u.desc.Name, len(u.projection)))
		}
	}
	return c
}

// Union appends other as a unioned sibling. Both selections must project
// the same number of columns.
func (s *Selection) Union(other *Selection) *Selection {
	if s.err != nil {
		return s
	}
	switch {
	case other == nil:
		return s.fail(storm.NewCompilationError("union", "nil selection"))
	case other.err != nil:
		return s.fail(other.err)
	case len(other.projection) != len(s.projection):
		return s.fail(storm.NewCompilationError("union", "%s selects %d columns, %s selects %d",
			s.desc.Name, len(s.projection), other.desc.Name, len(other.projection)))
	}
	c := s.clone()
	c.unions = append(c.unions, other)
	return c
}

// InnerJoin adds a relation joined with INNER JOIN.
func (s *Selection) InnerJoin(e schema.Edge) *Selection {
	return s.join(schema.Inner, e)
}

// LeftJoin adds a relation joined with LEFT JOIN.
func (s *Selection) LeftJoin(e schema.Edge) *Selection {
	return s.join(schema.Left, e)
}

func (s *Selection) join(kind schema.JoinKind, e schema.Edge) *Selection {
	if s.err != nil {
		return s
	}
	if e == nil {
		return s.fail(storm.NewCompilationError("join", "nil relation"))
	}
	rel := e.Descriptor()
	rel.Kind = kind
	extra := append(append([]*schema.Relation(nil), s.extra...), rel)
	plan, err := s.resolver.Resolve(s.desc, extra...)
	if err != nil {
		return s.fail(err)
	}
	// Adding a join may change the aliases of the joins after it.
	c := s.clone()
	c.extra = extra
	c.plan = plan
	if c.columns == nil {
		c.projection = plan.Columns()
	} else {
		for i, name := range c.columns {
			if c.projection[i], err = plan.Column(name); err != nil {
				return s.fail(err)
			}
		}
	}
	for i := range c.where {
		if c.where[i].Column, err = plan.Column(c.where[i].Ref); err != nil {
			return s.fail(err)
		}
	}
	return c
}

// FromExample adds a Matching clause for each named column, reading the
// value from row. With no columns the key columns are used.
func (s *Selection) FromExample(row schema.Row, columns ...string) *Selection {
	if s.err != nil {
		return s
	}
	if row == nil {
		return s.fail(storm.NewCompilationError("select", "nil example row"))
	}
	if len(columns) == 0 {
		for _, k := range s.desc.Keys() {
			columns = append(columns, k.Name)
		}
	}
	sel := s
	for _, name := range columns {
		v, ok := row.Get(name)
		if !ok {
			return s.fail(storm.NewUnknownColumnError(s.desc.Name, name))
		}
		if sel = sel.Matching(name, v); sel.err != nil {
			return sel
		}
	}
	return sel
}

// Fingerprint returns a key that is equal for selections that render the
// same statement text.
func (s *Selection) Fingerprint() string {
	var b strings.Builder
	s.fingerprint(&b)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func (s *Selection) fingerprint(b *strings.Builder) {
	if s.desc == nil {
		b.WriteString("<invalid>")
		return
	}
	fmt.Fprintf(b, "%s.%s;", s.desc.Schema, s.desc.Table)
	if s.plan != nil {
		for _, j := range s.plan.Joins {
			fmt.Fprintf(b, "j:%s|%s.%s|%s|%s|%s;", j.Relation.Kind, j.Target.Schema, j.Target.Table,
				j.Alias, j.Relation.FromColumn, j.Relation.ToColumn)
			if j.Parent != nil {
				fmt.Fprintf(b, "<%s;", j.Parent.Relation.PathString())
			}
		}
	}
	for _, ref := range s.projection {
		b.WriteString("p:")
		writeRef(b, ref)
	}
	for _, c := range s.where {
		fmt.Fprintf(b, "w:%d/%d:", c.Op, len(c.Values))
		writeRef(b, c.Column)
	}
	for _, u := range s.unions {
		b.WriteString("u:(")
		u.fingerprint(b)
		b.WriteString(")")
	}
}

func writeRef(b *strings.Builder, ref sqlgraph.ColumnRef) {
	if ref.Join != nil {
		b.WriteString(ref.Join.Relation.PathString())
	}
	fmt.Fprintf(b, ".%s>%s;", ref.Column, ref.Alias)
}
