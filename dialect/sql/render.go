package sql

import (
	"fmt"
	"strings"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/schema"
	"github.com/Startitecture/storm-sub007/selection"
)

// Form is the statement shape a selection is rendered as.
type Form uint8

// Statement forms.
const (
	// Select renders the projection of the selection and its unions.
	Select Form = iota
	// Exists renders an IF EXISTS check that returns 1 when any row matches, 0 otherwise.
	Exists
	// Delete removes the matching rows of the selection's table.
	Delete
)

// String returns the name of the form.
func (f Form) String() string {
	switch f {
	case Select:
		return "select"
	case Exists:
		return "exists"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("Form(%d)", f)
	}
}

// Statement is a compiled statement. Args holds one value per placeholder
// in placeholder order.
type Statement struct {
	Text string
	Args []any
}

// Compile renders sel in the given form.
//
//	stmt, err := sql.Compile(sel, sql.Select)
//	if err != nil {
//		return err
//	}
//	rows, err := db.QueryContext(ctx, stmt.Text, stmt.Args...)
func Compile(sel *selection.Selection, form Form) (*Statement, error) {
	if err := check(sel, form.String()); err != nil {
		return nil, err
	}
	w := &writer{}
	switch form {
	case Select:
		for i, s := range siblings(sel) {
			if i > 0 {
				w.line("UNION")
			}
			if err := w.projection(s); err != nil {
				return nil, err
			}
			w.from(s)
			w.where(s)
		}
	case Exists:
		for i, s := range siblings(sel) {
			if i == 0 {
				w.line("IF EXISTS (SELECT 1")
			} else {
				w.line("UNION")
				w.line("SELECT 1")
			}
			w.from(s)
			w.where(s)
		}
		w.line(") SELECT 1  ELSE SELECT 0")
	case Delete:
		if len(sel.Unions()) > 0 {
			return nil, storm.NewCompilationError("delete", "unions cannot be deleted from")
		}
		w.line("DELETE " + TableName(sel.Descriptor()))
		w.from(sel)
		w.where(sel)
	default:
		return nil, storm.NewCompilationError(form.String(), "unsupported statement form")
	}
	return w.statement(), nil
}

func check(sel *selection.Selection, op string) error {
	if sel == nil {
		return storm.NewCompilationError(op, "nil selection")
	}
	return sel.Err()
}

// siblings flattens a selection and its unions in placeholder order.
func siblings(sel *selection.Selection) []*selection.Selection {
	all := []*selection.Selection{sel}
	for _, u := range sel.Unions() {
		all = append(all, siblings(u)...)
	}
	return all
}

// writer accumulates the lines and parameters of a statement.
type writer struct {
	lines []string
	args  []any
}

func (w *writer) line(format string, args ...any) {
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	w.lines = append(w.lines, format)
}

// param binds v and returns its placeholder.
func (w *writer) param(v any) string {
	w.args = append(w.args, v)
	return Placeholder(len(w.args) - 1)
}

func (w *writer) statement() *Statement {
	return &Statement{Text: strings.Join(w.lines, "\n"), Args: w.args}
}

func (w *writer) projection(sel *selection.Selection) error {
	refs := sel.Projection()
	if len(refs) == 0 {
		return storm.NewCompilationError("select", "no columns selected from %s", sel.Descriptor().Name)
	}
	w.line("SELECT")
	for i, ref := range refs {
		col := "  " + columnRef(sel.Descriptor(), ref)
		if ref.Alias != "" {
			col += " AS " + Quote(ref.Alias)
		}
		if i < len(refs)-1 {
			col += ","
		}
		w.line(col)
	}
	return nil
}

func (w *writer) from(sel *selection.Selection) {
	root := sel.Descriptor()
	w.line("FROM " + TableName(root))
	for _, j := range sel.Plan().Joins {
		parent := root
		if j.Parent != nil {
			parent = j.Parent.Target
		}
		target := TableName(j.Target)
		if j.Alias != "" {
			target += " AS " + Quote(j.Alias)
		}
		w.line("%s %s ON %s.%s = %s.%s", j.Relation.Kind, target,
			joinRef(root, j.Parent), Quote(physical(parent, j.Relation.FromColumn)),
			joinRef(root, j), Quote(physical(j.Target, j.Relation.ToColumn)))
	}
}

func (w *writer) where(sel *selection.Selection) {
	for i, c := range sel.Where() {
		keyword := "AND"
		if i == 0 {
			keyword = "WHERE"
		}
		w.line("%s %s", keyword, w.clause(sel.Descriptor(), c))
	}
}

func (w *writer) clause(root *schema.Descriptor, c selection.Clause) string {
	col := columnRef(root, c.Column)
	switch c.Op {
	case selection.OpIsNull:
		return col + " IS NULL"
	case selection.OpBetween:
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, w.param(c.Values[0]), w.param(c.Values[1]))
	case selection.OpIn:
		params := make([]string, len(c.Values))
		for i, v := range c.Values {
			params[i] = w.param(v)
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(params, ", "))
	default:
		return fmt.Sprintf("%s %s %s", col, c.Op, w.param(c.Values[0]))
	}
}

// physical returns the physical name of a base column of d.
func physical(d *schema.Descriptor, name string) string {
	if c, ok := d.BaseColumn(name); ok {
		return c.Physical()
	}
	return name
}
