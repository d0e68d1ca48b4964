package sql

import (
	"strings"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/selection"
)

// Assignment sets one column in an UPDATE statement.
type Assignment struct {
	Column string
	Value  any
}

// Set returns an assignment of value to column. A nil value assigns NULL.
func Set(column string, value any) Assignment {
	return Assignment{Column: column, Value: value}
}

// CompileUpdate renders an UPDATE of the rows matched by sel. Assignment
// parameters precede the parameters of the selection.
//
//	UPDATE [dbo].[FakeData]
//	SET [dbo].[FakeData].[ValueColumn] = @0,
//	[dbo].[FakeData].[NullableColumn] = NULL
//	FROM [dbo].[FakeData]
//	WHERE [dbo].[FakeData].[FakeDataId] = @1
func CompileUpdate(sel *selection.Selection, assignments ...Assignment) (*Statement, error) {
	if err := check(sel, "update"); err != nil {
		return nil, err
	}
	root := sel.Descriptor()
	switch {
	case len(sel.Unions()) > 0:
		return nil, storm.NewCompilationError("update", "unions cannot be updated")
	case len(assignments) == 0:
		return nil, storm.NewCompilationError("update", "no columns assigned on %s", root.Name)
	}
	w := &writer{}
	w.line("UPDATE " + TableName(root))
	set := make([]string, len(assignments))
	for i, a := range assignments {
		ref, err := sel.Plan().Column(a.Column)
		if err != nil {
			return nil, err
		}
		switch {
		case ref.Join != nil:
			return nil, storm.NewCompilationError("update", "column %s of %s is read through a relation", a.Column, root.Name)
		case ref.Decl.Identity:
			return nil, storm.NewCompilationError("update", "identity column %s of %s cannot be assigned", a.Column, root.Name)
		}
		value := "NULL"
		if !selection.IsNull(a.Value) {
			value = w.param(a.Value)
		}
		set[i] = columnRef(root, ref) + " = " + value
	}
	w.line("SET " + strings.Join(set, ",\n"))
	w.from(sel)
	w.where(sel)
	return w.statement(), nil
}
