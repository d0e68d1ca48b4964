package sql

import (
	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/schema"
)

// InsertCommand inserts the rows of a bulk parameter into a table.
type InsertCommand struct {
	target  *schema.Descriptor
	param   *BulkParameter
	results []string
}

// InsertInto starts an insert into the table of target.
func InsertInto(target *schema.Descriptor) *InsertCommand {
	return &InsertCommand{target: target}
}

// From sets the bulk parameter. It defaults to DefaultBulkParameter.
func (c *InsertCommand) From(p BulkParameter) *InsertCommand {
	c.param = &p
	return c
}

// SelectResults outputs the given columns of every inserted row.
func (c *InsertCommand) SelectResults(columns ...string) *InsertCommand {
	c.results = append([]string(nil), columns...)
	return c
}

// Compile renders the insert.
//
//	INSERT INTO [dbo].[FakeChildren] ([ParentId], [Ordinal], [Name])
//	OUTPUT INSERTED.[FakeChildId], INSERTED.[ParentId], INSERTED.[Ordinal]
//	SELECT [ParentId], [Ordinal], [Name] FROM @FakeChildRows;
func (c *InsertCommand) Compile() (*BulkStatement, error) {
	if c.target == nil {
		return nil, storm.NewCompilationError("insert", "nil target")
	}
	t := c.target
	param := DefaultBulkParameter(t)
	if c.param != nil {
		param = *c.param
	}
	var insert []*schema.Column
	for _, pc := range param.Columns {
		col, ok := t.BaseColumn(pc.Physical())
		if !ok {
			return nil, storm.NewUnknownColumnError(t.Name, pc.Physical())
		}
		if !col.Identity {
			insert = append(insert, col)
		}
	}
	if len(insert) == 0 {
		return nil, storm.NewCompilationError("insert", "no insertable columns on %s", t.Name)
	}
	results, err := resultColumns(t, c.results)
	if err != nil {
		return nil, err
	}
	w := &writer{}
	w.line("INSERT INTO %s (%s)", TableName(t), quoteColumns(insert, ""))
	if len(results) > 0 {
		w.line("OUTPUT " + quoteColumns(results, "INSERTED."))
	}
	w.line("SELECT %s FROM %s;", quoteColumns(insert, ""), param.Placeholder())
	return &BulkStatement{Text: w.statement().Text, Param: param, Results: results}, nil
}
