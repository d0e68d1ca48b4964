package sql

import (
	"fmt"
	"strings"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/schema"
)

// MergeCommand upserts the rows of a bulk parameter into a table, matching
// source and target rows by their natural key.
type MergeCommand struct {
	target  *schema.Descriptor
	keys    []string
	param   *BulkParameter
	scope   string
	results []string
}

// MergeInto starts a merge into the table of target matched on keys.
func MergeInto(target *schema.Descriptor, keys ...string) *MergeCommand {
	return &MergeCommand{target: target, keys: keys}
}

// From sets the bulk parameter. It defaults to DefaultBulkParameter.
func (m *MergeCommand) From(p BulkParameter) *MergeCommand {
	m.param = &p
	return m
}

// DeleteUnmatchedInSource deletes target rows that have no source row, but
// only within the scope column values present in the source.
func (m *MergeCommand) DeleteUnmatchedInSource(scope string) *MergeCommand {
	m.scope = scope
	return m
}

// SelectResults returns the given columns of every merged row. Without it
// the merge returns the key and identity columns.
func (m *MergeCommand) SelectResults(columns ...string) *MergeCommand {
	m.results = append([]string(nil), columns...)
	return m
}

// Compile renders the merge.
func (m *MergeCommand) Compile() (*BulkStatement, error) {
	if m.target == nil {
		return nil, storm.NewCompilationError("merge", "nil target")
	}
	if len(m.keys) == 0 {
		return nil, storm.NewCompilationError("merge", "no key columns given for %s", m.target.Name)
	}
	t := m.target
	param := DefaultBulkParameter(t)
	if m.param != nil {
		param = *m.param
	}
	keys := make([]*schema.Column, len(m.keys))
	for i, name := range m.keys {
		c, ok := t.BaseColumn(name)
		if !ok {
			return nil, storm.NewSchemaError(t.Name, fmt.Sprintf("merge key %s is not a column of %s", name, TableName(t)))
		}
		if _, ok := param.Column(c.Physical()); !ok {
			return nil, storm.NewSchemaError(t.Name, fmt.Sprintf("merge key %s is not a column of %s", name, param.QualifiedType()))
		}
		keys[i] = c
	}
	results, err := resultColumns(t, m.results)
	if err != nil {
		return nil, err
	}

	isKey := func(c *schema.Column) bool {
		for _, k := range keys {
			if k == c {
				return true
			}
		}
		return false
	}
	var output []*schema.Column
	for _, c := range t.BaseColumns() {
		if isKey(c) || c.Identity {
			output = append(output, c)
		}
	}
	if len(results) == 0 {
		results = output
	}
	var update, insert []*schema.Column
	for _, pc := range param.Columns {
		c, ok := t.BaseColumn(pc.Physical())
		if !ok {
			return nil, storm.NewUnknownColumnError(t.Name, pc.Physical())
		}
		if c.Identity {
			continue
		}
		insert = append(insert, c)
		if !isKey(c) {
			update = append(update, c)
		}
	}

	w := &writer{}
	decl := make([]string, len(output))
	for i, c := range output {
		decl[i] = Quote(c.Physical()) + " " + c.DeclaredType()
	}
	w.line("DECLARE @inserted TABLE (%s);", strings.Join(decl, ", "))
	w.line("MERGE %s AS [Target]", TableName(t))
	w.line("USING %s AS [Source]", param.Placeholder())
	on := make([]string, len(keys))
	for i, k := range keys {
		on[i] = fmt.Sprintf("[Target].%[1]s = [Source].%[1]s", Quote(k.Physical()))
	}
	w.line("ON (%s)", strings.Join(on, " AND "))
	if len(update) > 0 {
		set := make([]string, len(update))
		for i, c := range update {
			set[i] = fmt.Sprintf("%[1]s = [Source].%[1]s", Quote(c.Physical()))
		}
		w.line("WHEN MATCHED THEN")
		w.line("UPDATE SET " + strings.Join(set, ", "))
	}
	w.line("WHEN NOT MATCHED BY TARGET THEN")
	w.line("INSERT (%s)", quoteColumns(insert, ""))
	w.line("VALUES (%s)", quoteColumns(insert, "[Source]."))
	if m.scope != "" {
		scope, ok := t.BaseColumn(m.scope)
		if !ok {
			return nil, storm.NewUnknownColumnError(t.Name, m.scope)
		}
		w.line("WHEN NOT MATCHED BY SOURCE AND [Target].%[1]s IN (SELECT %[1]s FROM %[2]s) THEN DELETE",
			Quote(scope.Physical()), param.Placeholder())
	}
	w.line("OUTPUT %s", quoteColumns(output, "INSERTED."))
	w.line("INTO @inserted (%s);", quoteColumns(output, ""))
	sel := make([]string, len(results))
	for i, c := range results {
		switch {
		case containsColumn(output, c):
			sel[i] = "i." + Quote(c.Physical())
		case hasParamColumn(param, c):
			sel[i] = "tvp." + Quote(c.Physical())
		default:
			return nil, storm.NewUnknownColumnError(param.TypeName, c.Name)
		}
	}
	w.line("SELECT " + strings.Join(sel, ", "))
	w.line("FROM @inserted AS i")
	match := make([]string, len(keys))
	for i, k := range keys {
		match[i] = fmt.Sprintf("i.%[1]s = tvp.%[1]s", Quote(k.Physical()))
	}
	w.line("INNER JOIN %s AS tvp ON %s;", param.Placeholder(), strings.Join(match, " AND "))
	return &BulkStatement{Text: w.statement().Text, Param: param, Keys: keys, Results: results}, nil
}

func containsColumn(cols []*schema.Column, c *schema.Column) bool {
	for _, x := range cols {
		if x == c {
			return true
		}
	}
	return false
}

func hasParamColumn(p BulkParameter, c *schema.Column) bool {
	_, ok := p.Column(c.Physical())
	return ok
}
