package sql_test

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/dialect/sql"
	"github.com/Startitecture/storm-sub007/internal/rowtest"
	"github.com/Startitecture/storm-sub007/schema"
	"github.com/Startitecture/storm-sub007/selection"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func children(cols ...string) *selection.Selection {
	return selection.From[rowtest.FakeChild]().Select(cols...)
}

func TestCompile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		sel  *selection.Selection
		form sql.Form
		args []any
	}{
		{
			name: "select_where",
			sel: selection.From[rowtest.FakeData]().
				Matching("ValueColumn", 2).
				Matching("NullableColumn", "X").
				Matching("NullableValueColumn", nil).
				Between("FakeDataId", 10, 20),
			form: sql.Select,
			args: []any{2, "X", 10, 20},
		},
		{
			name: "select_union",
			sel: children("FakeChildId", "Name").Matching("ParentId", 1).
				Union(children("FakeChildId", "Name").GreaterOrEqual("Ordinal", 3).LessOrEqual("Ordinal", 9)),
			form: sql.Select,
			args: []any{1, 3, 9},
		},
		{
			name: "select_nested",
			sel:  selection.From[rowtest.FakeNested]().Matching("RelatedAlias.Name", "x"),
			form: sql.Select,
			args: []any{"x"},
		},
		{
			name: "exists_union",
			sel: children().Matching("ParentId", 1).
				Union(children().Include("FakeChildId", 4, 5)),
			form: sql.Exists,
			args: []any{1, 4, 5},
		},
		{
			name: "delete_related",
			sel:  selection.From[rowtest.FakeData]().Matching("RelatedName", "n").Matching("ValueColumn", 2),
			form: sql.Delete,
			args: []any{"n", 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stmt, err := sql.Compile(tt.sel, tt.form)
			require.NoError(t, err)
			golden(t).Assert(t, tt.name, []byte(stmt.Text))
			assert.Equal(t, tt.args, stmt.Args)
			assert.Equal(t, tt.sel.Parameters(), stmt.Args)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()
	union := children("FakeChildId").Union(children("FakeChildId"))
	tests := []struct {
		name  string
		sel   *selection.Selection
		form  sql.Form
		check func(error) bool
	}{
		{"nil", nil, sql.Select, storm.IsCompilationError},
		{"selection_error", selection.From[rowtest.FakeData]().Matching("Nope", 1), sql.Select, storm.IsUnknownColumn},
		{"delete_union", union, sql.Delete, storm.IsCompilationError},
		{"unknown_form", children(), sql.Form(9), storm.IsCompilationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := sql.Compile(tt.sel, tt.form)
			require.Error(t, err)
			assert.Nil(t, stmt)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestCompileUpdate(t *testing.T) {
	t.Parallel()
	sel := selection.From[rowtest.FakeData]().Matching("FakeDataId", 7)
	stmt, err := sql.CompileUpdate(sel, sql.Set("ValueColumn", 5), sql.Set("NullableColumn", nil))
	require.NoError(t, err)
	golden(t).Assert(t, "update_assignments", []byte(stmt.Text))
	assert.Equal(t, []any{5, 7}, stmt.Args)

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name        string
			sel         *selection.Selection
			assignments []sql.Assignment
			check       func(error) bool
		}{
			{"no_assignments", sel, nil, storm.IsCompilationError},
			{"related_column", sel, []sql.Assignment{sql.Set("RelatedName", "x")}, storm.IsCompilationError},
			{"identity_column", sel, []sql.Assignment{sql.Set("FakeDataId", 1)}, storm.IsCompilationError},
			{"unknown_column", sel, []sql.Assignment{sql.Set("Nope", 1)}, storm.IsUnknownColumn},
			{"union", children("Name").Union(children("Name")), []sql.Assignment{sql.Set("Name", "x")}, storm.IsCompilationError},
		}
		for _, tt := range tests {
			_, err := sql.CompileUpdate(tt.sel, tt.assignments...)
			require.Error(t, err, tt.name)
			assert.True(t, tt.check(err), tt.name)
		}
	})
}

var placeholderRe = regexp.MustCompile(`@(\d+)`)

func TestCompile_Placeholders(t *testing.T) {
	t.Parallel()
	nested := children("FakeChildId").Matching("ParentId", 1).
		Union(children("FakeChildId").Include("Ordinal", 2, 3).
			Union(children("FakeChildId").Between("Ordinal", 4, 5).Matching("Name", nil))).
		Union(children("FakeChildId").GreaterOrEqual("ParentId", 6))
	data := selection.From[rowtest.FakeData]().
		Matching("NullableValueColumn", nil).
		Matching("FakeDataId", 7)

	compile := func(form sql.Form, sel *selection.Selection) func() (*sql.Statement, error) {
		return func() (*sql.Statement, error) { return sql.Compile(sel, form) }
	}
	tests := []struct {
		name    string
		compile func() (*sql.Statement, error)
		args    []any
	}{
		{"select_nested_unions", compile(sql.Select, nested), []any{1, 2, 3, 4, 5, 6}},
		{"exists_nested_unions", compile(sql.Exists, nested), []any{1, 2, 3, 4, 5, 6}},
		{"delete_null_match", compile(sql.Delete, data.Matching("NullableColumn", "x")), []any{7, "x"}},
		{"no_parameters", compile(sql.Select, children().Matching("Name", nil)), nil},
		{
			name: "update_mixed_nulls",
			compile: func() (*sql.Statement, error) {
				return sql.CompileUpdate(data,
					sql.Set("ValueColumn", 5),
					sql.Set("NullableColumn", nil),
					sql.Set("AnotherValueColumn", 6),
					sql.Set("NullableValueColumn", (*int)(nil)),
				)
			},
			args: []any{5, 6, 7},
		},
		{
			name: "update_all_nulls",
			compile: func() (*sql.Statement, error) {
				return sql.CompileUpdate(data, sql.Set("NullableColumn", nil))
			},
			args: []any{7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stmt, err := tt.compile()
			require.NoError(t, err)
			found := placeholderRe.FindAllStringSubmatch(stmt.Text, -1)
			require.Len(t, found, len(stmt.Args), stmt.Text)
			for i, m := range found {
				assert.Equal(t, strconv.Itoa(i), m[1], "placeholder %d of %s", i, stmt.Text)
			}
			assert.Equal(t, tt.args, stmt.Args)
		})
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[FakeData]", sql.Quote("FakeData"))
	assert.Equal(t, "[odd]]name]", sql.Quote("odd]name"))
	assert.Equal(t, "@12", sql.Placeholder(12))
	assert.Equal(t, "[dbo].[FakeChildren]", sql.TableName(schema.MustFor[rowtest.FakeChild]()))
}

func TestForm_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "select", sql.Select.String())
	assert.Equal(t, "exists", sql.Exists.String())
	assert.Equal(t, "delete", sql.Delete.String())
	assert.Equal(t, "Form(9)", sql.Form(9).String())
}
