package sql_test

import (
	"context"
	stdsql "database/sql"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storm "github.com/Startitecture/storm-sub007"
	"github.com/Startitecture/storm-sub007/dialect"
	"github.com/Startitecture/storm-sub007/dialect/sql"
	"github.com/Startitecture/storm-sub007/internal/rowtest"
	"github.com/Startitecture/storm-sub007/schema"
)

func TestDefaultBulkParameter(t *testing.T) {
	t.Parallel()
	p := sql.DefaultBulkParameter(schema.MustFor[rowtest.FakeChild]())
	assert.Equal(t, "FakeChildRows", p.Name)
	assert.Equal(t, "@FakeChildRows", p.Placeholder())
	assert.Equal(t, "[dbo].[FakeChildTableType]", p.QualifiedType())
	require.Len(t, p.Columns, 4)
	assert.Equal(t, "FakeChildId", p.Columns[0].Name)

	tests := map[string]string{
		"FakeRelated":  "FakeRelatedRows",
		"Orders":       "OrderRows",
		"PersonPeople": "PersonPersonRows",
		"audit":        "AuditRows",
	}
	for table, want := range tests {
		d, err := schema.New(table, schema.Table{Schema: "dbo"}, []*schema.Column{{Name: "Id", Type: schema.TypeInt, Key: true}}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, sql.DefaultBulkParameter(d).Name, table)
	}
}

func TestMergeInto(t *testing.T) {
	t.Parallel()
	target := schema.MustFor[rowtest.FakeChild]()

	t.Run("results", func(t *testing.T) {
		stmt, err := sql.MergeInto(target, "ParentId", "Ordinal").
			DeleteUnmatchedInSource("ParentId").
			SelectResults("FakeChildId", "ParentId", "Ordinal").
			Compile()
		require.NoError(t, err)
		golden(t).Assert(t, "merge_children", []byte(stmt.Text))
		require.Len(t, stmt.Results, 3)
		assert.Equal(t, "FakeChildren", target.Table)
	})

	t.Run("no_results", func(t *testing.T) {
		stmt, err := sql.MergeInto(target, "ParentId", "Ordinal").Compile()
		require.NoError(t, err)
		golden(t).Assert(t, "merge_no_results", []byte(stmt.Text))
		require.Len(t, stmt.Results, 3)
		assert.Equal(t, "FakeChildId", stmt.Results[0].Name)
	})

	t.Run("scope_delete", func(t *testing.T) {
		stmt, err := sql.MergeInto(target, "FakeChildId").DeleteUnmatchedInSource("ParentId").Compile()
		require.NoError(t, err)
		golden(t).Assert(t, "merge_scope_delete", []byte(stmt.Text))
		assert.Equal(t, 1, strings.Count(stmt.Text, "MERGE "))
		assert.Equal(t, 1, strings.Count(stmt.Text, "DECLARE @inserted TABLE"))
		assert.Equal(t, 1, strings.Count(stmt.Text, "INTO @inserted"))
		assert.True(t, strings.HasSuffix(stmt.Text, "INNER JOIN @FakeChildRows AS tvp ON i.[FakeChildId] = tvp.[FakeChildId];"))
		require.Len(t, stmt.Results, 1)
		require.Len(t, stmt.Keys, 1)
		assert.Same(t, stmt.Keys[0], stmt.Results[0])
	})

	t.Run("results_copied", func(t *testing.T) {
		cols := []string{"FakeChildId", "Name"}
		cmd := sql.MergeInto(target, "ParentId", "Ordinal").SelectResults(cols...)
		cols[1] = "Missing"
		stmt, err := cmd.Compile()
		require.NoError(t, err)
		assert.Contains(t, stmt.Text, "SELECT i.[FakeChildId], tvp.[Name]\n")
	})

	t.Run("source_columns", func(t *testing.T) {
		stmt, err := sql.MergeInto(target, "ParentId", "Ordinal").SelectResults("FakeChildId", "Name").Compile()
		require.NoError(t, err)
		assert.Contains(t, stmt.Text, "SELECT i.[FakeChildId], tvp.[Name]\n")
	})

	t.Run("keys_only", func(t *testing.T) {
		p := sql.DefaultBulkParameter(target)
		p.Columns = p.Columns[:3]
		stmt, err := sql.MergeInto(target, "ParentId", "Ordinal").From(p).Compile()
		require.NoError(t, err)
		assert.NotContains(t, stmt.Text, "WHEN MATCHED")
		assert.Contains(t, stmt.Text, "INSERT ([ParentId], [Ordinal])\n")
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name  string
			cmd   *sql.MergeCommand
			check func(error) bool
		}{
			{"no_keys", sql.MergeInto(target), storm.IsCompilationError},
			{"nil_target", sql.MergeInto(nil, "Id"), storm.IsCompilationError},
			{"unknown_key", sql.MergeInto(target, "Missing"), storm.IsSchemaError},
			{"unknown_scope", sql.MergeInto(target, "ParentId").DeleteUnmatchedInSource("Missing"), storm.IsUnknownColumn},
			{"unknown_result", sql.MergeInto(target, "ParentId").SelectResults("Missing"), storm.IsUnknownColumn},
		}
		for _, tt := range tests {
			_, err := tt.cmd.Compile()
			require.Error(t, err, tt.name)
			assert.True(t, tt.check(err), tt.name)
		}
	})
}

func TestInsertInto(t *testing.T) {
	t.Parallel()
	target := schema.MustFor[rowtest.FakeChild]()
	stmt, err := sql.InsertInto(target).SelectResults("FakeChildId", "ParentId", "Ordinal").Compile()
	require.NoError(t, err)
	golden(t).Assert(t, "insert_children", []byte(stmt.Text))

	stmt, err = sql.InsertInto(target).Compile()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO [dbo].[FakeChildren] ([ParentId], [Ordinal], [Name])\nSELECT [ParentId], [Ordinal], [Name] FROM @FakeChildRows;", stmt.Text)

	cols := []string{"FakeChildId"}
	cmd := sql.InsertInto(target).SelectResults(cols...)
	cols[0] = "Missing"
	stmt, err = cmd.Compile()
	require.NoError(t, err)
	require.Len(t, stmt.Results, 1)
	assert.Equal(t, "FakeChildId", stmt.Results[0].Name)

	_, err = sql.InsertInto(target).SelectResults("Missing").Compile()
	assert.True(t, storm.IsUnknownColumn(err))
	_, err = sql.InsertInto(nil).Compile()
	assert.True(t, storm.IsCompilationError(err))
}

func TestBulkStatement_Args(t *testing.T) {
	t.Parallel()
	stmt, err := sql.InsertInto(schema.MustFor[rowtest.FakeChild]()).Compile()
	require.NoError(t, err)
	rows := []schema.Row{
		rowtest.FakeChild{ParentId: 1, Ordinal: 1, Name: "a"},
		rowtest.FakeChild{ParentId: 1, Ordinal: 2, Name: "b"},
	}
	args, err := stmt.Args(rows)
	require.NoError(t, err)
	require.Len(t, args, 1)
	named, ok := args[0].(stdsql.NamedArg)
	require.True(t, ok)
	assert.Equal(t, "FakeChildRows", named.Name)
	b := named.Value.(sql.BulkRows)
	assert.Equal(t, "[dbo].[FakeChildTableType]", b.TypeName)
	assert.Equal(t, []string{"FakeChildId", "ParentId", "Ordinal", "Name"}, b.Columns)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []any{0, 1, 2, "b"}, b.Rows[1])

	_, err = stmt.Args([]schema.Row{schema.Values{"ParentId": 1}})
	assert.True(t, storm.IsUnknownColumn(err))
}

func TestReadResults(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := sql.OpenDB(dialect.SQLServer, db)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"FakeChildId", "ParentId", "Ordinal"}).
		AddRow(10, 1, 2).
		AddRow(11, 1, 1)).
		RowsWillBeClosed()
	rows := &sql.Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT", []any{}, rows))
	results, err := sql.ReadResults(rows, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []any{11, 1, 1}, results[1])
	require.NoError(t, mock.ExpectationsWereMet())
}
