package storm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storm "github.com/Startitecture/storm-sub007"
)

func TestSchemaError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := storm.NewRelationError("FakeData", "RelatedAlias", "Name", "column is not declared on FakeRelated")
		assert.Equal(t, "storm: schema error on type FakeData relation RelatedAlias column Name: column is not declared on FakeRelated", err.Error())
	})

	t.Run("Cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := &storm.SchemaError{Type: "FakeData", Cause: cause}
		assert.Equal(t, "storm: schema error on type FakeData: boom", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("IsSchemaError", func(t *testing.T) {
		err := storm.NewSchemaError("FakeData", "no columns")
		assert.True(t, errors.Is(err, storm.ErrSchema))
		assert.True(t, storm.IsSchemaError(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, storm.IsSchemaError(storm.ErrSchema))
		assert.False(t, storm.IsSchemaError(errors.New("other error")))
		assert.False(t, storm.IsSchemaError(nil))
	})
}

func TestCompilationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := storm.NewCompilationError("merge", "no key columns")
		assert.Equal(t, "storm: cannot compile merge: no key columns", err.Error())

		err = &storm.CompilationError{Message: "empty"}
		assert.Equal(t, "storm: cannot compile: empty", err.Error())
	})

	t.Run("IsCompilationError", func(t *testing.T) {
		err := storm.NewCompilationError("select", "no columns selected")
		assert.True(t, errors.Is(err, storm.ErrCompilation))
		assert.True(t, storm.IsCompilationError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, storm.IsCompilationError(storm.NewSchemaError("X", "y")))
		assert.False(t, storm.IsCompilationError(nil))
	})
}

func TestUnknownColumnError(t *testing.T) {
	err := storm.NewUnknownColumnError("FakeData", "Missing")
	assert.Equal(t, `storm: unknown column "Missing" on FakeData`, err.Error())
	assert.True(t, errors.Is(err, storm.ErrUnknownColumn))
	assert.True(t, storm.IsUnknownColumn(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, storm.IsUnknownColumn(errors.New("other")))
	assert.False(t, storm.IsUnknownColumn(nil))
}

func TestConstraintError(t *testing.T) {
	cause := errors.New("Violation of PRIMARY KEY constraint")
	err := storm.NewConstraintError("duplicate key", cause)
	assert.Equal(t, "storm: constraint failed: duplicate key", err.Error())
	assert.True(t, storm.IsConstraintError(err))
	assert.True(t, storm.IsConstraintError(fmt.Errorf("wrapper: %w", err)))
	assert.ErrorIs(t, err, cause)
	assert.False(t, storm.IsConstraintError(cause))
	assert.False(t, storm.IsConstraintError(nil))
}

func TestAggregateError(t *testing.T) {
	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, storm.NewAggregateError(nil, nil))
	})

	t.Run("Single", func(t *testing.T) {
		single := errors.New("only")
		assert.Same(t, single, storm.NewAggregateError(nil, single))
	})

	t.Run("Multiple", func(t *testing.T) {
		err := storm.NewAggregateError(
			storm.NewSchemaError("A", "first"),
			storm.NewUnknownColumnError("B", "C"),
		)
		require.Error(t, err)
		assert.Equal(t, "storm: multiple errors:\n  [1] storm: schema error on type A: first\n  [2] storm: unknown column \"C\" on B", err.Error())
		assert.True(t, storm.IsSchemaError(err))
		assert.True(t, storm.IsUnknownColumn(err))
	})
}

func TestQueryAndMutationErrors(t *testing.T) {
	cause := errors.New("timeout")

	qerr := storm.NewQueryError("FakeData", "select", cause)
	assert.Equal(t, "storm: querying FakeData (select): timeout", qerr.Error())
	assert.True(t, storm.IsQueryError(fmt.Errorf("w: %w", qerr)))
	assert.ErrorIs(t, qerr, cause)
	assert.Equal(t, "storm: querying FakeData: timeout", (&storm.QueryError{Type: "FakeData", Err: cause}).Error())

	merr := storm.NewMutationError("FakeChildren", "merge", cause)
	assert.Equal(t, "storm: merge FakeChildren: timeout", merr.Error())
	assert.True(t, storm.IsMutationError(merr))
	assert.False(t, storm.IsMutationError(qerr))
	assert.ErrorIs(t, merr, cause)

	rerr := &storm.RollbackError{Err: cause}
	assert.Equal(t, "storm: rollback failed: timeout", rerr.Error())
	assert.ErrorIs(t, rerr, cause)
}
