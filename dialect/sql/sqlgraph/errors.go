package sqlgraph

import (
	"errors"
	"strings"

	storm "github.com/Startitecture/storm-sub007"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return storm.IsConstraintError(err) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// WrapConstraintError wraps constraint violations in a storm.ConstraintError
// and returns other errors unchanged.
func WrapConstraintError(err error) error {
	if err == nil || storm.IsConstraintError(err) || !IsConstraintError(err) {
		return err
	}
	return storm.NewConstraintError(err.Error(), err)
}

// errorNumberer is an interface for database errors that provide numeric error codes.
// Implemented by: mssql.Error (github.com/microsoft/go-mssqldb).
type errorNumberer interface {
	SQLErrorNumber() int32
}

// SQL Server error numbers for constraint violations.
const (
	mssqlUniqueConstraint = 2627 // Violation of PRIMARY KEY or UNIQUE KEY constraint
	mssqlUniqueIndex      = 2601 // Cannot insert duplicate key row with unique index
	mssqlConstraintFailed = 547  // Statement conflicted with a FOREIGN KEY or CHECK constraint
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}

	if e, ok := asError[errorNumberer](err); ok {
		if n := e.SQLErrorNumber(); n == mssqlUniqueConstraint || n == mssqlUniqueIndex {
			return true
		}
	}

	// Fallback to string matching for drivers that don't implement interfaces
	return containsAny(err.Error(),
		"Violation of PRIMARY KEY constraint",
		"Violation of UNIQUE KEY constraint",
		"Cannot insert duplicate key row",
		"UNIQUE constraint failed", // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}

	// Error 547 covers both foreign key and check constraints; the message names which.
	if e, ok := asError[errorNumberer](err); ok && e.SQLErrorNumber() == mssqlConstraintFailed {
		return containsAny(err.Error(), "FOREIGN KEY", "REFERENCE")
	}

	return containsAny(err.Error(),
		"conflicted with the FOREIGN KEY constraint",
		"conflicted with the REFERENCE constraint",
		"FOREIGN KEY constraint failed", // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}

	if e, ok := asError[errorNumberer](err); ok && e.SQLErrorNumber() == mssqlConstraintFailed {
		return strings.Contains(err.Error(), "CHECK")
	}

	return containsAny(err.Error(),
		"conflicted with the CHECK constraint",
		"CHECK constraint failed", // SQLite
	)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
