package storm

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for compilation and execution.
var (
	// ErrSchema is returned when declared row metadata is inconsistent,
	// e.g. a relation names a column that its row types do not declare.
	ErrSchema = errors.New("storm: schema error")

	// ErrCompilation is returned when a request is structurally invalid,
	// e.g. a select with no projected columns or a merge without keys.
	ErrCompilation = errors.New("storm: compilation error")

	// ErrUnknownColumn is returned when a predicate, projection or assignment
	// references a column that is not reachable from the target row type.
	ErrUnknownColumn = errors.New("storm: unknown column")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("storm: cannot start a transaction within a transaction")
)

// SchemaError represents an inconsistency in declared row metadata.
type SchemaError struct {
	Type     string // Row type name
	Relation string // Relation path (if applicable)
	Column   string // Column name (if applicable)
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("storm: schema error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Relation != "" {
		b.WriteString(" relation ")
		b.WriteString(e.Relation)
	}
	if e.Column != "" {
		b.WriteString(" column ")
		b.WriteString(e.Column)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrSchema.
func (e *SchemaError) Is(err error) bool {
	return err == ErrSchema
}

// NewSchemaError returns a new SchemaError for the given row type.
func NewSchemaError(typ, message string) *SchemaError {
	return &SchemaError{Type: typ, Message: message}
}

// NewRelationError returns a new SchemaError naming the offending relation.
func NewRelationError(typ, relation, column, message string) *SchemaError {
	return &SchemaError{Type: typ, Relation: relation, Column: column, Message: message}
}

// IsSchemaError returns true if the error is a SchemaError.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaError
	return errors.As(err, &e) || errors.Is(err, ErrSchema)
}

// CompilationError represents a structurally invalid compile request.
type CompilationError struct {
	Op      string // Statement form (e.g., "select", "update", "merge")
	Message string
}

// Error returns the error string.
func (e *CompilationError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("storm: cannot compile %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("storm: cannot compile: %s", e.Message)
}

// Is reports whether the target matches ErrCompilation.
func (e *CompilationError) Is(err error) bool {
	return err == ErrCompilation
}

// NewCompilationError returns a new CompilationError for the given statement form.
func NewCompilationError(op, format string, args ...any) *CompilationError {
	return &CompilationError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsCompilationError returns true if the error is a CompilationError.
func IsCompilationError(err error) bool {
	if err == nil {
		return false
	}
	var e *CompilationError
	return errors.As(err, &e) || errors.Is(err, ErrCompilation)
}

// UnknownColumnError represents a reference to an undeclared column.
type UnknownColumnError struct {
	Type   string
	Column string
}

// Error returns the error string.
func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("storm: unknown column %q on %s", e.Column, e.Type)
}

// Is reports whether the target matches ErrUnknownColumn.
func (e *UnknownColumnError) Is(err error) bool {
	return err == ErrUnknownColumn
}

// NewUnknownColumnError returns a new UnknownColumnError.
func NewUnknownColumnError(typ, column string) *UnknownColumnError {
	return &UnknownColumnError{Type: typ, Column: column}
}

// IsUnknownColumn returns true if the error is an UnknownColumnError.
func IsUnknownColumn(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownColumnError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownColumn)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("storm: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("storm: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "storm: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("storm: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As
// match any of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}

// QueryError wraps a failed read with the row type and statement form.
type QueryError struct {
	Type string // Row type being queried
	Op   string // Operation (e.g., "select", "exists")
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("storm: querying %s (%s): %v", e.Type, e.Op, e.Err)
	}
	return fmt.Sprintf("storm: querying %s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(typ, op string, err error) *QueryError {
	return &QueryError{Type: typ, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a failed write with the row type and statement form.
type MutationError struct {
	Type string // Row type being mutated
	Op   string // Operation (e.g., "merge", "insert", "delete")
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("storm: %s %s: %v", e.Op, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(typ, op string, err error) *MutationError {
	return &MutationError{Type: typ, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
