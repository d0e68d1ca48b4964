package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema indicates a row declaration that cannot be generated.
	ErrInvalidSchema = errors.New("stormgen: invalid schema")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("stormgen: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("stormgen: code generation failed")
)

// SchemaError reports a row declaration that cannot be generated.
type SchemaError struct {
	File    string // schema file, when the error was found while loading it
	Type    string
	Column  string
	Message string
	Cause   error
}

// Error formats the error as "stormgen: <file>: row <type> column <column>: <message>: <cause>",
// leaving out the parts that are not set.
func (e *SchemaError) Error() string {
	parts := []string{"stormgen"}
	if e.File != "" {
		parts = append(parts, e.File)
	}
	if e.Type != "" {
		row := "row " + e.Type
		if e.Column != "" {
			row += " column " + e.Column
		}
		parts = append(parts, row)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is matches ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// ConfigError reports an invalid or missing command-line option.
type ConfigError struct {
	Option  string // flag name without dashes
	Value   any
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("stormgen: --%s=%v: %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("stormgen: --%s: %s", e.Option, e.Message)
}

// Is matches ErrMissingConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// GenerationError reports a failure to render or write generated code.
type GenerationError struct {
	Op    string // render, create directory or write
	File  string
	Cause error
}

func (e *GenerationError) Error() string {
	msg := "stormgen: " + e.Op
	if e.File != "" {
		msg += " " + e.File
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
