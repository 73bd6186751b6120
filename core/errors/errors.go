// Package errors provides standardized error types and helpers for the
// Vellum codebase.
//
// The fatal error types here are the counterpart of the fidelity warning:
// malformed input and broken invariants fail hard with one of these,
// while anything merely lossy accumulates as a warning on the conversion
// result instead.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrMalformed indicates input that violates the source format's grammar
	ErrMalformed = errors.New("malformed input")
	// ErrInvalidInput indicates invalid input or a violated precondition
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrUnsupported indicates an unsupported operation or format
	ErrUnsupported = errors.New("unsupported")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// ParseError is the reader-side fatal error: the input violates the
// source format's grammar and no document can be produced. Lossy but
// parseable input never raises one; it warns instead.
type ParseError struct {
	Format  string // Format being parsed (e.g., "markdown", "bibtex")
	Line    int    // 1-based input line, 0 when unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformed
}

// EmitError is the writer-side fatal error: an unrecoverable encoding
// or invariant failure during serialization. A feature the target
// cannot carry is a warning, not an EmitError.
type EmitError struct {
	Format  string // Format being emitted (e.g., "epub", "latex")
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("failed to emit %s: %s", e.Format, e.Message)
}

func (e *EmitError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInternal
}

// TransformError is the pipeline-side fatal error: a transform's
// precondition was violated. It aborts the remaining pipeline.
type TransformError struct {
	Transform string // Name of the failing transform
	Message   string // Error details
	Err       error  // Underlying error, if any
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s failed: %s", e.Transform, e.Message)
}

func (e *TransformError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NotFoundError represents a missing resource with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "reader", "writer", "resource")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Helper functions for creating common errors

// NewParse creates a ParseError without line information
func NewParse(format, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Message: message,
	}
}

// NewParseAt creates a ParseError at a specific input line
func NewParseAt(format string, line int, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Line:    line,
		Message: message,
	}
}

// NewEmit creates an EmitError
func NewEmit(format, message string) *EmitError {
	return &EmitError{
		Format:  format,
		Message: message,
	}
}

// NewTransform creates a TransformError
func NewTransform(transform, message string) *TransformError {
	return &TransformError{
		Transform: transform,
		Message:   message,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
