package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStructural represents hard verification failures
	ErrorTypeStructural ErrorType = "structural"
	// ErrorTypeSoft represents escalatable verification failures
	ErrorTypeSoft ErrorType = "soft"
	// ErrorTypeInput represents malformed chart input
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrorType reports the category of the error
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Verification Errors

// StructuralViolation is a hard failure that stops the verification run.
// Names lists the offending persons; Detail carries shared text or counts.
type StructuralViolation struct {
	*BaseError
	Check  string
	Names  []string
	Detail string
}

func NewStructuralViolation(check, message string, names ...string) *StructuralViolation {
	return &StructuralViolation{
		BaseError: NewBaseError(ErrorTypeStructural, message, nil),
		Check:     check,
		Names:     names,
	}
}

// WithDetail attaches extra context, such as a shared description.
func (e *StructuralViolation) WithDetail(detail string) *StructuralViolation {
	e.Detail = detail
	return e
}

// Error renders the check name before the message so the failing invariant is
// visible without unwrapping.
func (e *StructuralViolation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", e.Type, e.Check, e.Message)
	if e.Detail != "" {
		fmt.Fprintf(&b, "\n    %s", e.Detail)
	}
	return b.String()
}

// SoftViolation is a failure that is only fatal when escalation is enabled
type SoftViolation struct {
	*BaseError
	Check string
	Name  string
}

func NewSoftViolation(check, message, name string) *SoftViolation {
	return &SoftViolation{
		BaseError: NewBaseError(ErrorTypeSoft, message, nil),
		Check:     check,
		Name:      name,
	}
}

// Escalate promotes a soft violation into a hard one wrapping it.
func (e *SoftViolation) Escalate() *StructuralViolation {
	v := NewStructuralViolation(e.Check, e.Message, e.Name)
	v.Err = e
	return v
}

// Input Errors

// InputError is returned when a chart cannot be decoded into a graph
type InputError struct {
	*BaseError
	Source string
}

func NewInputError(source, reason string, err error) *InputError {
	return &InputError{
		BaseError: NewBaseError(ErrorTypeInput, fmt.Sprintf("invalid chart %s: %s", source, reason), err),
		Source:    source,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

type typed interface {
	ErrorType() ErrorType
}

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if t, ok := err.(typed); ok && t.ErrorType() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// AsStructuralViolation extracts the hard failure from an error chain
func AsStructuralViolation(err error) (*StructuralViolation, bool) {
	var v *StructuralViolation
	if stderrors.As(err, &v) {
		return v, true
	}
	return nil, false
}
