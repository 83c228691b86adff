package errors

import "fmt"

// Kind enumerates the error taxonomy exposed at the HTTP boundary.
type Kind string

const (
	ValidationError     Kind = "VALIDATION_ERROR"
	NotFoundError       Kind = "NOT_FOUND"
	SchemaErrorKind     Kind = "SCHEMA_ERROR"
	ConflictError       Kind = "CONFLICT"
	ServiceUnavailable  Kind = "SERVICE_UNAVAILABLE"
	InternalError       Kind = "INTERNAL_ERROR"
	GraphStoreErrorKind Kind = "GRAPH_STORE_ERROR"
)

// DomainError is the single error type crossing every service boundary in
// this repository. It carries a taxonomy Kind, a human message, optional
// structured detail, and a precomputed HTTP status.
type DomainError struct {
	Kind       Kind
	Message    string
	Details    map[string]interface{}
	Cause      error
	StatusCode int
}

func New(kind Kind, message string) *DomainError {
	return &DomainError{
		Kind:       kind,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: statusCodeFor(kind),
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error { return e.Cause }

func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

func statusCodeFor(kind Kind) int {
	switch kind {
	case ValidationError, SchemaErrorKind:
		return 400
	case NotFoundError:
		return 404
	case ConflictError:
		return 409
	case ServiceUnavailable, GraphStoreErrorKind:
		return 503
	default:
		return 500
	}
}

// Helpers for constructing each error kind.

func NotFound(message string) *DomainError    { return New(NotFoundError, message) }
func Validation(message string) *DomainError  { return New(ValidationError, message) }
func Schema(message string) *DomainError      { return New(SchemaErrorKind, message) }
func Conflict(message string) *DomainError    { return New(ConflictError, message) }
func Unavailable(message string) *DomainError { return New(ServiceUnavailable, message) }
func Internal(message string) *DomainError    { return New(InternalError, message) }
func GraphStore(message string) *DomainError  { return New(GraphStoreErrorKind, message) }

// As extracts a *DomainError from err, wrapping it as InternalError if it is
// not already one — every outward-facing path funnels through here so a
// stray stdlib error never reaches the HTTP layer untyped.
func As(err error) *DomainError {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DomainError); ok {
		return de
	}
	return Internal(err.Error()).WithCause(err)
}
