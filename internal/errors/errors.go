package errors

import "fmt"

// ErrorCode represents a coinwatch error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrProvider       ErrorCode = "PROVIDER_ERROR"  // 502
	ErrStore          ErrorCode = "STORE_ERROR"     // 500
	ErrConfig         ErrorCode = "CONFIG_ERROR"    // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// Error represents a structured error with code, status, and details.
type Error struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an article cannot be found.
// Covers both never-stored and TTL-expired items; the store cannot tell
// them apart.
func NewNotFound(id string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("article not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewProvider creates a 502 error for live provider failures.
func NewProvider(op string, err error) *Error {
	msg := op
	if err != nil {
		msg = fmt.Sprintf("%s: %v", op, err)
	}
	return &Error{
		Code:    ErrProvider,
		Status:  502,
		Message: msg,
		Details: map[string]any{"operation": op},
	}
}

// NewStore creates a 500 error for backend read/write failures.
func NewStore(err error) *Error {
	msg := "store error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrStore,
		Status:  500,
		Message: msg,
	}
}

// NewConfig creates a 500 error for missing or invalid configuration.
// Raised at startup only; the process refuses to serve without it.
func NewConfig(msg string) *Error {
	return &Error{
		Code:    ErrConfig,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an Error with the given code.
func Is(err error, code ErrorCode) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == code
	}
	return false
}
