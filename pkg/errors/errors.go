package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Only the code
// and message cross the wire; the status and wrapped cause stay server-side.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined error kinds matching the API's error vocabulary.
var (
	ErrNotFound       = New("NotFound", http.StatusNotFound, "resource not found")
	ErrAuthentication = New("AuthenticationError", http.StatusUnauthorized, "authentication required")
	ErrAuthorization  = New("AuthorizationError", http.StatusForbidden, "access denied, insufficient permission")
	ErrValidation     = New("ValidationError", http.StatusBadRequest, "validation failed")
	ErrBadRequest     = New("BadRequest", http.StatusBadRequest, "bad request")
	ErrServer         = New("ServerError", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrServer.Code, ErrServer.Status, ErrServer.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithStatus returns a copy of the error carrying a different HTTP status.
// Used where the same kind maps to 401 in one flow and 403 in another.
func WithStatus(err *Error, status int) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Status = status
	return &clone
}
