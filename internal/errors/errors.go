package errors

import (
	"errors"
	"net/http"
)

// Kind sentinels. Every domain error wraps exactly one of them.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a domain error carrying a stable client facing message and code.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// New creates a domain error of the given kind.
func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func BadRequest(code, message string) *Error   { return New(ErrBadRequest, code, message) }
func Unauthorized(code, message string) *Error { return New(ErrUnauthorized, code, message) }
func Forbidden(code, message string) *Error    { return New(ErrForbidden, code, message) }
func NotFound(code, message string) *Error     { return New(ErrNotFound, code, message) }
func Conflict(code, message string) *Error     { return New(ErrConflict, code, message) }

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Anything that is not a domain error becomes a generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	var domainErr *Error
	if !errors.As(err, &domainErr) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	switch {
	case errors.Is(domainErr, ErrBadRequest):
		return NewHTTPError(http.StatusBadRequest, domainErr.Message, domainErr.Code)
	case errors.Is(domainErr, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, domainErr.Message, domainErr.Code)
	case errors.Is(domainErr, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, domainErr.Message, domainErr.Code)
	case errors.Is(domainErr, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, domainErr.Message, domainErr.Code)
	case errors.Is(domainErr, ErrConflict):
		return NewHTTPError(http.StatusConflict, domainErr.Message, domainErr.Code)
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
