package webutil

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	msgBadRequest     = "Bad Request"
	msgUnauthorized   = "Unauthorized"
	msgNotFound       = "Resource not found"
	msgInternalServer = "Internal Server Error"
)

// HTTPError carries an HTTP status code and a user-facing message
// alongside an optional underlying cause.
type HTTPError struct {
	cause   error
	Code    int
	Message string
}

func (he *HTTPError) Error() string {
	return he.Message
}

func (he *HTTPError) Unwrap() error {
	return he.cause
}

func newHTTPError(code int, message, fallback string, cause error) *HTTPError {
	if message == "" {
		message = fallback
	}
	if cause == nil {
		cause = errors.New(message)
	}
	return &HTTPError{cause: cause, Code: code, Message: message}
}

func ErrBadRequest(message string) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, msgBadRequest, nil)
}

func ErrBadRequestWrap(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusBadRequest, message, msgBadRequest, cause)
}

func ErrUnauthorized(message string) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, message, msgUnauthorized, nil)
}

func ErrNotFound(message string) *HTTPError {
	return newHTTPError(http.StatusNotFound, message, msgNotFound, nil)
}

// ErrInternalServerWrap keeps the public message generic and folds the
// context message into the wrapped cause, where only logs see it.
func ErrInternalServerWrap(message string, cause error) *HTTPError {
	return newHTTPError(http.StatusInternalServerError, msgInternalServer, msgInternalServer, fmt.Errorf("%s: %w", message, cause))
}
