package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the application error taxonomy. Business-rule violations carry a
// stable machine-readable Code so clients can act on them; anything that is
// not an *Error is surfaced as a generic 500.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Validation(code, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message}
}

func Unauthenticated() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "AUTHENTICATION_REQUIRED", Message: "authentication required"}
}

func Forbidden(code, message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: code, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Message: message}
}

func Upstream(message string) *Error {
	return &Error{Status: http.StatusBadGateway, Code: "UPSTREAM_FAILURE", Message: message}
}

// AsError unwraps err into an *Error, or nil when err is not one.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
