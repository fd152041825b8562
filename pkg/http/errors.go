package http

import (
	"fmt"
	"net/http"
)

// AppError is an error with an HTTP status and a stable machine code.
// The wrapped cause is logged, never serialized.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithError attaches the underlying cause.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestErrorf(format string, a ...interface{}) *AppError {
	return &AppError{
		Code:    "ERR_BAD_REQUEST",
		Message: fmt.Sprintf(format, a...),
		Status:  http.StatusBadRequest,
	}
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return &AppError{
		Code:    "ERR_NOT_FOUND",
		Message: fmt.Sprintf(format, a...),
		Status:  http.StatusNotFound,
	}
}

func InternalErrorf(format string, a ...interface{}) *AppError {
	return &AppError{
		Code:    "ERR_INTERNAL",
		Message: fmt.Sprintf(format, a...),
		Status:  http.StatusInternalServerError,
	}
}
