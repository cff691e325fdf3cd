package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures of the appointment service.
type ErrorCode string

const (
	CodeRemoteUnavailable ErrorCode = "remoteUnavailable"
	CodeNotFound          ErrorCode = "notFound"
	CodeValidation        ErrorCode = "validationError"
	CodeInvalidDate       ErrorCode = "invalidDate"
)

// AppError carries a code, a diagnostic message and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError with the same code, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

var (
	ErrRemoteUnavailable = &AppError{Code: CodeRemoteUnavailable, Message: "document service unavailable"}
	ErrNotFound          = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrValidation        = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidDate       = &AppError{Code: CodeInvalidDate, Message: "invalid date"}
)

func NewRemoteUnavailable(err error, format string, args ...interface{}) error {
	return &AppError{Code: CodeRemoteUnavailable, Message: fmt.Sprintf(format, args...), Err: err}
}

func NewNotFound(format string, args ...interface{}) error {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) error {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidDate(err error, format string, args ...interface{}) error {
	return &AppError{Code: CodeInvalidDate, Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrorCodeOf returns the code of the first AppError in err's chain.
func ErrorCodeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}
