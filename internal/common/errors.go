package common

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
	CodeValidation        Code = "validation"
	CodeNotFound          Code = "not_found"
	CodeConflict          Code = "conflict"
	CodeRateLimited       Code = "rate_limited"
	CodeDependencyFailure Code = "dependency_failure"
	CodeInternal          Code = "internal"
)

// Error is the single error type crossing service boundaries. Fields carries
// per-field messages for validation failures.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]string
	Err     error
}

func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NewValidationError(message string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// CodeOf returns CodeInternal for errors that did not originate here.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func ErrAuthenticationRequired() *Error {
	return NewError(CodeUnauthorized, "authentication required", nil)
}

func ErrPermissionDenied(message string) *Error {
	return NewError(CodeForbidden, message, nil)
}
