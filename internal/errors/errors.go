// Package errors carries a machine-readable code alongside an error so the
// HTTP layer and the CLI can classify failures from any adapter.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes. The API maps them to HTTP status.
const (
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeSourceError   = "SOURCE_ERROR"
)

// AppError is an error with a code. Message is optional context; when it is
// empty the error reads as its cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	switch {
	case e.Cause == nil:
		return e.Message
	case e.Message == "":
		return e.Cause.Error()
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError without a cause.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap adds context to err, keeping its code or marking it internal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: codeOr(err, CodeInternalError), Message: message, Cause: err}
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode sets the code of err without adding text to it.
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{Code: code, Message: appErr.Message, Cause: appErr.Cause}
	}
	return &AppError{Code: code, Cause: err}
}

// IsAppError reports whether err has an AppError in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN".
func GetCode(err error) string {
	return codeOr(err, "UNKNOWN")
}

func codeOr(err error, fallback string) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return fallback
}

func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InvalidInputCause marks err as an input-contract violation.
func InvalidInputCause(err error) error {
	return WithCode(CodeInvalidInput, err)
}

// SourceError wraps a failure to read unit records from an input source.
func SourceError(source string, cause error) *AppError {
	return &AppError{Code: CodeSourceError, Message: "read " + source, Cause: cause}
}

// DatabaseError wraps a failed store operation.
func DatabaseError(op string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: op, Cause: cause}
}
