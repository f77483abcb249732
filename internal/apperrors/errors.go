package apperrors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable machine-readable kind carried in error payloads.
type ErrorCode string

const (
	// Authentication and authorization
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeAccountDeactivated ErrorCode = "ACCOUNT_DEACTIVATED"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	CodeUnsupportedType  ErrorCode = "UNSUPPORTED_TYPE"
	CodeTooLarge         ErrorCode = "TOO_LARGE"

	// Resources
	CodeNotFound ErrorCode = "NOT_FOUND"
	CodeGone     ErrorCode = "GONE"
	CodeConflict ErrorCode = "CONFLICT"

	// Public links
	CodeInvalidLinkPassword ErrorCode = "INVALID_LINK_PASSWORD"

	// System
	CodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// AppError is the application error type. HTTPCode and the wrapped cause are
// never serialized.
type AppError struct {
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Err      error     `json:"-"`
	HTTPCode int       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, HTTPCode: httpCode}
}

func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, HTTPCode: httpCode}
}

// InternalError wraps an unexpected failure. The cause stays server-side.
func InternalError(err error) *AppError {
	return Wrap(err, CodeInternal, "Internal server error", http.StatusInternalServerError)
}

// ValidationError reports a malformed input field.
func ValidationError(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

// NotFound builds a resource-absent error with a caller-facing message.
func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// Gone reports a link that exists but is permanently unusable.
func Gone(message string) *AppError {
	return New(CodeGone, message, http.StatusGone)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// Forbidden reports an authenticated caller without permission.
func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

// Predefined errors shared across services.
var (
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrAccountDeactivated = New(CodeAccountDeactivated, "Account is deactivated", http.StatusForbidden)
	ErrUnauthenticated    = New(CodeUnauthenticated, "Invalid or expired token", http.StatusUnauthorized)
	ErrWeakPassword       = New(CodeWeakPassword, "Password must be at least 6 characters long", http.StatusBadRequest)
	ErrInvalidEmail       = New(CodeInvalidEmail, "Invalid email format", http.StatusBadRequest)
	ErrEmailExists        = New(CodeConflict, "Email already registered", http.StatusConflict)
	ErrInvalidLinkPass    = New(CodeInvalidLinkPassword, "Invalid password", http.StatusUnauthorized)
)

// Is reports whether err matches target, following wrapped causes.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// From extracts an *AppError from err, or nil if it is not one.
func From(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}
