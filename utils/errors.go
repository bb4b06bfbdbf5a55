package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the stable category reported to callers.
type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION_ERROR"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindConflict         ErrorKind = "CONFLICT"
	KindCapacityExceeded ErrorKind = "CAPACITY_EXCEEDED"
	KindAlreadyDeleted   ErrorKind = "ALREADY_DELETED"
	KindUnauthorized     ErrorKind = "UNAUTHORIZED"
	KindPermissionDenied ErrorKind = "PERMISSION_DENIED"
	KindTransient        ErrorKind = "TRANSIENT_STORE_ERROR"
	KindInternal         ErrorKind = "INTERNAL_ERROR"
)

// AppError carries a category, a human readable message and, for enumeration
// failures, the accepted values.
type AppError struct {
	Kind    ErrorKind
	Message string
	Allowed []string
	Err     error
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

// Retryable reports whether the whole operation may be attempted again.
func (e *AppError) Retryable() bool {
	return e.Kind == KindTransient
}

func ErrValidation(message string, allowed ...string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Allowed: allowed}
}

func ErrNotFound(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func ErrConflict(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func ErrCapacityExceeded(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindCapacityExceeded, Message: fmt.Sprintf(format, args...)}
}

func ErrAlreadyDeleted(format string, args ...interface{}) *AppError {
	return &AppError{Kind: KindAlreadyDeleted, Message: fmt.Sprintf(format, args...)}
}

func ErrUnauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func ErrPermissionDenied(message string) *AppError {
	return &AppError{Kind: KindPermissionDenied, Message: message}
}

func ErrTransient(message string, err error) *AppError {
	return &AppError{Kind: KindTransient, Message: message, Err: err}
}

func ErrInternal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the category of err; anything that is not an AppError is internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsConflict is true for every state precondition failure, capacity included.
func IsConflict(err error) bool {
	kind := KindOf(err)
	return kind == KindConflict || kind == KindCapacityExceeded
}

// AsAppError wraps unknown errors as internal so callers always get a category.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternal("unexpected error", err)
}

// HTTPStatus maps a category to its response code.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindAlreadyDeleted:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindCapacityExceeded:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
