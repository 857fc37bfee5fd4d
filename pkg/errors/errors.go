package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies coordinator errors for the transport boundary.
type ErrorCode string

const (
	ErrCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrCodeNotOwner         ErrorCode = "NOT_OWNER"
	ErrCodeAccessDenied     ErrorCode = "ACCESS_DENIED"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"
	ErrCodePaymentFailed    ErrorCode = "PAYMENT_FAILED"
	ErrCodeRecordingFailure ErrorCode = "RECORDING_FAILURE"
	ErrCodeUploadFailure    ErrorCode = "UPLOAD_FAILURE"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// AppError carries a code, an HTTP status for the REST boundary and the
// underlying cause.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap attaches a cause to an AppError.
func Wrap(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Cause: err}
}

func NewUnauthenticated(message string) *AppError {
	return New(ErrCodeUnauthenticated, message, http.StatusUnauthorized)
}

func NewPermissionDenied(message string) *AppError {
	return New(ErrCodePermissionDenied, message, http.StatusForbidden)
}

func NewNotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewInvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewInvalidState(message string) *AppError {
	return New(ErrCodeInvalidState, message, http.StatusConflict)
}

func NewRateLimited() *AppError {
	return New(ErrCodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewPaymentFailed(message string) *AppError {
	return New(ErrCodePaymentFailed, message, http.StatusPaymentRequired)
}

func NewInternal(message string) *AppError {
	return New(ErrCodeInternal, message, http.StatusInternalServerError)
}

// GetAppError extracts an AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
