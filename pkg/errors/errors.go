package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrInternal
)

// Reason is a machine-readable rejection reason carried alongside the code.
type Reason string

const (
	ReasonPast          Reason = "PAST"
	ReasonTooFar        Reason = "TOO_FAR"
	ReasonSelfBooking   Reason = "SELF_BOOKING"
	ReasonBadTimestamp  Reason = "BAD_TIMESTAMP"
	ReasonInvalidAction Reason = "INVALID_ACTION"
	ReasonForbidden     Reason = "FORBIDDEN"
	ReasonNotFound      Reason = "NOT_FOUND"
	ReasonConflict      Reason = "SCHEDULING_CONFLICT"
)

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Reason  Reason    `json:"reason,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
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

// Error constructors
func NewValidation(reason Reason, message string) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Reason:  reason,
		Message: message,
	}
}

func NewConflict(message string) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Reason:  ReasonConflict,
		Message: message,
	}
}

func NewAction(reason Reason, message string) *AppError {
	code := ErrBadRequest
	switch reason {
	case ReasonForbidden:
		code = ErrForbidden
	case ReasonNotFound:
		code = ErrNotFound
	}
	return &AppError{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Reason:  ReasonNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasReason reports whether err carries the given rejection reason.
func HasReason(err error, reason Reason) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Reason == reason
	}
	return false
}
