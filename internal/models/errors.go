package models

import "fmt"

// Application error codes. EnvelopeCode maps them to wire codes.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeGone           = "GONE"
	ErrCodeLocked         = "LOCKED"
	ErrCodeInvalidNesting = "INVALID_NESTING"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeInvalid        = "INVALID"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
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

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewGoneError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeGone,
		Message: fmt.Sprintf("%s with ID %v has been deleted", resource, id),
	}
}

func NewLockedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeLocked,
		Message: message,
	}
}

func NewInvalidNestingError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidNesting,
		Message: message,
	}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// NewInvalidError covers authentication and key validation failures.
func NewInvalidError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalid,
		Message: message,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// EnvelopeCode translates an application error code into the numeric wire
// code carried in the response envelope. The numbers follow HTTP status
// semantics so they double as the response status.
func EnvelopeCode(code string) int {
	switch code {
	case ErrCodeNotFound:
		return 404
	case ErrCodeGone:
		return 410
	case ErrCodeLocked:
		return 423
	case ErrCodeInvalidNesting, ErrCodeValidation:
		return 422
	case ErrCodeRateLimited:
		return 429
	case ErrCodeForbidden:
		return 403
	case ErrCodeConflict:
		return 409
	case ErrCodeInvalid:
		return 401
	default:
		return 500
	}
}
