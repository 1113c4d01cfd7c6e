package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
	ErrDuplicate    = errors.New("duplicate record")
	ErrNotPDF       = errors.New("input is not a PDF document")
	ErrTooLarge     = errors.New("file too large")
)

// Error codes carried by AppError.Code.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeFormat     = "FORMAT_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeDuplicate  = "DUPLICATE"
	CodeNotFound   = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FormatError rejects an input before any extraction backend runs.
func FormatError(message string) *AppError {
	return NewAppError(CodeFormat, message, ErrNotPDF)
}

// DatabaseError tags a driver error with ErrDatabase while keeping the
// original error matchable.
func DatabaseError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrDatabase, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func AlreadyExistsError(message string) error {
	return status.Error(codes.AlreadyExists, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// GRPCError maps sentinel errors onto gRPC status codes.
func GRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotPDF), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrTooLarge):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, ErrDuplicate):
		return AlreadyExistsError(err.Error())
	default:
		return InternalError(err.Error())
	}
}
