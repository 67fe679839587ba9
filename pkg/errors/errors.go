package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrReadingNotFound           = errors.New("reading not found")
	ErrInvalidPaymentAmount      = errors.New("invalid payment amount")
	ErrPaymentExceedsOutstanding = errors.New("payment amount exceeds outstanding balance")
	ErrInvalidPaymentStatus      = errors.New("invalid payment status")
	ErrUpstreamUnavailable       = errors.New("upstream request failed")
	ErrSnapshotNotLoaded         = errors.New("snapshot not loaded")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeReadingNotFound           = "READING_NOT_FOUND"
	ErrCodeInvalidPaymentAmount      = "INVALID_PAYMENT_AMOUNT"
	ErrCodePaymentExceedsOutstanding = "PAYMENT_EXCEEDS_OUTSTANDING"
	ErrCodeInvalidPaymentStatus      = "INVALID_PAYMENT_STATUS"
	ErrCodeUpstreamError             = "UPSTREAM_ERROR"
	ErrCodeCacheError                = "CACHE_ERROR"
	ErrCodeSnapshotNotLoaded         = "SNAPSHOT_NOT_LOADED"
)

// Wrap common errors with business context

func WrapReadingNotFound(readingID string) *BusinessError {
	return NewBusinessError(
		ErrCodeReadingNotFound,
		fmt.Sprintf("Reading with ID %s not found", readingID),
		ErrReadingNotFound,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapPaymentExceedsOutstanding(amount, outstanding string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentExceedsOutstanding,
		fmt.Sprintf("Payment amount %s exceeds outstanding balance %s", amount, outstanding),
		ErrPaymentExceedsOutstanding,
	)
}

func WrapInvalidPaymentStatus(status string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentStatus,
		fmt.Sprintf("Invalid payment status: %s", status),
		ErrInvalidPaymentStatus,
	)
}

func WrapUpstreamError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeUpstreamError,
		"upstream operation failed",
		errors.Join(ErrUpstreamUnavailable, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
