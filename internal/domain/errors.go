package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying sentinel for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

var (
	ErrInvalidArgument           = errors.New("invalid argument")
	ErrNotFound                  = errors.New("not found")
	ErrInvalidTransition         = errors.New("invalid transition")
	ErrDuplicatePayment          = errors.New("duplicate payment")
	ErrNumberGenerationExhausted = errors.New("number generation exhausted")
)

const (
	ErrCodeInvalidArgument           = "INVALID_ARGUMENT"
	ErrCodeMissingRequiredField      = "MISSING_REQUIRED_FIELD"
	ErrCodeNotFound                  = "NOT_FOUND"
	ErrCodeInvalidTransition         = "INVALID_TRANSITION"
	ErrCodeDuplicatePayment          = "DUPLICATE_PAYMENT"
	ErrCodeNumberGenerationExhausted = "NUMBER_GENERATION_EXHAUSTED"
)

func NewInvalidArgumentError(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrInvalidArgument,
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
		Err:     ErrInvalidArgument,
	}
}

func NewNotFoundError(entity, key string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found with number %s", entity, key),
		Err:     ErrNotFound,
	}
}

func NewInvalidTransitionError(entity string, from, to fmt.Stringer) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewAlreadyPaidError(entity, number string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("%s %s is already paid", entity, number),
		Err:     ErrInvalidTransition,
	}
}

func NewDuplicatePaymentError(orderNumber string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDuplicatePayment,
		Message: fmt.Sprintf("already processed gateway payment with order number %s", orderNumber),
		Err:     ErrDuplicatePayment,
	}
}

func NewNumberGenerationExhaustedError(attempts int) *DomainError {
	return &DomainError{
		Code:    ErrCodeNumberGenerationExhausted,
		Message: fmt.Sprintf("no unique number found after %d attempts", attempts),
		Err:     ErrNumberGenerationExhausted,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
