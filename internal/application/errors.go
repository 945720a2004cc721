package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeDuplicatePayment  = "DUPLICATE_PAYMENT"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeDispatchFailed    = "DISPATCH_FAILED"
)

func NewInvalidArgumentError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidArgument,
		Message:    "Invalid argument",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFoundError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    "Not found",
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func NewInvalidTransitionError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidTransition,
		Message:    "Invalid transition",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewDuplicatePaymentError marks a redelivered postback. Callers treat it as already handled.
func NewDuplicatePaymentError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeDuplicatePayment,
		Message:    "Payment already processed",
		HTTPStatus: http.StatusOK,
		Err:        err,
	}
}

// NewInternalError hides the cause behind one opaque category; the cause is only for logs.
func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDispatchError reports a side effect that failed after reconciliation was committed.
func NewDispatchError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeDispatchFailed,
		Message:    "Reconciliation committed but side effect dispatch failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// TranslateError maps domain failures onto the service taxonomy.
// Anything not recognised is an internal fault.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := IsServiceError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrDuplicatePayment):
		return NewDuplicatePaymentError(err)
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(err)
	case errors.Is(err, domain.ErrInvalidTransition):
		return NewInvalidTransitionError(err)
	case errors.Is(err, domain.ErrInvalidArgument):
		return NewInvalidArgumentError(err)
	default:
		return NewInternalError(err)
	}
}

func IsDuplicatePayment(err error) bool {
	svcErr, ok := IsServiceError(err)
	return ok && svcErr.Code == ErrCodeDuplicatePayment
}

func IsDispatchFailure(err error) bool {
	svcErr, ok := IsServiceError(err)
	return ok && svcErr.Code == ErrCodeDispatchFailed
}
