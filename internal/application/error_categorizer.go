package application

import (
	"context"
	"errors"
	"net/http"
)

// ErrorCategory represents the nature of an error for logging and alerting
type ErrorCategory string

const (
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryBenign         ErrorCategory = "BENIGN"
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeInvalidArgument, ErrCodeNotFound:
			return CategoryClientError
		case ErrCodeInvalidTransition:
			return CategoryBusinessRule
		case ErrCodeDuplicatePayment:
			return CategoryBenign
		}
	}

	return CategoryInfrastructure
}

// ShouldAlert is true for faults monitoring must page on.
func ShouldAlert(err error) bool {
	return CategorizeError(err) == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	return ErrCodeInternal
}

// ToErrorMessage returns what may be shown to callers. Internal causes stay in the logs.
func ToErrorMessage(err error) string {
	svcErr, ok := IsServiceError(err)
	if !ok {
		return "An internal error occurred"
	}
	switch svcErr.Code {
	case ErrCodeInternal, ErrCodeDispatchFailed:
		return svcErr.Message
	}
	return svcErr.Error()
}
