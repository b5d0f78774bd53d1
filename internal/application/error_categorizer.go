package application

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/lokroom/settlement/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// ErrNotFound is returned by repositories when the requested row does
// not exist.
var ErrNotFound = errors.New("not found")

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	// Context Errors (Transient - network/timeout issues)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	// Domain Errors (Business Rules)
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeInvalidPolicyTag,
			domain.ErrCodeInvalidAmount,
			domain.ErrCodeMissingRequiredField,
			domain.ErrCodeInvalidDateRange,
			domain.ErrCodeInvalidReason:
			return CategoryClientError
		case domain.ErrCodeConcurrentModification:
			return CategoryTransient
		default:
			return CategoryBusinessRule
		}
	}

	if errors.Is(err, ErrNotFound) {
		return CategoryClientError
	}

	// Service/Application Errors
	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeIdempotencyMismatch, ErrCodeInvalidInput:
			return CategoryClientError
		case ErrCodeInternal:
			return CategoryInfrastructure
		case ErrCodeRequestProcessing, ErrCodeTimeout, ErrCodeBookingLocked:
			return CategoryTransient
		case ErrCodeInvalidState:
			return CategoryBusinessRule
		}
	}

	// Provider Errors (External API)
	if provErr, ok := IsProviderError(err); ok {
		if provErr.StatusCode >= 500 {
			return CategoryTransient
		}

		switch provErr.Code {
		// PERMANENT: the refund can never succeed as requested
		case "capture_not_refundable",
			"already_refunded",
			"refund_exceeds_capture",
			"invalid_amount",
			"currency_mismatch":
			return CategoryPermanent

		// CLIENT_ERROR: missing or unknown references
		case "capture_not_found",
			"refund_not_found",
			"not_found",
			"missing_idempotency_key":
			return CategoryClientError

		// TRANSIENT: provider-side hiccups
		case "internal_error", "rate_limited":
			return CategoryTransient

		default:
			return CategoryPermanent
		}
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case domain.ErrCodeInvalidPolicyTag,
			domain.ErrCodeInvalidAmount,
			domain.ErrCodeMissingRequiredField,
			domain.ErrCodeInvalidDateRange,
			domain.ErrCodeInvalidReason:
			return http.StatusBadRequest
		case domain.ErrCodeClaimExceedsBookingTotal,
			domain.ErrCodeRefundExceedsBookingTotal:
			return http.StatusUnprocessableEntity
		default:
			// Transition, hold and concurrency violations are conflicts.
			return http.StatusConflict
		}
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if provErr, ok := IsProviderError(err); ok {
		return provErr.StatusCode
	}

	// Default to 500
	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	if errors.Is(err, ErrNotFound) {
		return "NOT_FOUND"
	}

	if provErr, ok := IsProviderError(err); ok {
		return strings.ToUpper(provErr.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "TIMEOUT"
	}

	return "INTERNAL_ERROR"
}
