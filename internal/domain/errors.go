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
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain error codes
const (
	ErrCodeInvalidPolicyTag          = "INVALID_POLICY_TAG"
	ErrCodeInvalidTransition         = "INVALID_TRANSITION"
	ErrCodeInvalidAmount             = "INVALID_AMOUNT"
	ErrCodeMissingRequiredField      = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidDateRange          = "INVALID_DATE_RANGE"
	ErrCodeInvalidReason             = "INVALID_REASON"
	ErrCodeDisputeAlreadyExists      = "DISPUTE_ALREADY_EXISTS"
	ErrCodeDisputeClosed             = "DISPUTE_CLOSED"
	ErrCodeClaimExceedsBookingTotal  = "CLAIM_EXCEEDS_BOOKING_TOTAL"
	ErrCodeRefundExceedsBookingTotal = "REFUND_EXCEEDS_BOOKING_TOTAL"
	ErrCodeRefundExceedsCaptured     = "REFUND_EXCEEDS_CAPTURED"
	ErrCodePayoutHeld                = "PAYOUT_HELD"
	ErrCodeConcurrentModification    = "CONCURRENT_MODIFICATION"
)

func NewInvalidPolicyTagError(tag string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidPolicyTag,
		Message: fmt.Sprintf("unknown cancellation policy %q", tag),
	}
}

func NewInvalidTransitionError(entity, from, to string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
	}
}

func NewInvalidAmountError(amount int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %d", amount),
	}
}

func NewMissingRequiredFieldError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidDateRangeError() *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidDateRange,
		Message: "start date must be before end date",
	}
}

func NewInvalidReasonError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidReason,
		Message: fmt.Sprintf("unknown dispute reason %q", reason),
	}
}

func NewDisputeAlreadyExistsError(bookingID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDisputeAlreadyExists,
		Message: fmt.Sprintf("booking %s already has an active dispute", bookingID),
	}
}

func NewDisputeClosedError(disputeID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeDisputeClosed,
		Message: fmt.Sprintf("dispute %s is closed; no further transitions permitted", disputeID),
	}
}

func NewClaimExceedsBookingTotalError(claimed, total int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeClaimExceedsBookingTotal,
		Message: fmt.Sprintf("claimed amount %d exceeds booking total %d", claimed, total),
	}
}

func NewRefundExceedsBookingTotalError(refund, total int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundExceedsBookingTotal,
		Message: fmt.Sprintf("decision refund %d exceeds booking total %d", refund, total),
	}
}

func NewRefundExceedsCapturedError(refund, remaining int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeRefundExceedsCaptured,
		Message: fmt.Sprintf("refund %d exceeds remaining captured amount %d", refund, remaining),
	}
}

func NewPayoutHeldError(bookingID string) *DomainError {
	return &DomainError{
		Code:    ErrCodePayoutHeld,
		Message: fmt.Sprintf("payout for booking %s is held pending dispute resolution", bookingID),
	}
}

func NewConcurrentModificationError(entity string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConcurrentModification,
		Message: fmt.Sprintf("%s was modified concurrently; retry the operation", entity),
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
