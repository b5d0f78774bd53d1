package domain

import "time"

// Payment is the captured charge backing a booking, as confirmed by the
// payment provider. AlreadyRefundedCents accumulates across partial
// refunds so a breakdown can never be applied past the captured amount.
type Payment struct {
	BookingID         string
	ProviderCaptureID string

	CapturedCents        int64
	AlreadyRefundedCents int64
	Currency             string

	CapturedAt time.Time
	RefundedAt *time.Time
}

// SettlementResult is the ledger movement produced by applying a refund
// breakdown to a captured payment.
type SettlementResult struct {
	RefundedCents              int64 `json:"refundedCents"`
	PlatformNetAdjustmentCents int64 `json:"platformNetAdjustmentCents"`
	HostPayoutAdjustmentCents  int64 `json:"hostPayoutAdjustmentCents"`
}

func NewPayment(bookingID, providerCaptureID string, captured Money, capturedAt time.Time) (*Payment, error) {
	if bookingID == "" {
		return nil, NewMissingRequiredFieldError("booking ID")
	}
	if providerCaptureID == "" {
		return nil, NewMissingRequiredFieldError("provider capture ID")
	}
	return &Payment{
		BookingID:         bookingID,
		ProviderCaptureID: providerCaptureID,
		CapturedCents:     captured.AmountCents,
		Currency:          captured.Currency,
		CapturedAt:        capturedAt,
	}, nil
}

// RemainingCents is how much of the capture is still refundable.
func (p *Payment) RemainingCents() int64 {
	return p.CapturedCents - p.AlreadyRefundedCents
}

// ApplyRefund turns a refund breakdown into ledger-safe money movements
// and recomputes the platform margin. The caller tracks cumulative
// application through AlreadyRefundedCents; replays are screened out
// upstream by the idempotency key, so reaching this method twice with
// the same breakdown is a hard error once the capture is exhausted.
func (p *Payment) ApplyRefund(b RefundBreakdown) (SettlementResult, error) {
	refund := b.RefundableCents
	if refund < 0 {
		return SettlementResult{}, NewInvalidAmountError(refund)
	}
	if refund > p.RemainingCents() {
		return SettlementResult{}, NewRefundExceedsCapturedError(refund, p.RemainingCents())
	}

	p.AlreadyRefundedCents += refund
	now := time.Now()
	p.RefundedAt = &now

	// Fee incidence: refunded fees come out of the platform margin. A
	// refunded host fee therefore reduces the payout deduction by the
	// same amount; the platform bears it once, not the host as well.
	baseRefund := refund - b.GuestFeeRefundCents
	return SettlementResult{
		RefundedCents:              refund,
		PlatformNetAdjustmentCents: -(b.GuestFeeRefundCents + b.HostFeeRefundCents),
		HostPayoutAdjustmentCents:  -(baseRefund - b.HostFeeRefundCents),
	}, nil
}

// ReconstitutePayment - special constructor for loading from DB
func ReconstitutePayment(
	bookingID, providerCaptureID string,
	capturedCents, alreadyRefundedCents int64,
	currency string,
	capturedAt time.Time,
	refundedAt *time.Time,
) *Payment {
	return &Payment{
		BookingID:            bookingID,
		ProviderCaptureID:    providerCaptureID,
		CapturedCents:        capturedCents,
		AlreadyRefundedCents: alreadyRefundedCents,
		Currency:             currency,
		CapturedAt:           capturedAt,
		RefundedAt:           refundedAt,
	}
}
