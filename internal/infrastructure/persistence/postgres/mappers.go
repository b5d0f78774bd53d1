package postgres

import "github.com/lokroom/settlement/internal/domain"

func toBookingModel(b *domain.Booking) BookingModel {
	return BookingModel{
		ID:                 b.ID,
		ListingID:          b.ListingID,
		GuestID:            b.GuestID,
		HostID:             b.HostID,
		StartDate:          b.StartDate,
		EndDate:            b.EndDate,
		TotalPriceCents:    b.TotalPriceCents,
		GuestFeeCents:      b.GuestFeeCents,
		HostFeeCents:       b.HostFeeCents,
		Currency:           b.Currency,
		CancellationPolicy: string(b.CancellationPolicy),
		Status:             string(b.Status),
		CreatedAt:          b.CreatedAt,
		PaidAt:             b.PaidAt,
		CheckInAt:          b.CheckInAt,
		CancelledAt:        b.CancelledAt,
	}
}

func toBookingDomain(m BookingModel) *domain.Booking {
	return domain.ReconstituteBooking(
		m.ID, m.ListingID, m.GuestID, m.HostID,
		m.StartDate, m.EndDate,
		m.TotalPriceCents, m.GuestFeeCents, m.HostFeeCents,
		m.Currency,
		domain.CancellationPolicy(m.CancellationPolicy),
		domain.BookingStatus(m.Status),
		m.CreatedAt,
		m.PaidAt, m.CheckInAt, m.CancelledAt,
	)
}

func toPaymentModel(p *domain.Payment) PaymentModel {
	return PaymentModel{
		BookingID:            p.BookingID,
		ProviderCaptureID:    p.ProviderCaptureID,
		CapturedCents:        p.CapturedCents,
		AlreadyRefundedCents: p.AlreadyRefundedCents,
		Currency:             p.Currency,
		CapturedAt:           p.CapturedAt,
		RefundedAt:           p.RefundedAt,
	}
}

func toPaymentDomain(m PaymentModel) *domain.Payment {
	return domain.ReconstitutePayment(
		m.BookingID, m.ProviderCaptureID,
		m.CapturedCents, m.AlreadyRefundedCents,
		m.Currency,
		m.CapturedAt,
		m.RefundedAt,
	)
}

func toDisputeModel(d *domain.Dispute) DisputeModel {
	m := DisputeModel{
		ID:                 d.ID,
		BookingID:          d.BookingID,
		OpenedBy:           string(d.OpenedBy),
		Reason:             string(d.Reason),
		Description:        d.Description,
		ClaimedAmountCents: d.ClaimedAmountCents,
		Status:             string(d.Status),
		OpenedAt:           d.OpenedAt,
		ResponseDeadline:   d.ResponseDeadline,
		ResolvedAt:         d.ResolvedAt,
		ClosedAt:           d.ClosedAt,
		GuestResponded:     d.GuestResponded,
		HostResponded:      d.HostResponded,
	}
	if d.Decision != nil {
		refund := d.Decision.RefundCents
		rationale := d.Decision.Rationale
		m.DecisionRefundCents = &refund
		m.DecisionRationale = &rationale
	}
	return m
}

func toDisputeDomain(m DisputeModel) *domain.Dispute {
	var decision *domain.DisputeDecision
	if m.DecisionRefundCents != nil {
		decision = &domain.DisputeDecision{
			RefundCents: *m.DecisionRefundCents,
		}
		if m.DecisionRationale != nil {
			decision.Rationale = *m.DecisionRationale
		}
	}
	return domain.ReconstituteDispute(
		m.ID, m.BookingID,
		domain.Actor(m.OpenedBy),
		domain.DisputeReason(m.Reason),
		m.Description,
		m.ClaimedAmountCents,
		domain.DisputeStatus(m.Status),
		m.OpenedAt, m.ResponseDeadline,
		m.ResolvedAt, m.ClosedAt,
		decision,
		m.GuestResponded, m.HostResponded,
	)
}

func toPayoutModel(p *domain.Payout) PayoutModel {
	return PayoutModel{
		BookingID:         p.BookingID,
		HostID:            p.HostID,
		AmountCents:       p.AmountCents,
		DeficitCents:      p.DeficitCents,
		Currency:          p.Currency,
		Status:            string(p.Status),
		ReleaseEligibleAt: p.ReleaseEligibleAt,
		HeldReason:        p.HeldReason,
		ReleasedAt:        p.ReleasedAt,
		Version:           p.Version,
	}
}

func toPayoutDomain(m PayoutModel) *domain.Payout {
	return domain.ReconstitutePayout(
		m.BookingID, m.HostID,
		m.AmountCents, m.DeficitCents,
		m.Currency,
		domain.PayoutStatus(m.Status),
		m.ReleaseEligibleAt,
		m.HeldReason,
		m.ReleasedAt,
		m.Version,
	)
}
