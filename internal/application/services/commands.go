package services

import "github.com/lokroom/settlement/internal/domain"

type CancelBookingCommand struct {
	BookingID                string
	CancelledBy              domain.Actor
	Reason                   string
	ExceptionalCircumstances bool
}

type OpenDisputeCommand struct {
	BookingID          string
	OpenedBy           domain.Actor
	Reason             domain.DisputeReason
	Description        string
	ClaimedAmountCents *int64
}

type RespondDisputeCommand struct {
	DisputeID string
	Responder domain.Actor
	Message   string
}

type ResolveDisputeCommand struct {
	DisputeID   string
	RefundCents int64
	Rationale   string
}

type CloseDisputeCommand struct {
	DisputeID string
}
