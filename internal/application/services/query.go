package services

import (
	"context"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/domain"
)

type QueryService struct {
	bookingRepo application.BookingRepository
	disputeRepo application.DisputeRepository
	payoutRepo  application.PayoutRepository
}

func NewQueryService(
	bookingRepo application.BookingRepository,
	disputeRepo application.DisputeRepository,
	payoutRepo application.PayoutRepository,
) *QueryService {
	return &QueryService{
		bookingRepo: bookingRepo,
		disputeRepo: disputeRepo,
		payoutRepo:  payoutRepo,
	}
}

func (s *QueryService) FindBookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookingRepo.FindByID(ctx, id)
}

func (s *QueryService) FindDisputeByID(ctx context.Context, id string) (*domain.Dispute, error) {
	return s.disputeRepo.FindByID(ctx, id)
}

func (s *QueryService) FindDisputesByBookingID(ctx context.Context, bookingID string) ([]*domain.Dispute, error) {
	return s.disputeRepo.FindByBookingID(ctx, bookingID)
}

func (s *QueryService) FindPayoutByBookingID(ctx context.Context, bookingID string) (*domain.Payout, error) {
	return s.payoutRepo.FindByBookingID(ctx, bookingID)
}

func (s *QueryService) FindPayoutsByHostID(ctx context.Context, hostID string, limit, offset int) ([]*domain.Payout, error) {
	return s.payoutRepo.FindByHostID(ctx, hostID, limit, offset)
}
