package worker_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lokroom/settlement/internal/application/services"
	"github.com/lokroom/settlement/internal/application/services/testhelpers"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/infrastructure/persistence/postgres"
	"github.com/lokroom/settlement/internal/mocks"
	"github.com/lokroom/settlement/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayoutReleaseWorker_ReleasesEligible(t *testing.T) {
	ctx := context.Background()

	testDB := testhelpers.SetupTestDatabase(t)
	defer testDB.Cleanup(t)

	payoutRepo := postgres.NewPayoutRepository(testDB.DB.Pool)
	notifier := &testhelpers.RecordingNotifier{}

	payoutService := services.NewPayoutService(
		payoutRepo,
		testhelpers.FakeLocker{},
		notifier,
		testDB.DB.Pool,
		slog.Default(),
	)

	params := testhelpers.DefaultBookingParams()
	params.StartIn = -48 * time.Hour
	booking := testhelpers.InsertBooking(t, ctx, testDB.DB, params)
	payout := testhelpers.InsertPayout(t, ctx, testDB.DB, booking)

	w := worker.NewPayoutReleaseWorker(payoutService, time.Hour, 10, slog.Default())

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.Start(workerCtx)
		close(done)
	}()

	// The worker sweeps once on startup.
	require.Eventually(t, func() bool {
		saved, err := payoutRepo.FindByBookingID(ctx, payout.BookingID)
		return err == nil && saved.Status == domain.PayoutReleased
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	<-done
}

func TestDisputeDeadlineWorker_EscalatesOverdue(t *testing.T) {
	ctx := context.Background()

	testDB := testhelpers.SetupTestDatabase(t)
	defer testDB.Cleanup(t)

	bookingRepo := postgres.NewBookingRepository(testDB.DB.Pool)
	paymentRepo := postgres.NewPaymentRepository(testDB.DB.Pool)
	disputeRepo := postgres.NewDisputeRepository(testDB.DB.Pool)
	payoutRepo := postgres.NewPayoutRepository(testDB.DB.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(testDB.DB.Pool)
	notifier := &testhelpers.RecordingNotifier{}

	disputeService := services.NewDisputeService(
		bookingRepo,
		disputeRepo,
		paymentRepo,
		payoutRepo,
		idempotencyRepo,
		mocks.NewMockPaymentProvider(t),
		testhelpers.FakeLocker{},
		notifier,
		testDB.DB.Pool,
		slog.Default(),
	)

	booking := testhelpers.InsertBooking(t, ctx, testDB.DB, testhelpers.DefaultBookingParams())
	testhelpers.InsertPayout(t, ctx, testDB.DB, booking)

	dispute, err := disputeService.Open(ctx, services.OpenDisputeCommand{
		BookingID:   booking.ID,
		OpenedBy:    domain.ActorGuest,
		Reason:      domain.ReasonCleanlinessIssue,
		Description: "the kitchen was not cleaned",
	})
	require.NoError(t, err)

	_, err = testDB.DB.Pool.Exec(ctx,
		"UPDATE disputes SET response_deadline = NOW() - INTERVAL '1 hour' WHERE id = $1",
		dispute.ID)
	require.NoError(t, err)

	w := worker.NewDisputeDeadlineWorker(disputeService, time.Hour, 10, slog.Default())

	workerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.Start(workerCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		saved, err := disputeRepo.FindByID(ctx, dispute.ID)
		return err == nil && saved.Status == domain.DisputeUnderReview
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	<-done

	saved, err := disputeRepo.FindByID(ctx, dispute.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeUnderReview, saved.Status)
}
