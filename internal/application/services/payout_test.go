package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lokroom/settlement/internal/application"
	"github.com/lokroom/settlement/internal/application/services"
	"github.com/lokroom/settlement/internal/application/services/testhelpers"
	"github.com/lokroom/settlement/internal/domain"
	"github.com/lokroom/settlement/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PayoutServiceTestSuite struct {
	suite.Suite
	testDB        *testhelpers.TestDatabase
	payoutRepo    *postgres.PayoutRepository
	notifier      *testhelpers.RecordingNotifier
	payoutService *services.PayoutService
}

func TestPayoutServiceSuite(t *testing.T) {
	suite.Run(t, new(PayoutServiceTestSuite))
}

func (suite *PayoutServiceTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.payoutRepo = postgres.NewPayoutRepository(suite.testDB.DB.Pool)
}

func (suite *PayoutServiceTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *PayoutServiceTestSuite) SetupTest() {
	suite.notifier = &testhelpers.RecordingNotifier{}
	suite.payoutService = services.NewPayoutService(
		suite.payoutRepo,
		testhelpers.FakeLocker{},
		suite.notifier,
		suite.testDB.DB.Pool,
		slog.Default(),
	)
}

func (suite *PayoutServiceTestSuite) TearDownTest() {
	suite.testDB.CleanTables(suite.T())
}

// insertEligiblePayout creates a booking that checked in two days ago,
// so its payout passed the 24h release gate.
func (suite *PayoutServiceTestSuite) insertEligiblePayout(ctx context.Context) *domain.Payout {
	params := testhelpers.DefaultBookingParams()
	params.StartIn = -48 * time.Hour
	params.Nights = 4
	booking := testhelpers.InsertBooking(suite.T(), ctx, suite.testDB.DB, params)
	return testhelpers.InsertPayout(suite.T(), ctx, suite.testDB.DB, booking)
}

func (suite *PayoutServiceTestSuite) Test_Release_EligiblePayout() {
	ctx := context.Background()

	payout := suite.insertEligiblePayout(ctx)

	released, err := suite.payoutService.Release(ctx, payout.BookingID)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), domain.PayoutReleased, released.Status)
	assert.NotNil(suite.T(), released.ReleasedAt)

	saved, err := suite.payoutRepo.FindByBookingID(ctx, payout.BookingID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.PayoutReleased, saved.Status)

	events := suite.notifier.EventsOfType(application.EventPayoutReleased)
	require.Len(suite.T(), events, 1)
	assert.Equal(suite.T(), payout.BookingID, events[0].BookingID)
	assert.Equal(suite.T(), payout.AmountCents, events[0].AmountCents)
}

func (suite *PayoutServiceTestSuite) Test_Release_BeforeEligibility_Rejected() {
	ctx := context.Background()

	booking := testhelpers.InsertBooking(suite.T(), ctx, suite.testDB.DB, testhelpers.DefaultBookingParams())
	payout := testhelpers.InsertPayout(suite.T(), ctx, suite.testDB.DB, booking)

	_, err := suite.payoutService.Release(ctx, payout.BookingID)
	require.Error(suite.T(), err)

	var svcErr *application.ServiceError
	require.ErrorAs(suite.T(), err, &svcErr)
	assert.Equal(suite.T(), application.ErrCodeInvalidState, svcErr.Code)
}

func (suite *PayoutServiceTestSuite) Test_Release_HeldPayout_Rejected() {
	ctx := context.Background()

	payout := suite.insertEligiblePayout(ctx)

	require.NoError(suite.T(), payout.Hold("dispute pending"))
	require.NoError(suite.T(), suite.payoutRepo.Update(ctx, nil, payout))

	_, err := suite.payoutService.Release(ctx, payout.BookingID)
	require.Error(suite.T(), err)
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodePayoutHeld))
}

func (suite *PayoutServiceTestSuite) Test_ReleaseEligible_SweepsSkippingHeld() {
	ctx := context.Background()

	first := suite.insertEligiblePayout(ctx)
	second := suite.insertEligiblePayout(ctx)

	held := suite.insertEligiblePayout(ctx)
	require.NoError(suite.T(), held.Hold("dispute pending"))
	require.NoError(suite.T(), suite.payoutRepo.Update(ctx, nil, held))

	// Not yet eligible, must stay pending.
	booking := testhelpers.InsertBooking(suite.T(), ctx, suite.testDB.DB, testhelpers.DefaultBookingParams())
	future := testhelpers.InsertPayout(suite.T(), ctx, suite.testDB.DB, booking)

	released, err := suite.payoutService.ReleaseEligible(ctx, 10)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, released)

	for _, bookingID := range []string{first.BookingID, second.BookingID} {
		saved, err := suite.payoutRepo.FindByBookingID(ctx, bookingID)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), domain.PayoutReleased, saved.Status)
	}

	savedHeld, err := suite.payoutRepo.FindByBookingID(ctx, held.BookingID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.PayoutHeld, savedHeld.Status)

	savedFuture, err := suite.payoutRepo.FindByBookingID(ctx, future.BookingID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), domain.PayoutPending, savedFuture.Status)
}

func (suite *PayoutServiceTestSuite) Test_Release_StaleVersion_Conflict() {
	ctx := context.Background()

	payout := suite.insertEligiblePayout(ctx)

	// A concurrent writer bumped the row version behind our back.
	stale := *payout
	require.NoError(suite.T(), payout.Hold("dispute pending"))
	require.NoError(suite.T(), suite.payoutRepo.Update(ctx, nil, payout))

	require.NoError(suite.T(), stale.Release(time.Now()))
	err := suite.payoutRepo.Update(ctx, nil, &stale)
	require.Error(suite.T(), err)
	assert.True(suite.T(), domain.IsErrorCode(err, domain.ErrCodeConcurrentModification))
}
