package test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
	"github.com/Fabio661717/loja-conect-sub001/internal/sweeper"
)

// MockExpirer mocks the sweeper's entry point into the state machine
type MockExpirer struct {
	mock.Mock
}

func (m *MockExpirer) Expire(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func sweeperConfig() sweeper.Config {
	return sweeper.Config{
		Interval:         5 * time.Minute,
		BatchSize:        100,
		NearExpiryWindow: time.Hour,
		NotifyCooldown:   15 * time.Minute,
	}
}

func overdueReservation() models.Reservation {
	return models.Reservation{
		ReservationID: uuid.New(),
		ProductID:     "PROD-1",
		StoreID:       "STORE-1",
		CustomerID:    "CUST-1",
		Quantity:      1,
		Status:        models.ReservationStatusActive,
		HoldExpiresAt: time.Now().Add(-time.Hour),
	}
}

func TestSweep_ExpiresOverdueHolds(t *testing.T) {
	repo := new(MockReservationRepository)
	engine := new(MockExpirer)
	dispatcher := new(MockDispatcher)

	first := overdueReservation()
	second := overdueReservation()

	repo.On("FindNearExpiry", mock.Anything, mock.Anything, time.Hour, 15*time.Minute, 100).
		Return(nil, nil)
	repo.On("FindOverdue", mock.Anything, mock.Anything, 100).
		Return([]models.Reservation{first, second}, nil)

	expired := first
	expired.Status = models.ReservationStatusExpired
	engine.On("Expire", mock.Anything, first.ReservationID).Return(&expired, nil)
	engine.On("Expire", mock.Anything, second.ReservationID).Return(&expired, nil)

	s := sweeper.NewSweeper(repo, engine, dispatcher, sweeperConfig())
	s.Sweep(context.Background())

	engine.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSweep_OneFailureDoesNotAbortBatch(t *testing.T) {
	repo := new(MockReservationRepository)
	engine := new(MockExpirer)
	dispatcher := new(MockDispatcher)

	first := overdueReservation()
	second := overdueReservation()
	third := overdueReservation()

	repo.On("FindNearExpiry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)
	repo.On("FindOverdue", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Reservation{first, second, third}, nil)

	engine.On("Expire", mock.Anything, first.ReservationID).
		Return(nil, errors.New("connection reset"))
	// Already cancelled by the customer between the query and this pass.
	engine.On("Expire", mock.Anything, second.ReservationID).
		Return(nil, fmt.Errorf("expire %s: %w", second.ReservationID, models.ErrAlreadyTerminal))
	expired := third
	expired.Status = models.ReservationStatusExpired
	engine.On("Expire", mock.Anything, third.ReservationID).Return(&expired, nil)

	s := sweeper.NewSweeper(repo, engine, dispatcher, sweeperConfig())
	s.Sweep(context.Background())

	// All three were attempted despite the first failing.
	engine.AssertNumberOfCalls(t, "Expire", 3)
}

func TestSweep_SendsNearExpiryWarningsAndStampsCooldown(t *testing.T) {
	repo := new(MockReservationRepository)
	engine := new(MockExpirer)
	dispatcher := new(MockDispatcher)

	res := overdueReservation()
	res.HoldExpiresAt = time.Now().Add(30 * time.Minute)

	repo.On("FindNearExpiry", mock.Anything, mock.Anything, time.Hour, 15*time.Minute, 100).
		Return([]models.Reservation{res}, nil)
	repo.On("GetProduct", mock.Anything, "PROD-1").
		Return(&models.Product{ProductID: "PROD-1", Name: "Camiseta"}, nil)

	var sent *models.NotificationIntent
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(1).(*models.NotificationIntent)
	}).Return(nil)

	repo.On("MarkNotified", mock.Anything, res.ReservationID, mock.Anything).Return(nil)
	repo.On("FindOverdue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	s := sweeper.NewSweeper(repo, engine, dispatcher, sweeperConfig())
	s.Sweep(context.Background())

	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
	if assert.NotNil(t, sent) {
		assert.Equal(t, models.NotificationKindNearExpiry, sent.Kind)
		assert.Equal(t, res.ReservationID, sent.ReservationID)
		assert.Equal(t, "CUST-1", sent.RecipientID)
	}
}

func TestSweep_DispatchFailureSkipsCooldownStamp(t *testing.T) {
	repo := new(MockReservationRepository)
	engine := new(MockExpirer)
	dispatcher := new(MockDispatcher)

	res := overdueReservation()
	res.HoldExpiresAt = time.Now().Add(30 * time.Minute)

	repo.On("FindNearExpiry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Reservation{res}, nil)
	repo.On("GetProduct", mock.Anything, "PROD-1").Return(nil, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))
	repo.On("FindOverdue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	s := sweeper.NewSweeper(repo, engine, dispatcher, sweeperConfig())
	s.Sweep(context.Background())

	// No stamp means the next cycle retries the warning.
	repo.AssertNotCalled(t, "MarkNotified", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweep_AdvisoryPassFailureNeverBlocksExpiry(t *testing.T) {
	repo := new(MockReservationRepository)
	engine := new(MockExpirer)
	dispatcher := new(MockDispatcher)

	repo.On("FindNearExpiry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("query timeout"))

	res := overdueReservation()
	repo.On("FindOverdue", mock.Anything, mock.Anything, mock.Anything).
		Return([]models.Reservation{res}, nil)
	expired := res
	expired.Status = models.ReservationStatusExpired
	engine.On("Expire", mock.Anything, res.ReservationID).Return(&expired, nil)

	s := sweeper.NewSweeper(repo, engine, dispatcher, sweeperConfig())
	s.Sweep(context.Background())

	engine.AssertExpectations(t)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	repo := new(MockReservationRepository)
	engine := new(MockExpirer)
	dispatcher := new(MockDispatcher)

	config := sweeperConfig()
	config.Interval = 10 * time.Millisecond

	repo.On("FindNearExpiry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil).Maybe()
	repo.On("FindOverdue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s := sweeper.NewSweeper(repo, engine, dispatcher, config)
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
