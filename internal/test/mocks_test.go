package test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// MockReservationRepository implements interfaces.ReservationRepository for testing
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockReservationRepository) IncrementStock(ctx context.Context, productID string, qty int) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *MockReservationRepository) CreateHold(ctx context.Context, reservation *models.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepository) TransitionHold(ctx context.Context, reservationID uuid.UUID, from []models.ReservationStatus, to models.ReservationStatus, expiresAt *time.Time, restock bool) (*models.Reservation, bool, error) {
	args := m.Called(ctx, reservationID, from, to, expiresAt, restock)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Reservation), args.Bool(1), args.Error(2)
}

func (m *MockReservationRepository) ExtendHold(ctx context.Context, reservationID uuid.UUID, from []models.ReservationStatus, newExpiry time.Time, renewalCap int, markReschedule bool) (*models.Reservation, bool, error) {
	args := m.Called(ctx, reservationID, from, newExpiry, renewalCap, markReschedule)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Reservation), args.Bool(1), args.Error(2)
}

func (m *MockReservationRepository) GetReservation(ctx context.Context, reservationID uuid.UUID) (*models.Reservation, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetReservationByIdempotencyKey(ctx context.Context, idempotencyKey string) (*models.Reservation, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]models.Reservation, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) FindNearExpiry(ctx context.Context, now time.Time, window, cooldown time.Duration, limit int) ([]models.Reservation, error) {
	args := m.Called(ctx, now, window, cooldown, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) MarkNotified(ctx context.Context, reservationID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, reservationID, at)
	return args.Error(0)
}

func (m *MockReservationRepository) CountByStatus(ctx context.Context, storeID string) (map[models.ReservationStatus]int, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.ReservationStatus]int), args.Error(1)
}

func (m *MockReservationRepository) FindByStoreAndStatus(ctx context.Context, storeID string, statuses []models.ReservationStatus) ([]models.Reservation, error) {
	args := m.Called(ctx, storeID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *MockReservationRepository) DeleteByStatus(ctx context.Context, storeID string, statuses []models.ReservationStatus) (int64, error) {
	args := m.Called(ctx, storeID, statuses)
	return args.Get(0).(int64), args.Error(1)
}

// MockStoreConfigReader implements interfaces.StoreConfigReader for testing
type MockStoreConfigReader struct {
	mock.Mock
}

func (m *MockStoreConfigReader) GetDefaultHoldHours(ctx context.Context, storeID string) (int, error) {
	args := m.Called(ctx, storeID)
	return args.Int(0), args.Error(1)
}

// MockCacheRepository implements interfaces.CacheRepository for testing
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockCacheRepository) SetProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteProduct(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockCacheRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDispatcher implements interfaces.NotificationDispatcher for testing
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, intent *models.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockDispatcher) Close() error {
	args := m.Called()
	return args.Error(0)
}
