package trips

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-trips/internal/models"
)

// MockBackend implements Writer, Reader and FinalizeBackend.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error) {
	args := m.Called(ctx, t)
	trip, _ := args.Get(0).(*models.Trip)
	return trip, args.Error(1)
}

func (m *MockBackend) UpdateTrip(ctx context.Context, t models.Trip) (*models.Trip, error) {
	args := m.Called(ctx, t)
	trip, _ := args.Get(0).(*models.Trip)
	return trip, args.Error(1)
}

func (m *MockBackend) FinalizeTrip(ctx context.Context, id models.ID, costs decimal.Decimal) (*models.Trip, error) {
	args := m.Called(ctx, id, costs)
	trip, _ := args.Get(0).(*models.Trip)
	return trip, args.Error(1)
}

func (m *MockBackend) TripsByPlate(ctx context.Context, plate string) (*models.PlateTrips, error) {
	args := m.Called(ctx, plate)
	resp, _ := args.Get(0).(*models.PlateTrips)
	return resp, args.Error(1)
}

func (m *MockBackend) raw(ctx context.Context, method string) (json.RawMessage, error) {
	args := m.MethodCalled(method, ctx)
	var raw json.RawMessage
	if s, ok := args.Get(0).(string); ok {
		raw = json.RawMessage(s)
	}
	return raw, args.Error(1)
}

func (m *MockBackend) ActiveTrips(ctx context.Context) (json.RawMessage, error) {
	return m.raw(ctx, "ActiveTrips")
}

func (m *MockBackend) FinalizedTrips(ctx context.Context) (json.RawMessage, error) {
	return m.raw(ctx, "FinalizedTrips")
}

func (m *MockBackend) CurrentSituation(ctx context.Context) (json.RawMessage, error) {
	return m.raw(ctx, "CurrentSituation")
}

func (m *MockBackend) Productivity(ctx context.Context) (json.RawMessage, error) {
	return m.raw(ctx, "Productivity")
}

func (m *MockBackend) DeleteTrip(ctx context.Context, id models.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
