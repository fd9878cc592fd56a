package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-trips/internal/db"
	"github.com/ukydev/fleet-trips/internal/events"
	"github.com/ukydev/fleet-trips/internal/models"
)

// MockTruckCollection is a mock implementation of TruckCollection
type MockTruckCollection struct {
	mock.Mock
}

func (m *MockTruckCollection) InsertTruck(ctx context.Context, truck models.Truck) (models.Truck, error) {
	args := m.Called(ctx, truck)
	return args.Get(0).(models.Truck), args.Error(1)
}

func (m *MockTruckCollection) FindTrucks(ctx context.Context) ([]models.Truck, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Truck), args.Error(1)
}

func (m *MockTruckCollection) FindTruckByID(ctx context.Context, id models.ID) (*models.Truck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Truck), args.Error(1)
}

func (m *MockTruckCollection) FindTruckByPlate(ctx context.Context, plate string) (*models.Truck, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Truck), args.Error(1)
}

func (m *MockTruckCollection) DeleteTruck(ctx context.Context, id models.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockDriverCollection is a mock implementation of DriverCollection
type MockDriverCollection struct {
	mock.Mock
}

func (m *MockDriverCollection) InsertDriver(ctx context.Context, driver models.Driver) (models.Driver, error) {
	args := m.Called(ctx, driver)
	return args.Get(0).(models.Driver), args.Error(1)
}

func (m *MockDriverCollection) FindDrivers(ctx context.Context) ([]models.Driver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Driver), args.Error(1)
}

func (m *MockDriverCollection) FindDriverByID(ctx context.Context, id models.ID) (*models.Driver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Driver), args.Error(1)
}

func (m *MockDriverCollection) DeleteDriver(ctx context.Context, id models.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockClientCollection is a mock implementation of ClientCollection
type MockClientCollection struct {
	mock.Mock
}

func (m *MockClientCollection) InsertClient(ctx context.Context, client models.Client) (models.Client, error) {
	args := m.Called(ctx, client)
	return args.Get(0).(models.Client), args.Error(1)
}

func (m *MockClientCollection) FindClients(ctx context.Context) ([]models.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientCollection) FindClientByID(ctx context.Context, id models.ID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

// MockTripCollection is a mock implementation of TripCollection
type MockTripCollection struct {
	mock.Mock
}

func (m *MockTripCollection) InsertTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	args := m.Called(ctx, trip)
	return args.Get(0).(models.Trip), args.Error(1)
}

func (m *MockTripCollection) FindTrips(ctx context.Context, filter db.TripFilter) ([]models.Trip, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Trip), args.Error(1)
}

func (m *MockTripCollection) FindTripByID(ctx context.Context, id models.ID) (*models.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripCollection) UpdateTrip(ctx context.Context, trip models.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripCollection) DeleteTrip(ctx context.Context, id models.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTripCollection) CountTrips(ctx context.Context, filter db.TripFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTripFinalized(ctx context.Context, ev events.TripFinalized) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPublisher) Close() {}
