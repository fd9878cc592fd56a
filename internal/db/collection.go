package db

import (
	"context"
	"errors"

	"github.com/ukydev/fleet-trips/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict means the record exists but is no longer in a state that
	// accepts the write.
	ErrConflict = errors.New("record state conflict")
)

// TripFilter narrows trip queries. Empty fields match everything.
type TripFilter struct {
	Plate    string
	DriverID models.ID
	ClientID models.ID
	Status   models.TripStatus
}

// TruckCollection defines the interface for truck data operations.
type TruckCollection interface {
	InsertTruck(ctx context.Context, truck models.Truck) (models.Truck, error)
	FindTrucks(ctx context.Context) ([]models.Truck, error)
	FindTruckByID(ctx context.Context, id models.ID) (*models.Truck, error)
	FindTruckByPlate(ctx context.Context, plate string) (*models.Truck, error)
	DeleteTruck(ctx context.Context, id models.ID) error
}

// DriverCollection defines the interface for driver data operations.
type DriverCollection interface {
	InsertDriver(ctx context.Context, driver models.Driver) (models.Driver, error)
	FindDrivers(ctx context.Context) ([]models.Driver, error)
	FindDriverByID(ctx context.Context, id models.ID) (*models.Driver, error)
	DeleteDriver(ctx context.Context, id models.ID) error
}

// ClientCollection defines the interface for client data operations.
type ClientCollection interface {
	InsertClient(ctx context.Context, client models.Client) (models.Client, error)
	FindClients(ctx context.Context) ([]models.Client, error)
	FindClientByID(ctx context.Context, id models.ID) (*models.Client, error)
}

// TripCollection defines the interface for trip data operations.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip models.Trip) (models.Trip, error)
	FindTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error)
	FindTripByID(ctx context.Context, id models.ID) (*models.Trip, error)
	// UpdateTrip writes trip only while the stored record is still in
	// progress. ErrConflict when it has been finalized meanwhile.
	UpdateTrip(ctx context.Context, trip models.Trip) error
	DeleteTrip(ctx context.Context, id models.ID) error
	CountTrips(ctx context.Context, filter TripFilter) (int64, error)
}
