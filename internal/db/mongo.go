package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	TrucksCollection  = "caminhoes"
	DriversCollection = "motoristas"
	ClientsCollection = "clientes"
	TripsCollection   = "viagens"
)

// ConnectMongo connects to MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store bundles the collections of the fleet database.
type Store struct {
	Trucks  *MongoTruckCollection
	Drivers *MongoDriverCollection
	Clients *MongoClientCollection
	Trips   *MongoTripCollection
}

// NewStore binds the collections of database name.
func NewStore(client *mongo.Client, name string) *Store {
	database := client.Database(name)
	return &Store{
		Trucks:  &MongoTruckCollection{Collection: database.Collection(TrucksCollection)},
		Drivers: &MongoDriverCollection{Collection: database.Collection(DriversCollection)},
		Clients: &MongoClientCollection{Collection: database.Collection(ClientsCollection)},
		Trips:   &MongoTripCollection{Collection: database.Collection(TripsCollection)},
	}
}

// EnsureIndexes creates the unique plate index and the trip lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Trucks.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "placa", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create truck index: %w", err)
	}
	_, err = s.Trips.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "placa", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "data_termino", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create trip indexes: %w", err)
	}
	return nil
}

// newID returns a fresh hex object id used as the string primary key.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// validID rejects ids that could never have been issued by newID.
func validID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
