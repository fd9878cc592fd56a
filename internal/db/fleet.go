package db

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-trips/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type truckDoc struct {
	ID    string `bson:"_id"`
	Plate string `bson:"placa"`
	Name  string `bson:"nome"`
}

type driverDoc struct {
	ID      string `bson:"_id"`
	Name    string `bson:"nome"`
	License string `bson:"cnh"`
	Phone   string `bson:"telefone"`
}

type clientDoc struct {
	ID      string `bson:"_id"`
	Name    string `bson:"nome"`
	Phone   string `bson:"telefone"`
	Email   string `bson:"email"`
	Address string `bson:"endereco"`
}

// MongoTruckCollection implements TruckCollection for MongoDB.
type MongoTruckCollection struct {
	Collection *mongo.Collection
}

// InsertTruck inserts a truck; a repeated plate returns ErrDuplicate.
func (c *MongoTruckCollection) InsertTruck(ctx context.Context, truck models.Truck) (models.Truck, error) {
	if c.Collection == nil {
		return models.Truck{}, fmt.Errorf("mongo collection is nil")
	}
	doc := truckDoc{ID: newID(), Plate: truck.Plate, Name: truck.Name}
	if _, err := c.Collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Truck{}, ErrDuplicate
		}
		return models.Truck{}, err
	}
	truck.ID = models.ID(doc.ID)
	return truck, nil
}

// FindTrucks lists trucks ordered by plate.
func (c *MongoTruckCollection) FindTrucks(ctx context.Context) ([]models.Truck, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "placa", Value: 1}}))
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[truckDoc](ctx, cursor)
	if err != nil {
		return nil, err
	}
	out := make([]models.Truck, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Truck{ID: models.ID(d.ID), Plate: d.Plate, Name: d.Name})
	}
	return out, nil
}

// FindTruckByID finds a truck by its ID.
func (c *MongoTruckCollection) FindTruckByID(ctx context.Context, id models.ID) (*models.Truck, error) {
	if !validID(id.String()) {
		return nil, ErrNotFound
	}
	return c.findOne(ctx, bson.M{"_id": id.String()})
}

// FindTruckByPlate finds a truck by its plate.
func (c *MongoTruckCollection) FindTruckByPlate(ctx context.Context, plate string) (*models.Truck, error) {
	return c.findOne(ctx, bson.M{"placa": plate})
}

func (c *MongoTruckCollection) findOne(ctx context.Context, filter bson.M) (*models.Truck, error) {
	var d truckDoc
	if err := c.Collection.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return &models.Truck{ID: models.ID(d.ID), Plate: d.Plate, Name: d.Name}, nil
}

// DeleteTruck deletes a truck by its ID.
func (c *MongoTruckCollection) DeleteTruck(ctx context.Context, id models.ID) error {
	if !validID(id.String()) {
		return ErrNotFound
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoDriverCollection implements DriverCollection for MongoDB.
type MongoDriverCollection struct {
	Collection *mongo.Collection
}

// InsertDriver inserts a driver.
func (c *MongoDriverCollection) InsertDriver(ctx context.Context, driver models.Driver) (models.Driver, error) {
	if c.Collection == nil {
		return models.Driver{}, fmt.Errorf("mongo collection is nil")
	}
	doc := driverDoc{ID: newID(), Name: driver.Name, License: driver.License, Phone: driver.Phone}
	if _, err := c.Collection.InsertOne(ctx, doc); err != nil {
		return models.Driver{}, err
	}
	driver.ID = models.ID(doc.ID)
	return driver, nil
}

// FindDrivers lists drivers ordered by name.
func (c *MongoDriverCollection) FindDrivers(ctx context.Context) ([]models.Driver, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[driverDoc](ctx, cursor)
	if err != nil {
		return nil, err
	}
	out := make([]models.Driver, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Driver{ID: models.ID(d.ID), Name: d.Name, License: d.License, Phone: d.Phone})
	}
	return out, nil
}

// FindDriverByID finds a driver by its ID.
func (c *MongoDriverCollection) FindDriverByID(ctx context.Context, id models.ID) (*models.Driver, error) {
	if !validID(id.String()) {
		return nil, ErrNotFound
	}
	var d driverDoc
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return &models.Driver{ID: models.ID(d.ID), Name: d.Name, License: d.License, Phone: d.Phone}, nil
}

// DeleteDriver deletes a driver by its ID.
func (c *MongoDriverCollection) DeleteDriver(ctx context.Context, id models.ID) error {
	if !validID(id.String()) {
		return ErrNotFound
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoClientCollection implements ClientCollection for MongoDB.
type MongoClientCollection struct {
	Collection *mongo.Collection
}

// InsertClient inserts a client.
func (c *MongoClientCollection) InsertClient(ctx context.Context, client models.Client) (models.Client, error) {
	if c.Collection == nil {
		return models.Client{}, fmt.Errorf("mongo collection is nil")
	}
	doc := clientDoc{ID: newID(), Name: client.Name, Phone: client.Phone, Email: client.Email, Address: client.Address}
	if _, err := c.Collection.InsertOne(ctx, doc); err != nil {
		return models.Client{}, err
	}
	client.ID = models.ID(doc.ID)
	return client, nil
}

// FindClients lists clients ordered by name.
func (c *MongoClientCollection) FindClients(ctx context.Context) ([]models.Client, error) {
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "nome", Value: 1}}))
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[clientDoc](ctx, cursor)
	if err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.Client{ID: models.ID(d.ID), Name: d.Name, Phone: d.Phone, Email: d.Email, Address: d.Address})
	}
	return out, nil
}

// FindClientByID finds a client by its ID.
func (c *MongoClientCollection) FindClientByID(ctx context.Context, id models.ID) (*models.Client, error) {
	if !validID(id.String()) {
		return nil, ErrNotFound
	}
	var d clientDoc
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return &models.Client{ID: models.ID(d.ID), Name: d.Name, Phone: d.Phone, Email: d.Email, Address: d.Address}, nil
}
