package db

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-trips/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// tripDoc stores money as Decimal128 and dates as YYYY-MM-DD strings.
type tripDoc struct {
	ID             string                `bson:"_id"`
	Plate          string                `bson:"placa"`
	DriverID       string                `bson:"motorista_id"`
	ClientID       string                `bson:"cliente_id"`
	Origin         string                `bson:"origem"`
	Destination    string                `bson:"destino"`
	StartDate      string                `bson:"inicio"`
	EndDate        string                `bson:"fim"`
	Freight        primitive.Decimal128  `bson:"frete"`
	Costs          primitive.Decimal128  `bson:"custos"`
	TotalProfit    *primitive.Decimal128 `bson:"lucro_total"`
	Status         string                `bson:"status"`
	CompletionDate string                `bson:"data_termino"`
	CreatedAt      time.Time             `bson:"created_at"`
	UpdatedAt      time.Time             `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// only reachable for values outside the decimal128 range
		v, _ = primitive.ParseDecimal128(d.StringFixed(2))
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toTripDoc(t models.Trip) tripDoc {
	doc := tripDoc{
		ID:             t.ID.String(),
		Plate:          t.Plate,
		DriverID:       t.DriverID.String(),
		ClientID:       t.ClientID.String(),
		Origin:         t.Origin,
		Destination:    t.Destination,
		StartDate:      t.StartDate.String(),
		EndDate:        t.EndDate.String(),
		Freight:        toDecimal128(t.Freight),
		Costs:          toDecimal128(t.Costs),
		Status:         string(t.Status),
		CompletionDate: t.CompletionDate.String(),
	}
	if t.TotalProfit.Valid {
		p := toDecimal128(t.TotalProfit.Decimal)
		doc.TotalProfit = &p
	}
	return doc
}

func (d tripDoc) toModel() models.Trip {
	t := models.Trip{
		ID:          models.ID(d.ID),
		Plate:       d.Plate,
		DriverID:    models.ID(d.DriverID),
		ClientID:    models.ID(d.ClientID),
		Origin:      d.Origin,
		Destination: d.Destination,
		Freight:     fromDecimal128(d.Freight),
		Costs:       fromDecimal128(d.Costs),
		Status:      models.TripStatus(d.Status),
	}
	t.StartDate, _ = models.ParseDate(d.StartDate)
	t.EndDate, _ = models.ParseDate(d.EndDate)
	t.CompletionDate, _ = models.ParseDate(d.CompletionDate)
	if d.TotalProfit != nil {
		t.TotalProfit = decimal.NewNullDecimal(fromDecimal128(*d.TotalProfit))
	}
	return t
}

func (f TripFilter) bson() bson.M {
	m := bson.M{}
	if f.Plate != "" {
		m["placa"] = f.Plate
	}
	if !f.DriverID.IsZero() {
		m["motorista_id"] = f.DriverID.String()
	}
	if !f.ClientID.IsZero() {
		m["cliente_id"] = f.ClientID.String()
	}
	if f.Status != "" {
		m["status"] = string(f.Status)
	}
	return m
}

// MongoTripCollection implements TripCollection for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a trip record into the collection.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip models.Trip) (models.Trip, error) {
	if c.Collection == nil {
		return models.Trip{}, fmt.Errorf("mongo collection is nil")
	}
	trip.ID = models.ID(newID())
	doc := toTripDoc(trip)
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	if _, err := c.Collection.InsertOne(ctx, doc); err != nil {
		return models.Trip{}, err
	}
	return trip, nil
}

// FindTrips queries trips ordered by completion date, then start date.
func (c *MongoTripCollection) FindTrips(ctx context.Context, filter TripFilter) ([]models.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data_termino", Value: 1}, {Key: "inicio", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[tripDoc](ctx, cursor)
	if err != nil {
		return nil, err
	}
	out := make([]models.Trip, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// FindTripByID finds a trip by its ID.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, id models.ID) (*models.Trip, error) {
	if !validID(id.String()) {
		return nil, ErrNotFound
	}
	var d tripDoc
	if err := c.Collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	t := d.toModel()
	return &t, nil
}

// UpdateTrip replaces the stored fields of a trip that is still in progress.
// The status condition is part of the filter so a concurrent finalization is
// never overwritten.
func (c *MongoTripCollection) UpdateTrip(ctx context.Context, trip models.Trip) error {
	if !validID(trip.ID.String()) {
		return ErrNotFound
	}
	doc := toTripDoc(trip)
	set := bson.M{
		"placa":        doc.Plate,
		"motorista_id": doc.DriverID,
		"cliente_id":   doc.ClientID,
		"origem":       doc.Origin,
		"destino":      doc.Destination,
		"inicio":       doc.StartDate,
		"fim":          doc.EndDate,
		"frete":        doc.Freight,
		"custos":       doc.Costs,
		"lucro_total":  doc.TotalProfit,
		"status":       doc.Status,
		"data_termino": doc.CompletionDate,
		"updated_at":   time.Now(),
	}
	filter := bson.M{"_id": doc.ID, "status": string(models.StatusInProgress)}
	result, err := c.Collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// DeleteTrip deletes a trip by its ID.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, id models.ID) error {
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

// CountTrips counts the trips matching filter.
func (c *MongoTripCollection) CountTrips(ctx context.Context, filter TripFilter) (int64, error) {
	return c.Collection.CountDocuments(ctx, filter.bson())
}
