package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/models"
)

// TripFinalized is published once a trip has been closed.
type TripFinalized struct {
	EventID        string          `json:"event_id"`
	TripID         models.ID       `json:"viagem_id"`
	Plate          string          `json:"placa"`
	Freight        decimal.Decimal `json:"frete"`
	Costs          decimal.Decimal `json:"custos"`
	TotalProfit    decimal.Decimal `json:"lucro_total"`
	CompletionDate models.Date     `json:"data_termino"`
	PublishedAt    time.Time       `json:"published_at"`
}

// NewTripFinalized builds the event for a finalized trip.
func NewTripFinalized(t models.Trip) TripFinalized {
	return TripFinalized{
		EventID:        uuid.NewString(),
		TripID:         t.ID,
		Plate:          t.Plate,
		Freight:        t.Freight,
		Costs:          t.Costs,
		TotalProfit:    t.TotalProfit.Decimal,
		CompletionDate: t.CompletionDate,
		PublishedAt:    time.Now().UTC(),
	}
}

// Publisher delivers lifecycle events.
type Publisher interface {
	PublishTripFinalized(ctx context.Context, ev TripFinalized) error
	Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) PublishTripFinalized(context.Context, TripFinalized) error { return nil }

func (NopPublisher) Close() {}

// MQTTPublisher publishes events as JSON to a broker topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	log    *logrus.Entry
}

// NewMQTTPublisher connects to broker and returns a publisher for topic.
func NewMQTTPublisher(broker, topic string, log *logrus.Entry) (*MQTTPublisher, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("frota-server-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}
	log.WithFields(logrus.Fields{"broker": broker, "topic": topic}).Info("Connected to MQTT broker")
	return &MQTTPublisher{client: client, topic: topic, log: log}, nil
}

func newMQTTPublisherWithClient(client mqtt.Client, topic string, log *logrus.Entry) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, log: log}
}

// PublishTripFinalized publishes ev with QoS 1 and waits for the broker ack
// or ctx cancellation.
func (p *MQTTPublisher) PublishTripFinalized(ctx context.Context, ev TripFinalized) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish error: %w", err)
	}
	p.log.WithFields(logrus.Fields{"trip_id": ev.TripID, "plate": ev.Plate}).Debug("Published trip finalized event")
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
