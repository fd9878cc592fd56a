package trips

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/models"
)

// Reader is the backend surface used by the query service.
type Reader interface {
	TripsByPlate(ctx context.Context, plate string) (*models.PlateTrips, error)
	ActiveTrips(ctx context.Context) (json.RawMessage, error)
	FinalizedTrips(ctx context.Context) (json.RawMessage, error)
	CurrentSituation(ctx context.Context) (json.RawMessage, error)
	Productivity(ctx context.Context) (json.RawMessage, error)
	DeleteTrip(ctx context.Context, id models.ID) error
}

// Outcome distinguishes the three results of a plate lookup.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNoTrips
	OutcomeNotFound
)

// Message is the text shown for the outcome.
func (o Outcome) Message(plate string) string {
	switch o {
	case OutcomeFound:
		return "Viagens encontradas para a placa: " + plate
	case OutcomeNoTrips:
		return "Caminhão encontrado, mas não possui viagens cadastradas."
	default:
		return "Caminhão não encontrado. Verifique a placa digitada."
	}
}

// PlateLookup is the normalized result of FindByPlate.
type PlateLookup struct {
	Plate   string
	Trips   []models.Trip
	Outcome Outcome
}

// Message is the user-facing text for the lookup.
func (l *PlateLookup) Message() string { return l.Outcome.Message(l.Plate) }

// Service retrieves trip collections and hides the response shape
// differences between endpoints.
type Service struct {
	backend Reader
	log     *logrus.Entry
}

// NewService creates a query service over the backend.
func NewService(backend Reader, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{backend: backend, log: log}
}

// FindByPlate returns the trips of one truck. An unknown truck and a truck
// without trips both yield an empty list, told apart by Outcome.
func (s *Service) FindByPlate(ctx context.Context, plate string) (*PlateLookup, error) {
	plate = strings.TrimSpace(plate)
	if plate == "" {
		return nil, apperr.Validation("placa", "Por favor, digite uma placa para buscar.")
	}

	resp, err := s.backend.TripsByPlate(ctx, plate)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return &PlateLookup{Plate: plate, Trips: []models.Trip{}, Outcome: OutcomeNotFound}, nil
		}
		s.log.WithError(err).WithField("plate", plate).Warn("Failed to search trips by plate")
		return nil, err
	}

	lookup := &PlateLookup{Plate: plate, Trips: []models.Trip{}, Outcome: OutcomeNoTrips}
	for _, raw := range resp.Trips {
		var t models.Trip
		if err := json.Unmarshal(raw, &t); err != nil {
			s.log.WithError(err).WithField("plate", plate).Debug("Skipping undecodable trip")
			continue
		}
		if t.Plate == "" {
			t.Plate = plate
		}
		lookup.Trips = append(lookup.Trips, t)
	}
	if len(lookup.Trips) > 0 {
		lookup.Outcome = OutcomeFound
	}
	return lookup, nil
}

// ListActive returns the In Progress trips, dropping malformed records.
func (s *Service) ListActive(ctx context.Context) ([]models.Trip, error) {
	raw, err := s.backend.ActiveTrips(ctx)
	if err != nil {
		return nil, err
	}
	return s.filter(raw, "active", isActive), nil
}

// ListFinalized returns Finalized trips that carry a computed profit.
func (s *Service) ListFinalized(ctx context.Context) ([]models.Trip, error) {
	raw, err := s.backend.FinalizedTrips(ctx)
	if err != nil {
		return nil, err
	}
	return s.filter(raw, "finalized", isReportable), nil
}

// CurrentSituation returns the active trips enriched with truck, driver and
// client names.
func (s *Service) CurrentSituation(ctx context.Context) ([]models.Trip, error) {
	raw, err := s.backend.CurrentSituation(ctx)
	if err != nil {
		return nil, err
	}
	return s.filter(raw, "situation", isActive), nil
}

// Productivity returns the per-trip profit rollup.
func (s *Service) Productivity(ctx context.Context) ([]models.ProductivityEntry, error) {
	raw, err := s.backend.Productivity(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.ProductivityEntry{}
	for _, item := range splitArray(raw) {
		var p models.ProductivityEntry
		if err := json.Unmarshal(item, &p); err != nil || p.Plate == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ActiveTripForPlate finds the In Progress trip of a truck, as the current
// situation screen does before finalizing by plate.
func (s *Service) ActiveTripForPlate(ctx context.Context, plate string) (*models.Trip, error) {
	lookup, err := s.FindByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	for _, t := range lookup.Trips {
		if t.Status == models.StatusInProgress && !t.ID.IsZero() {
			found := t
			return &found, nil
		}
	}
	return nil, apperr.Domain(`Não foi encontrada uma viagem "Em andamento" para a placa `+lookup.Plate+".", nil)
}

// Delete removes a trip.
func (s *Service) Delete(ctx context.Context, id models.ID) error {
	if id.IsZero() {
		return apperr.Validation("id", "Selecione a viagem a ser excluída.")
	}
	if err := s.backend.DeleteTrip(ctx, id); err != nil {
		s.log.WithError(err).WithField("trip_id", id).Warn("Failed to delete trip")
		return err
	}
	return nil
}

func (s *Service) filter(raw json.RawMessage, list string, keep func(models.Trip) bool) []models.Trip {
	out := []models.Trip{}
	dropped := 0
	for _, item := range splitArray(raw) {
		var t models.Trip
		if err := json.Unmarshal(item, &t); err != nil || !keep(t) {
			dropped++
			continue
		}
		out = append(out, t)
	}
	if dropped > 0 {
		s.log.WithFields(logrus.Fields{"list": list, "dropped": dropped}).Debug("Dropped malformed trip records")
	}
	return out
}

// splitArray returns the elements of a JSON array. Anything that is not an
// array yields no elements.
func splitArray(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func isWellFormed(t models.Trip) bool {
	return t.Plate != "" && !t.StartDate.IsZero() && t.Status != ""
}

func isActive(t models.Trip) bool {
	return isWellFormed(t) && t.Status == models.StatusInProgress
}

func isReportable(t models.Trip) bool {
	return t.TotalProfit.Valid && t.Status == models.StatusFinalized
}
