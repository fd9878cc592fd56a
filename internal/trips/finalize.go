package trips

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/models"
)

// FinalizeBackend is the backend surface used by the finalization step.
type FinalizeBackend interface {
	FinalizeTrip(ctx context.Context, id models.ID, costs decimal.Decimal) (*models.Trip, error)
}

// Session captures one In Progress trip while its costs are being entered.
type Session struct {
	TripID  models.ID
	Plate   string
	Freight decimal.Decimal
	Costs   string

	state   State
	pending atomic.Bool
}

// State returns the lifecycle state the session is in.
func (s *Session) State() State { return s.state }

// SetCosts records the costs as typed by the user.
func (s *Session) SetCosts(costs string) { s.Costs = costs }

// Preview is the live profit shown before confirmation.
func (s *Session) Preview() decimal.Decimal {
	return s.Freight.Sub(parseLenient(s.Costs))
}

// Summary renders the calculation line of the confirmation view.
func (s *Session) Summary() string {
	costs := parseLenient(s.Costs)
	return fmt.Sprintf("Frete: R$ %s - Custos: R$ %s = Lucro: R$ %s",
		s.Freight.StringFixed(2), costs.StringFixed(2), s.Freight.Sub(costs).StringFixed(2))
}

// PreviewProfit returns freight minus costs. Missing or invalid input counts
// as zero so the preview never fails while the user is typing.
func PreviewProfit(freight, costs string) decimal.Decimal {
	return parseLenient(freight).Sub(parseLenient(costs))
}

func parseLenient(s string) decimal.Decimal {
	s = normalizeNumber(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Finalizer governs the In Progress to Finalized transition.
type Finalizer struct {
	backend FinalizeBackend
	log     *logrus.Entry
}

// NewFinalizer creates a finalizer over the backend.
func NewFinalizer(backend FinalizeBackend, log *logrus.Entry) *Finalizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Finalizer{backend: backend, log: log}
}

// Open captures the trip for cost entry. No request is sent.
func (f *Finalizer) Open(trip models.Trip) (*Session, error) {
	state := StateOf(trip)
	if _, err := state.Next(EventFinalize); err != nil {
		if state == StateFinalized {
			return nil, apperr.Domain("Esta viagem já foi finalizada.", err)
		}
		return nil, apperr.Domain("A viagem precisa ser cadastrada antes de ser finalizada.", err)
	}
	return &Session{
		TripID:  trip.ID,
		Plate:   trip.Plate,
		Freight: trip.Freight,
		state:   state,
	}, nil
}

// Confirm validates the entered costs and sends the transition. A second
// call while the first is in flight fails with apperr.ErrPending.
func (f *Finalizer) Confirm(ctx context.Context, s *Session) (*models.Trip, error) {
	if !s.pending.CompareAndSwap(false, true) {
		return nil, apperr.ErrPending
	}
	defer s.pending.Store(false)

	next, err := s.state.Next(EventFinalize)
	if err != nil {
		return nil, apperr.Domain("Esta viagem já foi finalizada.", err)
	}
	costs, err := ParseCosts(s.Costs)
	if err != nil {
		return nil, err
	}
	trip, err := f.ConfirmFinalization(ctx, s.TripID, costs)
	if err != nil {
		return nil, err
	}
	s.state = next
	return trip, nil
}

// ConfirmFinalization sends only the id and the costs; the backend computes
// and stores the total profit.
func (f *Finalizer) ConfirmFinalization(ctx context.Context, id models.ID, costs decimal.Decimal) (*models.Trip, error) {
	if id.IsZero() {
		return nil, apperr.Validation("id", "Selecione a viagem a ser finalizada.")
	}
	if costs.IsNegative() {
		return nil, apperr.Validation("custos", "Os custos não podem ser negativos.")
	}

	entry := f.log.WithFields(logrus.Fields{"trip_id": id, "costs": costs.StringFixed(2)})
	trip, err := f.backend.FinalizeTrip(ctx, id, costs)
	if err != nil {
		entry.WithError(err).Warn("Failed to finalize trip")
		switch apperr.KindOf(err) {
		case apperr.KindNotFound, apperr.KindDomain:
			return nil, apperr.Domain(apperr.Message(err), err)
		}
		return nil, err
	}
	entry.Info("Finalized trip")
	return trip, nil
}

// ParseCosts is the strict submit-time parse of the costs field.
func ParseCosts(s string) (decimal.Decimal, error) {
	s = normalizeNumber(s)
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, apperr.Validation("custos", "O campo custos é obrigatório.")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.Validation("custos", "O campo custos deve ser um número.")
	}
	if d.IsNegative() {
		return decimal.Zero, apperr.Validation("custos", "Os custos não podem ser negativos.")
	}
	return d, nil
}
