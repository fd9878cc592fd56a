package trips

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/models"
	"github.com/ukydev/fleet-trips/internal/refcache"
	"github.com/ukydev/fleet-trips/internal/validation"
)

// Writer is the backend surface used to persist trips.
type Writer interface {
	CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error)
	UpdateTrip(ctx context.Context, t models.Trip) (*models.Trip, error)
}

// Draft holds the form fields of a trip being created or edited. Values are
// kept as entered so that partially filled forms can be validated.
type Draft struct {
	ID          models.ID `label:"id"`
	Plate       string    `validate:"required" label:"placa"`
	DriverID    models.ID `validate:"required" label:"motorista"`
	ClientID    models.ID `validate:"required" label:"cliente"`
	Origin      string    `validate:"required" label:"origem"`
	Destination string    `validate:"required" label:"destino"`
	StartDate   string    `validate:"required,datetime=2006-01-02" label:"data de início"`
	EndDate     string    `validate:"required,datetime=2006-01-02" label:"data de fim"`
	Freight     string    `validate:"required,numeric" label:"frete"`
	Costs       string    `validate:"omitempty,numeric" label:"custos"`
	Status      models.TripStatus

	// Carried through unchanged; the backend derives them.
	TotalProfit    decimal.NullDecimal
	CompletionDate models.Date
	TruckName      string
	DriverName     string
	ClientName     string
}

// NewDraft returns a blank draft for a new trip.
func NewDraft() Draft {
	return Draft{Status: models.StatusInProgress}
}

// EditDraft pre-populates a draft from an existing trip. Dates are rendered
// as YYYY-MM-DD whatever representation the backend used.
func EditDraft(t models.Trip) Draft {
	d := Draft{
		ID:             t.ID,
		Plate:          t.Plate,
		DriverID:       t.DriverID,
		ClientID:       t.ClientID,
		Origin:         t.Origin,
		Destination:    t.Destination,
		StartDate:      t.StartDate.String(),
		EndDate:        t.EndDate.String(),
		Freight:        t.Freight.String(),
		Costs:          t.Costs.String(),
		Status:         t.Status,
		TotalProfit:    t.TotalProfit,
		CompletionDate: t.CompletionDate,
		TruckName:      t.TruckName,
		DriverName:     t.DriverName,
		ClientName:     t.ClientName,
	}
	if d.Status == "" {
		d.Status = models.StatusInProgress
	}
	return d
}

// IsNew reports whether submitting the draft creates a trip.
func (d Draft) IsNew() bool { return d.ID.IsZero() }

// Form validates and submits trip drafts.
type Form struct {
	backend  Writer
	refs     *refcache.Snapshot
	validate *validation.Validator
	log      *logrus.Entry
	pending  atomic.Bool
}

// NewForm creates a trip form over the backend.
func NewForm(backend Writer, log *logrus.Entry) *Form {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Form{backend: backend, validate: validation.New(), log: log}
}

// UseReferences makes Submit check foreign keys against the loaded lists.
func (f *Form) UseReferences(s *refcache.Snapshot) { f.refs = s }

// Submit validates the draft and creates or updates the trip. A successful
// create resets the draft for the next entry.
func (f *Form) Submit(ctx context.Context, d *Draft) (*models.Trip, error) {
	if !f.pending.CompareAndSwap(false, true) {
		return nil, apperr.ErrPending
	}
	defer f.pending.Store(false)

	trip, err := f.build(d)
	if err != nil {
		return nil, err
	}

	entry := f.log.WithFields(logrus.Fields{"plate": trip.Plate, "trip_id": trip.ID})
	if d.IsNew() {
		saved, err := f.backend.CreateTrip(ctx, trip)
		if err != nil {
			entry.WithError(err).Warn("Failed to create trip")
			return nil, err
		}
		entry.WithField("trip_id", saved.ID).Info("Created trip")
		*d = NewDraft()
		return saved, nil
	}

	saved, err := f.backend.UpdateTrip(ctx, trip)
	if err != nil {
		entry.WithError(err).Warn("Failed to update trip")
		return nil, err
	}
	entry.Info("Updated trip")
	return saved, nil
}

// Validate runs the submit-time checks without sending anything.
func (f *Form) Validate(d *Draft) error {
	_, err := f.build(d)
	return err
}

func (f *Form) build(d *Draft) (models.Trip, error) {
	normalizeDraft(d)

	state := StateDraft
	if !d.IsNew() {
		state = StateInProgress
		if d.Status == models.StatusFinalized {
			state = StateFinalized
		}
	}
	if _, err := state.Next(EventSubmit); err != nil {
		return models.Trip{}, apperr.Domain("Viagem finalizada não pode ser editada.", err)
	}

	if err := f.validate.Struct(d); err != nil {
		return models.Trip{}, err
	}

	start, _ := models.ParseDate(d.StartDate)
	end, _ := models.ParseDate(d.EndDate)
	if end.Before(start.Time) {
		return models.Trip{}, apperr.Validation("fim", "A data de fim não pode ser anterior à data de início.")
	}
	freight, err := decimal.NewFromString(d.Freight)
	if err != nil || freight.IsNegative() {
		return models.Trip{}, apperr.Validation("frete", "Informe um valor de frete válido.")
	}
	costs := decimal.Zero
	if d.Costs != "" {
		costs, err = decimal.NewFromString(d.Costs)
		if err != nil || costs.IsNegative() {
			return models.Trip{}, apperr.Validation("custos", "Informe um valor de custos válido.")
		}
	}

	if f.refs != nil {
		if !f.refs.HasTruck(d.Plate) {
			return models.Trip{}, apperr.Validation("placa", "Caminhão não cadastrado: "+d.Plate+".")
		}
		if !f.refs.HasDriver(d.DriverID) {
			return models.Trip{}, apperr.Validation("motorista", "Motorista selecionado não está cadastrado.")
		}
		if !f.refs.HasClient(d.ClientID) {
			return models.Trip{}, apperr.Validation("cliente", "Cliente selecionado não está cadastrado.")
		}
	}

	status := d.Status
	if d.IsNew() || status == "" {
		status = models.StatusInProgress
	}
	return models.Trip{
		ID:             d.ID,
		Plate:          d.Plate,
		DriverID:       d.DriverID,
		ClientID:       d.ClientID,
		Origin:         d.Origin,
		Destination:    d.Destination,
		StartDate:      start,
		EndDate:        end,
		Freight:        freight,
		Costs:          costs,
		TotalProfit:    d.TotalProfit,
		Status:         status,
		CompletionDate: d.CompletionDate,
		TruckName:      d.TruckName,
		DriverName:     d.DriverName,
		ClientName:     d.ClientName,
	}, nil
}

func normalizeDraft(d *Draft) {
	d.Plate = strings.TrimSpace(d.Plate)
	d.DriverID = models.ID(strings.TrimSpace(string(d.DriverID)))
	d.ClientID = models.ID(strings.TrimSpace(string(d.ClientID)))
	d.Origin = strings.TrimSpace(d.Origin)
	d.Destination = strings.TrimSpace(d.Destination)
	d.StartDate = normalizeDateInput(d.StartDate)
	d.EndDate = normalizeDateInput(d.EndDate)
	d.Freight = normalizeNumber(d.Freight)
	d.Costs = normalizeNumber(d.Costs)
}

// normalizeDateInput turns any accepted date representation into
// YYYY-MM-DD, leaving unparseable text for the validator to reject.
func normalizeDateInput(s string) string {
	s = strings.TrimSpace(s)
	if date, err := models.ParseDate(s); err == nil && !date.IsZero() {
		return date.String()
	}
	return s
}

// normalizeNumber accepts a decimal comma when no dot is present.
func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
