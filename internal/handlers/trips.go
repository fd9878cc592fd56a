package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/db"
	"github.com/ukydev/fleet-trips/internal/events"
	"github.com/ukydev/fleet-trips/internal/models"
)

const (
	msgFinalizedLocked  = "Viagem finalizada não pode ser editada."
	msgAlreadyFinalized = "Esta viagem já foi finalizada."
)

// plateTrips is the per-plate lookup response.
type plateTrips struct {
	Plate string        `json:"placa"`
	Trips []models.Trip `json:"viagens"`
}

// CreateTrip handles POST /viagens. New trips always start in progress.
func (h *Handler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var in models.Trip
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	trip := editableFields(models.Trip{}, in)
	trip.Status = models.StatusInProgress
	if msg := h.checkTrip(r.Context(), trip); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.trips.InsertTrip(r.Context(), trip)
	if err != nil {
		h.fail(w, r, err, "", "Erro ao cadastrar viagem")
		return
	}
	h.log.WithFields(logrus.Fields{"trip_id": created.ID, "plate": created.Plate}).Info("Trip created")
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTrip handles PUT /viagens/{id}. Finalized trips are immutable.
func (h *Handler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	var in models.Trip
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	current, err := h.trips.FindTripByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Viagem não encontrada", "Erro ao atualizar viagem")
		return
	}
	if current.IsFinalized() {
		writeError(w, http.StatusConflict, msgFinalizedLocked)
		return
	}

	trip := editableFields(*current, in)
	if msg := h.checkTrip(r.Context(), trip); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := h.trips.UpdateTrip(r.Context(), trip); err != nil {
		if errors.Is(err, db.ErrConflict) {
			writeError(w, http.StatusConflict, msgFinalizedLocked)
			return
		}
		h.fail(w, r, err, "Viagem não encontrada", "Erro ao atualizar viagem")
		return
	}
	h.log.WithField("trip_id", id).Info("Trip updated")
	writeJSON(w, http.StatusOK, trip)
}

// FinalizeTrip handles PATCH /viagens/{id}/finalizar. The stored profit is
// always freight minus the submitted costs.
func (h *Handler) FinalizeTrip(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	var body struct {
		Costs json.RawMessage `json:"custos"`
	}
	if err := readJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	costs, err := parseMoney(body.Costs)
	if err != nil || costs.IsNegative() {
		writeError(w, http.StatusBadRequest, "Custos inválidos")
		return
	}

	trip, err := h.trips.FindTripByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Viagem não encontrada", "Erro ao finalizar viagem")
		return
	}
	if trip.IsFinalized() {
		writeError(w, http.StatusConflict, msgAlreadyFinalized)
		return
	}

	trip.Costs = costs
	trip.TotalProfit = decimal.NewNullDecimal(trip.ExpectedProfit())
	trip.Status = models.StatusFinalized
	trip.CompletionDate = models.DateOf(h.now())
	if err := h.trips.UpdateTrip(r.Context(), *trip); err != nil {
		if errors.Is(err, db.ErrConflict) {
			writeError(w, http.StatusConflict, msgAlreadyFinalized)
			return
		}
		h.fail(w, r, err, "Viagem não encontrada", "Erro ao finalizar viagem")
		return
	}

	logger := h.log.WithFields(logrus.Fields{
		"trip_id": id,
		"plate":   trip.Plate,
		"profit":  trip.TotalProfit.Decimal.StringFixed(2),
	})
	logger.Info("Trip finalized")
	if err := h.events.PublishTripFinalized(r.Context(), events.NewTripFinalized(*trip)); err != nil {
		logger.WithError(err).Warn("Failed to publish trip finalized event")
	}
	writeJSON(w, http.StatusOK, trip)
}

// DeleteTrip handles DELETE /viagens/{id}
func (h *Handler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	if err := h.trips.DeleteTrip(r.Context(), id); err != nil {
		h.fail(w, r, err, "Viagem não encontrada", "Erro ao excluir viagem")
		return
	}
	h.log.WithField("trip_id", id).Info("Trip deleted")
	w.WriteHeader(http.StatusNoContent)
}

// TripsByPlate handles GET /viagens-por-placa/{placa}
func (h *Handler) TripsByPlate(w http.ResponseWriter, r *http.Request) {
	plate := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "placa")))
	if _, err := h.trucks.FindTruckByPlate(r.Context(), plate); err != nil {
		h.fail(w, r, err, "Caminhão não encontrado", "Erro ao buscar viagens")
		return
	}
	trips, err := h.trips.FindTrips(r.Context(), db.TripFilter{Plate: plate})
	if err != nil {
		h.fail(w, r, err, "", "Erro ao buscar viagens")
		return
	}
	if err := h.enrich(r.Context(), trips); err != nil {
		h.fail(w, r, err, "", "Erro ao buscar viagens")
		return
	}
	writeJSON(w, http.StatusOK, plateTrips{Plate: plate, Trips: trips})
}

// ActiveTrips handles GET /viagens-ativas-lista
func (h *Handler) ActiveTrips(w http.ResponseWriter, r *http.Request) {
	h.listTrips(w, r, models.StatusInProgress, "Erro ao buscar viagens ativas")
}

// FinalizedTrips handles GET /viagens-finalizadas-lista
func (h *Handler) FinalizedTrips(w http.ResponseWriter, r *http.Request) {
	h.listTrips(w, r, models.StatusFinalized, "Erro ao buscar viagens finalizadas")
}

func (h *Handler) listTrips(w http.ResponseWriter, r *http.Request, status models.TripStatus, fallback string) {
	trips, err := h.trips.FindTrips(r.Context(), db.TripFilter{Status: status})
	if err == nil {
		err = h.enrich(r.Context(), trips)
	}
	if err != nil {
		h.fail(w, r, err, "", fallback)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// CurrentSituation handles GET /situacao-atual-caminhoes: the latest
// in-progress trip of each truck on the road.
func (h *Handler) CurrentSituation(w http.ResponseWriter, r *http.Request) {
	trips, err := h.trips.FindTrips(r.Context(), db.TripFilter{Status: models.StatusInProgress})
	if err == nil {
		err = h.enrich(r.Context(), trips)
	}
	if err != nil {
		h.fail(w, r, err, "", "Erro ao buscar situação atual")
		return
	}

	latest := map[string]int{}
	out := []models.Trip{}
	for _, t := range trips {
		i, seen := latest[t.Plate]
		if !seen {
			latest[t.Plate] = len(out)
			out = append(out, t)
			continue
		}
		if t.StartDate.After(out[i].StartDate.Time) {
			out[i] = t
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Productivity handles GET /relatorio-produtividade
func (h *Handler) Productivity(w http.ResponseWriter, r *http.Request) {
	trips, err := h.trips.FindTrips(r.Context(), db.TripFilter{Status: models.StatusFinalized})
	if err == nil {
		err = h.enrich(r.Context(), trips)
	}
	if err != nil {
		h.fail(w, r, err, "", "Erro ao gerar relatório de produtividade")
		return
	}
	out := make([]models.ProductivityEntry, 0, len(trips))
	for _, t := range trips {
		profit := t.TotalProfit.Decimal
		if !t.TotalProfit.Valid {
			profit = t.ExpectedProfit()
		}
		label := models.ProductivityProfit
		if profit.IsNegative() {
			label = models.ProductivityLoss
		}
		out = append(out, models.ProductivityEntry{
			Plate:          t.Plate,
			DriverName:     t.DriverName,
			Origin:         t.Origin,
			Destination:    t.Destination,
			TotalProfit:    profit,
			Status:         label,
			CompletionDate: t.CompletionDate,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// editableFields copies the user-editable fields of in onto base.
func editableFields(base, in models.Trip) models.Trip {
	base.Plate = strings.ToUpper(strings.TrimSpace(in.Plate))
	base.DriverID = in.DriverID
	base.ClientID = in.ClientID
	base.Origin = strings.TrimSpace(in.Origin)
	base.Destination = strings.TrimSpace(in.Destination)
	base.StartDate = in.StartDate
	base.EndDate = in.EndDate
	base.Freight = in.Freight
	base.Costs = in.Costs
	return base
}

// checkTrip returns the first problem with t, or "" when it can be stored.
func (h *Handler) checkTrip(ctx context.Context, t models.Trip) string {
	switch {
	case t.Plate == "":
		return "A placa é obrigatória"
	case t.DriverID.IsZero():
		return "O motorista é obrigatório"
	case t.ClientID.IsZero():
		return "O cliente é obrigatório"
	case t.Origin == "" || t.Destination == "":
		return "Origem e destino são obrigatórios"
	case t.StartDate.IsZero() || t.EndDate.IsZero():
		return "As datas de início e fim são obrigatórias"
	case t.EndDate.Before(t.StartDate.Time):
		return "A data de fim não pode ser anterior à data de início"
	case t.Freight.IsNegative() || t.Costs.IsNegative():
		return "Valores não podem ser negativos"
	}
	if _, err := h.trucks.FindTruckByPlate(ctx, t.Plate); err != nil {
		return "Caminhão não encontrado"
	}
	if _, err := h.drivers.FindDriverByID(ctx, t.DriverID); err != nil {
		return "Motorista não encontrado"
	}
	if _, err := h.clients.FindClientByID(ctx, t.ClientID); err != nil {
		return "Cliente não encontrado"
	}
	return ""
}

// enrich joins truck, driver and client names into trips in place.
func (h *Handler) enrich(ctx context.Context, trips []models.Trip) error {
	if len(trips) == 0 {
		return nil
	}
	trucks, err := h.trucks.FindTrucks(ctx)
	if err != nil {
		return err
	}
	drivers, err := h.drivers.FindDrivers(ctx)
	if err != nil {
		return err
	}
	clients, err := h.clients.FindClients(ctx)
	if err != nil {
		return err
	}

	truckNames := make(map[string]string, len(trucks))
	for _, t := range trucks {
		truckNames[t.Plate] = t.Name
	}
	driverNames := make(map[models.ID]string, len(drivers))
	for _, d := range drivers {
		driverNames[d.ID] = d.Name
	}
	clientNames := make(map[models.ID]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}
	for i := range trips {
		trips[i].TruckName = truckNames[trips[i].Plate]
		trips[i].DriverName = driverNames[trips[i].DriverID]
		trips[i].ClientName = clientNames[trips[i].ClientID]
	}
	return nil
}

func parseMoney(raw json.RawMessage) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == `""` {
		return decimal.Zero, nil
	}
	var d decimal.Decimal
	err := json.Unmarshal(raw, &d)
	return d, err
}
