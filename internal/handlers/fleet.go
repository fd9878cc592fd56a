package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/db"
	"github.com/ukydev/fleet-trips/internal/models"
)

// CreateTruck handles POST /caminhoes
func (h *Handler) CreateTruck(w http.ResponseWriter, r *http.Request) {
	var in models.Truck
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	in.Plate = strings.ToUpper(strings.TrimSpace(in.Plate))
	in.Name = strings.TrimSpace(in.Name)
	if in.Plate == "" {
		writeError(w, http.StatusBadRequest, "A placa é obrigatória")
		return
	}

	truck, err := h.trucks.InsertTruck(r.Context(), in)
	if errors.Is(err, db.ErrDuplicate) {
		writeError(w, http.StatusConflict, "Placa já cadastrada")
		return
	}
	if err != nil {
		h.fail(w, r, err, "", "Erro ao cadastrar caminhão")
		return
	}
	h.log.WithFields(logrus.Fields{"plate": truck.Plate, "truck_id": truck.ID}).Info("Truck created")
	writeJSON(w, http.StatusCreated, truck)
}

// ListTrucks handles GET /caminhoes
func (h *Handler) ListTrucks(w http.ResponseWriter, r *http.Request) {
	trucks, err := h.trucks.FindTrucks(r.Context())
	if err != nil {
		h.fail(w, r, err, "", "Erro ao buscar caminhões")
		return
	}
	writeJSON(w, http.StatusOK, trucks)
}

// DeleteTruck handles DELETE /caminhoes/{id}. Trucks with trips are kept.
func (h *Handler) DeleteTruck(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	truck, err := h.trucks.FindTruckByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "Caminhão não encontrado", "Erro ao excluir caminhão")
		return
	}
	n, err := h.trips.CountTrips(r.Context(), db.TripFilter{Plate: truck.Plate})
	if err != nil {
		h.fail(w, r, err, "", "Erro ao excluir caminhão")
		return
	}
	if n > 0 {
		writeError(w, http.StatusConflict, "Não é possível excluir o caminhão. Verifique se não há viagens associadas.")
		return
	}
	if err := h.trucks.DeleteTruck(r.Context(), id); err != nil {
		h.fail(w, r, err, "Caminhão não encontrado", "Erro ao excluir caminhão")
		return
	}
	h.log.WithField("truck_id", id).Info("Truck deleted")
	w.WriteHeader(http.StatusNoContent)
}

// CreateDriver handles POST /motoristas
func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var in models.Driver
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "O nome do motorista é obrigatório")
		return
	}
	driver, err := h.drivers.InsertDriver(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "", "Erro ao cadastrar motorista")
		return
	}
	h.log.WithField("driver_id", driver.ID).Info("Driver created")
	writeJSON(w, http.StatusCreated, driver)
}

// ListDrivers handles GET /motoristas
func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.drivers.FindDrivers(r.Context())
	if err != nil {
		h.fail(w, r, err, "", "Erro ao buscar motoristas")
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

// DeleteDriver handles DELETE /motoristas/{id}. Drivers with trips are kept.
func (h *Handler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))
	if _, err := h.drivers.FindDriverByID(r.Context(), id); err != nil {
		h.fail(w, r, err, "Motorista não encontrado", "Erro ao excluir motorista")
		return
	}
	n, err := h.trips.CountTrips(r.Context(), db.TripFilter{DriverID: id})
	if err != nil {
		h.fail(w, r, err, "", "Erro ao excluir motorista")
		return
	}
	if n > 0 {
		writeError(w, http.StatusConflict, "Não é possível excluir o motorista. Verifique se não há viagens associadas.")
		return
	}
	if err := h.drivers.DeleteDriver(r.Context(), id); err != nil {
		h.fail(w, r, err, "Motorista não encontrado", "Erro ao excluir motorista")
		return
	}
	h.log.WithField("driver_id", id).Info("Driver deleted")
	w.WriteHeader(http.StatusNoContent)
}

// CreateClient handles POST /clientes
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in models.Client
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		writeError(w, http.StatusBadRequest, "O nome do cliente é obrigatório")
		return
	}
	client, err := h.clients.InsertClient(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, "", "Erro ao cadastrar cliente")
		return
	}
	h.log.WithField("client_id", client.ID).Info("Client created")
	writeJSON(w, http.StatusCreated, client)
}

// ListClients handles GET /clientes
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.FindClients(r.Context())
	if err != nil {
		h.fail(w, r, err, "", "Erro ao buscar clientes")
		return
	}
	writeJSON(w, http.StatusOK, clients)
}
