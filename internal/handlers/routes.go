package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/ukydev/fleet-trips/internal/middleware"
	"github.com/ukydev/fleet-trips/internal/models"
)

// Routes builds the router for every API endpoint. authMW may be nil.
func (h *Handler) Routes(authMW *middleware.AuthMiddleware, rateLimit int) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewRateLimitMiddleware().RateLimit(rateLimit, 60))
	r.Use(authMW.Authenticate)

	r.Get("/health", h.Health)

	view := authMW.RequirePermission(models.PermViewTrips)
	write := authMW.RequirePermission(models.PermWriteTrips)
	fleet := authMW.RequirePermission(models.PermManageFleet)

	r.With(view).Get("/caminhoes", h.ListTrucks)
	r.With(fleet).Post("/caminhoes", h.CreateTruck)
	r.With(fleet).Delete("/caminhoes/{id}", h.DeleteTruck)

	r.With(view).Get("/motoristas", h.ListDrivers)
	r.With(fleet).Post("/motoristas", h.CreateDriver)
	r.With(fleet).Delete("/motoristas/{id}", h.DeleteDriver)

	r.With(view).Get("/clientes", h.ListClients)
	r.With(fleet).Post("/clientes", h.CreateClient)

	r.With(write).Post("/viagens", h.CreateTrip)
	r.With(write).Put("/viagens/{id}", h.UpdateTrip)
	r.With(write).Patch("/viagens/{id}/finalizar", h.FinalizeTrip)
	r.With(write).Delete("/viagens/{id}", h.DeleteTrip)

	r.With(view).Get("/viagens-por-placa/{placa}", h.TripsByPlate)
	r.With(view).Get("/viagens-ativas-lista", h.ActiveTrips)
	r.With(view).Get("/viagens-finalizadas-lista", h.FinalizedTrips)
	r.With(view).Get("/situacao-atual-caminhoes", h.CurrentSituation)
	r.With(view).Get("/relatorio-produtividade", h.Productivity)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Rota não encontrada")
	})
	return r
}
