package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/db"
	"github.com/ukydev/fleet-trips/internal/events"
	"github.com/ukydev/fleet-trips/internal/models"
)

// Deps are the collaborators of the API handlers.
type Deps struct {
	Trucks  db.TruckCollection
	Drivers db.DriverCollection
	Clients db.ClientCollection
	Trips   db.TripCollection
	Events  events.Publisher
	Log     *logrus.Entry
}

// Handler serves the fleet REST API.
type Handler struct {
	trucks  db.TruckCollection
	drivers db.DriverCollection
	clients db.ClientCollection
	trips   db.TripCollection
	events  events.Publisher
	log     *logrus.Entry
	now     func() time.Time
}

// NewHandler creates the API handler
func NewHandler(d Deps) *Handler {
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Log == nil {
		d.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		trucks:  d.Trucks,
		drivers: d.Drivers,
		clients: d.Clients,
		trips:   d.Trips,
		events:  d.Events,
		log:     d.Log,
		now:     time.Now,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// maxBodyBytes caps request bodies; every payload of this API is a small
// JSON object.
const maxBodyBytes = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorBody{Erro: msg})
}

// fail maps store errors to responses. Unexpected errors are logged and
// answered with 500 and the fallback message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg, fallback string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		if notFoundMsg == "" {
			notFoundMsg = fallback
		}
		writeError(w, http.StatusNotFound, notFoundMsg)
	default:
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
