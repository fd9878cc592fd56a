package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TripStatus is the lifecycle status reported by the backend.
type TripStatus string

const (
	StatusInProgress TripStatus = "Em andamento"
	StatusFinalized  TripStatus = "Finalizada"
)

// IsValid checks if a status is one of the known values
func (s TripStatus) IsValid() bool {
	return s == StatusInProgress || s == StatusFinalized
}

// Trip represents a single haul of one truck from origin to destination.
type Trip struct {
	ID             ID                  `json:"id,omitempty"`
	Plate          string              `json:"placa"`
	DriverID       ID                  `json:"motorista_id,omitempty"`
	ClientID       ID                  `json:"cliente_id,omitempty"`
	Origin         string              `json:"origem"`
	Destination    string              `json:"destino"`
	StartDate      Date                `json:"inicio"`
	EndDate        Date                `json:"fim"`
	Freight        decimal.Decimal     `json:"frete"`
	Costs          decimal.Decimal     `json:"custos"`
	TotalProfit    decimal.NullDecimal `json:"lucro_total"`
	Status         TripStatus          `json:"status"`
	CompletionDate Date                `json:"data_termino"`

	// Display names joined in by enriched endpoints.
	TruckName  string `json:"caminhao_nome,omitempty"`
	DriverName string `json:"motorista_nome,omitempty"`
	ClientName string `json:"cliente_nome,omitempty"`
}

// IsFinalized reports whether the trip reached its terminal status.
func (t Trip) IsFinalized() bool {
	return t.Status == StatusFinalized
}

// ExpectedProfit is freight minus costs, the value the backend must store
// as total profit on finalization.
func (t Trip) ExpectedProfit() decimal.Decimal {
	return t.Freight.Sub(t.Costs)
}

// PlateTrips is the wrapped response of the per-plate lookup.
type PlateTrips struct {
	Plate string            `json:"placa"`
	Trips []json.RawMessage `json:"viagens"`
}

// FinalizeRequest is the body of the finalization call. It carries only
// the entered costs; the backend derives the profit.
type FinalizeRequest struct {
	Costs decimal.Decimal `json:"custos"`
}

// ProductivityEntry is one row of the productivity dashboard.
type ProductivityEntry struct {
	Plate          string          `json:"placa"`
	DriverName     string          `json:"motorista_nome,omitempty"`
	Origin         string          `json:"origem,omitempty"`
	Destination    string          `json:"destino,omitempty"`
	TotalProfit    decimal.Decimal `json:"lucro_total"`
	Status         string          `json:"status"`
	CompletionDate Date            `json:"data_termino"`
}

// Productivity labels used by the dashboard.
const (
	ProductivityProfit = "Lucro"
	ProductivityLoss   = "Prejuízo"
)

// IsProfit reports whether the row is labelled as a profit.
func (p ProductivityEntry) IsProfit() bool {
	return p.Status == ProductivityProfit
}

// ErrorBody is the JSON error payload returned by the backend.
type ErrorBody struct {
	Erro    string `json:"erro,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Text returns the first non-empty message field.
func (e ErrorBody) Text() string {
	switch {
	case e.Erro != "":
		return e.Erro
	case e.Message != "":
		return e.Message
	default:
		return e.Error
	}
}

// DaysOnRoad counts the days since the trip started.
func (t Trip) DaysOnRoad(now time.Time) int {
	return t.StartDate.DaysSince(now)
}

// UnmarshalJSON treats empty strings in the money fields as absent values,
// since form-driven backends echo untouched inputs back as "".
func (t *Trip) UnmarshalJSON(data []byte) error {
	type alias Trip
	aux := struct {
		*alias
		Freight     json.RawMessage `json:"frete"`
		Costs       json.RawMessage `json:"custos"`
		TotalProfit json.RawMessage `json:"lucro_total"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Freight, t.Costs = decimal.Zero, decimal.Zero
	t.TotalProfit = decimal.NullDecimal{}
	if !blankJSON(aux.Freight) {
		if err := json.Unmarshal(aux.Freight, &t.Freight); err != nil {
			return err
		}
	}
	if !blankJSON(aux.Costs) {
		if err := json.Unmarshal(aux.Costs, &t.Costs); err != nil {
			return err
		}
	}
	if !blankJSON(aux.TotalProfit) {
		if err := json.Unmarshal(aux.TotalProfit, &t.TotalProfit); err != nil {
			return err
		}
	}
	return nil
}

func blankJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == `""`
}
