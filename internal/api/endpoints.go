package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/ukydev/fleet-trips/internal/models"
)

// ListTrucks fetches every registered truck.
func (c *Client) ListTrucks(ctx context.Context) ([]models.Truck, error) {
	var out []models.Truck
	err := c.get(ctx, "/caminhoes", &out, "Erro ao carregar caminhões.")
	return out, err
}

// CreateTruck registers a truck.
func (c *Client) CreateTruck(ctx context.Context, t models.Truck) (*models.Truck, error) {
	var out models.Truck
	if err := c.do(ctx, http.MethodPost, "/caminhoes", t, &out, "Erro ao cadastrar caminhão."); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTruck removes a truck. The backend refuses when trips reference it.
func (c *Client) DeleteTruck(ctx context.Context, id models.ID) error {
	return c.do(ctx, http.MethodDelete, "/caminhoes/"+escape(id.String()), nil, nil,
		"Erro ao excluir caminhão. Verifique se não há viagens associadas.")
}

// ListDrivers fetches every registered driver.
func (c *Client) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	var out []models.Driver
	err := c.get(ctx, "/motoristas", &out, "Erro ao carregar motoristas.")
	return out, err
}

// CreateDriver registers a driver.
func (c *Client) CreateDriver(ctx context.Context, d models.Driver) (*models.Driver, error) {
	var out models.Driver
	if err := c.do(ctx, http.MethodPost, "/motoristas", d, &out, "Erro ao cadastrar motorista."); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDriver removes a driver.
func (c *Client) DeleteDriver(ctx context.Context, id models.ID) error {
	return c.do(ctx, http.MethodDelete, "/motoristas/"+escape(id.String()), nil, nil,
		"Erro ao excluir motorista. Verifique se não há viagens associadas.")
}

// ListClients fetches every registered client.
func (c *Client) ListClients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	err := c.get(ctx, "/clientes", &out, "Erro ao carregar clientes.")
	return out, err
}

// CreateClient registers a client.
func (c *Client) CreateClient(ctx context.Context, cl models.Client) (*models.Client, error) {
	var out models.Client
	if err := c.do(ctx, http.MethodPost, "/clientes", cl, &out, "Erro ao cadastrar cliente."); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTrip posts a new trip and returns the persisted record.
func (c *Client) CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error) {
	var out models.Trip
	if err := c.do(ctx, http.MethodPost, "/viagens", t, &out, "Erro ao cadastrar viagem."); err != nil {
		return nil, err
	}
	if out.ID.IsZero() {
		// some backends answer with a bare message
		return &t, nil
	}
	return &out, nil
}

// UpdateTrip replaces a trip.
func (c *Client) UpdateTrip(ctx context.Context, t models.Trip) (*models.Trip, error) {
	var out models.Trip
	path := "/viagens/" + escape(t.ID.String())
	if err := c.do(ctx, http.MethodPut, path, t, &out, "Erro ao salvar alterações. Tente novamente."); err != nil {
		return nil, err
	}
	if out.ID.IsZero() {
		return &t, nil
	}
	return &out, nil
}

// FinalizeTrip sends the finalization transition with the entered costs.
func (c *Client) FinalizeTrip(ctx context.Context, id models.ID, costs decimal.Decimal) (*models.Trip, error) {
	var out models.Trip
	path := "/viagens/" + escape(id.String()) + "/finalizar"
	err := c.do(ctx, http.MethodPatch, path, models.FinalizeRequest{Costs: costs}, &out,
		"Erro ao finalizar viagem. Tente novamente.")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTrip removes a trip.
func (c *Client) DeleteTrip(ctx context.Context, id models.ID) error {
	return c.do(ctx, http.MethodDelete, "/viagens/"+escape(id.String()), nil, nil,
		"Erro ao excluir a viagem. Tente novamente.")
}

// TripsByPlate returns the raw wrapped per-plate response.
func (c *Client) TripsByPlate(ctx context.Context, plate string) (*models.PlateTrips, error) {
	var out models.PlateTrips
	err := c.get(ctx, "/viagens-por-placa/"+escape(plate), &out, "Erro ao buscar viagens. Tente novamente mais tarde.")
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ActiveTrips returns the raw active-trips list body.
func (c *Client) ActiveTrips(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, "/viagens-ativas-lista", &raw, "Erro ao carregar viagens ativas. Tente novamente mais tarde.")
	return raw, err
}

// FinalizedTrips returns the raw finalized-trips list body.
func (c *Client) FinalizedTrips(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, "/viagens-finalizadas-lista", &raw, "Erro ao carregar dados. Tente novamente mais tarde.")
	return raw, err
}

// CurrentSituation returns the raw enriched active-trips body.
func (c *Client) CurrentSituation(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, "/situacao-atual-caminhoes", &raw, "Erro ao carregar a situação atual. Tente novamente mais tarde.")
	return raw, err
}

// Productivity returns the raw productivity report body.
func (c *Client) Productivity(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := c.get(ctx, "/relatorio-produtividade", &raw, "Erro ao carregar dados de produtividade. Tente novamente mais tarde.")
	return raw, err
}
