package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-trips/internal/db"
	"github.com/ukydev/fleet-trips/internal/events"
	"github.com/ukydev/fleet-trips/internal/models"
)

type fixture struct {
	trucks  *MockTruckCollection
	drivers *MockDriverCollection
	clients *MockClientCollection
	trips   *MockTripCollection
	events  *MockPublisher
	router  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		trucks:  new(MockTruckCollection),
		drivers: new(MockDriverCollection),
		clients: new(MockClientCollection),
		trips:   new(MockTripCollection),
		events:  new(MockPublisher),
	}
	h := NewHandler(Deps{
		Trucks:  f.trucks,
		Drivers: f.drivers,
		Clients: f.clients,
		Trips:   f.trips,
		Events:  f.events,
		Log:     logrus.NewEntry(logger),
	})
	h.now = func() time.Time { return time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC) }
	f.router = h.Routes(nil, 0)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) expectNames() {
	f.trucks.On("FindTrucks", mock.Anything).Return([]models.Truck{{ID: "k1", Plate: "ABC1234", Name: "Volvo FH"}}, nil)
	f.drivers.On("FindDrivers", mock.Anything).Return([]models.Driver{{ID: "d1", Name: "João"}}, nil)
	f.clients.On("FindClients", mock.Anything).Return([]models.Client{{ID: "c1", Name: "Agro SA"}}, nil)
}

func openTrip() *models.Trip {
	return &models.Trip{
		ID:          "t1",
		Plate:       "ABC1234",
		DriverID:    "d1",
		ClientID:    "c1",
		Origin:      "Curitiba",
		Destination: "Santos",
		StartDate:   models.NewDate(2024, time.March, 1),
		EndDate:     models.NewDate(2024, time.March, 3),
		Freight:     decimal.NewFromInt(10000),
		Status:      models.StatusInProgress,
	}
}

func errorText(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Erro
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateTruck(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("InsertTruck", mock.Anything, models.Truck{Plate: "XYZ9999", Name: "Scania"}).
			Return(models.Truck{ID: "k9", Plate: "XYZ9999", Name: "Scania"}, nil)

		w := f.do("POST", "/caminhoes", `{"placa":" xyz9999 ","nome":"Scania"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":"k9","placa":"XYZ9999","nome":"Scania"}`, w.Body.String())
		f.trucks.AssertExpectations(t)
	})

	t.Run("duplicate plate", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("InsertTruck", mock.Anything, mock.Anything).Return(models.Truck{}, db.ErrDuplicate)

		w := f.do("POST", "/caminhoes", `{"placa":"ABC1234"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Placa já cadastrada", errorText(t, w))
	})

	t.Run("missing plate", func(t *testing.T) {
		f := newFixture(t)
		w := f.do("POST", "/caminhoes", `{"nome":"Sem placa"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.trucks.AssertNotCalled(t, "InsertTruck", mock.Anything, mock.Anything)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		f := newFixture(t)
		w := f.do("POST", "/caminhoes", `{`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteTruck(t *testing.T) {
	t.Run("refused while trips reference it", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByID", mock.Anything, models.ID("k1")).Return(&models.Truck{ID: "k1", Plate: "ABC1234"}, nil)
		f.trips.On("CountTrips", mock.Anything, db.TripFilter{Plate: "ABC1234"}).Return(int64(2), nil)

		w := f.do("DELETE", "/caminhoes/k1", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, errorText(t, w), "viagens associadas")
		f.trucks.AssertNotCalled(t, "DeleteTruck", mock.Anything, mock.Anything)
	})

	t.Run("unknown truck", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByID", mock.Anything, models.ID("nope")).Return(nil, db.ErrNotFound)

		w := f.do("DELETE", "/caminhoes/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("deleted", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByID", mock.Anything, models.ID("k1")).Return(&models.Truck{ID: "k1", Plate: "ABC1234"}, nil)
		f.trips.On("CountTrips", mock.Anything, db.TripFilter{Plate: "ABC1234"}).Return(int64(0), nil)
		f.trucks.On("DeleteTruck", mock.Anything, models.ID("k1")).Return(nil)

		w := f.do("DELETE", "/caminhoes/k1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		f.trucks.AssertExpectations(t)
	})
}

func TestDeleteDriver_WithTrips(t *testing.T) {
	f := newFixture(t)
	f.drivers.On("FindDriverByID", mock.Anything, models.ID("d1")).Return(&models.Driver{ID: "d1"}, nil)
	f.trips.On("CountTrips", mock.Anything, db.TripFilter{DriverID: "d1"}).Return(int64(1), nil)

	w := f.do("DELETE", "/motoristas/d1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateDriverAndClient(t *testing.T) {
	f := newFixture(t)
	f.drivers.On("InsertDriver", mock.Anything, models.Driver{Name: "Ana", License: "123"}).
		Return(models.Driver{ID: "d2", Name: "Ana", License: "123"}, nil)
	f.clients.On("InsertClient", mock.Anything, models.Client{Name: "Agro SA", Email: "a@agro.com"}).
		Return(models.Client{ID: "c2", Name: "Agro SA", Email: "a@agro.com"}, nil)

	w := f.do("POST", "/motoristas", `{"nome":"Ana","cnh":"123"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do("POST", "/clientes", `{"nome":"Agro SA","email":"a@agro.com"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do("POST", "/clientes", `{"nome":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const newTripBody = `{
	"placa":"ABC1234","motorista_id":"d1","cliente_id":"c1",
	"origem":"Curitiba","destino":"Santos",
	"inicio":"2024-03-01","fim":"2024-03-03",
	"frete":"10000","custos":""
}`

func TestCreateTrip(t *testing.T) {
	t.Run("starts in progress", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(&models.Truck{ID: "k1", Plate: "ABC1234"}, nil)
		f.drivers.On("FindDriverByID", mock.Anything, models.ID("d1")).Return(&models.Driver{ID: "d1"}, nil)
		f.clients.On("FindClientByID", mock.Anything, models.ID("c1")).Return(&models.Client{ID: "c1"}, nil)
		f.trips.On("InsertTrip", mock.Anything, mock.MatchedBy(func(tr models.Trip) bool {
			return tr.Status == models.StatusInProgress && tr.Freight.Equal(decimal.NewFromInt(10000)) &&
				tr.Costs.IsZero() && !tr.TotalProfit.Valid
		})).Return(*openTrip(), nil)

		w := f.do("POST", "/viagens", newTripBody)
		require.Equal(t, http.StatusCreated, w.Code)

		var got models.Trip
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, models.ID("t1"), got.ID)
		assert.Equal(t, models.StatusInProgress, got.Status)
	})

	t.Run("status in the body is ignored", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(&models.Truck{}, nil)
		f.drivers.On("FindDriverByID", mock.Anything, mock.Anything).Return(&models.Driver{}, nil)
		f.clients.On("FindClientByID", mock.Anything, mock.Anything).Return(&models.Client{}, nil)
		f.trips.On("InsertTrip", mock.Anything, mock.MatchedBy(func(tr models.Trip) bool {
			return tr.Status == models.StatusInProgress
		})).Return(*openTrip(), nil)

		body := `{"placa":"ABC1234","motorista_id":"d1","cliente_id":"c1","origem":"A","destino":"B",
			"inicio":"2024-03-01","fim":"2024-03-03","frete":100,"status":"Finalizada","lucro_total":100}`
		w := f.do("POST", "/viagens", body)
		assert.Equal(t, http.StatusCreated, w.Code)
		f.trips.AssertExpectations(t)
	})

	t.Run("missing driver", func(t *testing.T) {
		f := newFixture(t)
		body := `{"placa":"ABC1234","cliente_id":"c1","origem":"A","destino":"B","inicio":"2024-03-01","fim":"2024-03-03","frete":100}`
		w := f.do("POST", "/viagens", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "O motorista é obrigatório", errorText(t, w))
	})

	t.Run("end before start", func(t *testing.T) {
		f := newFixture(t)
		body := `{"placa":"ABC1234","motorista_id":"d1","cliente_id":"c1","origem":"A","destino":"B","inicio":"2024-03-05","fim":"2024-03-03","frete":100}`
		w := f.do("POST", "/viagens", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown truck", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(nil, db.ErrNotFound)
		w := f.do("POST", "/viagens", newTripBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Caminhão não encontrado", errorText(t, w))
	})
}

func TestUpdateTrip(t *testing.T) {
	t.Run("finalized trips are locked", func(t *testing.T) {
		f := newFixture(t)
		closed := openTrip()
		closed.Status = models.StatusFinalized
		f.trips.On("FindTripByID", mock.Anything, models.ID("t1")).Return(closed, nil)

		w := f.do("PUT", "/viagens/t1", newTripBody)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, msgFinalizedLocked, errorText(t, w))
		f.trips.AssertNotCalled(t, "UpdateTrip", mock.Anything, mock.Anything)
	})

	t.Run("keeps status and profit", func(t *testing.T) {
		f := newFixture(t)
		f.trips.On("FindTripByID", mock.Anything, models.ID("t1")).Return(openTrip(), nil)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(&models.Truck{}, nil)
		f.drivers.On("FindDriverByID", mock.Anything, mock.Anything).Return(&models.Driver{}, nil)
		f.clients.On("FindClientByID", mock.Anything, mock.Anything).Return(&models.Client{}, nil)
		f.trips.On("UpdateTrip", mock.Anything, mock.MatchedBy(func(tr models.Trip) bool {
			return tr.ID == "t1" && tr.Destination == "Paranaguá" && tr.Status == models.StatusInProgress
		})).Return(nil)

		body := `{"placa":"ABC1234","motorista_id":"d1","cliente_id":"c1","origem":"Curitiba","destino":"Paranaguá",
			"inicio":"2024-03-01","fim":"2024-03-03","frete":"10000","status":"Finalizada"}`
		w := f.do("PUT", "/viagens/t1", body)
		assert.Equal(t, http.StatusOK, w.Code)
		f.trips.AssertExpectations(t)
	})

	t.Run("unknown trip", func(t *testing.T) {
		f := newFixture(t)
		f.trips.On("FindTripByID", mock.Anything, models.ID("zz")).Return(nil, db.ErrNotFound)
		w := f.do("PUT", "/viagens/zz", newTripBody)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestFinalizeTrip(t *testing.T) {
	t.Run("stores freight minus costs", func(t *testing.T) {
		f := newFixture(t)
		f.trips.On("FindTripByID", mock.Anything, models.ID("t1")).Return(openTrip(), nil)
		f.trips.On("UpdateTrip", mock.Anything, mock.MatchedBy(func(tr models.Trip) bool {
			return tr.Status == models.StatusFinalized &&
				tr.TotalProfit.Valid && tr.TotalProfit.Decimal.Equal(decimal.NewFromInt(6500)) &&
				tr.Costs.Equal(decimal.NewFromInt(3500)) &&
				tr.CompletionDate.String() == "2024-03-05"
		})).Return(nil)
		f.events.On("PublishTripFinalized", mock.Anything, mock.MatchedBy(func(ev events.TripFinalized) bool {
			return ev.TripID == "t1" && ev.TotalProfit.Equal(decimal.NewFromInt(6500))
		})).Return(nil)

		w := f.do("PATCH", "/viagens/t1/finalizar", `{"custos":"3500"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.Trip
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, models.StatusFinalized, got.Status)
		assert.Equal(t, "6500.00", got.TotalProfit.Decimal.StringFixed(2))
		f.trips.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("loss is allowed", func(t *testing.T) {
		f := newFixture(t)
		f.trips.On("FindTripByID", mock.Anything, models.ID("t1")).Return(openTrip(), nil)
		f.trips.On("UpdateTrip", mock.Anything, mock.MatchedBy(func(tr models.Trip) bool {
			return tr.TotalProfit.Decimal.Equal(decimal.NewFromInt(-2000))
		})).Return(nil)
		f.events.On("PublishTripFinalized", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		w := f.do("PATCH", "/viagens/t1/finalizar", `{"custos":12000}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already finalized", func(t *testing.T) {
		f := newFixture(t)
		closed := openTrip()
		closed.Status = models.StatusFinalized
		f.trips.On("FindTripByID", mock.Anything, models.ID("t1")).Return(closed, nil)

		w := f.do("PATCH", "/viagens/t1/finalizar", `{"custos":"100"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "Esta viagem já foi finalizada.", errorText(t, w))
	})

	t.Run("unknown trip", func(t *testing.T) {
		f := newFixture(t)
		f.trips.On("FindTripByID", mock.Anything, models.ID("t9")).Return(nil, db.ErrNotFound)

		w := f.do("PATCH", "/viagens/t9/finalizar", `{"custos":"100"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("negative costs", func(t *testing.T) {
		f := newFixture(t)
		w := f.do("PATCH", "/viagens/t1/finalizar", `{"custos":"-1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture(t)
		f.trips.On("FindTripByID", mock.Anything, models.ID("t1")).Return(nil, errors.New("socket closed"))

		w := f.do("PATCH", "/viagens/t1/finalizar", `{"custos":"1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Erro ao finalizar viagem", errorText(t, w))
	})
}

func TestDeleteTrip(t *testing.T) {
	f := newFixture(t)
	f.trips.On("DeleteTrip", mock.Anything, models.ID("t1")).Return(nil)
	f.trips.On("DeleteTrip", mock.Anything, models.ID("t2")).Return(db.ErrNotFound)

	assert.Equal(t, http.StatusNoContent, f.do("DELETE", "/viagens/t1", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do("DELETE", "/viagens/t2", "").Code)
}

func TestTripsByPlate(t *testing.T) {
	t.Run("unknown truck", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ZZZ0000").Return(nil, db.ErrNotFound)

		w := f.do("GET", "/viagens-por-placa/zzz0000", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("truck without trips", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(&models.Truck{Plate: "ABC1234"}, nil)
		f.trips.On("FindTrips", mock.Anything, db.TripFilter{Plate: "ABC1234"}).Return([]models.Trip{}, nil)

		w := f.do("GET", "/viagens-por-placa/ABC1234", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"placa":"ABC1234","viagens":[]}`, w.Body.String())
	})

	t.Run("not found without a message uses the fallback", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(&models.Truck{Plate: "ABC1234"}, nil)
		f.trips.On("FindTrips", mock.Anything, db.TripFilter{Plate: "ABC1234"}).Return(nil, db.ErrNotFound)

		w := f.do("GET", "/viagens-por-placa/ABC1234", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Erro ao buscar viagens", errorText(t, w))
	})

	t.Run("enriched trips", func(t *testing.T) {
		f := newFixture(t)
		f.trucks.On("FindTruckByPlate", mock.Anything, "ABC1234").Return(&models.Truck{Plate: "ABC1234"}, nil)
		f.trips.On("FindTrips", mock.Anything, db.TripFilter{Plate: "ABC1234"}).Return([]models.Trip{*openTrip()}, nil)
		f.expectNames()

		w := f.do("GET", "/viagens-por-placa/ABC1234", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got struct {
			Plate string        `json:"placa"`
			Trips []models.Trip `json:"viagens"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got.Trips, 1)
		assert.Equal(t, "Volvo FH", got.Trips[0].TruckName)
		assert.Equal(t, "João", got.Trips[0].DriverName)
		assert.Equal(t, "Agro SA", got.Trips[0].ClientName)
	})
}

func TestCurrentSituation_LatestPerTruck(t *testing.T) {
	f := newFixture(t)
	older := openTrip()
	newer := openTrip()
	newer.ID = "t2"
	newer.StartDate = models.NewDate(2024, time.March, 4)
	other := openTrip()
	other.ID = "t3"
	other.Plate = "DEF5678"

	f.trips.On("FindTrips", mock.Anything, db.TripFilter{Status: models.StatusInProgress}).
		Return([]models.Trip{*older, *other, *newer}, nil)
	f.expectNames()

	w := f.do("GET", "/situacao-atual-caminhoes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Trip
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, models.ID("t2"), got[0].ID)
	assert.Equal(t, models.ID("t3"), got[1].ID)
}

func TestActiveAndFinalizedLists(t *testing.T) {
	f := newFixture(t)
	f.trips.On("FindTrips", mock.Anything, db.TripFilter{Status: models.StatusInProgress}).Return([]models.Trip{*openTrip()}, nil)
	f.trips.On("FindTrips", mock.Anything, db.TripFilter{Status: models.StatusFinalized}).Return(nil, errors.New("boom"))
	f.expectNames()

	w := f.do("GET", "/viagens-ativas-lista", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do("GET", "/viagens-finalizadas-lista", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Erro ao buscar viagens finalizadas", errorText(t, w))
}

func TestProductivity_Labels(t *testing.T) {
	f := newFixture(t)
	gain := openTrip()
	gain.Status = models.StatusFinalized
	gain.TotalProfit = decimal.NewNullDecimal(decimal.NewFromInt(6500))
	gain.CompletionDate = models.NewDate(2024, time.March, 5)
	loss := openTrip()
	loss.ID = "t2"
	loss.Status = models.StatusFinalized
	loss.TotalProfit = decimal.NewNullDecimal(decimal.NewFromInt(-200))

	f.trips.On("FindTrips", mock.Anything, db.TripFilter{Status: models.StatusFinalized}).
		Return([]models.Trip{*gain, *loss}, nil)
	f.expectNames()

	w := f.do("GET", "/relatorio-produtividade", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.ProductivityEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, models.ProductivityProfit, got[0].Status)
	assert.Equal(t, "João", got[0].DriverName)
	assert.Equal(t, models.ProductivityLoss, got[1].Status)
}

func TestOversizedBody(t *testing.T) {
	f := newFixture(t)
	body := `{"placa":"ABC1234","nome":"` + strings.Repeat("x", maxBodyBytes) + `"}`

	w := f.do("POST", "/caminhoes", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.trucks.AssertNotCalled(t, "InsertTruck", mock.Anything, mock.Anything)
}
