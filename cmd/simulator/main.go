package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/api"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/config"
	"github.com/ukydev/fleet-trips/internal/models"
)

// City is a route endpoint.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// Cities for realistic routes
var cities = []City{
	{"São Paulo", -23.5505, -46.6333},
	{"Rio de Janeiro", -22.9068, -43.1729},
	{"Belo Horizonte", -19.9167, -43.9345},
	{"Curitiba", -25.4284, -49.2733},
	{"Porto Alegre", -30.0346, -51.2177},
	{"Florianópolis", -27.5954, -48.5480},
	{"Santos", -23.9608, -46.3336},
	{"Campinas", -22.9099, -47.0626},
	{"Goiânia", -16.6869, -49.2648},
	{"Brasília", -15.7939, -47.8828},
	{"Salvador", -12.9777, -38.5016},
	{"Recife", -8.0476, -34.8770},
	{"Cuiabá", -15.6014, -56.0979},
	{"Campo Grande", -20.4697, -54.6201},
	{"Vitória", -20.3155, -40.3128},
}

var (
	driverNames = []string{"João Silva", "Maria Souza", "Carlos Pereira", "Ana Oliveira", "Paulo Santos", "Fernanda Lima", "Ricardo Gomes", "Juliana Costa"}
	clientNames = []string{"Transportes Sul", "Agro Cerrado", "Distribuidora Paulista", "Atacado Nordeste", "Metalúrgica Minas"}
	truckNames  = []string{"Volvo FH", "Scania R450", "Mercedes Actros", "DAF XF", "Iveco S-Way"}
)

const (
	freightPerKm = 9.5  // R$ per km quoted to the client
	kmPerDay     = 600  // distance a driver covers in one day
	minCostShare = 0.55 // costs as a share of freight
	maxCostShare = 1.05
)

// Backend is the part of the REST API the simulator drives.
type Backend interface {
	CreateTruck(ctx context.Context, t models.Truck) (*models.Truck, error)
	CreateDriver(ctx context.Context, d models.Driver) (*models.Driver, error)
	CreateClient(ctx context.Context, c models.Client) (*models.Client, error)
	CreateTrip(ctx context.Context, t models.Trip) (*models.Trip, error)
	FinalizeTrip(ctx context.Context, id models.ID, costs decimal.Decimal) (*models.Trip, error)
}

// TruckState tracks one simulated truck between ticks.
type TruckState struct {
	Plate    string
	DriverID models.ID
	Position City
	Trip     *models.Trip
}

type simulator struct {
	backend Backend
	rng     *rand.Rand
	mu      sync.Mutex // guards rng
	clients []models.ID
	now     func() time.Time
	log     *log.Entry
}

func newSimulator(backend Backend, seed int64, entry *log.Entry) *simulator {
	return &simulator{
		backend: backend,
		rng:     rand.New(rand.NewSource(seed)),
		now:     time.Now,
		log:     entry,
	}
}

func (s *simulator) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *simulator) float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func haversineKm(a, b City) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// quoteFreight prices a route by distance.
func quoteFreight(from, to City) decimal.Decimal {
	return decimal.NewFromFloat(haversineKm(from, to) * freightPerKm).Round(2)
}

// tripDays is the planned duration of a route, at least one day.
func tripDays(from, to City) int {
	days := int(math.Ceil(haversineKm(from, to) / kmPerDay))
	if days < 1 {
		return 1
	}
	return days
}

// randomPlate returns a Mercosul plate such as BRA2E19.
func (s *simulator) randomPlate() string {
	letter := func() byte { return byte('A' + s.intn(26)) }
	digit := func() byte { return byte('0' + s.intn(10)) }
	return string([]byte{letter(), letter(), letter(), digit(), letter(), digit(), digit()})
}

func (s *simulator) pickDestination(from City) City {
	for i := 0; i < 10; i++ {
		cand := cities[s.intn(len(cities))]
		if cand.Name != from.Name && haversineKm(from, cand) > 50 {
			return cand
		}
	}
	for _, c := range cities {
		if c.Name != from.Name {
			return c
		}
	}
	return from
}

// seed registers the clients, drivers and trucks of the simulated fleet.
func (s *simulator) seed(ctx context.Context, fleetSize int) ([]*TruckState, error) {
	for _, name := range clientNames {
		c, err := s.backend.CreateClient(ctx, models.Client{Name: name})
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		s.clients = append(s.clients, c.ID)
	}

	states := make([]*TruckState, 0, fleetSize)
	for i := 0; i < fleetSize; i++ {
		d, err := s.backend.CreateDriver(ctx, models.Driver{
			Name:  driverNames[i%len(driverNames)],
			Phone: fmt.Sprintf("(11) 9%04d-%04d", s.intn(10000), s.intn(10000)),
		})
		if err != nil {
			s.log.WithError(err).Error("Failed to create driver")
			continue
		}

		var truck *models.Truck
		for attempt := 0; attempt < 3; attempt++ {
			truck, err = s.backend.CreateTruck(ctx, models.Truck{
				Plate: s.randomPlate(),
				Name:  truckNames[s.intn(len(truckNames))],
			})
			if !apperr.Is(err, apperr.KindDomain) {
				break
			}
		}
		if err != nil {
			s.log.WithError(err).Error("Failed to create truck")
			continue
		}

		states = append(states, &TruckState{
			Plate:    truck.Plate,
			DriverID: d.ID,
			Position: cities[s.intn(len(cities))],
		})
		s.log.WithFields(log.Fields{"plate": truck.Plate, "driver_id": d.ID}).Info("Created truck")
	}
	if len(s.clients) == 0 || len(states) == 0 {
		return nil, errors.New("no trucks created")
	}
	return states, nil
}

// step advances one truck: an idle truck departs, a truck on the road
// arrives and its trip is finalized.
func (s *simulator) step(ctx context.Context, st *TruckState) error {
	if st.Trip == nil {
		return s.depart(ctx, st)
	}
	return s.arrive(ctx, st)
}

func (s *simulator) depart(ctx context.Context, st *TruckState) error {
	to := s.pickDestination(st.Position)
	start := models.DateOf(s.now())
	trip := models.Trip{
		Plate:       st.Plate,
		DriverID:    st.DriverID,
		ClientID:    s.clients[s.intn(len(s.clients))],
		Origin:      st.Position.Name,
		Destination: to.Name,
		StartDate:   start,
		EndDate:     models.Date{Time: start.AddDate(0, 0, tripDays(st.Position, to))},
		Freight:     quoteFreight(st.Position, to),
		Status:      models.StatusInProgress,
	}
	created, err := s.backend.CreateTrip(ctx, trip)
	if err != nil {
		return fmt.Errorf("failed to open trip: %w", err)
	}
	st.Trip = created
	s.log.WithFields(log.Fields{
		"plate":   st.Plate,
		"trip_id": created.ID,
		"route":   trip.Origin + " -> " + trip.Destination,
		"freight": trip.Freight.StringFixed(2),
	}).Info("Trip started")
	return nil
}

func (s *simulator) arrive(ctx context.Context, st *TruckState) error {
	share := minCostShare + s.float()*(maxCostShare-minCostShare)
	costs := st.Trip.Freight.Mul(decimal.NewFromFloat(share)).Round(2)

	done, err := s.backend.FinalizeTrip(ctx, st.Trip.ID, costs)
	if err != nil {
		if apperr.Is(err, apperr.KindDomain) || apperr.Is(err, apperr.KindNotFound) {
			// finalized or removed elsewhere; start over from the destination
			st.Position = cityNamed(st.Trip.Destination, st.Position)
			st.Trip = nil
		}
		return fmt.Errorf("failed to finalize trip: %w", err)
	}

	profit := st.Trip.Freight.Sub(costs)
	if done != nil && done.TotalProfit.Valid {
		profit = done.TotalProfit.Decimal
	}
	s.log.WithFields(log.Fields{
		"plate":   st.Plate,
		"trip_id": st.Trip.ID,
		"costs":   costs.StringFixed(2),
		"profit":  profit.StringFixed(2),
	}).Info("Trip finalized")

	st.Position = cityNamed(st.Trip.Destination, st.Position)
	st.Trip = nil
	return nil
}

func cityNamed(name string, fallback City) City {
	for _, c := range cities {
		if c.Name == name {
			return c
		}
	}
	return fallback
}

func (s *simulator) simulateTruck(ctx context.Context, st *TruckState, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := s.step(ctx, st); err != nil && ctx.Err() == nil {
				s.log.WithError(err).WithField("plate", st.Plate).Error("Simulation step failed")
			}
		}
	}
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	// Optional JWT for protected API
	if tok := os.Getenv("SIM_AUTH_TOKEN"); tok != "" {
		cfg.APIToken = tok
	}

	fleetSize := 5
	if val := os.Getenv("FLEET_SIZE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			fleetSize = n
		}
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogJSON)
	entry := log.NewEntry(logger)
	entry.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    cfg.APIBaseURL,
		"interval":   interval,
	}).Info("Starting fleet simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.New(cfg, api.WithLogger(entry.WithField("component", "api")))
	sim := newSimulator(client, time.Now().UnixNano(), entry)

	states, err := sim.seed(ctx, fleetSize)
	if err != nil {
		entry.WithError(err).Error("Ensure SIM_AUTH_TOKEN is valid and API is reachable. Exiting.")
		os.Exit(1)
	}
	entry.WithField("created_trucks", len(states)).Info("Fleet registration completed")

	var wg sync.WaitGroup
	for _, st := range states {
		wg.Add(1)
		go func(st *TruckState) {
			defer wg.Done()
			sim.simulateTruck(ctx, st, interval)
		}(st)
	}
	wg.Wait()
	entry.Info("Simulation stopped")
}
