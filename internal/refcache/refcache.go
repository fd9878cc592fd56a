package refcache

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/models"
)

// Source is the read side of the backend the cache loads from.
type Source interface {
	ListTrucks(ctx context.Context) ([]models.Truck, error)
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	ListClients(ctx context.Context) ([]models.Client, error)
}

// Option is one entry of a selection input.
type Option struct {
	ID    models.ID
	Label string
}

// Snapshot is the result of one LoadAll call.
type Snapshot struct {
	Trucks  []models.Truck
	Drivers []models.Driver
	Clients []models.Client

	// Errors holds the isolated failures, in trucks/drivers/clients order.
	Errors []error

	truckFailed, driverFailed, clientFailed bool
}

// Cache loads the truck, driver and client lists used by the trip forms.
type Cache struct {
	src Source
	log *logrus.Entry
}

// New creates a reference cache over src.
func New(src Source, log *logrus.Entry) *Cache {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cache{src: src, log: log}
}

// LoadAll fetches the three lists concurrently. A failed list is left empty
// and its message is merged into the returned partial error; the other lists
// are still returned.
func (c *Cache) LoadAll(ctx context.Context) (*Snapshot, error) {
	var (
		wg                          sync.WaitGroup
		snap                        Snapshot
		truckErr, driverErr, cliErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		trucks, err := c.src.ListTrucks(ctx)
		if err != nil {
			truckErr = apperr.Wrapf(err, "Erro ao carregar placas de caminhões")
			return
		}
		snap.Trucks = trucks
	}()
	go func() {
		defer wg.Done()
		drivers, err := c.src.ListDrivers(ctx)
		if err != nil {
			driverErr = apperr.Wrapf(err, "Erro ao carregar motoristas")
			return
		}
		snap.Drivers = drivers
	}()
	go func() {
		defer wg.Done()
		clients, err := c.src.ListClients(ctx)
		if err != nil {
			cliErr = apperr.Wrapf(err, "Erro ao carregar clientes")
			return
		}
		snap.Clients = clients
	}()
	wg.Wait()

	snap.truckFailed = truckErr != nil
	snap.driverFailed = driverErr != nil
	snap.clientFailed = cliErr != nil
	for _, err := range []error{truckErr, driverErr, cliErr} {
		if err != nil {
			snap.Errors = append(snap.Errors, err)
		}
	}

	c.log.WithFields(logrus.Fields{
		"trucks":  len(snap.Trucks),
		"drivers": len(snap.Drivers),
		"clients": len(snap.Clients),
		"errors":  len(snap.Errors),
	}).Debug("Loaded reference lists")

	return &snap, apperr.Partial(snap.Errors...)
}

// Message joins the load failures into one diagnostic text.
func (s *Snapshot) Message() string {
	return apperr.Message(apperr.Partial(s.Errors...))
}

// Hints returns the "register first" prompts for empty lists that did not
// fail to load.
func (s *Snapshot) Hints() []string {
	var hints []string
	if len(s.Trucks) == 0 && !s.truckFailed {
		hints = append(hints, "Nenhum caminhão cadastrado. Cadastre um caminhão primeiro.")
	}
	if len(s.Drivers) == 0 && !s.driverFailed {
		hints = append(hints, "Nenhum motorista cadastrado. Cadastre um motorista primeiro.")
	}
	if len(s.Clients) == 0 && !s.clientFailed {
		hints = append(hints, "Nenhum cliente cadastrado. Cadastre um cliente primeiro.")
	}
	return hints
}

// TruckOptions lists trucks keyed by plate, since trips reference plates.
func (s *Snapshot) TruckOptions() []Option {
	opts := make([]Option, 0, len(s.Trucks))
	for _, t := range s.Trucks {
		opts = append(opts, Option{ID: models.ID(t.Plate), Label: t.Label()})
	}
	return opts
}

func (s *Snapshot) DriverOptions() []Option {
	opts := make([]Option, 0, len(s.Drivers))
	for _, d := range s.Drivers {
		opts = append(opts, Option{ID: d.ID, Label: d.Name})
	}
	return opts
}

func (s *Snapshot) ClientOptions() []Option {
	opts := make([]Option, 0, len(s.Clients))
	for _, c := range s.Clients {
		opts = append(opts, Option{ID: c.ID, Label: c.Name})
	}
	return opts
}

// HasTruck reports whether a truck with the plate is registered. A list
// that failed to load cannot rule anything out, so the Has methods report
// true for it and leave the check to the backend.
func (s *Snapshot) HasTruck(plate string) bool {
	_, ok := s.truck(plate)
	return ok || s.truckFailed
}

func (s *Snapshot) HasDriver(id models.ID) bool {
	_, ok := s.driver(id)
	return ok || s.driverFailed
}

func (s *Snapshot) HasClient(id models.ID) bool {
	_, ok := s.client(id)
	return ok || s.clientFailed
}

// TruckName resolves a plate to the truck's name.
func (s *Snapshot) TruckName(plate string) string {
	t, _ := s.truck(plate)
	return t.Name
}

func (s *Snapshot) DriverName(id models.ID) string {
	d, _ := s.driver(id)
	return d.Name
}

func (s *Snapshot) ClientName(id models.ID) string {
	c, _ := s.client(id)
	return c.Name
}

func (s *Snapshot) truck(plate string) (models.Truck, bool) {
	for _, t := range s.Trucks {
		if t.Plate == plate {
			return t, true
		}
	}
	return models.Truck{}, false
}

func (s *Snapshot) driver(id models.ID) (models.Driver, bool) {
	for _, d := range s.Drivers {
		if d.ID == id {
			return d, true
		}
	}
	return models.Driver{}, false
}

func (s *Snapshot) client(id models.ID) (models.Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}
