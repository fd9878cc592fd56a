package registry

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/models"
	"github.com/ukydev/fleet-trips/internal/validation"
)

// Backend is the fleet registration surface of the REST API.
type Backend interface {
	ListTrucks(ctx context.Context) ([]models.Truck, error)
	CreateTruck(ctx context.Context, t models.Truck) (*models.Truck, error)
	DeleteTruck(ctx context.Context, id models.ID) error
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	CreateDriver(ctx context.Context, d models.Driver) (*models.Driver, error)
	DeleteDriver(ctx context.Context, id models.ID) error
	ListClients(ctx context.Context) ([]models.Client, error)
	CreateClient(ctx context.Context, c models.Client) (*models.Client, error)
}

// TruckForm is the truck registration form.
type TruckForm struct {
	Plate string `validate:"required,alphanum" label:"placa"`
	Name  string `label:"nome"`
}

// DriverForm is the driver registration form.
type DriverForm struct {
	Name    string `validate:"required" label:"nome"`
	License string `label:"cnh"`
	Phone   string `label:"telefone"`
}

// ClientForm is the client registration form.
type ClientForm struct {
	Name    string `validate:"required" label:"nome"`
	Phone   string `label:"telefone"`
	Email   string `validate:"omitempty,email" label:"email"`
	Address string `label:"endereço"`
}

// Registry registers and removes trucks, drivers and clients.
type Registry struct {
	backend  Backend
	validate *validation.Validator
	log      *logrus.Entry
}

// New creates a registry over the backend.
func New(backend Backend, log *logrus.Entry) *Registry {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Registry{backend: backend, validate: validation.New(), log: log}
}

// RegisterTruck creates a truck and clears the form on success.
func (r *Registry) RegisterTruck(ctx context.Context, f *TruckForm) (string, error) {
	f.Plate = strings.ToUpper(strings.TrimSpace(f.Plate))
	f.Name = strings.TrimSpace(f.Name)
	if err := r.check(f); err != nil {
		return "", err
	}
	t, err := r.backend.CreateTruck(ctx, models.Truck{Plate: f.Plate, Name: f.Name})
	if err != nil {
		r.log.WithError(err).WithField("plate", f.Plate).Warn("Failed to register truck")
		return "", err
	}
	r.log.WithFields(logrus.Fields{"plate": f.Plate, "truck_id": t.ID}).Info("Registered truck")
	*f = TruckForm{}
	return "Caminhão cadastrado com sucesso!", nil
}

// RegisterDriver creates a driver and clears the form on success.
func (r *Registry) RegisterDriver(ctx context.Context, f *DriverForm) (string, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.License = strings.TrimSpace(f.License)
	f.Phone = strings.TrimSpace(f.Phone)
	if err := r.check(f); err != nil {
		return "", err
	}
	d, err := r.backend.CreateDriver(ctx, models.Driver{Name: f.Name, License: f.License, Phone: f.Phone})
	if err != nil {
		r.log.WithError(err).WithField("name", f.Name).Warn("Failed to register driver")
		return "", err
	}
	r.log.WithField("driver_id", d.ID).Info("Registered driver")
	*f = DriverForm{}
	return "Motorista cadastrado com sucesso!", nil
}

// RegisterClient creates a client and clears the form on success.
func (r *Registry) RegisterClient(ctx context.Context, f *ClientForm) (string, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	if err := r.check(f); err != nil {
		return "", err
	}
	c, err := r.backend.CreateClient(ctx, models.Client{
		Name: f.Name, Phone: strings.TrimSpace(f.Phone), Email: f.Email, Address: strings.TrimSpace(f.Address),
	})
	if err != nil {
		r.log.WithError(err).WithField("name", f.Name).Warn("Failed to register client")
		return "", err
	}
	r.log.WithField("client_id", c.ID).Info("Registered client")
	*f = ClientForm{}
	return "Cliente cadastrado com sucesso!", nil
}

// DeleteTruck removes a truck; the backend refuses while trips reference it.
func (r *Registry) DeleteTruck(ctx context.Context, id models.ID) (string, error) {
	if id.IsZero() {
		return "", apperr.Validation("id", "Selecione o caminhão a ser excluído.")
	}
	if err := r.backend.DeleteTruck(ctx, id); err != nil {
		r.log.WithError(err).WithField("truck_id", id).Warn("Failed to delete truck")
		return "", err
	}
	return "Caminhão excluído com sucesso!", nil
}

// DeleteDriver removes a driver; the backend refuses while trips reference it.
func (r *Registry) DeleteDriver(ctx context.Context, id models.ID) (string, error) {
	if id.IsZero() {
		return "", apperr.Validation("id", "Selecione o motorista a ser excluído.")
	}
	if err := r.backend.DeleteDriver(ctx, id); err != nil {
		r.log.WithError(err).WithField("driver_id", id).Warn("Failed to delete driver")
		return "", err
	}
	return "Motorista excluído com sucesso!", nil
}

func (r *Registry) ListTrucks(ctx context.Context) ([]models.Truck, error) {
	return r.backend.ListTrucks(ctx)
}

func (r *Registry) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return r.backend.ListDrivers(ctx)
}

func (r *Registry) ListClients(ctx context.Context) ([]models.Client, error) {
	return r.backend.ListClients(ctx)
}

func (r *Registry) check(form any) error {
	return r.validate.Struct(form)
}
