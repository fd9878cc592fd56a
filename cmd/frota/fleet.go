package main

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-trips/internal/models"
	"github.com/ukydev/fleet-trips/internal/registry"
)

func (a *app) truckCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		fs := a.flags("caminhao add")
		var form registry.TruckForm
		fs.StringVar(&form.Plate, "placa", "", "placa do caminhão")
		fs.StringVar(&form.Name, "nome", "", "nome do caminhão")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		msg, err := a.registry.RegisterTruck(ctx, &form)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	case "list":
		trucks, err := a.registry.ListTrucks(ctx)
		if err != nil {
			return err
		}
		if len(trucks) == 0 {
			fmt.Fprintln(a.out, "Nenhum caminhão cadastrado.")
			return nil
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tPLACA\tNOME")
		for _, t := range trucks {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Plate, t.Name)
		}
		return tw.Flush()
	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		msg, err := a.registry.DeleteTruck(ctx, models.ID(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	}
	return errUsage
}

func (a *app) driverCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		fs := a.flags("motorista add")
		var form registry.DriverForm
		fs.StringVar(&form.Name, "nome", "", "nome do motorista")
		fs.StringVar(&form.License, "cnh", "", "número da CNH")
		fs.StringVar(&form.Phone, "telefone", "", "telefone")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		msg, err := a.registry.RegisterDriver(ctx, &form)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	case "list":
		drivers, err := a.registry.ListDrivers(ctx)
		if err != nil {
			return err
		}
		if len(drivers) == 0 {
			fmt.Fprintln(a.out, "Nenhum motorista cadastrado.")
			return nil
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNOME\tCNH\tTELEFONE")
		for _, d := range drivers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.License, d.Phone)
		}
		return tw.Flush()
	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		msg, err := a.registry.DeleteDriver(ctx, models.ID(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	}
	return errUsage
}

func (a *app) clientCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		fs := a.flags("cliente add")
		var form registry.ClientForm
		fs.StringVar(&form.Name, "nome", "", "nome do cliente")
		fs.StringVar(&form.Phone, "telefone", "", "telefone")
		fs.StringVar(&form.Email, "email", "", "e-mail")
		fs.StringVar(&form.Address, "endereco", "", "endereço")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		msg, err := a.registry.RegisterClient(ctx, &form)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	case "list":
		clients, err := a.registry.ListClients(ctx)
		if err != nil {
			return err
		}
		if len(clients) == 0 {
			fmt.Fprintln(a.out, "Nenhum cliente cadastrado.")
			return nil
		}
		tw := a.table()
		fmt.Fprintln(tw, "ID\tNOME\tTELEFONE\tEMAIL")
		for _, c := range clients {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Email)
		}
		return tw.Flush()
	}
	return errUsage
}

// references loads the three selection lists the trip form depends on and
// reports what is missing.
func (a *app) references(ctx context.Context) error {
	snap, err := a.refs.LoadAll(ctx)
	tw := a.table()
	fmt.Fprintf(tw, "Caminhões:\t%d\n", len(snap.Trucks))
	fmt.Fprintf(tw, "Motoristas:\t%d\n", len(snap.Drivers))
	fmt.Fprintf(tw, "Clientes:\t%d\n", len(snap.Clients))
	if ferr := tw.Flush(); ferr != nil {
		return ferr
	}
	for _, hint := range snap.Hints() {
		fmt.Fprintln(a.out, hint)
	}
	return err
}
