package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/models"
	"github.com/ukydev/fleet-trips/internal/trips"
)

func (a *app) tripCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		return a.addTrip(ctx, args[1:])
	case "edit":
		return a.editTrip(ctx, args[1:])
	case "finalizar":
		return a.finalizeTrip(ctx, args[1:])
	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.service.Delete(ctx, models.ID(args[1])); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Viagem excluída com sucesso!")
		return nil
	}
	return errUsage
}

// draftFlags binds the editable draft fields to fs.
func draftFlags(fs *flag.FlagSet, d *trips.Draft) {
	fs.StringVar(&d.Plate, "placa", d.Plate, "placa do caminhão")
	fs.Func("motorista", "id do motorista", func(s string) error { d.DriverID = models.ID(s); return nil })
	fs.Func("cliente", "id do cliente", func(s string) error { d.ClientID = models.ID(s); return nil })
	fs.StringVar(&d.Origin, "origem", d.Origin, "cidade de origem")
	fs.StringVar(&d.Destination, "destino", d.Destination, "cidade de destino")
	fs.StringVar(&d.StartDate, "inicio", d.StartDate, "data de início (AAAA-MM-DD)")
	fs.StringVar(&d.EndDate, "fim", d.EndDate, "data de fim (AAAA-MM-DD)")
	fs.StringVar(&d.Freight, "frete", d.Freight, "valor do frete")
	fs.StringVar(&d.Costs, "custos", d.Costs, "custos previstos")
}

func (a *app) addTrip(ctx context.Context, args []string) error {
	draft := trips.NewDraft()
	fs := a.flags("viagem add")
	draftFlags(fs, &draft)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Lists that loaded still check the draft's references.
	snap, err := a.refs.LoadAll(ctx)
	if err != nil {
		a.log.WithError(err).Warn("Reference lists unavailable")
		fmt.Fprintln(a.errOut, apperr.Message(err))
	}
	a.form.UseReferences(snap)
	for _, hint := range snap.Hints() {
		fmt.Fprintln(a.errOut, hint)
	}

	trip, err := a.form.Submit(ctx, &draft)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Viagem cadastrada com sucesso!")
	if !trip.ID.IsZero() {
		fmt.Fprintf(a.out, "ID: %s\n", trip.ID)
	}
	return nil
}

func (a *app) editTrip(ctx context.Context, args []string) error {
	pre := a.flags("viagem edit")
	pre.SetOutput(io.Discard)
	id := pre.String("id", "", "")
	// Only -id is needed for the lookup; the full parse happens below.
	_ = pre.Parse(pickFlag(args, "id"))
	if *id == "" {
		return apperr.Validation("id", "Informe o id da viagem com -id.")
	}

	trip, err := a.findTrip(ctx, models.ID(*id))
	if err != nil {
		return err
	}
	draft := trips.EditDraft(*trip)

	fs := a.flags("viagem edit")
	fs.String("id", *id, "id da viagem")
	draftFlags(fs, &draft)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.form.Submit(ctx, &draft); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Viagem atualizada com sucesso!")
	return nil
}

func (a *app) finalizeTrip(ctx context.Context, args []string) error {
	fs := a.flags("viagem finalizar")
	id := fs.String("id", "", "id da viagem")
	plate := fs.String("placa", "", "placa do caminhão em viagem")
	costs := fs.String("custos", "", "custos totais da viagem")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		trip *models.Trip
		err  error
	)
	switch {
	case *id != "":
		trip, err = a.findTrip(ctx, models.ID(*id))
	case *plate != "":
		trip, err = a.service.ActiveTripForPlate(ctx, *plate)
	default:
		return apperr.Validation("id", "Informe -id ou -placa da viagem a finalizar.")
	}
	if err != nil {
		return err
	}

	session, err := a.finalizer.Open(*trip)
	if err != nil {
		return err
	}
	session.SetCosts(*costs)
	if _, err := a.finalizer.Confirm(ctx, session); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Viagem do caminhão %s finalizada com sucesso!\n", session.Plate)
	fmt.Fprintln(a.out, session.Summary())
	return nil
}

// findTrip looks the id up among active trips first, then finalized ones.
func (a *app) findTrip(ctx context.Context, id models.ID) (*models.Trip, error) {
	active, err := a.service.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range active {
		if t.ID == id {
			return &t, nil
		}
	}
	finalized, err := a.service.ListFinalized(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range finalized {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, &apperr.Error{Kind: apperr.KindNotFound, Message: "Viagem não encontrada."}
}

// pickFlag returns just the -name flag and its value from args.
func pickFlag(args []string, name string) []string {
	for i, arg := range args {
		switch arg {
		case "-" + name, "--" + name:
			if i+1 < len(args) {
				return []string{arg, args[i+1]}
			}
		}
		for _, prefix := range []string{"-" + name + "=", "--" + name + "="} {
			if strings.HasPrefix(arg, prefix) {
				return []string{arg}
			}
		}
	}
	return nil
}
