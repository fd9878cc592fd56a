package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/report"
)

func money(d decimal.Decimal) string {
	return "R$ " + d.StringFixed(2)
}

func route(origin, destination string) string {
	return orNA(origin) + " -> " + orNA(destination)
}

func orNA(s string) string {
	if s == "" {
		return report.NotAvailable
	}
	return s
}

func (a *app) lookup(ctx context.Context, plate string) error {
	result, err := a.service.FindByPlate(ctx, plate)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, result.Message())
	if len(result.Trips) == 0 {
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tROTA\tINÍCIO\tFIM\tFRETE\tCUSTOS\tLUCRO\tSTATUS")
	for _, t := range result.Trips {
		profit := "-"
		if t.TotalProfit.Valid {
			profit = money(t.TotalProfit.Decimal)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, route(t.Origin, t.Destination), t.StartDate.Display(), t.EndDate.Display(),
			money(t.Freight), money(t.Costs), profit, t.Status)
	}
	return tw.Flush()
}

func (a *app) active(ctx context.Context) error {
	list, err := a.service.ListActive(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nenhuma viagem em andamento.")
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tPLACA\tMOTORISTA\tCLIENTE\tROTA\tINÍCIO\tFIM\tFRETE")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Plate, orNA(t.DriverName), orNA(t.ClientName), route(t.Origin, t.Destination),
			t.StartDate.Display(), t.EndDate.Display(), money(t.Freight))
	}
	return tw.Flush()
}

func (a *app) finalized(ctx context.Context) error {
	list, err := a.service.ListFinalized(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nenhuma viagem finalizada encontrada.")
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, strings.Join(report.Headers, "\t"))
	for _, row := range report.ToExportRows(list) {
		fmt.Fprintln(tw, strings.Join(row.Values(), "\t"))
	}
	return tw.Flush()
}

func (a *app) situation(ctx context.Context) error {
	list, err := a.service.CurrentSituation(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nenhum caminhão está em viagem no momento.")
		return nil
	}
	now := a.now()
	tw := a.table()
	fmt.Fprintln(tw, "PLACA\tCAMINHÃO\tMOTORISTA\tCLIENTE\tROTA\tINÍCIO\tDIAS NA ESTRADA\tSTATUS")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d dia(s)\t%s\n",
			t.Plate, orNA(t.TruckName), orNA(t.DriverName), orNA(t.ClientName),
			route(t.Origin, t.Destination), t.StartDate.Display(), t.DaysOnRoad(now), t.Status)
	}
	return tw.Flush()
}

func (a *app) productivity(ctx context.Context) error {
	list, err := a.service.Productivity(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nenhum dado de produtividade encontrado.")
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "PLACA\tMOTORISTA\tROTA\tLUCRO/PREJUÍZO\tSTATUS\tTÉRMINO")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Plate, orNA(p.DriverName), route(p.Origin, p.Destination),
			money(p.TotalProfit), p.Status, p.CompletionDate.Display())
	}
	return tw.Flush()
}

func (a *app) goalFlag(name string, args []string) (decimal.Decimal, error) {
	fs := a.flags(name)
	goal := fs.String("meta", report.DefaultGoal.String(), "meta de lucro por viagem")
	if err := fs.Parse(args); err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.Replace(*goal, ",", ".", 1))
	if err != nil {
		return decimal.Zero, apperr.Validation("meta", "A meta deve ser um número.")
	}
	return d, nil
}

// charts prints each truck's profit series against the goal line.
func (a *app) charts(ctx context.Context, args []string) error {
	goal, err := a.goalFlag("graficos", args)
	if err != nil {
		return err
	}
	list, err := a.service.ListFinalized(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nenhuma viagem finalizada para exibir.")
		return nil
	}
	groups := report.GroupByPlate(list)
	for i, plate := range groups.Plates {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintf(a.out, "Caminhão %s (meta %s)\n", plate, money(goal))
		tw := a.table()
		for _, p := range groups.Series[plate] {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n",
				p.Date.Display(), money(p.Profit), bar(p.Profit, goal), route(p.Origin, p.Destination))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// bar draws profit as a 20-column gauge where the goal fills half.
func bar(profit, goal decimal.Decimal) string {
	if profit.IsNegative() {
		return "-"
	}
	if !goal.IsPositive() {
		return strings.Repeat("#", 20)
	}
	n := profit.Mul(decimal.NewFromInt(10)).Div(goal).Round(0).IntPart()
	if n > 20 {
		n = 20
	}
	return strings.Repeat("#", int(n))
}

func (a *app) summary(ctx context.Context, args []string) error {
	goal, err := a.goalFlag("resumo", args)
	if err != nil {
		return err
	}
	list, err := a.service.ListFinalized(ctx)
	if err != nil {
		return err
	}
	s := report.Summarize(list, goal)
	if len(s.Entries) == 0 {
		fmt.Fprintln(a.out, "Nenhuma viagem finalizada encontrada.")
		return nil
	}
	tw := a.table()
	fmt.Fprintln(tw, "PLACA\tROTA\tTÉRMINO\tLUCRO\tMETA")
	for _, e := range s.Entries {
		mark := "abaixo"
		if e.MeetsGoal {
			mark = "atingida"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Plate, route(e.Origin, e.Destination), e.EndDate.Display(), money(e.Profit), mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Frete total: %s\n", money(s.Freight))
	fmt.Fprintf(a.out, "Custos totais: %s\n", money(s.Costs))
	fmt.Fprintf(a.out, "Lucro total: %s\n", money(s.TotalProfit))
	fmt.Fprintf(a.out, "Viagens na meta (%s): %d de %d\n", money(goal), s.AboveGoal, len(s.Entries))
	fmt.Fprintf(a.out, "Viagens com prejuízo: %d\n", s.Losses)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.flags("exportar")
	path := fs.String("o", "viagens_finalizadas.xlsx", "arquivo de saída")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := a.service.ListFinalized(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return apperr.Domain("Não há dados para exportar.", nil)
	}

	f, err := os.Create(*path)
	if err != nil {
		return &apperr.Error{Kind: apperr.KindUnknown, Message: fmt.Sprintf("Erro ao criar o arquivo %s.", *path), Err: err}
	}
	if err := report.WriteXLSX(f, report.ToExportRows(list)); err != nil {
		f.Close()
		return apperr.Unknown(err)
	}
	if err := f.Close(); err != nil {
		return apperr.Unknown(err)
	}
	a.log.WithFields(log.Fields{"file": *path, "rows": len(list)}).Info("Exported finalized trips")
	fmt.Fprintf(a.out, "%d viagem(ns) exportada(s) para %s\n", len(list), *path)
	return nil
}
