package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/api"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/config"
	"github.com/ukydev/fleet-trips/internal/refcache"
	"github.com/ukydev/fleet-trips/internal/registry"
	"github.com/ukydev/fleet-trips/internal/trips"
)

const usage = `Uso: frota <comando> [opções]

Cadastros:
  caminhao add -placa ABC1234 [-nome NOME]
  caminhao list
  caminhao rm <id>
  motorista add -nome NOME [-cnh CNH] [-telefone TEL]
  motorista list
  motorista rm <id>
  cliente add -nome NOME [-telefone TEL] [-email EMAIL] [-endereco END]
  cliente list
  referencias

Viagens:
  viagem add -placa P -motorista ID -cliente ID -origem O -destino D -inicio AAAA-MM-DD -fim AAAA-MM-DD -frete V [-custos V]
  viagem edit -id ID [campos a alterar]
  viagem finalizar (-id ID | -placa P) -custos V
  viagem rm <id>

Consultas e relatórios:
  consulta <placa>
  ativas
  finalizadas
  situacao
  produtividade
  graficos [-meta V]
  resumo [-meta V]
  exportar [-o arquivo.xlsx]
`

var errUsage = errors.New("uso inválido")

type app struct {
	out    io.Writer
	errOut io.Writer
	log    *log.Entry
	now    func() time.Time

	client    *api.Client
	registry  *registry.Registry
	refs      *refcache.Cache
	form      *trips.Form
	finalizer *trips.Finalizer
	service   *trips.Service
}

func newApp(cfg config.Config, out, errOut io.Writer, logger *log.Logger) *app {
	entry := log.NewEntry(logger)
	client := api.New(cfg, api.WithLogger(entry.WithField("component", "api")))
	return &app{
		out:       out,
		errOut:    errOut,
		log:       entry,
		now:       time.Now,
		client:    client,
		registry:  registry.New(client, entry.WithField("component", "registry")),
		refs:      refcache.New(client, entry.WithField("component", "refcache")),
		form:      trips.NewForm(client, entry.WithField("component", "form")),
		finalizer: trips.NewFinalizer(client, entry.WithField("component", "finalize")),
		service:   trips.NewService(client, entry.WithField("component", "query")),
	}
}

func main() {
	config.LoadDotEnv()
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel, cfg.LogJSON)
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(cfg, os.Stdout, os.Stderr, logger)
	os.Exit(a.run(ctx, os.Args[1:]))
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.errOut, usage)
		return 2
	}
	err := a.dispatch(ctx, args[0], args[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprint(a.errOut, usage)
		return 2
	default:
		fmt.Fprintln(a.errOut, apperr.Message(err))
		return 1
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "caminhao":
		return a.truckCmd(ctx, args)
	case "motorista":
		return a.driverCmd(ctx, args)
	case "cliente":
		return a.clientCmd(ctx, args)
	case "referencias":
		return a.references(ctx)
	case "viagem":
		return a.tripCmd(ctx, args)
	case "consulta":
		if len(args) != 1 {
			return errUsage
		}
		return a.lookup(ctx, args[0])
	case "ativas":
		return a.active(ctx)
	case "finalizadas":
		return a.finalized(ctx)
	case "situacao":
		return a.situation(ctx)
	case "produtividade":
		return a.productivity(ctx)
	case "graficos":
		return a.charts(ctx, args)
	case "resumo":
		return a.summary(ctx, args)
	case "exportar":
		return a.export(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return errUsage
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}
