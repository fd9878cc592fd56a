package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/auth"
	"github.com/ukydev/fleet-trips/internal/config"
	"github.com/ukydev/fleet-trips/internal/db"
	"github.com/ukydev/fleet-trips/internal/events"
	"github.com/ukydev/fleet-trips/internal/handlers"
	"github.com/ukydev/fleet-trips/internal/middleware"
	"github.com/ukydev/fleet-trips/internal/models"
)

func main() {
	mintToken := flag.String("mint-token", "", "print a token for the given role (admin, dispatcher, viewer) and exit")
	subject := flag.String("subject", "frota-cli", "subject of the minted token")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.LoadServer()
	logger := config.NewLogger(cfg.LogLevel, cfg.LogJSON)
	entry := log.NewEntry(logger)

	authService, err := newAuthService(cfg)
	if err != nil {
		entry.WithError(err).Fatal("Failed to create auth service")
	}

	if *mintToken != "" {
		if err := printToken(authService, *subject, models.Role(*mintToken)); err != nil {
			entry.WithError(err).Fatal("Failed to mint token")
		}
		return
	}

	if err := run(cfg, authService, entry); err != nil {
		entry.WithError(err).Fatal("Server stopped")
	}
}

func newAuthService(cfg config.ServerConfig) (*auth.Service, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
}

func printToken(s *auth.Service, subject string, role models.Role) error {
	if s == nil {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := s.GenerateToken(subject, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run(cfg config.ServerConfig, authService *auth.Service, entry *log.Entry) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())
	entry.WithField("database", cfg.MongoDB).Info("Connected to MongoDB successfully")

	store := db.NewStore(client, cfg.MongoDB)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQTTBroker != "" {
		p, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTTopic, entry.WithField("component", "events"))
		if err != nil {
			entry.WithError(err).Warn("MQTT unavailable, finalization events disabled")
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	h := handlers.NewHandler(handlers.Deps{
		Trucks:  store.Trucks,
		Drivers: store.Drivers,
		Clients: store.Clients,
		Trips:   store.Trips,
		Events:  publisher,
		Log:     entry.WithField("component", "api"),
	})

	var authMW *middleware.AuthMiddleware
	if authService != nil {
		authMW = middleware.NewAuthMiddleware(authService)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(authMW, cfg.RateLimit),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		entry.WithFields(log.Fields{
			"port":       cfg.Port,
			"auth":       authMW.Enabled(),
			"rate_limit": cfg.RateLimit,
		}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	entry.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
