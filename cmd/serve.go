package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markjakearzadon/projectpay-gobackend/internal/config"
	"github.com/markjakearzadon/projectpay-gobackend/internal/db"
	"github.com/markjakearzadon/projectpay-gobackend/internal/handlers"
	"github.com/markjakearzadon/projectpay-gobackend/internal/repository"
	"github.com/markjakearzadon/projectpay-gobackend/internal/services"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), config.Load())
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	client, database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	if err := db.EnsureIndexes(ctx, database); err != nil {
		return err
	}

	projectRepo := repository.NewProjectRepository(database)
	clientRepo := repository.NewClientRepository(database)
	userRepo := repository.NewUserRepository(database)
	eventRepo := repository.NewPaymentEventRepository(database)

	settingsSvc := settingsService(ctx, cfg, database)
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	gateways := services.DefaultGateways(&http.Client{Timeout: cfg.Gateways.HTTPTimeout})
	notifier := services.NewNotifier(clientRepo, gateways.SMS)

	paymentService := services.NewPaymentService(settingsSvc, projectRepo, clientRepo, eventRepo,
		gateways, notifier, cfg.Server.PublicBaseURL)

	router := handlers.NewRouter(handlers.Handlers{
		Users:    handlers.NewUserHandler(services.NewUserService(userRepo, tokenService)),
		Clients:  handlers.NewClientHandler(services.NewClientService(clientRepo)),
		Projects: handlers.NewProjectHandler(services.NewProjectService(projectRepo, clientRepo)),
		Settings: handlers.NewSettingsHandler(settingsSvc),
		Payments: handlers.NewPaymentHandler(paymentService),
	}, tokenService)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: serverWriteTimeout(cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server running on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// serverWriteTimeout covers the slowest request path: the bKash callback
// makes two gateway calls (token grant, execute) and then sends the paid SMS.
func serverWriteTimeout(cfg *config.Config) time.Duration {
	return 2*cfg.Gateways.HTTPTimeout + services.NotifyTimeout + 15*time.Second
}
