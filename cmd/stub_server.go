package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/consent-management/internal/auth"
	"github.com/frahmantamala/consent-management/internal/stubserver"
	"github.com/frahmantamala/consent-management/pkg/logger"
)

var stubServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the bundled reference backend",
	Long:  `Start the local HTTP backend that serves the full consent platform API.`,
	Run: func(cmd *cobra.Command, args []string) {
		startStubServer()
	},
}

func startStubServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logging.Environment, cfg.Logging.Level)
	log := logger.L()

	db, events, err := stubserver.OpenDB(cfg.Stub.Database)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	if err := stubserver.Migrate(db); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	store := stubserver.NewStore(db, events)
	dispatcher := stubserver.NewDispatcher(cfg.Stub.Dispatcher, events, log)
	tokens := auth.NewTokenGenerator(cfg.Stub.TokenSecret)
	srv := stubserver.NewServer(store, dispatcher, tokens, log)

	addr := fmt.Sprintf(":%d", cfg.Stub.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: cfg.Stub.ReadHeaderTimeout,
		ReadTimeout:       cfg.Stub.ReadTimeout,
		WriteTimeout:      cfg.Stub.WriteTimeout,
		IdleTimeout:       cfg.Stub.IdleTimeout,
	}

	log.Info("starting stub server", "address", addr, "driver", cfg.Stub.Database.Driver)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", "error", err)
		}
		dispatcher.Shutdown()
		if err := events.Close(); err != nil {
			log.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	log.Info("server stopped")
}
