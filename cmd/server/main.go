package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/dgallion1/headfix/internal/api"
	"github.com/dgallion1/headfix/internal/config"
	"github.com/dgallion1/headfix/internal/heal"
	"github.com/dgallion1/headfix/internal/metrics"
	"github.com/dgallion1/headfix/internal/parser"
	"github.com/dgallion1/headfix/internal/pathstore"
	"github.com/dgallion1/headfix/internal/pipeline"
	"github.com/dgallion1/headfix/internal/stats"
	"github.com/dgallion1/headfix/internal/verbosity"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings store for the global logging override.
	store, closeStore, err := openSettingsStore(cfg)
	if err != nil {
		log.Error("settings store unavailable, logging override disabled", "backend", cfg.SettingsBackend, "error", err)
		store, closeStore = nil, func() {}
	}
	ctl := verbosity.NewController(store, log)

	m := metrics.New(prom.NewRegistry()).WithRuntime()
	st := stats.New(cfg.StatsWindow)
	healer := heal.New(log, ctl, m, st)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(pipeline.Options{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
		Parser:       parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}, healer, m, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(healer, orch, ctl, m, st, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		closeStore()
	}()

	log.Info("starting headfix", "port", cfg.Port, "settings", cfg.SettingsBackend, "auth", cfg.APIKey != "")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}

func openSettingsStore(cfg config.Config) (verbosity.Store, func(), error) {
	switch cfg.SettingsBackend {
	case config.BackendSQLite:
		s, err := verbosity.NewSQLiteStore(cfg.SettingsPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case config.BackendPathstore:
		ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		return verbosity.NewPathstoreStore(ps, cfg.PathstorePrefix), ps.Close, nil
	default:
		return verbosity.NewMemoryStore(), func() {}, nil
	}
}
