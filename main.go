package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 15 * time.Second

func (cfg *apiConfig) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/weather", cfg.handlerWeather)
	mux.HandleFunc("/api/calendar", cfg.handlerCalendar)
	mux.HandleFunc("/api/geocode", cfg.handlerGeocode)
	mux.HandleFunc("/api/location", cfg.handlerLocation)
	mux.HandleFunc("/api/dashboard", cfg.handlerDashboard)
	mux.HandleFunc("/api/refresh", cfg.handlerRefresh)
	mux.HandleFunc("/api/unit", cfg.handlerUnit)
	mux.HandleFunc("/api/config", cfg.handlerConfig)
	mux.HandleFunc("/healthz", cfg.handlerHealth)
	mux.Handle("/metrics", promhttp.Handler())

	if cfg.devMode {
		cfg.logger.Debug("development mode enabled. Registering /dev/reset-cache endpoint.")
		mux.HandleFunc("/dev/reset-cache", cfg.handlerResetCache)
	}

	return requestIDMiddleware(loggingMiddleware(cfg.logger)(metricsMiddleware(corsMiddleware(mux))))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := newAPIConfig(ctx)
	if err != nil {
		newLogger(false).Error("configuration failed", "error", err)
		os.Exit(1)
	}
	cfg.logger.Debug("configuration loaded")

	scheduler, err := NewScheduler(cfg.dashboard, cfg.refreshSchedule, cfg.logger)
	if err != nil {
		cfg.logger.Error("invalid refresh schedule", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// First cycle runs at startup rather than one interval later.
	go func() {
		if err := cfg.dashboard.RefreshAll(ctx); err != nil {
			cfg.logger.Warn("initial refresh had failures", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.port,
		Handler:           cfg.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		cfg.logger.Info("starting server", "port", cfg.port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			cfg.logger.Error("server startup failed", "error", err)
			scheduler.Stop()
			os.Exit(1)
		}
	case <-ctx.Done():
		cfg.logger.Info("shutdown signal received")
	}

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		cfg.logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	cfg.logger.Info("server stopped")
}
