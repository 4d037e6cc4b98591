// Package main is the entry point for the Meterwatch classification service.
// It serves stateless classification, stores expedientes with their monthly
// series and verdict history, and runs cache maintenance jobs in the background.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/meterwatch/internal/config"
	"github.com/aristath/meterwatch/internal/di"
	"github.com/aristath/meterwatch/internal/server"
	"github.com/aristath/meterwatch/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Meterwatch")

	// Databases, repositories, services and jobs
	container, jobs, err := di.Wire(cfg, prometheus.DefaultRegisterer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:            log,
		MainDB:         container.MainDB,
		CacheDB:        container.CacheDB,
		Classification: container.ClassificationService,
		Expedientes:    container.ExpedienteService,
		Gatherer:       prometheus.DefaultGatherer,
		Scheduler:      container.Scheduler,
		Jobs:           jobs.All(),
		CacheCounter:   container.VerdictCache,
		Port:           cfg.Port,
		DevMode:        cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop scheduled jobs before the databases close
	container.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
