// Package di provides dependency injection for repositories and services.
package di

import (
	"fmt"

	"github.com/aristath/meterwatch/internal/config"
	"github.com/aristath/meterwatch/internal/metrics"
	"github.com/aristath/meterwatch/internal/modules/classification"
	"github.com/aristath/meterwatch/internal/modules/expedientes"
	"github.com/aristath/meterwatch/internal/scheduler"
	"github.com/aristath/meterwatch/internal/verdictcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// InitializeServices creates repositories and services on top of the databases.
// Metrics are registered with reg.
func InitializeServices(container *Container, cfg *config.Config, reg prometheus.Registerer, log zerolog.Logger) error {
	if container == nil || container.MainDB == nil || container.CacheDB == nil {
		return fmt.Errorf("databases must be initialized first")
	}

	container.ExpedienteRepo = expedientes.NewRepository(container.MainDB.Conn(), log)
	container.VerdictCache = verdictcache.NewRepository(container.CacheDB.Conn())

	container.Metrics = metrics.New(reg)
	container.ClassificationService = classification.NewService(
		container.VerdictCache,
		container.Metrics,
		verdictcache.ClampTTL(cfg.VerdictTTL),
		log,
	)
	container.ExpedienteService = expedientes.NewService(
		container.ExpedienteRepo,
		container.ClassificationService,
		container.Metrics,
		log,
	)
	container.Scheduler = scheduler.New(log)

	log.Info().Msg("Services initialized")
	return nil
}
