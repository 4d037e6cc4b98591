// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/aristath/meterwatch/internal/config"
	"github.com/aristath/meterwatch/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. meterwatch.db - durable expedientes, series and verdict history
	mainDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(database.NameMeterwatch),
		Profile: database.ProfileStandard,
		Name:    database.NameMeterwatch,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meterwatch database: %w", err)
	}
	container.MainDB = mainDB

	// 2. cache.db - memoized verdicts, safe to lose
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DatabasePath(database.NameCache),
		Profile: database.ProfileCache,
		Name:    database.NameCache,
	})
	if err != nil {
		mainDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range []*database.DB{mainDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().
		Str("data_dir", cfg.DataDir).
		Msg("Databases initialized")

	return container, nil
}
