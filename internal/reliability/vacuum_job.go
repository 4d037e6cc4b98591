package reliability

import (
	"fmt"
	"time"

	"github.com/aristath/meterwatch/internal/database"
	"github.com/rs/zerolog"
)

// VacuumJob reclaims the space left behind by deleted rows, mostly expired
// cached verdicts and replaced series
type VacuumJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewVacuumJob creates a VACUUM job over databases
func NewVacuumJob(log zerolog.Logger, databases ...*database.DB) *VacuumJob {
	return &VacuumJob{
		databases: databases,
		log:       log.With().Str("job", "vacuum").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *VacuumJob) Name() string {
	return "vacuum"
}

// Run vacuums every database, continuing past failures
func (j *VacuumJob) Run() error {
	j.log.Info().Msg("Starting vacuum")
	startTime := time.Now()

	var firstErr error
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := j.vacuumDatabase(db); err != nil {
			j.log.Error().Str("database", db.Name()).Err(err).Msg("VACUUM failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Vacuum completed")
	return firstErr
}

func (j *VacuumJob) vacuumDatabase(db *database.DB) error {
	sizeBefore, err := sizeMB(db)
	if err != nil {
		return err
	}

	if _, err := db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed for %s: %w", db.Name(), err)
	}

	sizeAfter, err := sizeMB(db)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("database", db.Name()).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}

func sizeMB(db *database.DB) (float64, error) {
	var pageCount, pageSize int
	if err := db.Conn().QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to read page count of %s: %w", db.Name(), err)
	}
	if err := db.Conn().QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to read page size of %s: %w", db.Name(), err)
	}
	return float64(pageCount*pageSize) / 1024 / 1024, nil
}
