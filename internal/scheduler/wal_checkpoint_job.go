package scheduler

import (
	"fmt"

	"github.com/aristath/meterwatch/internal/database"
	"github.com/rs/zerolog"
)

// LargeWALFrames is the WAL size (frames) above which the file is truncated
const LargeWALFrames = 1000

// WALCheckpointJob checks the WAL of each database and truncates large ones
type WALCheckpointJob struct {
	log       zerolog.Logger
	databases []*database.DB
}

// NewWALCheckpointJob creates a WAL checkpoint job over databases
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
		databases: databases,
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints every database. A failing database does not stop the others.
func (j *WALCheckpointJob) Run() error {
	checked := 0
	var firstErr error

	for _, db := range j.databases {
		if db == nil {
			continue
		}

		// busy, log frames, checkpointed frames
		var busy, frames, checkpointed int
		err := db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
		if err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to check WAL checkpoint")
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to check WAL of %s: %w", db.Name(), err)
			}
			continue
		}
		checked++

		if frames <= LargeWALFrames {
			j.log.Debug().Str("database", db.Name()).Int("wal_frames", frames).Msg("WAL checkpoint status OK")
			continue
		}

		j.log.Warn().
			Str("database", db.Name()).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, truncating")
		if err := db.WALCheckpoint(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	j.log.Info().Int("checked", checked).Msg("WAL checkpoint check completed")
	return firstErr
}
