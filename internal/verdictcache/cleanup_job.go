package verdictcache

import (
	"github.com/rs/zerolog"
)

// CleanupRecorder receives the number of verdicts each cleanup removed
type CleanupRecorder interface {
	RecordCacheCleanup(deleted int64)
}

// CleanupJob removes expired verdicts. It is scheduled daily.
type CleanupJob struct {
	repo     *Repository
	recorder CleanupRecorder
	log      zerolog.Logger
}

// NewCleanupJob creates a new verdict cache cleanup job. recorder may be nil.
func NewCleanupJob(repo *Repository, recorder CleanupRecorder, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:     repo,
		recorder: recorder,
		log:      log.With().Str("job", "verdict_cache_cleanup").Logger(),
	}
}

// Run removes all expired verdicts
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired verdicts")
		return err
	}

	if j.recorder != nil {
		j.recorder.RecordCacheCleanup(deleted)
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Msg("Verdict cache cleanup completed")
	}

	return nil
}

// Name returns the job name for scheduling and logging
func (j *CleanupJob) Name() string {
	return "verdict_cache_cleanup"
}
