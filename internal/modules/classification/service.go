package classification

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultVerdictTTL is how long a cached verdict is served
const DefaultVerdictTTL = 24 * time.Hour

// Service wraps the pure classifier with validation, memoization and metrics
type Service struct {
	cache    domain.VerdictCache
	recorder domain.VerdictRecorder
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService creates a classification service. cache and recorder may be nil.
func NewService(cache domain.VerdictCache, recorder domain.VerdictRecorder, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultVerdictTTL
	}
	return &Service{
		cache:    cache,
		recorder: recorder,
		ttl:      ttl,
		log:      log.With().Str("service", "classification").Logger(),
	}
}

// Classify validates records and returns their verdict. The second return value
// reports whether the verdict came from the cache.
func (s *Service) Classify(ctx context.Context, records []domain.MonthlyRecord) (*domain.ClassificationResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	series := domain.Normalize(records)
	if err := domain.ValidateSeries(series); err != nil {
		return nil, false, err
	}

	fingerprint, err := Fingerprint(series)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fingerprint series: %w", err)
	}

	if s.cache != nil {
		cached, err := s.cache.GetIfFresh(fingerprint)
		if err != nil {
			s.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Verdict cache lookup failed")
		} else if cached != nil {
			s.record(cached.Category, true, time.Since(start))
			s.log.Debug().
				Str("fingerprint", fingerprint).
				Str("category", string(cached.Category)).
				Msg("Serving cached verdict")
			return cached, true, nil
		}
	}

	result := Classify(series)

	if s.cache != nil {
		if err := s.cache.Store(fingerprint, result, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("fingerprint", fingerprint).Msg("Failed to cache verdict")
		}
	}

	s.record(result.Category, false, time.Since(start))
	s.log.Debug().
		Str("fingerprint", fingerprint).
		Int("periods", len(series)).
		Str("category", string(result.Category)).
		Str("rule", result.Rule).
		Int("confidence", result.Confidence).
		Msg("Classified series")

	return &result, false, nil
}

// Fingerprint exposes the cache key of records
func (s *Service) Fingerprint(records []domain.MonthlyRecord) (string, error) {
	return Fingerprint(domain.Normalize(records))
}

func (s *Service) record(category domain.Category, cached bool, duration time.Duration) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordVerdict(category, cached, duration)
}
