package expedientes

import (
	"context"
	"fmt"

	"github.com/aristath/meterwatch/internal/domain"
	"github.com/aristath/meterwatch/internal/modules/classification"
	"github.com/rs/zerolog"
)

// HistoryRecorder counts verdicts saved to an expediente's history
type HistoryRecorder interface {
	RecordStoredVerdict()
}

// Service classifies stored series and keeps the verdict history
type Service struct {
	repo       *Repository
	classifier *classification.Service
	recorder   HistoryRecorder
	log        zerolog.Logger
}

// NewService creates an expediente service. recorder may be nil.
func NewService(repo *Repository, classifier *classification.Service, recorder HistoryRecorder, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		classifier: classifier,
		recorder:   recorder,
		log:        log.With().Str("service", "expedientes").Logger(),
	}
}

// Repository returns the underlying repository
func (s *Service) Repository() *Repository {
	return s.repo
}

// ReplaceSeries validates and stores the series of an expediente
func (s *Service) ReplaceSeries(id string, records []domain.MonthlyRecord) (domain.Series, error) {
	series := domain.Normalize(records)
	if err := domain.ValidateSeries(series); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceSeries(id, series); err != nil {
		return nil, err
	}
	return series, nil
}

// Classify classifies the stored series of an expediente and appends the
// verdict to its history. The boolean reports a verdict served from the cache.
func (s *Service) Classify(ctx context.Context, id string) (*StoredVerdict, bool, error) {
	e, err := s.repo.Get(id)
	if err != nil {
		return nil, false, err
	}
	if e == nil {
		return nil, false, ErrNotFound
	}

	series, err := s.repo.GetSeries(id)
	if err != nil {
		return nil, false, err
	}

	verdict, cached, err := s.classifier.Classify(ctx, series)
	if err != nil {
		return nil, false, fmt.Errorf("failed to classify expediente %s: %w", id, err)
	}

	fingerprint, err := s.classifier.Fingerprint(series)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fingerprint expediente %s: %w", id, err)
	}

	stored, err := s.repo.SaveVerdict(id, fingerprint, *verdict)
	if err != nil {
		return nil, false, err
	}
	if s.recorder != nil {
		s.recorder.RecordStoredVerdict()
	}

	s.log.Info().
		Str("expediente", id).
		Str("category", string(verdict.Category)).
		Int("confidence", verdict.Confidence).
		Bool("cached", cached).
		Msg("Expediente classified")

	return stored, cached, nil
}
