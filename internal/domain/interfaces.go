package domain

import "time"

// VerdictCache defines memoization of verdicts keyed by series fingerprint.
// This interface breaks the dependency between the classification service and
// the SQLite-backed cache in internal/verdictcache.
type VerdictCache interface {
	// GetIfFresh returns the cached verdict, or nil if absent or expired
	GetIfFresh(fingerprint string) (*ClassificationResult, error)

	// Store saves a verdict that expires after ttl
	Store(fingerprint string, result ClassificationResult, ttl time.Duration) error
}

// VerdictRecorder receives every verdict produced by the classification service
// (implemented by the prometheus metrics collector)
type VerdictRecorder interface {
	RecordVerdict(category Category, cached bool, duration time.Duration)
}
