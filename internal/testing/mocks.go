package testing

import (
	"sync"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
)

// MockVerdictCache is an in-memory VerdictCache for testing
type MockVerdictCache struct {
	mu       sync.RWMutex
	verdicts map[string]domain.ClassificationResult
	ttls     map[string]time.Duration
	err      error
	storeErr error
	lookups  int
	stores   int
}

// NewMockVerdictCache creates an empty mock verdict cache
func NewMockVerdictCache() *MockVerdictCache {
	return &MockVerdictCache{
		verdicts: make(map[string]domain.ClassificationResult),
		ttls:     make(map[string]time.Duration),
	}
}

// SetError sets the error returned by GetIfFresh
func (m *MockVerdictCache) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetStoreError sets the error returned by Store
func (m *MockVerdictCache) SetStoreError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storeErr = err
}

// GetIfFresh returns the stored verdict for fingerprint, or nil
func (m *MockVerdictCache) GetIfFresh(fingerprint string) (*domain.ClassificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	result, ok := m.verdicts[fingerprint]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

// Store saves a verdict
func (m *MockVerdictCache) Store(fingerprint string, result domain.ClassificationResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	if m.storeErr != nil {
		return m.storeErr
	}
	m.verdicts[fingerprint] = result
	m.ttls[fingerprint] = ttl
	return nil
}

// TTL returns the ttl a fingerprint was stored with
func (m *MockVerdictCache) TTL(fingerprint string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ttls[fingerprint]
}

// Lookups returns the number of GetIfFresh calls
func (m *MockVerdictCache) Lookups() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookups
}

// Stores returns the number of Store calls
func (m *MockVerdictCache) Stores() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores
}

// RecordedVerdict is one call captured by MockVerdictRecorder
type RecordedVerdict struct {
	Category domain.Category
	Cached   bool
	Duration time.Duration
}

// MockVerdictRecorder captures RecordVerdict calls
type MockVerdictRecorder struct {
	mu       sync.RWMutex
	verdicts []RecordedVerdict
}

// NewMockVerdictRecorder creates an empty recorder
func NewMockVerdictRecorder() *MockVerdictRecorder {
	return &MockVerdictRecorder{
		verdicts: make([]RecordedVerdict, 0),
	}
}

// RecordVerdict records a verdict
func (m *MockVerdictRecorder) RecordVerdict(category domain.Category, cached bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts = append(m.verdicts, RecordedVerdict{Category: category, Cached: cached, Duration: duration})
}

// Verdicts returns a copy of the recorded verdicts
func (m *MockVerdictRecorder) Verdicts() []RecordedVerdict {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedVerdict(nil), m.verdicts...)
}
