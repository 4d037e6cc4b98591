// Package verdictcache memoizes classification verdicts by series fingerprint.
// Verdicts are stored as JSON blobs with an expiration timestamp.
package verdictcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
)

// Repository is the SQLite-backed verdict cache
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new verdict cache repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Store saves a verdict with expiration = now + ttl, replacing any previous entry
func (r *Repository) Store(fingerprint string, result domain.ClassificationResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	expiresAt := r.now().Add(ttl).Unix()

	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO verdict_cache (fingerprint, data, expires_at) VALUES (?, ?, ?)",
		fingerprint, string(data), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store verdict %s: %w", fingerprint, err)
	}

	return nil
}

// GetIfFresh returns the verdict only if it has not expired.
// Returns nil, nil if the fingerprint is unknown or the entry expired.
func (r *Repository) GetIfFresh(fingerprint string) (*domain.ClassificationResult, error) {
	var data string
	err := r.db.QueryRow(
		"SELECT data FROM verdict_cache WHERE fingerprint = ? AND expires_at > ?",
		fingerprint, r.now().Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict %s: %w", fingerprint, err)
	}

	var result domain.ClassificationResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verdict %s: %w", fingerprint, err)
	}

	return &result, nil
}

// Delete removes a specific entry
func (r *Repository) Delete(fingerprint string) error {
	if _, err := r.db.Exec("DELETE FROM verdict_cache WHERE fingerprint = ?", fingerprint); err != nil {
		return fmt.Errorf("failed to delete verdict %s: %w", fingerprint, err)
	}
	return nil
}

// DeleteExpired removes all entries whose expires_at has passed.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM verdict_cache WHERE expires_at <= ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired verdicts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Count returns the number of cached entries, fresh or not
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM verdict_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count verdicts: %w", err)
	}
	return count, nil
}
