// Package expedientes stores utility accounts, their monthly series and the
// history of verdicts produced for them.
package expedientes

import (
	"errors"
	"time"

	"github.com/aristath/meterwatch/internal/domain"
)

// ErrNotFound is returned when an operation targets an unknown expediente
var ErrNotFound = errors.New("expediente not found")

// DefaultHistoryLimit is the number of verdicts returned when no limit is given
const DefaultHistoryLimit = 20

// Expediente is one utility account under analysis
type Expediente struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	RecordCount int       `json:"record_count"`
}

// StoredVerdict is a verdict saved to an expediente's history
type StoredVerdict struct {
	ID           string                      `json:"id"`
	ExpedienteID string                      `json:"expediente_id"`
	Fingerprint  string                      `json:"fingerprint"`
	CreatedAt    time.Time                   `json:"created_at"`
	Verdict      domain.ClassificationResult `json:"verdict"`
}
