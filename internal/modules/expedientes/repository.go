package expedientes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/meterwatch/internal/database"
	"github.com/aristath/meterwatch/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles expediente database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// NewRepository creates a new expediente repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "expedientes").Logger(),
		now: time.Now,
	}
}

// Upsert creates the expediente or renames an existing one
func (r *Repository) Upsert(id, name string) (*Expediente, error) {
	now := r.now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO expedientes (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, id, name, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert expediente %s: %w", id, err)
	}

	return r.Get(id)
}

// Get returns an expediente by id, or nil if it does not exist
func (r *Repository) Get(id string) (*Expediente, error) {
	row := r.db.QueryRow(`
		SELECT e.id, e.name, e.created_at, e.updated_at,
		       (SELECT COUNT(*) FROM monthly_records m WHERE m.expediente_id = e.id)
		FROM expedientes e
		WHERE e.id = ?
	`, id)

	e, err := scanExpediente(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expediente %s: %w", id, err)
	}
	return e, nil
}

// List returns all expedientes ordered by id
func (r *Repository) List() ([]Expediente, error) {
	rows, err := r.db.Query(`
		SELECT e.id, e.name, e.created_at, e.updated_at,
		       (SELECT COUNT(*) FROM monthly_records m WHERE m.expediente_id = e.id)
		FROM expedientes e
		ORDER BY e.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list expedientes: %w", err)
	}
	defer rows.Close()

	expedientes := make([]Expediente, 0)
	for rows.Next() {
		e, err := scanExpediente(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expediente: %w", err)
		}
		expedientes = append(expedientes, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expedientes: %w", err)
	}

	return expedientes, nil
}

// ReplaceSeries replaces the stored series of an expediente in one transaction
func (r *Repository) ReplaceSeries(id string, series domain.Series) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM expedientes WHERE id = ?", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check expediente %s: %w", id, err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		if _, err := tx.Exec("DELETE FROM monthly_records WHERE expediente_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear records of %s: %w", id, err)
		}

		stmt, err := tx.Prepare("INSERT INTO monthly_records (expediente_id, period, data) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, record := range series {
			data, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("failed to marshal record %s: %w", record.Period, err)
			}
			if _, err := stmt.Exec(id, record.Period, string(data)); err != nil {
				return fmt.Errorf("failed to insert record %s: %w", record.Period, err)
			}
		}

		if _, err := tx.Exec("UPDATE expedientes SET updated_at = ? WHERE id = ?", r.now().Unix(), id); err != nil {
			return fmt.Errorf("failed to touch expediente %s: %w", id, err)
		}

		r.log.Debug().Str("expediente", id).Int("records", len(series)).Msg("Replaced series")
		return nil
	})
}

// GetSeries returns the stored series ordered by period
func (r *Repository) GetSeries(id string) (domain.Series, error) {
	rows, err := r.db.Query("SELECT data FROM monthly_records WHERE expediente_id = ? ORDER BY period ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get records of %s: %w", id, err)
	}
	defer rows.Close()

	series := make(domain.Series, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var record domain.MonthlyRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		series = append(series, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return series, nil
}

// SaveVerdict appends a verdict to the expediente's history
func (r *Repository) SaveVerdict(id, fingerprint string, verdict domain.ClassificationResult) (*StoredVerdict, error) {
	data, err := json.Marshal(verdict)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verdict: %w", err)
	}

	stored := &StoredVerdict{
		ID:           uuid.New().String(),
		ExpedienteID: id,
		Fingerprint:  fingerprint,
		CreatedAt:    time.Unix(r.now().Unix(), 0),
		Verdict:      verdict,
	}

	_, err = r.db.Exec(`
		INSERT INTO verdicts (id, expediente_id, fingerprint, category, confidence, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, stored.ID, id, fingerprint, string(verdict.Category), verdict.Confidence, string(data), stored.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to save verdict for %s: %w", id, err)
	}

	return stored, nil
}

// LatestVerdict returns the most recent verdict, or nil if none was saved
func (r *Repository) LatestVerdict(id string) (*StoredVerdict, error) {
	history, err := r.VerdictHistory(id, 1)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	return &history[0], nil
}

// VerdictHistory returns up to limit verdicts, most recent first
func (r *Repository) VerdictHistory(id string, limit int) ([]StoredVerdict, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := r.db.Query(`
		SELECT id, expediente_id, fingerprint, data, created_at
		FROM verdicts
		WHERE expediente_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get verdicts of %s: %w", id, err)
	}
	defer rows.Close()

	verdicts := make([]StoredVerdict, 0)
	for rows.Next() {
		var v StoredVerdict
		var data string
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.ExpedienteID, &v.Fingerprint, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &v.Verdict); err != nil {
			return nil, fmt.Errorf("failed to unmarshal verdict %s: %w", v.ID, err)
		}
		v.CreatedAt = time.Unix(createdAt, 0)
		verdicts = append(verdicts, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdicts: %w", err)
	}

	return verdicts, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpediente(s scanner) (*Expediente, error) {
	var e Expediente
	var createdAt, updatedAt int64
	if err := s.Scan(&e.ID, &e.Name, &createdAt, &updatedAt, &e.RecordCount); err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(createdAt, 0)
	e.UpdatedAt = time.Unix(updatedAt, 0)
	return &e, nil
}
