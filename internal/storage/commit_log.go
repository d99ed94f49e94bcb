package storage

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Veraticus/scribe/internal/model"
)

// SaveCommitLog appends an audit entry and assigns its ID.
func (s *SQLiteStorage) SaveCommitLog(ctx context.Context, entry *model.CommitLogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: commit log entry", ErrNilParameter)
	}
	if err := validatePatientID(entry.PatientID); err != nil {
		return err
	}

	report, err := json.Marshal(entry.Report)
	if err != nil {
		return fmt.Errorf("failed to encode commit report: %w", err)
	}

	id, createdAt := uuid.New(), s.now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO commit_log (id, patient_id, source, success, report, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), entry.PatientID.String(), entry.Source, entry.Success, string(report), entry.Error, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save commit log: %w", err)
	}

	entry.ID, entry.CreatedAt = id, createdAt
	return nil
}

// ListCommitLogs returns a patient's most recent audit entries, newest first.
func (s *SQLiteStorage) ListCommitLogs(ctx context.Context, patientID model.PatientID, limit int) ([]model.CommitLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, patient_id, source, success, report, error, created_at
		FROM commit_log WHERE patient_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`, patientID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.CommitLogEntry
	for rows.Next() {
		var entry model.CommitLogEntry
		var id, patient, report string
		if err := rows.Scan(&id, &patient, &entry.Source, &entry.Success, &report, &entry.Error, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit log: %w", err)
		}
		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse commit log id: %w", err)
		}
		if err := json.Unmarshal([]byte(report), &entry.Report); err != nil {
			return nil, fmt.Errorf("failed to decode commit report: %w", err)
		}
		entry.PatientID = model.PatientID(patient)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
