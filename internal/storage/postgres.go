package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Veraticus/scribe/internal/model"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgTxKey struct{}

// PostgresStorage implements service.Storage on a PostgreSQL pool.
type PostgresStorage struct {
	pool  *pgxpool.Pool
	cache *readCache
	now   func() time.Time
}

// NewPostgresPool opens and pings a connection pool.
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewPostgresStorage wraps an open pool.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{
		pool:  pool,
		cache: newReadCache(DefaultCacheTTL),
		now:   time.Now,
	}
}

// Close releases the pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// SetCacheTTL changes how long list reads stay cached. Zero disables caching.
func (s *PostgresStorage) SetCacheTTL(ttl time.Duration) {
	s.cache.setTTL(ttl)
}

func (s *PostgresStorage) conn(ctx context.Context) queryable {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok && tx != nil {
		return tx
	}
	return s.pool
}

// WithTx runs fn in a transaction. Storage calls made with the ctx passed to
// fn join that transaction.
func (s *PostgresStorage) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(context.WithValue(ctx, pgTxKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS diagnoses (
		id UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		cid_code TEXT NOT NULL,
		diagnosis_date TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagnoses_patient ON diagnoses(patient_id)`,
	`CREATE TABLE IF NOT EXISTS medications (
		id UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		frequency TEXT NOT NULL,
		format TEXT NOT NULL,
		start_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_medications_patient ON medications(patient_id)`,
	`CREATE TABLE IF NOT EXISTS allergies (
		id UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		allergen TEXT NOT NULL,
		allergen_type TEXT NOT NULL,
		reaction TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_allergies_patient ON allergies(patient_id)`,
	`CREATE TABLE IF NOT EXISTS surgeries (
		id UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		procedure_name TEXT NOT NULL,
		surgery_date TEXT NOT NULL,
		hospital_name TEXT NOT NULL DEFAULT '',
		surgeon_name TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_surgeries_patient ON surgeries(patient_id)`,
	`CREATE TABLE IF NOT EXISTS commit_log (
		id UUID PRIMARY KEY,
		patient_id TEXT NOT NULL,
		source TEXT NOT NULL,
		success BOOLEAN NOT NULL,
		report JSONB NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_commit_log_patient ON commit_log(patient_id, created_at)`,
}

// Migrate creates the schema. It is idempotent.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, stmt := range postgresSchema {
			if _, err := s.conn(ctx).Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute query: %w", err)
			}
		}
		if _, err := s.conn(ctx).Exec(ctx, `DELETE FROM schema_version`); err != nil {
			return fmt.Errorf("failed to reset schema version: %w", err)
		}
		if _, err := s.conn(ctx).Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, ExpectedSchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		slog.Info("Applied postgres schema", "version", ExpectedSchemaVersion)
		return nil
	})
}

// SchemaVersion reports the applied schema version, 0 before the first migration.
func (s *PostgresStorage) SchemaVersion(ctx context.Context) (int, error) {
	var exists bool
	if err := s.conn(ctx).QueryRow(ctx, `SELECT to_regclass('schema_version') IS NOT NULL`).Scan(&exists); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	if !exists {
		return 0, nil
	}
	var version int
	if err := s.conn(ctx).QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Invalidate drops cached reads of one category for one patient.
func (s *PostgresStorage) Invalidate(ctx context.Context, category model.Category, patientID model.PatientID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.cache.invalidate(category, patientID)
	return nil
}

// CreateDiagnosis inserts a diagnosis and assigns its ID.
func (s *PostgresStorage) CreateDiagnosis(ctx context.Context, rec *model.DiagnosisRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: diagnosis", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO diagnoses (id, patient_id, cid_code, diagnosis_date, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, rec.PatientID.String(), rec.CIDCode, rec.DiagnosisDate, rec.Status, rec.Notes, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create diagnosis: %w", err)
	}
	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// CreateMedication inserts a medication and assigns its ID.
func (s *PostgresStorage) CreateMedication(ctx context.Context, rec *model.MedicationRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: medication", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO medications (id, patient_id, name, dosage, frequency, format, start_date, notes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, rec.PatientID.String(), rec.Name, rec.Dosage, rec.Frequency, rec.Format,
		rec.StartDate, rec.Notes, rec.IsActive, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// CreateAllergy inserts an allergy and assigns its ID.
func (s *PostgresStorage) CreateAllergy(ctx context.Context, rec *model.AllergyRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: allergy", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO allergies (id, patient_id, allergen, allergen_type, reaction, severity, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, rec.PatientID.String(), rec.Allergen, rec.AllergenType, rec.Reaction, rec.Severity, rec.Notes, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create allergy: %w", err)
	}
	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// CreateSurgery inserts a surgery and assigns its ID.
func (s *PostgresStorage) CreateSurgery(ctx context.Context, rec *model.SurgeryRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: surgery", ErrNilParameter)
	}
	if err := validateRecord(rec); err != nil {
		return err
	}
	id, createdAt := uuid.New(), s.now().UTC()
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO surgeries (id, patient_id, procedure_name, surgery_date, hospital_name, surgeon_name, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, rec.PatientID.String(), rec.ProcedureName, rec.SurgeryDate, rec.HospitalName, rec.SurgeonName, rec.Notes, createdAt)
	if err != nil {
		return fmt.Errorf("failed to create surgery: %w", err)
	}
	rec.ID, rec.CreatedAt = id, createdAt
	return nil
}

// ListDiagnoses returns a patient's diagnoses, oldest first.
func (s *PostgresStorage) ListDiagnoses(ctx context.Context, patientID model.PatientID) ([]model.DiagnosisRecord, error) {
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategoryDiagnoses, patientID, func() ([]model.DiagnosisRecord, error) {
		rows, err := s.conn(ctx).Query(ctx, `
			SELECT id, patient_id, cid_code, diagnosis_date, status, notes, created_at
			FROM diagnoses WHERE patient_id = $1 ORDER BY created_at`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query diagnoses: %w", err)
		}
		defer rows.Close()

		out := []model.DiagnosisRecord{}
		for rows.Next() {
			var rec model.DiagnosisRecord
			var patient string
			if err := rows.Scan(&rec.ID, &patient, &rec.CIDCode, &rec.DiagnosisDate, &rec.Status, &rec.Notes, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan diagnosis: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// ListMedications returns a patient's medications, oldest first.
func (s *PostgresStorage) ListMedications(ctx context.Context, patientID model.PatientID) ([]model.MedicationRecord, error) {
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategoryMedications, patientID, func() ([]model.MedicationRecord, error) {
		rows, err := s.conn(ctx).Query(ctx, `
			SELECT id, patient_id, name, dosage, frequency, format, start_date, notes, is_active, created_at
			FROM medications WHERE patient_id = $1 ORDER BY created_at`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query medications: %w", err)
		}
		defer rows.Close()

		out := []model.MedicationRecord{}
		for rows.Next() {
			var rec model.MedicationRecord
			var patient string
			if err := rows.Scan(&rec.ID, &patient, &rec.Name, &rec.Dosage, &rec.Frequency, &rec.Format,
				&rec.StartDate, &rec.Notes, &rec.IsActive, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan medication: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// ListAllergies returns a patient's allergies, oldest first.
func (s *PostgresStorage) ListAllergies(ctx context.Context, patientID model.PatientID) ([]model.AllergyRecord, error) {
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategoryAllergies, patientID, func() ([]model.AllergyRecord, error) {
		rows, err := s.conn(ctx).Query(ctx, `
			SELECT id, patient_id, allergen, allergen_type, reaction, severity, notes, created_at
			FROM allergies WHERE patient_id = $1 ORDER BY created_at`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query allergies: %w", err)
		}
		defer rows.Close()

		out := []model.AllergyRecord{}
		for rows.Next() {
			var rec model.AllergyRecord
			var patient string
			if err := rows.Scan(&rec.ID, &patient, &rec.Allergen, &rec.AllergenType, &rec.Reaction,
				&rec.Severity, &rec.Notes, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan allergy: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// ListSurgeries returns a patient's surgeries, oldest first.
func (s *PostgresStorage) ListSurgeries(ctx context.Context, patientID model.PatientID) ([]model.SurgeryRecord, error) {
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	return cachedList(s.cache, model.CategorySurgeries, patientID, func() ([]model.SurgeryRecord, error) {
		rows, err := s.conn(ctx).Query(ctx, `
			SELECT id, patient_id, procedure_name, surgery_date, hospital_name, surgeon_name, notes, created_at
			FROM surgeries WHERE patient_id = $1 ORDER BY created_at`, patientID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to query surgeries: %w", err)
		}
		defer rows.Close()

		out := []model.SurgeryRecord{}
		for rows.Next() {
			var rec model.SurgeryRecord
			var patient string
			if err := rows.Scan(&rec.ID, &patient, &rec.ProcedureName, &rec.SurgeryDate, &rec.HospitalName,
				&rec.SurgeonName, &rec.Notes, &rec.CreatedAt); err != nil {
				return nil, fmt.Errorf("failed to scan surgery: %w", err)
			}
			rec.PatientID = model.PatientID(patient)
			out = append(out, rec)
		}
		return out, rows.Err()
	})
}

// SaveCommitLog appends an audit entry and assigns its ID.
func (s *PostgresStorage) SaveCommitLog(ctx context.Context, entry *model.CommitLogEntry) error {
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
	_, err = s.conn(ctx).Exec(ctx, `
		INSERT INTO commit_log (id, patient_id, source, success, report, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, entry.PatientID.String(), entry.Source, entry.Success, string(report), entry.Error, createdAt)
	if err != nil {
		return fmt.Errorf("failed to save commit log: %w", err)
	}
	entry.ID, entry.CreatedAt = id, createdAt
	return nil
}

// ListCommitLogs returns a patient's most recent audit entries, newest first.
func (s *PostgresStorage) ListCommitLogs(ctx context.Context, patientID model.PatientID, limit int) ([]model.CommitLogEntry, error) {
	if err := validatePatientID(patientID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT id, patient_id, source, success, report::text, error, created_at
		FROM commit_log WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2`, patientID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commit log: %w", err)
	}
	defer rows.Close()

	var entries []model.CommitLogEntry
	for rows.Next() {
		var entry model.CommitLogEntry
		var patient, report string
		if err := rows.Scan(&entry.ID, &patient, &entry.Source, &entry.Success, &report, &entry.Error, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit log: %w", err)
		}
		if err := json.Unmarshal([]byte(report), &entry.Report); err != nil {
			return nil, fmt.Errorf("failed to decode commit report: %w", err)
		}
		entry.PatientID = model.PatientID(patient)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
