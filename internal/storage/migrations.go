package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Patient record tables",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS diagnoses (
					id TEXT PRIMARY KEY,
					patient_id TEXT NOT NULL,
					cid_code TEXT NOT NULL,
					diagnosis_date TEXT NOT NULL,
					status TEXT NOT NULL,
					notes TEXT,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_diagnoses_patient ON diagnoses(patient_id)`,

				`CREATE TABLE IF NOT EXISTS medications (
					id TEXT PRIMARY KEY,
					patient_id TEXT NOT NULL,
					name TEXT NOT NULL,
					dosage TEXT NOT NULL,
					frequency TEXT NOT NULL,
					format TEXT NOT NULL,
					start_date TEXT NOT NULL,
					notes TEXT NOT NULL DEFAULT '',
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_medications_patient ON medications(patient_id)`,

				`CREATE TABLE IF NOT EXISTS allergies (
					id TEXT PRIMARY KEY,
					patient_id TEXT NOT NULL,
					allergen TEXT NOT NULL,
					allergen_type TEXT NOT NULL,
					reaction TEXT NOT NULL DEFAULT '',
					severity TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_allergies_patient ON allergies(patient_id)`,

				`CREATE TABLE IF NOT EXISTS surgeries (
					id TEXT PRIMARY KEY,
					patient_id TEXT NOT NULL,
					procedure_name TEXT NOT NULL,
					surgery_date TEXT NOT NULL,
					hospital_name TEXT NOT NULL DEFAULT '',
					surgeon_name TEXT NOT NULL DEFAULT '',
					notes TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_surgeries_patient ON surgeries(patient_id)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Commit audit log",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS commit_log (
					id TEXT PRIMARY KEY,
					patient_id TEXT NOT NULL,
					source TEXT NOT NULL,
					success INTEGER NOT NULL,
					report TEXT NOT NULL,
					error TEXT NOT NULL DEFAULT '',
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_commit_log_patient ON commit_log(patient_id, created_at)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
