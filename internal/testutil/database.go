// Package testutil provides test helpers shared by the scribe packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/scribe/internal/engine"
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/service"
	"github.com/Veraticus/scribe/internal/storage"
)

// TestDB is a migrated in-memory SQLite store bound to one test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions configures SetupTestDBWithOptions.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database. Cleanup is registered
// on t.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// Chart returns everything persisted for patient or fails the test.
func (db *TestDB) Chart(patient model.PatientID) model.PatientRecords {
	db.t.Helper()
	chart, err := engine.LoadChart(context.Background(), db.Storage, patient)
	if err != nil {
		db.t.Fatalf("failed to load chart for %s: %v", patient, err)
	}
	return chart
}

// CommitLogs returns the audit entries for patient or fails the test.
func (db *TestDB) CommitLogs(patient model.PatientID) []model.CommitLogEntry {
	db.t.Helper()
	logs, err := db.Storage.ListCommitLogs(context.Background(), patient, 0)
	if err != nil {
		db.t.Fatalf("failed to list commit logs for %s: %v", patient, err)
	}
	return logs
}
