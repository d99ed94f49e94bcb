package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStorage creates a migrated file-backed store in a temp dir.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("creates missing directory", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "nested", "dir", "scribe.db")
		store, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.FileExists(t, dbPath)
	})

	t.Run("in memory", func(t *testing.T) {
		store, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		require.NoError(t, store.Migrate(context.Background()))
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	require.NoError(t, store.Migrate(ctx))
	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrations_AreOrdered(t *testing.T) {
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, m.Description)
		assert.NotEmpty(t, m.Description)
	}
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

func TestMigrate_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	//nolint:staticcheck // exercising nil context handling
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}
