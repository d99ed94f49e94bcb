package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Veraticus/scribe/internal/model"
)

// DefaultCacheTTL bounds how long list reads are served from memory.
const DefaultCacheTTL = 5 * time.Minute

// SQLiteStorage implements service.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	cache  *readCache
	now    func() time.Time
	dbPath string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections, and :memory: needs exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
		cache:  newReadCache(DefaultCacheTTL),
		now:    time.Now,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SetCacheTTL changes how long list reads stay cached. Zero disables caching.
func (s *SQLiteStorage) SetCacheTTL(ttl time.Duration) {
	s.cache.setTTL(ttl)
}

// Invalidate drops cached reads of one category for one patient.
func (s *SQLiteStorage) Invalidate(ctx context.Context, category model.Category, patientID model.PatientID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.cache.invalidate(category, patientID)
	return nil
}
