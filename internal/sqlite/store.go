package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"shuttle-router/internal/database"

	_ "modernc.org/sqlite"
)

const (
	MemoryPath    = ":memory:"
	schemaVersion = 2
)

// Store is a SQLite-based data store implementing database.DataStore
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex

	runRepo database.RunRepository
}

// New creates a new SQLite store at the specified path
func New(dbPath string) (*Store, error) {
	if dbPath != MemoryPath {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	log.Printf("[SQLITE] Opening database at: %s", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.runRepo = &runRepository{store: store}

	return store, nil
}

// GetDBPath returns the current database file path
func (s *Store) GetDBPath() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist, create everything
		return s.createSchema()
	}

	if version < schemaVersion {
		if err := s.runMigrations(version); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		notes TEXT,
		strategy TEXT NOT NULL,
		stop_reason TEXT NOT NULL,
		total_staff INTEGER NOT NULL DEFAULT 0,
		total_capacity INTEGER NOT NULL DEFAULT 0,
		total_vehicles INTEGER NOT NULL DEFAULT 0,
		vehicles_used INTEGER NOT NULL DEFAULT 0,
		total_distance REAL NOT NULL DEFAULT 0,
		initial_distance REAL NOT NULL DEFAULT 0,
		iterations INTEGER NOT NULL DEFAULT 0,
		moves_applied INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		warnings TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS run_routes (
		run_id TEXT NOT NULL,
		vehicle_id INTEGER NOT NULL,
		capacity INTEGER NOT NULL,
		total_distance REAL NOT NULL DEFAULT 0,
		load INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, vehicle_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS run_stops (
		run_id TEXT NOT NULL,
		vehicle_id INTEGER NOT NULL,
		stop_order INTEGER NOT NULL,
		location_index INTEGER NOT NULL,
		kind TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		distance_from_prev REAL NOT NULL DEFAULT 0,
		cumulative_distance REAL NOT NULL DEFAULT 0,
		load INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, vehicle_id, stop_order),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	log.Printf("[SQLITE] Schema initialized (version %d)", schemaVersion)
	return nil
}

func (s *Store) runMigrations(fromVersion int) error {
	if fromVersion < 2 {
		if _, err := s.db.Exec("ALTER TABLE runs ADD COLUMN warnings TEXT NOT NULL DEFAULT '[]'"); err != nil {
			return fmt.Errorf("failed to migrate to version 2: %w", err)
		}
	}

	log.Printf("[SQLITE] Migrated schema from version %d to %d", fromVersion, schemaVersion)
	_, err := s.db.Exec("UPDATE schema_version SET version = ?", schemaVersion)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		// Checkpoint WAL before closing
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Runs returns the run history repository
func (s *Store) Runs() database.RunRepository { return s.runRepo }
