// Package storage persists the sets of locations each session has visited.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLiteVisitedStore keeps visited-location sets as JSON arrays in a
// key/value table
type SQLiteVisitedStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (and creates if missing) the database at dsn and ensures
// the schema exists
func OpenSQLite(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLiteVisitedStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if driver == "" {
		driver = "sqlite3"
	}

	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases to a single instance
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteVisitedStore{db: db, logger: logger}, nil
}

// LoadVisited returns the stored set; a missing or corrupt value reads as empty
func (s *SQLiteVisitedStore) LoadVisited(ctx context.Context, key string) ([]string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load visited locations: %w", err)
	}

	var locations []string
	if err := json.Unmarshal([]byte(value), &locations); err != nil {
		s.logger.Warn("Corrupt visited locations, treating as empty",
			zap.String("key", key),
			zap.Error(err))
		return []string{}, nil
	}
	return dedupe(locations), nil
}

// SaveVisited replaces the stored set
func (s *SQLiteVisitedStore) SaveVisited(ctx context.Context, key string, locations []string) error {
	data, err := json.Marshal(dedupe(locations))
	if err != nil {
		return fmt.Errorf("encode visited locations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data))
	if err != nil {
		return fmt.Errorf("save visited locations: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteVisitedStore) Close() error {
	return s.db.Close()
}

// MemoryVisitedStore is an in-process VisitedStore
type MemoryVisitedStore struct {
	mu   sync.RWMutex
	sets map[string][]string
}

// NewMemoryVisitedStore creates an empty in-memory store
func NewMemoryVisitedStore() *MemoryVisitedStore {
	return &MemoryVisitedStore{sets: make(map[string][]string)}
}

// LoadVisited returns a copy of the stored set
func (m *MemoryVisitedStore) LoadVisited(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.sets[key]...), nil
}

// SaveVisited replaces the stored set
func (m *MemoryVisitedStore) SaveVisited(_ context.Context, key string, locations []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[key] = dedupe(locations)
	return nil
}

// dedupe keeps the first occurrence of every location, in order
func dedupe(locations []string) []string {
	seen := make(map[string]struct{}, len(locations))
	out := make([]string, 0, len(locations))
	for _, l := range locations {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
