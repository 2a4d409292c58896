package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS recipe_cache (
	fingerprint TEXT PRIMARY KEY,
	result      BLOB NOT NULL,
	is_valid    INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	version     INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore persists cache entries in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the cache database at the given path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite is single-writer; serializing access through one
	// connection avoids SQLITE_BUSY under concurrent extractions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the entry for a fingerprint, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT fingerprint, result, is_valid, created_at, updated_at, version
		 FROM recipe_cache WHERE fingerprint = ?`, fingerprint)

	var entry Entry
	var isValid int
	err := row.Scan(&entry.Fingerprint, &entry.Result, &isValid,
		&entry.CreatedAt, &entry.UpdatedAt, &entry.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.IsValid = isValid != 0
	return &entry, nil
}

// Put stores a result, incrementing the version on overwrite.
func (s *SQLiteStore) Put(ctx context.Context, fingerprint string, result []byte, isValid bool) (*Entry, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipe_cache (fingerprint, result, is_valid, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, 0)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			result = excluded.result,
			is_valid = excluded.is_valid,
			updated_at = excluded.updated_at,
			version = recipe_cache.version + 1`,
		fingerprint, result, boolToInt(isValid), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to write cache entry: %w", err)
	}

	return s.Get(ctx, fingerprint)
}

// Exists reports whether a fingerprint is cached.
func (s *SQLiteStore) Exists(ctx context.Context, fingerprint string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM recipe_cache WHERE fingerprint = ?`, fingerprint).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check cache entry: %w", err)
	}
	return true, nil
}

// Delete removes an entry.
func (s *SQLiteStore) Delete(ctx context.Context, fingerprint string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM recipe_cache WHERE fingerprint = ?`, fingerprint); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Count returns the number of cached entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recipe_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ Store = (*SQLiteStore)(nil)
