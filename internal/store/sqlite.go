package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-forecast/internal/weather"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS forecast_cache (
	cache_key TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	created_at TEXT NOT NULL
);`

// SQLiteStore persists cache entries in a local SQLite file (pure Go driver modernc.org/sqlite).
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// sqlite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("could not set sqlite WAL mode", zap.Error(err))
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger, nowFn: time.Now}, nil
}

// Get returns the cached body for key. Errors are logged and reported as a miss.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM forecast_cache WHERE cache_key = ?`, key).Scan(&body)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("sqlite cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return body, true
}

// Put stores value under key, replacing any previous entry.
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO forecast_cache(cache_key, body, created_at) VALUES(?,?,?)`,
		key, value, s.nowFn().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("sqlite cache write: %w", err)
	}
	return nil
}

// Prune deletes entries written before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM forecast_cache WHERE created_at < ?`,
		before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("sqlite cache prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	_ weather.CacheStore = (*SQLiteStore)(nil)
	_ weather.Pruner     = (*SQLiteStore)(nil)
)
