package imagecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// DefaultTTL is how long persisted images stay valid.
const DefaultTTL = 7 * 24 * time.Hour

// SQLite persists image bytes across process restarts.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens (or creates) the cache database at path.
func NewSQLite(path string, ttl time.Duration) (*SQLite, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS images (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			stored_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create images table: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

// Get implements Cache. Expired rows are deleted and reported as misses.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool) {
	var data []byte
	var storedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT data, stored_at FROM images WHERE key = ?", key,
	).Scan(&data, &storedAt)
	if err != nil {
		return nil, false
	}

	if s.now().Sub(time.UnixMilli(storedAt)) > s.ttl {
		_, _ = s.db.ExecContext(ctx, "DELETE FROM images WHERE key = ?", key)
		return nil, false
	}
	return data, true
}

// Put implements Cache.
func (s *SQLite) Put(ctx context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image data")
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO images (key, data, stored_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET data=excluded.data, stored_at=excluded.stored_at",
		key, data, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}

// PurgeExpired removes every row older than the TTL and returns how many were removed.
func (s *SQLite) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	res, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE stored_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge images: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
