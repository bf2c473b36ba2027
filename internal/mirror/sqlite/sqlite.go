// Package sqlite is a mirror.Store kept in a local SQLite file, the
// durable default for a single storefront process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/database"
)

const schema = `CREATE TABLE IF NOT EXISTS mirror_slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements mirror.Store with one row per slot.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ mirror.Store = (*Store)(nil)

// Open opens (creating if needed) the database described by cfg.
func Open(ctx context.Context, cfg database.SQLiteConfig) (*Store, error) {
	db, err := database.OpenSQLite(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and creates the slot table.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create mirror_slots: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Get(ctx context.Context, key string) (value []byte, err error) {
	ctx, end := database.TraceOp(ctx, "sqlite", "get", key)
	defer func() { end(err) }()

	err = s.db.QueryRowContext(ctx, `SELECT value FROM mirror_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mirror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceOp(ctx, "sqlite", "set", key)
	defer func() { end(err) }()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO mirror_slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceOp(ctx, "sqlite", "delete", key)
	defer func() { end(err) }()

	if _, err = s.db.ExecContext(ctx, `DELETE FROM mirror_slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
