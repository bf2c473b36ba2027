package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteConfig holds SQLite connection configuration.
type SQLiteConfig struct {
	// Path is a file path or a "file:" URI.
	Path string

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool

	// BusyTimeout is how long a writer waits for a lock before failing.
	BusyTimeout time.Duration

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig returns defaults for a single-process mirror file.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:            path,
		EnableWAL:       true,
		BusyTimeout:     5 * time.Second,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	}
}

// DSN builds the go-sqlite3 data source name for cfg.
func (c SQLiteConfig) DSN() string {
	var params []string
	if c.EnableWAL {
		params = append(params, "_journal_mode=WAL")
	}
	if c.BusyTimeout > 0 {
		params = append(params, fmt.Sprintf("_busy_timeout=%d", c.BusyTimeout.Milliseconds()))
	}
	if len(params) == 0 {
		return c.Path
	}

	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return c.Path + sep + strings.Join(params, "&")
}

// OpenSQLite opens the database and verifies the connection.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}

	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}
