package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/deppfellow/rsweb/internal/config"
	"github.com/rs/zerolog"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

// sqliteSchema mirrors migrations/001_scene_store.sql. Annotations are JSON text.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scenes (
    timestamp INTEGER PRIMARY KEY,
    rgb       BLOB
);

CREATE TABLE IF NOT EXISTS object_hypotheses (
    id          TEXT PRIMARY KEY,
    timestamp   INTEGER NOT NULL REFERENCES scenes (timestamp) ON DELETE CASCADE,
    idx         INTEGER NOT NULL DEFAULT 0,
    annotations TEXT NOT NULL DEFAULT '{}',
    image       BLOB
);

CREATE INDEX IF NOT EXISTS idx_object_hypotheses_timestamp ON object_hypotheses (timestamp, idx);

CREATE TABLE IF NOT EXISTS persistent_objects (
    id          INTEGER PRIMARY KEY,
    label       TEXT NOT NULL DEFAULT '',
    annotations TEXT NOT NULL DEFAULT '{}',
    image       BLOB
);

CREATE TABLE IF NOT EXISTS object_instances (
    object_id     INTEGER NOT NULL REFERENCES persistent_objects (id) ON DELETE CASCADE,
    timestamp     INTEGER NOT NULL,
    hypothesis_id TEXT NOT NULL DEFAULT '',
    annotations   TEXT NOT NULL DEFAULT '{}',
    image         BLOB,
    PRIMARY KEY (object_id, timestamp, hypothesis_id)
);
`

// OpenSQLite opens the SQLite scene database, creating the file and schema
// when they do not exist yet.
func OpenSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zerolog.Logger) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := MigrateSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Str("path", cfg.Path).Msg("opened sqlite scene store")
	return db, nil
}

// MigrateSQLite creates any missing scene store tables.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}
