package configstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dbsmedya/polytrack/internal/tracker"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS polymorphic_configs (
	config_id  TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS config_revisions (
	revision_id TEXT PRIMARY KEY,
	config_id   TEXT NOT NULL,
	document    TEXT NOT NULL,
	saved_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_config_revisions_config_id
	ON config_revisions (config_id, saved_at);
`

// SQLite persists config documents as JSON in a local SQLite database.
// Every save also appends a uuid-stamped row to a revision log, which makes
// config drift inspectable after the fact.
type SQLite struct {
	db *sql.DB
}

// Revision is one entry of the save history for a config document.
type Revision struct {
	RevisionID string
	ConfigID   string
	SavedAt    time.Time
}

// OpenSQLite opens (creating if needed) the store at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config store %q: %w", path, err)
	}

	// The store is accessed from a single process; one connection avoids
	// SQLITE_BUSY on concurrent writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize config store schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Load returns the stored document for configID, or (nil, nil) when absent.
func (s *SQLite) Load(ctx context.Context, configID string) (*tracker.PolymorphicConfig, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM polymorphic_configs WHERE config_id = ?`, configID,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configID, err)
	}

	var cfg tracker.PolymorphicConfig
	if err := json.Unmarshal([]byte(document), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %q: %w", configID, err)
	}
	return &cfg, nil
}

// Save upserts the document and appends a revision row in one transaction.
func (s *SQLite) Save(ctx context.Context, configID string, cfg *tracker.PolymorphicConfig) error {
	document, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config %q: %w", configID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save for config %q: %w", configID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO polymorphic_configs (config_id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(config_id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at`,
		configID, string(document), now,
	)
	if err != nil {
		return fmt.Errorf("failed to save config %q: %w", configID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO config_revisions (revision_id, config_id, document, saved_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), configID, string(document), now,
	)
	if err != nil {
		return fmt.Errorf("failed to record revision for config %q: %w", configID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save for config %q: %w", configID, err)
	}
	return nil
}

// Revisions lists the save history for configID, newest first.
func (s *SQLite) Revisions(ctx context.Context, configID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT revision_id, config_id, saved_at
		FROM config_revisions
		WHERE config_id = ?
		ORDER BY saved_at DESC`, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions for config %q: %w", configID, err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var rev Revision
		var savedAt string
		if err := rows.Scan(&rev.RevisionID, &rev.ConfigID, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision row: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			rev.SavedAt = ts
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
