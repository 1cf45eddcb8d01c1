package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; each entry runs at most once, tracked by
// the schema_migrations table.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		seq INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT,
		registration_start_date TEXT NOT NULL,
		registration_deadline TEXT NOT NULL,
		max_participants INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		event_days INTEGER NOT NULL DEFAULT 1,
		requires_attendance INTEGER NOT NULL DEFAULT 1,
		organizers TEXT NOT NULL DEFAULT '[]',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_seq ON events(seq)`,
	`CREATE TABLE IF NOT EXISTS attendees (
		event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		email TEXT NOT NULL COLLATE NOCASE,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		college TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		year TEXT NOT NULL DEFAULT '',
		registration_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'confirmed',
		PRIMARY KEY (event_id, email)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		event_id INTEGER NOT NULL,
		email TEXT NOT NULL COLLATE NOCASE,
		date_key TEXT NOT NULL,
		morning INTEGER NOT NULL DEFAULT 0,
		afternoon INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (event_id, email, date_key),
		FOREIGN KEY (event_id, email) REFERENCES attendees(event_id, email) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS session_slot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		profile TEXT NOT NULL
	)`,
}

// Migrate brings the schema up to date.
func (p *Pool) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := p.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		stmt := migrations[i]
		err := p.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %d: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
				return fmt.Errorf("record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
