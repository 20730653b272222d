package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// TimeLayout is the storage format for timestamps.
const TimeLayout = time.RFC3339

// DateLayout is the storage format for calendar dates.
const DateLayout = "2006-01-02"

// migration is one step of the schema chain. Steps run inside a transaction
// and must be safe on a database that already has some of their tables.
type migration struct {
	name string
	up   func(tx *sql.Tx) error
}

var migrations = []migration{
	{name: "baseline", up: migrateBaseline},
	{name: "search_indexes", up: migrateSearchIndexes},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return len(migrations)
}

// SchemaVersion returns the applied schema version, 0 for an untracked database.
// PRE: db is a valid database connection
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// InitDB sets connection pragmas.
// PRE: db is a valid database connection
// POST: WAL mode and foreign keys enabled
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

// MigrateDB applies pending migrations in order. A file database that already
// has data is copied to "<path>.bak-v<version>" before the first pending step.
// PRE: db is a valid database connection, path is its file or ":memory:"
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(db *sql.DB, path string) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if current > 0 && path != "" && path != ":memory:" {
		backup := fmt.Sprintf("%s.bak-v%d", path, current)
		if _, err := db.Exec("VACUUM INTO ?", backup); err != nil {
			return fmt.Errorf("failed to back up database before migration: %w", err)
		}
		slog.Info("db_event", "event", "backup_created", "path", backup)
	}

	for i := current; i < len(migrations); i++ {
		m := migrations[i]
		version := i + 1
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if err := m.up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", version, m.name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version, name, applied_at) VALUES (?, ?, ?)",
			version, m.name, time.Now().UTC().Format(TimeLayout)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		slog.Info("db_event", "event", "migration_applied", "version", version, "name", m.name)
	}
	return nil
}

func migrateBaseline(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE IF NOT EXISTS club (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		short_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		club_id TEXT,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		FOREIGN KEY (club_id) REFERENCES club(id)
	);

	CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		sex INTEGER NOT NULL,
		citizenship TEXT NOT NULL DEFAULT 'CZ',
		birth_number TEXT NOT NULL DEFAULT '',
		street TEXT NOT NULL DEFAULT '',
		house_number TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		legal_guardian_email TEXT NOT NULL DEFAULT '',
		legal_guardian_first_name TEXT NOT NULL DEFAULT '',
		legal_guardian_last_name TEXT NOT NULL DEFAULT '',
		email_confirmation_token TEXT,
		email_confirmed_at TEXT,
		marketing_consent_given_at TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		default_jersey_number INTEGER,
		created_at TEXT NOT NULL,
		FOREIGN KEY (club_id) REFERENCES club(id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS member_birth_number_unique
		ON member(birth_number) WHERE birth_number != '';
	CREATE UNIQUE INDEX IF NOT EXISTS member_confirmation_token_unique
		ON member(email_confirmation_token) WHERE email_confirmation_token IS NOT NULL;

	CREATE TABLE IF NOT EXISTS transfer (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		state TEXT NOT NULL,
		source_club_id TEXT NOT NULL,
		target_club_id TEXT NOT NULL,
		requesting_club_id TEXT NOT NULL,
		approving_club_id TEXT NOT NULL,
		requested_by TEXT NOT NULL,
		approved_by TEXT,
		approved_at TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (member_id) REFERENCES member(id),
		FOREIGN KEY (source_club_id) REFERENCES club(id),
		FOREIGN KEY (target_club_id) REFERENCES club(id)
	);
	`)
	return err
}

func migrateSearchIndexes(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE INDEX IF NOT EXISTS member_club_idx ON member(club_id, is_active);
	CREATE INDEX IF NOT EXISTS member_name_idx ON member(last_name, first_name);
	CREATE UNIQUE INDEX IF NOT EXISTS member_email_unique ON member(email) WHERE email != '';
	CREATE INDEX IF NOT EXISTS transfer_member_state_idx ON transfer(member_id, state);
	`)
	return err
}
