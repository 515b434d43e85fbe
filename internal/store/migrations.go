package store

import "fmt"

// migrate creates the users table for the active driver. Statements are
// idempotent so the store can run them on every startup.
func (s *Store) migrate() error {
	var migrations []string

	switch s.driver {
	case "postgres":
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				login TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				name TEXT NOT NULL,
				gender TEXT NOT NULL DEFAULT 'unknown',
				birthday TIMESTAMPTZ,
				is_admin BOOLEAN NOT NULL DEFAULT FALSE,
				created_on TIMESTAMPTZ NOT NULL,
				created_by TEXT NOT NULL,
				modified_on TIMESTAMPTZ,
				modified_by TEXT,
				revoked_on TIMESTAMPTZ,
				revoked_by TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_created_on ON users(created_on)`,
		}
	case "mysql":
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(36) PRIMARY KEY,
				login VARCHAR(100) UNIQUE NOT NULL,
				password_hash VARCHAR(100) NOT NULL,
				name VARCHAR(100) NOT NULL,
				gender VARCHAR(10) NOT NULL DEFAULT 'unknown',
				birthday DATETIME,
				is_admin TINYINT(1) NOT NULL DEFAULT 0,
				created_on DATETIME NOT NULL,
				created_by VARCHAR(36) NOT NULL,
				modified_on DATETIME,
				modified_by VARCHAR(36),
				revoked_on DATETIME,
				revoked_by VARCHAR(36),
				INDEX idx_users_created_on (created_on)
			)`,
		}
	default: // sqlite
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				login TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				name TEXT NOT NULL,
				gender TEXT NOT NULL DEFAULT 'unknown',
				birthday DATETIME,
				is_admin INTEGER NOT NULL DEFAULT 0,
				created_on DATETIME NOT NULL,
				created_by TEXT NOT NULL,
				modified_on DATETIME,
				modified_by TEXT,
				revoked_on DATETIME,
				revoked_by TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_created_on ON users(created_on)`,
		}
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
