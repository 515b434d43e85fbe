package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Lefthander07/UserAPI/internal/model"
)

// Config selects the backing database. The zero value opens an in-memory
// SQLite store, which is also what the tests use.
type Config struct {
	// Driver is one of "sqlite" (default), "postgres", or "mysql".
	Driver string
	// DSN is the connection string. For the mysql driver it must include
	// parseTime=true. Ignored for sqlite when DataDir is set.
	DSN string
	// DataDir holds the SQLite database file when the sqlite driver is used
	// without an explicit DSN.
	DataDir string
}

// Store is the durable account store. Login uniqueness is enforced by a
// UNIQUE column constraint so that concurrent creates and renames cannot
// both claim the same login; every mutation is a single conditional
// statement and therefore atomic with its own precondition.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured database and runs migrations.
func Open(cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}

	dsn := cfg.DSN
	var driverName string
	switch driver {
	case "sqlite":
		driverName = "sqlite"
		if dsn == "" {
			if cfg.DataDir == "" {
				dsn = ":memory:?_journal_mode=WAL"
			} else {
				if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
					return nil, fmt.Errorf("create data dir: %w", err)
				}
				dsn = filepath.Join(cfg.DataDir, "userapi.db") + "?_journal_mode=WAL&_busy_timeout=5000"
			}
		}
	case "postgres":
		driverName = "pgx"
	case "mysql":
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open users database: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate users database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection, used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create inserts a new user. The login must be unused by any stored account,
// revoked ones included; a collision returns ErrLoginTaken.
func (s *Store) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users
		(id, login, password_hash, name, gender, birthday, is_admin, created_on, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, s.db.Rebind(q),
		u.ID, u.Login, u.PasswordHash, u.Name, u.Gender, u.Birthday, u.Admin, u.CreatedOn, u.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrLoginTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID returns a user by id, revoked accounts included.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.db.Rebind("SELECT * FROM users WHERE id = ?"), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetByLogin returns a user by login, revoked accounts included.
func (s *Store) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	if err := s.db.GetContext(ctx, &u, s.db.Rebind("SELECT * FROM users WHERE login = ?"), login); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by login: %w", err)
	}
	return &u, nil
}

// GetActiveByLogin returns a user by login only if the account is active.
// Revoked and missing accounts are indistinguishable to the caller.
func (s *Store) GetActiveByLogin(ctx context.Context, login string) (*model.User, error) {
	var u model.User
	const q = "SELECT * FROM users WHERE login = ? AND revoked_on IS NULL"
	if err := s.db.GetContext(ctx, &u, s.db.Rebind(q), login); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active user by login: %w", err)
	}
	return &u, nil
}

// ListActive returns all active users ordered by creation time ascending.
func (s *Store) ListActive(ctx context.Context) ([]model.User, error) {
	var users []model.User
	const q = "SELECT * FROM users WHERE revoked_on IS NULL ORDER BY created_on ASC"
	if err := s.db.SelectContext(ctx, &users, q); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return users, nil
}

// ListOlderThan returns users whose birthday is on or before the cutoff
// date. Users without a birthday are excluded.
func (s *Store) ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.User, error) {
	var users []model.User
	const q = "SELECT * FROM users WHERE birthday IS NOT NULL AND birthday <= ? ORDER BY created_on ASC"
	if err := s.db.SelectContext(ctx, &users, s.db.Rebind(q), cutoff); err != nil {
		return nil, fmt.Errorf("list users older than cutoff: %w", err)
	}
	return users, nil
}

// LoginTaken reports whether the login is already held by an account other
// than excludeID. The UNIQUE constraint remains the authoritative guard;
// this is a pre-check so renames can report conflicts before the write.
func (s *Store) LoginTaken(ctx context.Context, login string, excludeID uuid.UUID) (bool, error) {
	var count int
	const q = "SELECT COUNT(*) FROM users WHERE login = ? AND id <> ?"
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(q), login, excludeID); err != nil {
		return false, fmt.Errorf("check login: %w", err)
	}
	return count > 0, nil
}

// UpdateProfile applies a partial profile update to an active user. Name and
// gender are changed only when non-nil; the birthday is always overwritten
// with the supplied value, including clearing it. Returns false when the
// user is missing or revoked.
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, name *string, gender *model.Gender, birthday *time.Time, modifiedBy uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE users SET
		name = COALESCE(?, name),
		gender = COALESCE(?, gender),
		birthday = ?,
		modified_on = ?,
		modified_by = ?
		WHERE id = ? AND revoked_on IS NULL`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), name, gender, birthday, now, modifiedBy, id)
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}
	return oneRowAffected(result, "update profile")
}

// ChangePassword overwrites the stored password hash of an active user.
// Returns false when the user is missing or revoked.
func (s *Store) ChangePassword(ctx context.Context, id uuid.UUID, passwordHash string, modifiedBy uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE users SET password_hash = ?, modified_on = ?, modified_by = ?
		WHERE id = ? AND revoked_on IS NULL`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), passwordHash, now, modifiedBy, id)
	if err != nil {
		return false, fmt.Errorf("change password: %w", err)
	}
	return oneRowAffected(result, "change password")
}

// ChangeLogin renames an active user. A collision with another account's
// login returns ErrLoginTaken; a missing or revoked user returns false.
func (s *Store) ChangeLogin(ctx context.Context, id uuid.UUID, newLogin string, modifiedBy uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE users SET login = ?, modified_on = ?, modified_by = ?
		WHERE id = ? AND revoked_on IS NULL`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), newLogin, now, modifiedBy, id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrLoginTaken
		}
		return false, fmt.Errorf("change login: %w", err)
	}
	return oneRowAffected(result, "change login")
}

// SoftDeleteByLogin revokes an active user, stamping revoked_on/revoked_by
// together. Returns false when the user is missing or already revoked.
func (s *Store) SoftDeleteByLogin(ctx context.Context, login string, revokedBy uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE users SET revoked_on = ?, revoked_by = ?
		WHERE login = ? AND revoked_on IS NULL`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), now, revokedBy, login)
	if err != nil {
		return false, fmt.Errorf("soft delete user: %w", err)
	}
	return oneRowAffected(result, "soft delete user")
}

// HardDeleteByLogin permanently removes a user record, revoked or not.
// Returns false when the user is missing.
func (s *Store) HardDeleteByLogin(ctx context.Context, login string) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM users WHERE login = ?"), login)
	if err != nil {
		return false, fmt.Errorf("hard delete user: %w", err)
	}
	return oneRowAffected(result, "hard delete user")
}

// Restore clears the revocation pair of a revoked user and stamps the
// modification. Returns false when the user is missing or already active.
func (s *Store) Restore(ctx context.Context, id uuid.UUID, restoredBy uuid.UUID, now time.Time) (bool, error) {
	const q = `UPDATE users SET revoked_on = NULL, revoked_by = NULL, modified_on = ?, modified_by = ?
		WHERE id = ? AND revoked_on IS NOT NULL`
	result, err := s.db.ExecContext(ctx, s.db.Rebind(q), now, restoredBy, id)
	if err != nil {
		return false, fmt.Errorf("restore user: %w", err)
	}
	return oneRowAffected(result, "restore user")
}

// HasAnyAdmin reports whether at least one administrator account exists.
// Used by the bootstrap routine on startup.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	const q = "SELECT COUNT(*) FROM users WHERE is_admin"
	if err := s.db.GetContext(ctx, &count, q); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

func oneRowAffected(result sql.Result, op string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n > 0, nil
}

// isUniqueViolation recognizes unique-constraint errors across the three
// supported drivers without importing their error types.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
