// Package service contains the business operations of the identity service:
// the account lifecycle engine, credential verification and token issuance,
// and the access control policy consulted by the transport layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lefthander07/UserAPI/internal/model"
	"github.com/Lefthander07/UserAPI/internal/store"
)

// BootstrapLogin is the well-known login of the seed administrator account.
const BootstrapLogin = "admin"

// Store is the persistence contract the services depend on. *store.Store
// satisfies it; tests may substitute any other implementation as long as it
// enforces login uniqueness atomically with each write.
type Store interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetActiveByLogin(ctx context.Context, login string) (*model.User, error)
	ListActive(ctx context.Context) ([]model.User, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.User, error)
	LoginTaken(ctx context.Context, login string, excludeID uuid.UUID) (bool, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name *string, gender *model.Gender, birthday *time.Time, modifiedBy uuid.UUID, now time.Time) (bool, error)
	ChangePassword(ctx context.Context, id uuid.UUID, passwordHash string, modifiedBy uuid.UUID, now time.Time) (bool, error)
	ChangeLogin(ctx context.Context, id uuid.UUID, newLogin string, modifiedBy uuid.UUID, now time.Time) (bool, error)
	SoftDeleteByLogin(ctx context.Context, login string, revokedBy uuid.UUID, now time.Time) (bool, error)
	HardDeleteByLogin(ctx context.Context, login string) (bool, error)
	Restore(ctx context.Context, id uuid.UUID, restoredBy uuid.UUID, now time.Time) (bool, error)
	HasAnyAdmin(ctx context.Context) (bool, error)
}

// Users implements the account lifecycle: creation, profile and credential
// mutation, soft delete, restore, hard delete, and lookups. Input validation
// happens at the transport boundary; the engine trusts its arguments and
// enforces lifecycle preconditions only. Missing targets and wrong lifecycle
// states collapse to a false result; login conflicts and storage failures
// surface as errors.
type Users struct {
	store  Store
	logger *slog.Logger
}

// NewUsers creates the lifecycle engine.
func NewUsers(store Store, logger *slog.Logger) *Users {
	return &Users{store: store, logger: logger}
}

// CreateParams carries the attributes of a new account.
type CreateParams struct {
	Login    string
	Password string
	Name     string
	Gender   model.Gender
	Birthday *time.Time
	Admin    bool
}

// Create provisions a new account with a bcrypt-hashed password, stamped
// with the creating actor. Returns store.ErrLoginTaken when the login is
// already in use by any account, revoked ones included.
func (s *Users) Create(ctx context.Context, p CreateParams, actor uuid.UUID) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New(),
		Login:        p.Login,
		PasswordHash: string(hash),
		Name:         p.Name,
		Gender:       p.Gender,
		Birthday:     p.Birthday,
		Admin:        p.Admin,
		CreatedOn:    time.Now().UTC(),
		CreatedBy:    actor,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListActive returns all active accounts ordered by creation time.
func (s *Users) ListActive(ctx context.Context) ([]model.User, error) {
	return s.store.ListActive(ctx)
}

// FindByLogin returns an account by login, revoked ones included.
func (s *Users) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	return s.store.GetByLogin(ctx, login)
}

// FindByID returns an account by id, revoked ones included. Visibility of
// revoked accounts is the access policy's concern, not the engine's.
func (s *Users) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.store.GetByID(ctx, id)
}

// ListOlderThan returns accounts whose birthday is on or before today minus
// ageYears, compared on UTC calendar dates. Accounts without a birthday are
// excluded.
func (s *Users) ListOlderThan(ctx context.Context, ageYears int) ([]model.User, error) {
	now := time.Now().UTC()
	cutoff := time.Date(now.Year()-ageYears, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.store.ListOlderThan(ctx, cutoff)
}

// UpdateProfile applies a partial profile update: name and gender change
// only when supplied, while the birthday is always overwritten with the
// given value, including clearing it. Returns false when the account is
// missing or revoked.
func (s *Users) UpdateProfile(ctx context.Context, id uuid.UUID, name *string, gender *model.Gender, birthday *time.Time, actor uuid.UUID) (bool, error) {
	return s.store.UpdateProfile(ctx, id, name, gender, birthday, actor, time.Now().UTC())
}

// ChangePassword replaces the account's password with a bcrypt hash of the
// new one. Returns false when the account is missing or revoked.
func (s *Users) ChangePassword(ctx context.Context, id uuid.UUID, newPassword string, actor uuid.UUID) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	return s.store.ChangePassword(ctx, id, string(hash), actor, time.Now().UTC())
}

// ChangeLogin renames an active account. Returns store.ErrLoginTaken when
// the new login belongs to a different account, and false when the account
// is missing or revoked. The store's unique constraint closes the race
// between the pre-check and the write.
func (s *Users) ChangeLogin(ctx context.Context, id uuid.UUID, newLogin string, actor uuid.UUID) (bool, error) {
	taken, err := s.store.LoginTaken(ctx, newLogin, id)
	if err != nil {
		return false, err
	}
	if taken {
		return false, store.ErrLoginTaken
	}
	return s.store.ChangeLogin(ctx, id, newLogin, actor, time.Now().UTC())
}

// SoftDelete revokes an active account by login. Returns false when the
// account is missing or already revoked.
func (s *Users) SoftDelete(ctx context.Context, login string, actor uuid.UUID) (bool, error) {
	return s.store.SoftDeleteByLogin(ctx, login, actor, time.Now().UTC())
}

// HardDelete permanently removes an account by login, from either lifecycle
// state. Returns false when the account is missing.
func (s *Users) HardDelete(ctx context.Context, login string) (bool, error) {
	return s.store.HardDeleteByLogin(ctx, login)
}

// Restore reactivates a revoked account, clearing the revocation pair and
// stamping the modification. Returns false when the account is missing or
// already active, so repeated restores never double-stamp.
func (s *Users) Restore(ctx context.Context, id uuid.UUID, actor uuid.UUID) (bool, error) {
	return s.store.Restore(ctx, id, actor, time.Now().UTC())
}

// Bootstrap provisions the initial administrator account if no admin exists
// yet. It runs once on startup before the server accepts traffic and is
// safe to call repeatedly. Returns true when an account was seeded.
func (s *Users) Bootstrap(ctx context.Context) (bool, error) {
	hasAdmin, err := s.store.HasAnyAdmin(ctx)
	if err != nil {
		return false, fmt.Errorf("check for admin: %w", err)
	}
	if hasAdmin {
		return false, nil
	}

	_, err = s.Create(ctx, CreateParams{
		Login:    BootstrapLogin,
		Password: BootstrapLogin,
		Name:     "Administrator",
		Gender:   model.GenderUnknown,
		Admin:    true,
	}, uuid.Nil)
	if errors.Is(err, store.ErrLoginTaken) {
		// Another instance won the race; the seed exists.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin account: %w", err)
	}

	s.logger.Warn("seeded default admin account, change its password",
		"login", BootstrapLogin)
	return true, nil
}
