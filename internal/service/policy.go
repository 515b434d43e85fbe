package service

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Lefthander07/UserAPI/internal/model"
)

// ErrForbidden is returned when the access policy denies an operation. The
// message carries no information about whether the target account exists.
var ErrForbidden = errors.New("forbidden")

// Policy is the single authorization table for the API. Administrators may
// do everything; standard callers are limited to reading and mutating their
// own account, and only while it is active. It is consulted exactly once
// per request by the transport layer; the engine itself does not re-check
// roles.
type Policy struct{}

// CanManage allows admin-only operations: creating accounts, listings,
// lookups by login, soft delete, hard delete, and restore.
func (Policy) CanManage(p *Principal) error {
	if p == nil || !p.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// CanAccess decides whether the caller may target the account with the
// given id at all. It runs before the target is loaded, so a standard
// caller probing someone else's id is denied without revealing whether
// that account exists.
func (Policy) CanAccess(p *Principal, targetID uuid.UUID) error {
	if p == nil {
		return ErrForbidden
	}
	if p.IsAdmin || p.UserID == targetID {
		return nil
	}
	return ErrForbidden
}

// CanActOn decides whether the caller may read or mutate the resolved
// target account. Standard callers are denied once their own account has
// been revoked; administrators are never restricted here.
func (Policy) CanActOn(p *Principal, target *model.User) error {
	if p == nil {
		return ErrForbidden
	}
	if p.IsAdmin {
		return nil
	}
	if p.UserID != target.ID || !target.IsActive() {
		return ErrForbidden
	}
	return nil
}
