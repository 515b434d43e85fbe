package store

import "errors"

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLoginTaken is returned when an insert or rename collides with a
	// login already held by another account, revoked accounts included.
	ErrLoginTaken = errors.New("login already taken")
)
