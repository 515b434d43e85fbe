package model

import (
	"time"

	"github.com/google/uuid"
)

// Role values embedded in issued tokens.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Gender is the enumerated sex attribute of a user profile.
type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderUnknown Gender = "unknown"
)

// User is a single identity record. The password is stored as a bcrypt hash
// and is never serialized. RevokedOn/RevokedBy are always set and cleared as
// a pair: both nil means the account is active, both set means it has been
// soft-deleted.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Login        string     `json:"login" db:"login"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	Gender       Gender     `json:"gender" db:"gender"`
	Birthday     *time.Time `json:"birthday,omitempty" db:"birthday"`
	Admin        bool       `json:"admin" db:"is_admin"`
	CreatedOn    time.Time  `json:"created_on" db:"created_on"`
	CreatedBy    uuid.UUID  `json:"created_by" db:"created_by"`
	ModifiedOn   *time.Time `json:"modified_on,omitempty" db:"modified_on"`
	ModifiedBy   *uuid.UUID `json:"modified_by,omitempty" db:"modified_by"`
	RevokedOn    *time.Time `json:"revoked_on,omitempty" db:"revoked_on"`
	RevokedBy    *uuid.UUID `json:"revoked_by,omitempty" db:"revoked_by"`
}

// IsActive reports whether the user has not been soft-deleted.
func (u *User) IsActive() bool {
	return u.RevokedOn == nil
}

// Role returns the role claim for this user.
func (u *User) Role() string {
	if u.Admin {
		return RoleAdmin
	}
	return RoleUser
}

// Summary is the reduced projection returned by login lookups: profile
// fields and an activity flag only, no credential or audit data.
type Summary struct {
	Login    string     `json:"login"`
	Name     string     `json:"name"`
	Gender   Gender     `json:"gender"`
	Birthday *time.Time `json:"birthday,omitempty"`
	IsActive bool       `json:"is_active"`
}

// Summarize projects the user into its Summary form.
func (u *User) Summarize() Summary {
	return Summary{
		Login:    u.Login,
		Name:     u.Name,
		Gender:   u.Gender,
		Birthday: u.Birthday,
		IsActive: u.IsActive(),
	}
}
