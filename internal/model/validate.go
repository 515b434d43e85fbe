package model

import (
	"fmt"
	"regexp"
)

// maxFieldLen bounds login, password, and name lengths.
const maxFieldLen = 100

var (
	loginPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z\x{0400}-\x{04FF} ]+$`)
)

// ValidateLogin checks that a login is non-empty, at most 100 characters,
// and contains only Latin letters and digits.
func ValidateLogin(login string) error {
	switch {
	case login == "":
		return fmt.Errorf("login is required")
	case len(login) > maxFieldLen:
		return fmt.Errorf("login must be at most %d characters", maxFieldLen)
	case !loginPattern.MatchString(login):
		return fmt.Errorf("login must contain only Latin letters and digits")
	}
	return nil
}

// ValidatePassword checks that a password is non-empty, at most 100
// characters, and contains only Latin letters and digits.
func ValidatePassword(password string) error {
	switch {
	case password == "":
		return fmt.Errorf("password is required")
	case len(password) > maxFieldLen:
		return fmt.Errorf("password must be at most %d characters", maxFieldLen)
	case !loginPattern.MatchString(password):
		return fmt.Errorf("password must contain only Latin letters and digits")
	}
	return nil
}

// ValidateName checks that a display name is non-empty, at most 100
// characters, and contains only letters (Latin or Cyrillic) and spaces.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name is required")
	case len(name) > maxFieldLen:
		return fmt.Errorf("name must be at most %d characters", maxFieldLen)
	case !namePattern.MatchString(name):
		return fmt.Errorf("name must contain only letters and spaces")
	}
	return nil
}

// ParseGender converts a string into one of the three Gender values.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderFemale, GenderMale, GenderUnknown:
		return Gender(s), nil
	}
	return "", fmt.Errorf("gender must be one of female, male, unknown")
}
