package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	// ErrInvalidName is returned for a full name that is not at least two words.
	ErrInvalidName = errors.New("invalid full name")

	// ErrInvalidEmail is returned for a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Member is the registration record of a desk user.
type Member struct {
	Username         string    `json:"username"`
	UserID           string    `json:"user_id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	RegistrationDate time.Time `json:"registration_date"`
	Registered       bool      `json:"registered"`
}

// MemberPath returns the document path of a member record. Telegram
// usernames are case insensitive so the path segment is normalized.
func MemberPath(username string) string {
	return "Members/" + slug.Make(username)
}

// ValidateFullName requires at least two words and 3 to 100 characters.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if len(strings.Fields(name)) < 2 {
		return ErrInvalidName
	}
	if len(name) < 3 || len(name) > 100 {
		return ErrInvalidName
	}
	return nil
}

// ValidateEmail checks the address against a conservative pattern.
func ValidateEmail(email string) error {
	if !emailRegexp.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}
