// Package user contains the account domain: registered learners and
// their credentials.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linguaspark/linguaspark-api/internal/domain/shared"
)

// User is a registered learner account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// New creates a user with a fresh ID. The password hash is supplied by the
// caller; this package never sees plaintext passwords.
func New(username, email, passwordHash string, now time.Time) (*User, error) {
	u := &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(strings.ToLower(email)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the account fields.
func (u *User) Validate() error {
	if u.Username == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "username is required")
	}
	if len(u.Username) < 3 || len(u.Username) > 50 {
		return shared.NewDomainError("user", "Validate", shared.ErrValueOutOfRange, "username must be 3-50 characters")
	}
	if u.Email == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "email is required")
	}
	if !strings.Contains(u.Email, "@") {
		return shared.NewDomainError("user", "Validate", shared.ErrInvalidFormat, "email must contain @")
	}
	if u.PasswordHash == "" {
		return shared.NewDomainError("user", "Validate", shared.ErrEmptyValue, "password hash is required")
	}
	return nil
}

// Repository persists user accounts.
type Repository interface {
	// Create stores a new user. Returns shared.ErrAlreadyExists if the
	// username or email is taken.
	Create(ctx context.Context, u *User) error

	// ByID returns the user with the given ID, or shared.ErrNotFound.
	ByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ByUsername returns the user with the given username, or shared.ErrNotFound.
	ByUsername(ctx context.Context, username string) (*User, error)

	// UsernameExists reports whether a username is already registered.
	UsernameExists(ctx context.Context, username string) (bool, error)

	// EmailExists reports whether an email is already registered.
	EmailExists(ctx context.Context, email string) (bool, error)
}
