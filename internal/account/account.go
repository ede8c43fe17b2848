// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package account

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that start with a letter and contain
// only letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// emailRegex is a light sanity check, not a full RFC 5322 validator.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account is a registered user account.
//
// OTP and OTPExpiresAt are either both set or both nil; the schema enforces
// the same invariant with a CHECK constraint. An account may log in only
// once Verified has been flipped to true by a successful OTP verification.
type Account struct {
	ID           ulid.ULID
	Name         string
	Username     string
	Email        string
	PasswordHash string
	PhoneNumber  string
	Address      string
	Verified     bool
	OTP          *string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetOTP stores a pending challenge code on the account.
func (a *Account) SetOTP(code string, expiresAt time.Time) {
	a.OTP = &code
	a.OTPExpiresAt = &expiresAt
	a.UpdatedAt = time.Now()
}

// ClearOTP removes the pending challenge code, if any.
func (a *Account) ClearOTP() {
	a.OTP = nil
	a.OTPExpiresAt = nil
	a.UpdatedAt = time.Now()
}

// HasValidOTP reports whether the account carries an unexpired challenge
// code at time now.
func (a *Account) HasValidOTP(now time.Time) bool {
	return a.OTP != nil && a.OTPExpiresAt != nil && now.Before(*a.OTPExpiresAt)
}

// NewAccount creates a validated, unverified account. The password hash
// must already be derived; plaintext passwords never reach this layer.
func NewAccount(name, username, email, passwordHash, phoneNumber, address string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("ACCOUNT_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:           ulid.Make(),
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		PhoneNumber:  phoneNumber,
		Address:      address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateUsername validates a username against rules:
// length within [MinUsernameLength, MaxUsernameLength], starts with a
// letter, and contains only letters, numbers, and underscores.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("ACCOUNT_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("ACCOUNT_INVALID_USERNAME").
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidateEmail checks that email looks like an address.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return oops.Code("ACCOUNT_INVALID_EMAIL").With("email", email).Errorf("invalid email address")
	}
	return nil
}

// Update carries partial account changes. Nil fields are left untouched.
// Password, when present, is the plaintext to be re-hashed by the service
// before it reaches the repository.
type Update struct {
	Name        *string
	Username    *string
	Email       *string
	Password    *string
	PhoneNumber *string
	Address     *string
}

// Repository manages account persistence. Uniqueness of username and email
// is enforced by the storage engine; Create and Update surface violations
// as ErrConflict.
type Repository interface {
	// Create stores a new account.
	Create(ctx context.Context, acct *Account) error

	// GetByID retrieves an account by id.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByUsername retrieves an account by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// Update persists the full state of an existing account.
	Update(ctx context.Context, acct *Account) error

	// Delete removes an account.
	Delete(ctx context.Context, id ulid.ULID) error

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*Account, error)
}
