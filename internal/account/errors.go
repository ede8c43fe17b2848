// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package account

import "errors"

// Sentinel errors returned by the account service and repositories.
// Callers should match these with errors.Is; the HTTP layer maps them
// to status codes.
var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrConflict is returned when a username or email is already taken.
	ErrConflict = errors.New("username or email already exists")

	// ErrInvalidOTP is returned when a submitted code does not match the
	// stored one or the stored one has expired.
	ErrInvalidOTP = errors.New("invalid or expired OTP")

	// ErrInvalidCredentials is returned on login failure. It deliberately
	// covers both unknown usernames and wrong passwords so responses do
	// not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotVerified is returned when an unverified account attempts to
	// log in.
	ErrNotVerified = errors.New("email not verified")

	// ErrDispatch is returned when an OTP was persisted but the email
	// carrying it could not be sent. The stored code stays valid.
	ErrDispatch = errors.New("email dispatch failed")
)
