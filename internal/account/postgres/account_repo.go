// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package postgres implements account.Repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/veriauth/veriauth/internal/account"
)

// poolIface is the subset of pgxpool.Pool the repository uses. pgxmock's
// PgxPoolIface satisfies it too, which keeps unit tests off the network.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates an AccountRepository backed by the given
// connection pool.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, name, username, email, password_hash, phone_number, address,
       is_verified, otp, otp_expires_at, created_at, updated_at`

// Create stores a new account. A unique-constraint violation on username
// or email surfaces as account.ErrConflict; the database constraint, not
// the service's pre-check, is the authoritative conflict signal.
func (r *AccountRepository) Create(ctx context.Context, acct *account.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, name, username, email, password_hash, phone_number, address,
			is_verified, otp, otp_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		acct.ID.String(),
		acct.Name,
		acct.Username,
		acct.Email,
		acct.PasswordHash,
		acct.PhoneNumber,
		acct.Address,
		acct.Verified,
		acct.OTP,
		acct.OTPExpiresAt,
		acct.CreatedAt,
		acct.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_CONFLICT").
				With("username", acct.Username).
				Wrap(account.ErrConflict)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("username", acct.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id.String())

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	return acct, nil
}

// GetByUsername retrieves an account by username (case-insensitive).
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(username) = LOWER($1)
	`, username)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("username", username).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_USERNAME_FAILED").
			With("username", username).
			Wrap(err)
	}
	return acct, nil
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE LOWER(email) = LOWER($1)
	`, email)

	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(account.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("email", email).
			Wrap(err)
	}
	return acct, nil
}

// Update persists the full state of an existing account.
func (r *AccountRepository) Update(ctx context.Context, acct *account.Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET name = $2, username = $3, email = $4, password_hash = $5,
		    phone_number = $6, address = $7, is_verified = $8,
		    otp = $9, otp_expires_at = $10, updated_at = $11
		WHERE id = $1
	`,
		acct.ID.String(),
		acct.Name,
		acct.Username,
		acct.Email,
		acct.PasswordHash,
		acct.PhoneNumber,
		acct.Address,
		acct.Verified,
		acct.OTP,
		acct.OTPExpiresAt,
		acct.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("ACCOUNT_CONFLICT").
				With("id", acct.ID.String()).
				Wrap(account.ErrConflict)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("id", acct.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", acct.ID.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, id ulid.ULID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id.String())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id.String()).
			Wrap(account.ErrNotFound)
	}
	return nil
}

// List returns all accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context) ([]*account.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at
	`)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	var accounts []*account.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "scan row").Wrap(err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ACCOUNT_LIST_FAILED").With("operation", "iterate rows").Wrap(err)
	}
	return accounts, nil
}

// scanAccount reads one account row.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var acct account.Account
	var id string

	err := row.Scan(
		&id,
		&acct.Name,
		&acct.Username,
		&acct.Email,
		&acct.PasswordHash,
		&acct.PhoneNumber,
		&acct.Address,
		&acct.Verified,
		&acct.OTP,
		&acct.OTPExpiresAt,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers translate pgx.ErrNoRows
	}

	parsed, err := ulid.Parse(id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", id).Wrap(err)
	}
	acct.ID = parsed
	return &acct, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
