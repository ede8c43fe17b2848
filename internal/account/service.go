// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenIssuer mints session tokens for authenticated accounts.
type TokenIssuer interface {
	// Issue returns a signed, time-bounded token embedding the account id.
	Issue(accountID string) (string, error)
}

// Mailer delivers outbound mail. Implementations live in internal/mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// OTP mail content, matching what clients already expect.
const (
	otpSubject = "OTP for Registration"
)

// dummyPasswordHash is verified against when a username doesn't exist so
// login latency doesn't reveal which accounts are real. It is not a
// credential and never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing-attack prevention.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service is the authentication orchestrator. It owns the account state
// machine (unverified, then OTP-pending, then verified, plus the reset
// sub-flow)
// and holds no state of its own; everything durable lives in the repository.
type Service struct {
	accounts Repository
	hasher   PasswordHasher
	tokens   TokenIssuer
	mailer   Mailer
	logger   *slog.Logger
}

// NewService creates a Service. All dependencies are required.
func NewService(accounts Repository, hasher PasswordHasher, tokens TokenIssuer, mailer Mailer) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, tokens, mailer, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts Repository, hasher PasswordHasher, tokens TokenIssuer, mailer Mailer, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token issuer is required")
	}
	if mailer == nil {
		return nil, oops.Errorf("mailer is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		mailer:   mailer,
		logger:   logger,
	}, nil
}

// RegisterInput carries the registration fields.
type RegisterInput struct {
	Name        string
	Username    string
	Email       string
	Password    string
	PhoneNumber string
	Address     string
}

// Register creates an unverified account and issues its first OTP.
//
// The username/email pre-checks are a fast path only; the UNIQUE
// constraints in the accounts table are the authoritative conflict signal,
// so a concurrent duplicate submission still fails with ErrConflict on
// insert. If the OTP email cannot be sent the account and its stored code
// survive, and the caller gets ErrDispatch wrapped together with the new
// account; the forgot-password flow can resend.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if _, err := s.accounts.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "check username").Wrap(err)
	}
	if _, err := s.accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "check email").Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	acct, err := NewAccount(in.Name, in.Username, in.Email, hash, in.PhoneNumber, in.Address)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "create account").Wrap(err)
	}

	s.logger.Info("account registered", "account_id", acct.ID.String(), "username", acct.Username)

	if err := s.issueOTP(ctx, acct); err != nil {
		// The account exists and, unless persistence itself failed, still
		// carries a valid code. Surface the failure; don't roll back.
		return acct, err
	}
	return acct, nil
}

// issueOTP generates a fresh challenge code, persists it on the account,
// and then emails it. Persist-before-send: a dispatch failure leaves a
// resendable code behind instead of burning a new one per retry.
func (s *Service) issueOTP(ctx context.Context, acct *Account) error {
	code, err := GenerateOTP()
	if err != nil {
		return err
	}

	acct.SetOTP(code, time.Now().Add(OTPExpiry))
	if err := s.accounts.Update(ctx, acct); err != nil {
		return oops.Code("AUTH_OTP_PERSIST_FAILED").
			With("account_id", acct.ID.String()).
			Wrap(err)
	}

	body := fmt.Sprintf("Your OTP is: %s", code)
	if err := s.mailer.Send(ctx, acct.Email, otpSubject, body); err != nil {
		s.logger.Warn("OTP email dispatch failed; stored code remains valid",
			"account_id", acct.ID.String(), "error", err)
		return oops.Code("AUTH_OTP_DISPATCH_FAILED").
			With("account_id", acct.ID.String()).
			Wrap(errors.Join(ErrDispatch, err))
	}
	return nil
}

// VerifyOTP flips an account to verified when the submitted code matches
// the stored, unexpired one. The code is cleared on success; an unknown
// email and a wrong or expired code are indistinguishable to the caller.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return oops.Code("AUTH_VERIFY_FAILED").With("operation", "get account by email").Wrap(err)
	}

	if !VerifyOTPCode(acct, code, time.Now()) {
		return ErrInvalidOTP
	}

	acct.Verified = true
	acct.ClearOTP()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return oops.Code("AUTH_VERIFY_FAILED").With("operation", "persist verification").Wrap(err)
	}

	s.logger.Info("account verified", "account_id", acct.ID.String())
	return nil
}

// Login authenticates a verified account and returns a session token.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials;
// a dummy hash is verified for missing accounts to keep timing flat.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	acct, lookupErr := s.accounts.GetByUsername(ctx, username)

	targetHash := dummyPasswordHash
	exists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "get account by username").Wrap(lookupErr)
		}
	} else {
		targetHash = acct.PasswordHash
		exists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !exists {
			return "", ErrInvalidCredentials
		}
		return "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "verify password").Wrap(verifyErr)
	}
	if !exists || !valid {
		return "", ErrInvalidCredentials
	}

	if !acct.Verified {
		return "", ErrNotVerified
	}

	token, err := s.tokens.Issue(acct.ID.String())
	if err != nil {
		return "", oops.Code("AUTH_LOGIN_FAILED").With("operation", "issue session token").Wrap(err)
	}

	s.logger.Info("login succeeded", "account_id", acct.ID.String())
	return token, nil
}

// ForgotPassword issues a fresh OTP for a password reset, overwriting any
// pending code. Unlike VerifyOTP it reports unknown emails as ErrNotFound;
// the endpoint is documented to 404 in that case.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return oops.Code("AUTH_FORGOT_FAILED").With("operation", "get account by email").Wrap(err)
	}
	return s.issueOTP(ctx, acct)
}

// ResetPassword replaces the password when the submitted code matches the
// stored, unexpired one, then clears the code.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return oops.Code("AUTH_RESET_FAILED").With("operation", "get account by email").Wrap(err)
	}

	if !VerifyOTPCode(acct, code, time.Now()) {
		return ErrInvalidOTP
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_FAILED").With("operation", "hash new password").Wrap(err)
	}

	acct.PasswordHash = hash
	acct.ClearOTP()
	if err := s.accounts.Update(ctx, acct); err != nil {
		return oops.Code("AUTH_RESET_FAILED").With("operation", "persist new password").Wrap(err)
	}

	s.logger.Info("password reset", "account_id", acct.ID.String())
	return nil
}

// Get retrieves a single account by id.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return s.accounts.List(ctx)
}

// UpdateAccount merges the provided partial fields onto the stored record.
// A supplied password is re-hashed; plaintext never reaches the repository.
func (s *Service) UpdateAccount(ctx context.Context, id ulid.ULID, upd Update) (*Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		acct.Name = *upd.Name
	}
	if upd.Username != nil {
		if err := ValidateUsername(*upd.Username); err != nil {
			return nil, err
		}
		acct.Username = *upd.Username
	}
	if upd.Email != nil {
		if err := ValidateEmail(*upd.Email); err != nil {
			return nil, err
		}
		acct.Email = *upd.Email
	}
	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, oops.Code("ACCOUNT_UPDATE_FAILED").With("operation", "hash password").Wrap(err)
		}
		acct.PasswordHash = hash
	}
	if upd.PhoneNumber != nil {
		acct.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Address != nil {
		acct.Address = *upd.Address
	}
	acct.UpdatedAt = time.Now()

	if err := s.accounts.Update(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// DeleteAccount removes an account and returns its pre-deletion snapshot.
func (s *Service) DeleteAccount(ctx context.Context, id ulid.ULID) (*Account, error) {
	acct, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("account deleted", "account_id", id.String())
	return acct, nil
}
