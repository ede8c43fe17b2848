// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package account_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriauth/veriauth/internal/account"
)

func TestNewAccount(t *testing.T) {
	t.Run("creates unverified account with id and timestamps", func(t *testing.T) {
		acct, err := account.NewAccount("Test User", "testuser", "test@example.com", "hash", "555-0100", "1 Test Way")
		require.NoError(t, err)

		assert.NotZero(t, acct.ID)
		assert.False(t, acct.Verified)
		assert.Nil(t, acct.OTP)
		assert.Nil(t, acct.OTPExpiresAt)
		assert.False(t, acct.CreatedAt.IsZero())
		assert.Equal(t, acct.CreatedAt, acct.UpdatedAt)
	})

	t.Run("rejects empty password hash", func(t *testing.T) {
		_, err := account.NewAccount("Test User", "testuser", "test@example.com", "", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password hash")
	})

	t.Run("rejects invalid username", func(t *testing.T) {
		_, err := account.NewAccount("Test User", "_bad", "test@example.com", "hash", "", "")
		require.Error(t, err)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := account.NewAccount("Test User", "testuser", "not-an-email", "hash", "", "")
		require.Error(t, err)
	})
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid simple", username: "alice"},
		{name: "valid with digits and underscores", username: "alice_42"},
		{name: "valid minimum length", username: "abc"},
		{name: "valid maximum length", username: strings.Repeat("a", account.MaxUsernameLength)},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", account.MaxUsernameLength+1), wantErr: true},
		{name: "starts with digit", username: "1alice", wantErr: true},
		{name: "starts with underscore", username: "_alice", wantErr: true},
		{name: "contains hyphen", username: "ali-ce", wantErr: true},
		{name: "contains space", username: "ali ce", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "user@example.com"},
		{name: "valid subdomain", email: "user@mail.example.co.uk"},
		{name: "empty", email: "", wantErr: true},
		{name: "missing at", email: "userexample.com", wantErr: true},
		{name: "missing domain dot", email: "user@example", wantErr: true},
		{name: "contains space", email: "user name@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccount_OTPLifecycle(t *testing.T) {
	acct, err := account.NewAccount("Test User", "testuser", "test@example.com", "hash", "", "")
	require.NoError(t, err)

	now := time.Now()

	assert.False(t, acct.HasValidOTP(now))

	acct.SetOTP("123456", now.Add(10*time.Minute))
	require.NotNil(t, acct.OTP)
	assert.Equal(t, "123456", *acct.OTP)
	assert.True(t, acct.HasValidOTP(now))
	assert.False(t, acct.HasValidOTP(now.Add(11*time.Minute)))

	acct.ClearOTP()
	assert.Nil(t, acct.OTP)
	assert.Nil(t, acct.OTPExpiresAt)
	assert.False(t, acct.HasValidOTP(now))
}
