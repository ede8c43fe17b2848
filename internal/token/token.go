// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package token issues and parses signed session tokens.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// SessionTokenExpiry is the lifetime of a session token. Expiry is the
// only invalidation mechanism; there is no revocation list.
const SessionTokenExpiry = time.Hour

// ErrInvalidToken is returned when a token fails signature or expiry
// checks.
var ErrInvalidToken = oops.Code("TOKEN_INVALID").Errorf("invalid session token")

// Claims embeds the registered JWT claims plus the account id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Issuer mints HS256-signed session tokens with a server-held secret.
// Any bit flip in the payload invalidates the signature; the token never
// carries the password hash or OTP.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

// NewIssuer creates an Issuer. The secret must be non-empty.
func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, oops.Code("TOKEN_NO_SECRET").Errorf("signing secret is required")
	}
	return &Issuer{secret: secret, expiry: SessionTokenExpiry}, nil
}

// Issue returns a signed token embedding accountID, expiring one hour
// from now.
func (i *Issuer) Issue(accountID string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
		UserID: accountID,
	})

	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Parse validates the signature and expiry of tokenString and returns the
// embedded account id.
func (i *Issuer) Parse(tokenString string) (string, error) {
	claims := &Claims{}

	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
