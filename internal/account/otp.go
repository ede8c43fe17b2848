// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package account

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"github.com/samber/oops"
)

// OTP configuration.
const (
	otpDigits = 6
	otpSpace  = 1000000 // codes are drawn uniformly from [0, otpSpace)

	// OTPExpiry is how long an issued code stays valid.
	OTPExpiry = 10 * time.Minute
)

// GenerateOTP draws a 6-digit challenge code uniformly from 000000–999999.
// Leading zeros are preserved; the code is compared as a string.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpace))
	if err != nil {
		return "", oops.Code("OTP_GENERATE_FAILED").Wrap(err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// VerifyOTPCode checks a submitted code against the stored one at time now.
// The match is string-exact with no numeric coercion, in constant time, and
// requires now to be strictly before the stored expiry.
//
// It is side-effect free: codes are single-use only because the service
// clears them after a successful verification or reset.
func VerifyOTPCode(acct *Account, submitted string, now time.Time) bool {
	if submitted == "" || !acct.HasValidOTP(now) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*acct.OTP), []byte(submitted)) == 1
}
