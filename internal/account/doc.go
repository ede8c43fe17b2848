// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

// Package account holds the user-account domain: the Account entity, the
// Repository port backed by PostgreSQL, password hashing, OTP challenge
// codes, and the Service that drives the verification state machine.
//
// # Domain Types
//
// Account should be created through NewAccount, which validates the
// username and email and fills timestamps and the ULID. Direct struct
// initialization bypasses validation.
//
// # State machine
//
// An account starts unverified with no pending code. Registration and
// forgot-password both issue a 6-digit code that expires after ten
// minutes; a successful verification flips Verified exactly once and
// clears the code, and a successful password reset clears it likewise.
// Codes are single-use by virtue of the Service clearing them; the OTP
// check itself is side-effect free so both flows can share it.
package account
