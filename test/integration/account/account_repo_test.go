// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

//go:build integration

package account_test

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/veriauth/veriauth/internal/account"
)

func testAccount(username, email string) *account.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &account.Account{
		ID:           ulid.Make(),
		Name:         "Test User",
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		PhoneNumber:  "555-0100",
		Address:      "1 Test Way",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var _ = Describe("AccountRepository", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAccounts(ctx, env.pool)
	})

	Describe("Create", func() {
		It("persists all account fields", func() {
			acct := testAccount("alice", "alice@example.com")

			err := env.Accounts.Create(ctx, acct)
			Expect(err).NotTo(HaveOccurred())

			got, err := env.Accounts.GetByID(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Test User"))
			Expect(got.Username).To(Equal("alice"))
			Expect(got.Email).To(Equal("alice@example.com"))
			Expect(got.PasswordHash).To(Equal(acct.PasswordHash))
			Expect(got.PhoneNumber).To(Equal("555-0100"))
			Expect(got.Address).To(Equal("1 Test Way"))
			Expect(got.Verified).To(BeFalse())
			Expect(got.OTP).To(BeNil())
			Expect(got.OTPExpiresAt).To(BeNil())
		})

		It("persists a pending challenge code", func() {
			acct := testAccount("alice", "alice@example.com")
			acct.SetOTP("482913", time.Now().Add(10*time.Minute))

			err := env.Accounts.Create(ctx, acct)
			Expect(err).NotTo(HaveOccurred())

			got, err := env.Accounts.GetByID(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.OTP).NotTo(BeNil())
			Expect(*got.OTP).To(Equal("482913"))
			Expect(got.OTPExpiresAt).NotTo(BeNil())
		})

		It("rejects a duplicate username", func() {
			Expect(env.Accounts.Create(ctx, testAccount("alice", "alice@example.com"))).To(Succeed())

			err := env.Accounts.Create(ctx, testAccount("alice", "other@example.com"))
			Expect(err).To(MatchError(account.ErrConflict))
		})

		It("rejects a duplicate username regardless of case", func() {
			Expect(env.Accounts.Create(ctx, testAccount("alice", "alice@example.com"))).To(Succeed())

			err := env.Accounts.Create(ctx, testAccount("ALICE", "other@example.com"))
			Expect(err).To(MatchError(account.ErrConflict))
		})

		It("rejects a duplicate email regardless of case", func() {
			Expect(env.Accounts.Create(ctx, testAccount("alice", "alice@example.com"))).To(Succeed())

			err := env.Accounts.Create(ctx, testAccount("bob", "Alice@Example.com"))
			Expect(err).To(MatchError(account.ErrConflict))
		})
	})

	Describe("GetByUsername", func() {
		It("matches regardless of case", func() {
			acct := testAccount("Alice", "alice@example.com")
			Expect(env.Accounts.Create(ctx, acct)).To(Succeed())

			got, err := env.Accounts.GetByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(acct.ID))
			Expect(got.Username).To(Equal("Alice"), "stored casing is preserved")
		})

		It("returns ErrNotFound for an unknown username", func() {
			_, err := env.Accounts.GetByUsername(ctx, "ghost")
			Expect(err).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("GetByEmail", func() {
		It("matches regardless of case", func() {
			acct := testAccount("alice", "Alice@Example.com")
			Expect(env.Accounts.Create(ctx, acct)).To(Succeed())

			got, err := env.Accounts.GetByEmail(ctx, "alice@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(acct.ID))
		})

		It("returns ErrNotFound for an unknown email", func() {
			_, err := env.Accounts.GetByEmail(ctx, "ghost@example.com")
			Expect(err).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("Update", func() {
		It("persists verification and clears the challenge code", func() {
			acct := testAccount("alice", "alice@example.com")
			acct.SetOTP("482913", time.Now().Add(10*time.Minute))
			Expect(env.Accounts.Create(ctx, acct)).To(Succeed())

			acct.Verified = true
			acct.ClearOTP()
			Expect(env.Accounts.Update(ctx, acct)).To(Succeed())

			got, err := env.Accounts.GetByID(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Verified).To(BeTrue())
			Expect(got.OTP).To(BeNil())
			Expect(got.OTPExpiresAt).To(BeNil())
		})

		It("persists profile changes", func() {
			acct := testAccount("alice", "alice@example.com")
			Expect(env.Accounts.Create(ctx, acct)).To(Succeed())

			acct.Name = "Renamed User"
			acct.PhoneNumber = "555-0199"
			acct.UpdatedAt = time.Now().UTC()
			Expect(env.Accounts.Update(ctx, acct)).To(Succeed())

			got, err := env.Accounts.GetByID(ctx, acct.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Renamed User"))
			Expect(got.PhoneNumber).To(Equal("555-0199"))
		})

		It("returns ErrConflict when the new username is taken", func() {
			Expect(env.Accounts.Create(ctx, testAccount("alice", "alice@example.com"))).To(Succeed())
			bob := testAccount("bob", "bob@example.com")
			Expect(env.Accounts.Create(ctx, bob)).To(Succeed())

			bob.Username = "alice"
			Expect(env.Accounts.Update(ctx, bob)).To(MatchError(account.ErrConflict))
		})

		It("returns ErrNotFound for a missing account", func() {
			acct := testAccount("ghost", "ghost@example.com")
			Expect(env.Accounts.Update(ctx, acct)).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("removes the account", func() {
			acct := testAccount("alice", "alice@example.com")
			Expect(env.Accounts.Create(ctx, acct)).To(Succeed())

			Expect(env.Accounts.Delete(ctx, acct.ID)).To(Succeed())

			_, err := env.Accounts.GetByID(ctx, acct.ID)
			Expect(err).To(MatchError(account.ErrNotFound))
		})

		It("returns ErrNotFound for a missing account", func() {
			Expect(env.Accounts.Delete(ctx, ulid.Make())).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("List", func() {
		It("returns accounts ordered by creation time", func() {
			first := testAccount("alice", "alice@example.com")
			Expect(env.Accounts.Create(ctx, first)).To(Succeed())
			second := testAccount("bob", "bob@example.com")
			second.CreatedAt = first.CreatedAt.Add(time.Second)
			second.UpdatedAt = second.CreatedAt
			Expect(env.Accounts.Create(ctx, second)).To(Succeed())

			got, err := env.Accounts.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].Username).To(Equal("alice"))
			Expect(got[1].Username).To(Equal("bob"))
		})

		It("returns an empty slice when no accounts exist", func() {
			got, err := env.Accounts.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})
})
