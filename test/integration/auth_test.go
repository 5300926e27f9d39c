// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

//go:build integration

package integration

import (
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/keyspring/keyspring/internal/auth"
)

// uniqueEmail returns an email address unused by any other spec.
func uniqueEmail(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String()) + "@example.com"
}

var _ = Describe("Schema migrations", func() {
	It("reports the applied version as clean", func() {
		version, dirty, err := env.migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeNumerically(">=", 1))
		Expect(dirty).To(BeFalse())
	})
})

var _ = Describe("AccountRepository", func() {
	It("round-trips an account through Save and FindByEmail", func() {
		email := uniqueEmail("roundtrip")
		account := auth.NewAccount(email, "$argon2id$placeholder", "Jane", "Doe")

		saved, err := env.Accounts.Save(env.ctx, account)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.ID).NotTo(Equal(ulid.ULID{}))
		Expect(saved.UniqueID).To(HavePrefix("ksl_"))
		Expect(saved.UniqueID).To(HaveLen(20))
		Expect(saved.CreatedAt).NotTo(BeZero())

		found, err := env.Accounts.FindByEmail(env.ctx, email)
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(saved.ID))
		Expect(found.UniqueID).To(Equal(saved.UniqueID))
		Expect(found.PasswordHash).To(Equal("$argon2id$placeholder"))
		Expect(found.Role).To(Equal("user"))
		Expect(found.AuthProvider).To(Equal("local"))
		Expect(found.FailedLoginAttempts).To(BeZero())
		Expect(found.AccountLockedUntil).To(BeNil())
		Expect(found.PasswordResetToken).To(BeNil())
	})

	It("returns ErrNotFound for an unknown email", func() {
		_, err := env.Accounts.FindByEmail(env.ctx, uniqueEmail("missing"))
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("maps the unique constraint to ErrEmailTaken", func() {
		email := uniqueEmail("duplicate")
		first := auth.NewAccount(email, "hash", "A", "B")
		_, err := env.Accounts.Save(env.ctx, first)
		Expect(err).NotTo(HaveOccurred())

		second := auth.NewAccount(email, "hash", "C", "D")
		_, err = env.Accounts.Save(env.ctx, second)
		Expect(err).To(MatchError(auth.ErrEmailTaken))
	})

	It("treats email comparison as case-sensitive", func() {
		email := uniqueEmail("casesensitive")
		_, err := env.Accounts.Save(env.ctx, auth.NewAccount(email, "hash", "A", "B"))
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Accounts.FindByEmail(env.ctx, strings.ToUpper(email))
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})

var _ = Describe("Registration and login", func() {
	const password = "Str0ngpass!"

	It("registers, rejects the duplicate, then logs in", func() {
		email := uniqueEmail("flow")

		registration := auth.Registration{
			Email:     email,
			Password:  password,
			FirstName: "Jane",
			LastName:  "Doe",
		}

		env1 := env.Service.Register(env.ctx, registration)
		Expect(env1.StatusCode).To(Equal(http.StatusOK))
		Expect(env1.Message).To(Equal("User registered successfully."))

		env2 := env.Service.Register(env.ctx, registration)
		Expect(env2.StatusCode).To(Equal(http.StatusConflict))
		Expect(env2.Message).To(Equal("Email already exists."))

		env3 := env.Service.Login(env.ctx, auth.Credentials{Email: email, Password: password})
		Expect(env3.StatusCode).To(Equal(http.StatusOK))
		Expect(env3.Message).To(Equal("Login successful."))

		result, isResult := env3.Payload.(auth.LoginResult)
		Expect(isResult).To(BeTrue())
		Expect(result.Token).NotTo(BeEmpty())
		Expect(result.Expiry).To(BeNumerically(">", 0))

		// The issued token verifies and carries the account's public id.
		account, err := env.Accounts.FindByEmail(env.ctx, email)
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Tokens.ExtractSubject(result.Token)).To(Equal(account.UniqueID))

		// The stored hash is Argon2id, never the plaintext.
		Expect(account.PasswordHash).To(HavePrefix("$argon2id$"))
		Expect(account.PasswordHash).NotTo(ContainSubstring(password))
	})

	It("rejects a wrong password without issuing a token", func() {
		email := uniqueEmail("wrongpass")
		Expect(env.Service.Register(env.ctx, auth.Registration{
			Email: email, Password: password, FirstName: "A", LastName: "B",
		}).StatusCode).To(Equal(http.StatusOK))

		envelope := env.Service.Login(env.ctx, auth.Credentials{Email: email, Password: "Wr0ngpass!"})
		Expect(envelope.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(envelope.Message).To(Equal("Login failed. Invalid password."))
		Expect(envelope.Payload).To(BeNil())
	})

	It("returns 404 for an unregistered email", func() {
		envelope := env.Service.Login(env.ctx, auth.Credentials{
			Email:    uniqueEmail("ghost"),
			Password: password,
		})
		Expect(envelope.StatusCode).To(Equal(http.StatusNotFound))
		Expect(envelope.Message).To(Equal("Login failed. User not found."))
	})
})
