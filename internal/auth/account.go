// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Account defaults applied at creation.
const (
	DefaultRole         = "user"
	DefaultAuthProvider = "local"

	// UniqueIDPrefix tags every public account identifier issued by this
	// service.
	UniqueIDPrefix = "ksl"
)

// Account represents a registered user account. The core reads and writes
// only the credential fields; FailedLoginAttempts, AccountLockedUntil and
// the reset-token fields are reserved for the lockout and password-reset
// flows, which live outside this core.
type Account struct {
	ID           ulid.ULID
	UniqueID     string // public identifier, "ksl_" + 16 chars, immutable
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	AuthProvider string
	IsActive     bool
	IsVerified   bool

	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	PasswordResetToken  *string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccount creates an Account with defaulted role and provider.
// ID, UniqueID and timestamps are assigned by the repository on Save.
func NewAccount(email, passwordHash, firstName, lastName string) *Account {
	return &Account{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		Role:         DefaultRole,
		AuthProvider: DefaultAuthProvider,
	}
}

// NewUniqueID derives the short public identifier from an account's ULID.
// The 16-character entropy segment keeps the result at 20 characters and
// distinct from the internal id.
func NewUniqueID(id ulid.ULID) string {
	s := id.String()
	return UniqueIDPrefix + "_" + strings.ToLower(s[len(s)-16:])
}

// Claim projects the account into the transient identity claim embedded
// in issued tokens.
func (a *Account) Claim() IdentityClaim {
	return IdentityClaim{
		UniqueID:  a.UniqueID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
	}
}

// AccountRepository is the persistence collaborator consumed by the core.
type AccountRepository interface {
	// FindByEmail retrieves an account by email as stored (no
	// normalization). Returns ErrNotFound if no account has the email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Save stores a new account, assigning ID, UniqueID and timestamps.
	// Returns ErrEmailTaken if the email uniqueness constraint rejects
	// the insert.
	Save(ctx context.Context, account *Account) (*Account, error)
}
