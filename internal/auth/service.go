// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/keyspring/keyspring/pkg/errutil"
)

// TokenIssuer is the token-minting dependency of the orchestrator.
// *TokenService satisfies it.
type TokenIssuer interface {
	Issue(claim IdentityClaim, subject string, issuedAt, expiresAt time.Time) (string, error)
}

// Service orchestrates registration and login. Both flows are single-pass
// stateless pipelines: no retries, no partial commits. Every operation
// returns an Envelope; unexpected failures are logged server-side and
// surfaced as a generic 500.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	lifetime time.Duration
	logger   *slog.Logger
}

// NewService creates a Service with the default token lifetime and the
// default logger.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens TokenIssuer) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("account repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		lifetime: DefaultTokenLifetime,
		logger:   logger,
	}, nil
}

// SetTokenLifetime overrides the issued-token lifetime. Values ≤ 0 are
// ignored.
func (s *Service) SetTokenLifetime(d time.Duration) {
	if d > 0 {
		s.lifetime = d
	}
}

// Register validates the candidate, hashes the password and persists a
// new account. Checks short-circuit in a fixed order: field presence,
// email format, email existence, password strength. The existence
// pre-check gives a fast 409; the storage uniqueness constraint remains
// the authoritative guard and a raced duplicate insert still maps to 409.
func (s *Service) Register(ctx context.Context, candidate Registration) Envelope {
	if v := ValidateRegistrationFields(candidate); !v.OK {
		return fail(http.StatusBadRequest, v.Message)
	}

	if !ValidateEmailFormat(candidate.Email) {
		return fail(http.StatusBadRequest, "Invalid email format.")
	}

	if _, err := s.accounts.FindByEmail(ctx, candidate.Email); err == nil {
		return fail(http.StatusConflict, "Email already exists.")
	} else if !errors.Is(err, ErrNotFound) {
		errutil.LogError(s.logger, "registration: account lookup failed", err)
		return internalError()
	}

	if v := ValidatePasswordStrength(candidate.Password); !v.OK {
		return fail(http.StatusBadRequest, v.Message)
	}

	hash, err := s.hasher.Hash(candidate.Password)
	if err != nil {
		errutil.LogError(s.logger, "registration: password hashing failed", err)
		return internalError()
	}

	account := NewAccount(candidate.Email, hash, candidate.FirstName, candidate.LastName)
	if _, err := s.accounts.Save(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost the race against a concurrent registration; the
			// storage constraint caught it.
			return fail(http.StatusConflict, "Email already exists.")
		}
		errutil.LogError(s.logger, "registration: account save failed", err)
		return internalError()
	}

	return ok("User registered successfully.", nil)
}

// Login validates the credentials, verifies the password against the
// stored hash and mints a bearer token valid for the configured lifetime.
// A corrupt stored hash is treated as a mismatch, never as a crash.
func (s *Service) Login(ctx context.Context, credentials Credentials) Envelope {
	if credentials.Email == "" || credentials.Password == "" {
		return fail(http.StatusBadRequest, "Login failed. Email and password are required.")
	}

	if !ValidateEmailFormat(credentials.Email) {
		return fail(http.StatusBadRequest, "Login failed. Invalid email format.")
	}

	account, err := s.accounts.FindByEmail(ctx, credentials.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(http.StatusNotFound, "Login failed. User not found.")
		}
		errutil.LogError(s.logger, "login: account lookup failed", err)
		return internalError()
	}

	match, err := s.hasher.Verify(credentials.Password, account.PasswordHash)
	if err != nil || !match {
		if err != nil {
			errutil.LogError(s.logger, "login: password verification failed", err)
		}
		return fail(http.StatusUnauthorized, "Login failed. Invalid password.")
	}

	issuedAt := time.Now()
	expiresAt := issuedAt.Add(s.lifetime)
	token, err := s.tokens.Issue(account.Claim(), account.UniqueID, issuedAt, expiresAt)
	if err != nil {
		errutil.LogError(s.logger, "login: token issuance failed", err)
		return internalError()
	}

	return ok("Login successful.", LoginResult{Token: token, Expiry: expiresAt.Unix()})
}
