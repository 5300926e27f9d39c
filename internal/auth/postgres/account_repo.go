// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

// Package postgres implements the auth persistence collaborator using
// PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/keyspring/keyspring/internal/auth"
)

// poolIface is the subset of pgxpool.Pool used by the repository.
// It allows unit testing with pgxmock.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
// The UNIQUE constraint on accounts.email is the authoritative uniqueness
// guard; the orchestrator's pre-check is only an optimization.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `
	id, unique_id, email, password_hash, first_name, last_name,
	role, auth_provider, is_active, is_verified,
	failed_login_attempts, account_locked_until,
	password_reset_token, reset_token_expires_at,
	created_at, updated_at`

// FindByEmail retrieves an account by email as stored.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)

	account, err := r.scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// Save stores a new account, assigning ID, UniqueID and timestamps.
// A unique-violation on email maps to auth.ErrEmailTaken.
func (r *AccountRepository) Save(ctx context.Context, account *auth.Account) (*auth.Account, error) {
	if account.ID.Compare(ulid.ULID{}) == 0 {
		account.ID = ulid.Make()
	}
	if account.UniqueID == "" {
		account.UniqueID = auth.NewUniqueID(account.ID)
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, unique_id, email, password_hash, first_name, last_name,
			role, auth_provider, is_active, is_verified,
			failed_login_attempts, account_locked_until,
			password_reset_token, reset_token_expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		account.ID.String(),
		account.UniqueID,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Role,
		account.AuthProvider,
		account.IsActive,
		account.IsVerified,
		account.FailedLoginAttempts,
		account.AccountLockedUntil,
		account.PasswordResetToken,
		account.ResetTokenExpiresAt,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("ACCOUNT_EMAIL_TAKEN").
				With("email", account.Email).
				Wrap(auth.ErrEmailTaken)
		}
		return nil, oops.Code("ACCOUNT_SAVE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return account, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *AccountRepository) scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr     string
		account   auth.Account
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(
		&idStr,
		&account.UniqueID,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.Role,
		&account.AuthProvider,
		&account.IsActive,
		&account.IsVerified,
		&account.FailedLoginAttempts,
		&account.AccountLockedUntil,
		&account.PasswordResetToken,
		&account.ResetTokenExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}
	account.ID = id
	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt

	return &account, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
