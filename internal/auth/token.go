// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Token configuration.
const (
	// TokenIssuerName identifies this service in every issued token.
	TokenIssuerName = "key-spring"

	// DefaultTokenLifetime is the fixed validity window of issued tokens.
	DefaultTokenLifetime = time.Hour
)

// IdentityClaim is the transient identity projection carried inside an
// issued token. It is created fresh per login and never persisted.
type IdentityClaim struct {
	UniqueID  string `json:"uniqueId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TokenClaims is the full claim set of an issued token: the registered
// claims plus the identity payload under the "User" key.
type TokenClaims struct {
	User IdentityClaim `json:"User"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time-bounded identity tokens
// with a symmetric HS256 key. Issuance and verification happen in the
// same trust domain, so symmetric signing is sufficient.
type TokenService struct {
	key []byte
}

// NewTokenService creates a TokenService from the configured secret.
func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, oops.Code("AUTH_MISSING_SIGNING_KEY").Errorf("signing key is required")
	}
	return &TokenService{key: []byte(secret)}, nil
}

// Issue builds and signs a token for the given subject. issuedAt becomes
// both iat and nbf; expiresAt must be strictly after issuedAt. Each token
// carries a unique jti so identical claims still produce distinct tokens.
func (s *TokenService) Issue(claim IdentityClaim, subject string, issuedAt, expiresAt time.Time) (string, error) {
	if !expiresAt.After(issuedAt) {
		return "", oops.Code("AUTH_SIGNING_FAILURE").
			With("issued_at", issuedAt).
			With("expires_at", expiresAt).
			Errorf("expiration must be after issuance")
	}

	claims := TokenClaims{
		User: claim,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", oops.Code("AUTH_SIGNING_FAILURE").Wrap(err)
	}
	return token, nil
}

// Verify parses the token, checks the signature against the service key
// and checks the nbf/exp bounds. Every failure collapses into the single
// AUTH_TOKEN_INVALID code: callers are never told whether a token was
// malformed, forged or expired.
func (s *TokenService) Verify(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, oops.Code("AUTH_TOKEN_INVALID").Errorf("token is not verifiable")
	}
	return claims, nil
}

// ExtractSubject verifies the token and returns its subject, or the
// empty string when verification fails.
func (s *TokenService) ExtractSubject(token string) string {
	claims, err := s.Verify(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}
