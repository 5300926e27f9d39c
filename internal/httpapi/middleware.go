// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenVerifier verifies a bearer token and yields its subject.
// *auth.TokenService satisfies it.
type TokenVerifier interface {
	// ExtractSubject returns the token's subject, or "" when the token
	// is not verifiable (malformed, forged or expired — callers are not
	// told which).
	ExtractSubject(token string) string
}

type contextKey struct{}

// subjectKey carries the authenticated subject through the request
// context.
var subjectKey contextKey

// RequireAuth rejects requests without a verifiable bearer token and
// injects the token's subject into the request context.
func RequireAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			writeUnauthorized(w)
			return
		}

		subject := verifier.ExtractSubject(token)
		if subject == "" {
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SubjectFromContext returns the authenticated subject injected by
// RequireAuth.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	//nolint:errcheck // best effort, client may have disconnected
	json.NewEncoder(w).Encode(map[string]any{
		"status":  http.StatusUnauthorized,
		"message": "Invalid or missing bearer token.",
		"data":    nil,
	})
}
