// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package auth

import "net/http"

// Envelope is the uniform result returned by every orchestrator
// operation. StatusCode doubles as the HTTP status the transport layer
// must map 1:1; Payload is nil on failure.
type Envelope struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
	Payload    any    `json:"data"`
}

// LoginResult is the Envelope payload of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	// Expiry is the token expiration as epoch seconds.
	Expiry int64 `json:"expiry"`
}

// Reason classifies an expected, caller-recoverable failure.
type Reason string

// Failure reasons reported through ValidationResult and the Envelope.
const (
	ReasonInvalidInput       Reason = "INVALID_INPUT"
	ReasonInvalidEmail       Reason = "INVALID_EMAIL"
	ReasonEmailExists        Reason = "EMAIL_EXISTS"
	ReasonWeakPassword       Reason = "WEAK_PASSWORD"
	ReasonMissingCredentials Reason = "MISSING_CREDENTIALS"
	ReasonUserNotFound       Reason = "USER_NOT_FOUND"
	ReasonInvalidPassword    Reason = "INVALID_PASSWORD"
	ReasonInternal           Reason = "INTERNAL_ERROR"
)

// internalErrorMessage is the only message surfaced for unexpected
// failures; detail stays in the server-side log.
const internalErrorMessage = "An unexpected error occurred on the server. Please try again later."

func ok(message string, payload any) Envelope {
	return Envelope{StatusCode: http.StatusOK, Message: message, Payload: payload}
}

func fail(status int, message string) Envelope {
	return Envelope{StatusCode: status, Message: message}
}

func internalError() Envelope {
	return fail(http.StatusInternalServerError, internalErrorMessage)
}
