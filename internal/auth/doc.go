// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

// Package auth implements the credential-issuance and verification core.
//
// # Components
//
//   - Validation functions check structural and strength constraints on
//     registration input (ValidateRegistrationFields, ValidateEmailFormat,
//     ValidatePasswordStrength). They are pure and hold no state.
//   - Argon2idHasher hashes and verifies passwords with argon2id,
//     self-describing PHC-encoded output.
//   - TokenService issues and verifies signed HS256 bearer tokens carrying
//     an IdentityClaim.
//   - Service orchestrates registration and login against an
//     AccountRepository collaborator, returning a uniform Envelope.
//
// Services are created with New* constructors that validate dependencies.
// The package holds no process-wide mutable state; the signing key and
// hash cost profile are fixed at construction time.
package auth
