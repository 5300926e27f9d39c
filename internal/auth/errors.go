// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned by AccountRepository.Save when the storage
// layer's uniqueness constraint rejects a duplicate email. It closes the
// check-then-insert race left open by the orchestrator's pre-check.
var ErrEmailTaken = errors.New("email already registered")
