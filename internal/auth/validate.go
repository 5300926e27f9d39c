// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// emailRegex matches ASCII local@domain.tld addresses: a dot-separated
// local part over [A-Za-z0-9_+&*-], one or more domain labels, and a
// 2-7 letter TLD.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)

// passwordSpecialChars is the set of characters accepted by the
// special-character strength rule.
const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidationResult reports the outcome of a validation check. On failure
// Reason and Message identify the first violated rule; later rules are
// not evaluated.
type ValidationResult struct {
	OK      bool
	Reason  Reason
	Message string
}

func validationOK() ValidationResult {
	return ValidationResult{OK: true}
}

func validationFail(reason Reason, message string) ValidationResult {
	return ValidationResult{Reason: reason, Message: message}
}

// Registration carries the candidate fields of a registration request.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Credentials carries a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ValidateRegistrationFields checks that all required registration fields
// are present. Fields are checked in a fixed order (email, password,
// first name, last name) and the first missing one is reported.
func ValidateRegistrationFields(r Registration) ValidationResult {
	if r.Email == "" {
		return validationFail(ReasonInvalidInput, "Email is required.")
	}
	if r.Password == "" {
		return validationFail(ReasonInvalidInput, "Password is required.")
	}
	if r.FirstName == "" {
		return validationFail(ReasonInvalidInput, "First name is required.")
	}
	if r.LastName == "" {
		return validationFail(ReasonInvalidInput, "Last name is required.")
	}
	return validationOK()
}

// ValidateEmailFormat reports whether email matches the accepted
// local@domain.tld pattern.
func ValidateEmailFormat(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePasswordStrength checks password strength rules in a fixed
// order and reports the first violated one: minimum length, at least one
// digit, at least one special character, no whitespace, at least one
// uppercase letter. The rule order is part of the contract. Length is
// counted in characters, not bytes; the digit and uppercase rules accept
// ASCII only.
func ValidatePasswordStrength(password string) ValidationResult {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return validationFail(ReasonWeakPassword, "Password must be at least 8 characters long.")
	}
	if !strings.ContainsFunc(password, isASCIIDigit) {
		return validationFail(ReasonWeakPassword, "Password must contain at least one digit.")
	}
	if !strings.ContainsAny(password, passwordSpecialChars) {
		return validationFail(ReasonWeakPassword, "Password must contain at least one special character.")
	}
	if strings.ContainsFunc(password, unicode.IsSpace) {
		return validationFail(ReasonWeakPassword, "Password must not contain any white spaces.")
	}
	if !strings.ContainsFunc(password, isASCIIUpper) {
		return validationFail(ReasonWeakPassword, "Password must contain at least one uppercase letter.")
	}
	return validationOK()
}

func isASCIIDigit(r rune) bool { return '0' <= r && r <= '9' }

func isASCIIUpper(r rune) bool { return 'A' <= r && r <= 'Z' }
