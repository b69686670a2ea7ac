// Package authutil provides password hashing and validation helpers.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
	// MaxPasswordLength matches bcrypt's input limit.
	MaxPasswordLength = 72
)

// commonPasswords are rejected outright regardless of length.
var commonPasswords = map[string]struct{}{
	"password":  {},
	"password1": {},
	"12345678":  {},
	"123456789": {},
	"qwerty123": {},
	"letmein1":  {},
	"iloveyou1": {},
}

// ValidatePassword checks a candidate password against the rules.
// Returns nil if acceptable, or an error describing the failure.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must be at most 72 characters")
	}
	if _, bad := commonPasswords[strings.ToLower(password)]; bad {
		return errors.New("password is too common")
	}
	return nil
}

// PasswordRules returns a human-readable summary of the password rules.
func PasswordRules() string {
	return "Passwords must be 8-72 characters and not a commonly used password."
}

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsValidEmail performs a light sanity check on an email address. Real
// validation happens by delivering mail; this only rejects obvious
// garbage.
func IsValidEmail(email string) bool {
	at := strings.Count(email, "@")
	if at != 1 {
		return false
	}
	parts := strings.SplitN(email, "@", 2)
	local, domain := parts[0], parts[1]
	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return true
}
