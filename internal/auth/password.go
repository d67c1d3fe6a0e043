// Package auth provides password hashing and JWT token handling.
package auth

import (
	"fmt"

	"contabile/internal/core"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a one-way bcrypt hash of the plaintext password.
// The plaintext is never stored.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored hash.
// It returns core.ErrInvalidCredentials on mismatch so callers never leak
// whether the email or the password was wrong.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.ErrInvalidCredentials
	}
	return nil
}
