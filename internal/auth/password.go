package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"sitebooks-backend/internal/apperr"
)

// MinPasswordLength is enforced when passwords are set.
const MinPasswordLength = 8

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal("hash password", err)
	}
	return string(hash), nil
}

// CheckPassword compares password with hash.
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return apperr.Unauthorized("invalid username or password")
	}
	if err != nil {
		return apperr.Internal("check password", err)
	}
	return nil
}
