package auth

import (
	"fmt"
	"unicode/utf8"

	"labconnect/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to every account password.
const MinPasswordLength = 10

var ErrPasswordTooShort = apperr.Validation(
	fmt.Sprintf("password must contain at least %d characters", MinPasswordLength),
	apperr.FieldError{Field: "password", Error: fmt.Sprintf("must contain at least %d characters", MinPasswordLength)},
)

// HashPassword returns a salted bcrypt hash. Two calls with the same input give different hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password produced hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword applies the password policy. Callers run it before hashing.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
