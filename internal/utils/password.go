// Package utils provides internal utility functions.
package utils

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPasswordBcrypt hashes a password using bcrypt.
func HashPasswordBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash failed: %w", err)
	}
	return string(hash), nil
}

// CheckPasswordBcrypt reports whether password matches hash.
func CheckPasswordBcrypt(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword validates password strength: at least minLen characters
// with one letter and one digit.
func ValidatePassword(password string, minLen int) error {
	if len(password) < minLen {
		return fmt.Errorf("password must be at least %d characters", minLen)
	}
	if len(password) > 72 {
		// bcrypt ignores everything past 72 bytes.
		return fmt.Errorf("password must be at most 72 bytes")
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("password must contain a letter and a digit")
	}
	return nil
}
