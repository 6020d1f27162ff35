package utils

import (
	"strings"
	"testing"
)

func TestHashPasswordBcrypt(t *testing.T) {
	password := "Operator2024"

	hash, err := HashPasswordBcrypt(password)
	if err != nil {
		t.Fatalf("HashPasswordBcrypt() failed: %v", err)
	}

	// bcrypt hashes start with $2a$, $2b$, or $2y$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Invalid bcrypt hash format: %s", hash)
	}
	if !CheckPasswordBcrypt(hash, password) {
		t.Error("password doesn't match its own hash")
	}
	if CheckPasswordBcrypt(hash, "Operator2025") {
		t.Error("wrong password should not match hash")
	}
}

func TestHashPasswordBcryptSalted(t *testing.T) {
	hash1, err := HashPasswordBcrypt("SamePassword1")
	if err != nil {
		t.Fatalf("HashPasswordBcrypt() failed: %v", err)
	}
	hash2, err := HashPasswordBcrypt("SamePassword1")
	if err != nil {
		t.Fatalf("HashPasswordBcrypt() failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "siteops42", false},
		{"Exactly min length", "abcdefg1", false},
		{"Too short", "abc1", true},
		{"Empty", "", true},
		{"No digit", "passwordonly", true},
		{"No letter", "1234567890", true},
		{"Too long", strings.Repeat("a1", 40), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, 8)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}
