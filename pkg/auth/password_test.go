package auth

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		shouldFail bool
	}{
		{name: "letters and digits", password: "newpass123"},
		{name: "mixed with symbols", password: "MyP@ssw0rd!"},
		{name: "exactly eight", password: "abcdefg1"},
		{name: "too short", password: "abc123", shouldFail: true},
		{name: "digits only", password: "1234567890", shouldFail: true},
		{name: "letters only", password: "onlyletters", shouldFail: true},
		{name: "common password", password: "Password123", shouldFail: true},
		{name: "longer than bcrypt input", password: strings.Repeat("a1", 40), shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.shouldFail {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if err.Error() != "invalid password" {
					t.Errorf("expected generic message, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestValidatePassword_CollectsAllFailures(t *testing.T) {
	err := ValidatePassword("12")

	verr, ok := err.(*PasswordValidationError)
	if !ok {
		t.Fatalf("expected *PasswordValidationError, got %T", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("expected length and letter failures, got %v", verr.Errors)
	}
}

func TestHashAndComparePassword(t *testing.T) {
	password := "newpass123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" || hash == password {
		t.Fatalf("unexpected hash %q", hash)
	}

	if err := ComparePassword(hash, password); err != nil {
		t.Errorf("ComparePassword with correct password failed: %v", err)
	}

	if err := ComparePassword(hash, "wrongpass123"); err == nil {
		t.Error("ComparePassword with wrong password should fail")
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		token, err := GenerateOpaqueToken()
		if err != nil {
			t.Fatalf("GenerateOpaqueToken failed: %v", err)
		}

		raw, err := base64.RawURLEncoding.DecodeString(token)
		if err != nil {
			t.Fatalf("token is not base64url: %v", err)
		}
		if len(raw) != OpaqueTokenBytes {
			t.Errorf("expected %d bytes, got %d", OpaqueTokenBytes, len(raw))
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}
