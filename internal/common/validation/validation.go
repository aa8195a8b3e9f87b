package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MaxDisplayNameLength = 64
	MaxEmailLength       = 254

	MinPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes and newer versions reject it
	MaxPasswordLength = 72
)

// NormalizeEmail checks a bare address and returns it lower-cased. Display
// name forms like "Ann <ann@x.io>" are rejected.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return "", fmt.Errorf("email cannot exceed %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", fmt.Errorf("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// ValidatePassword checks length only; strength rules are left to the client.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password cannot exceed %d bytes", MaxPasswordLength)
	}
	return nil
}

// ValidateDisplayName allows an empty name; callers substitute a default.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return fmt.Errorf("name cannot exceed %d characters", MaxDisplayNameLength)
	}
	if strings.ContainsFunc(name, func(r rune) bool { return r < 0x20 }) {
		return fmt.Errorf("name cannot contain control characters")
	}
	return nil
}
