package security

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by the input validators.
var (
	ErrEmpty         = errors.New("value is empty")
	ErrTooLong       = errors.New("value exceeds maximum length")
	ErrInvalidFormat = errors.New("value has an invalid format")
	ErrControlChars  = errors.New("value contains control characters")
)

const maxInstructionsLen = 500

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 .\-]{5,18}[0-9]$`)
	namePattern  = regexp.MustCompile(`^[\p{L}0-9 '\-.,&()]+$`)
)

// ValidateEmail checks the address against a conservative pattern.
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmpty
	}
	if len(s) > 254 {
		return ErrTooLong
	}
	if !emailPattern.MatchString(s) {
		return ErrInvalidFormat
	}
	return nil
}

// ValidatePhone accepts international phone numbers with common
// separators.
func ValidatePhone(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmpty
	}
	if !phonePattern.MatchString(s) {
		return ErrInvalidFormat
	}
	return nil
}

// ValidateName checks a display name (restaurant, item, category):
// letters in any script, digits and light punctuation.
func ValidateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmpty
	}
	if len(s) > 120 {
		return ErrTooLong
	}
	if !namePattern.MatchString(s) {
		return ErrInvalidFormat
	}
	return nil
}

// SanitizeInstructions cleans free-text special instructions: trims,
// collapses whitespace runs, and rejects control characters and
// over-long input. The cleaned string is returned.
func SanitizeInstructions(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxInstructionsLen {
		return "", ErrTooLong
	}
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' {
			return "", ErrControlChars
		}
	}
	return strings.Join(strings.Fields(s), " "), nil
}

// TokenExpired reports whether a JWT is past its expiry without
// verifying its signature. Used by the kiosk session check to decide
// when to prompt re-authentication instead of retrying blindly.
func TokenExpired(tokenStr string, now time.Time) bool {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return now.After(claims.ExpiresAt.Time)
}
