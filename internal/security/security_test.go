package security

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("kiosk-1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow("kiosk-1") {
		t.Error("fourth attempt within window should be rejected")
	}
	if rl.Remaining("kiosk-1") != 0 {
		t.Errorf("remaining = %d, want 0", rl.Remaining("kiosk-1"))
	}

	// Other identifiers are independent.
	if !rl.Allow("kiosk-2") {
		t.Error("separate identifier should have its own window")
	}
}

func TestRateLimiterSlidesWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.Allow("x")
	clock = clock.Add(30 * time.Second)
	rl.Allow("x")
	if rl.Allow("x") {
		t.Fatal("limit reached, should reject")
	}

	// First hit falls out of the window; one slot frees up.
	clock = clock.Add(45 * time.Second)
	if !rl.Allow("x") {
		t.Error("expired attempt should no longer count")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Allow("y")
	if rl.Allow("y") {
		t.Fatal("should be limited")
	}
	rl.Reset("y")
	if !rl.Allow("y") {
		t.Error("reset should clear the window")
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("owner@chezkomanda.fr"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	if err := ValidateEmail("not-an-email"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("got %v, want ErrInvalidFormat", err)
	}
	if err := ValidateEmail(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("got %v, want ErrEmpty", err)
	}
}

func TestValidatePhone(t *testing.T) {
	for _, ok := range []string{"+33 1 23 45 67 89", "0612345678"} {
		if err := ValidatePhone(ok); err != nil {
			t.Errorf("valid phone %q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"call me", "123", ""} {
		if err := ValidatePhone(bad); err == nil {
			t.Errorf("invalid phone %q accepted", bad)
		}
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"Chez Komanda", "Crème brûlée", "Menu no.1 (midi)", "Köfte & Dürüm"} {
		if err := ValidateName(ok); err != nil {
			t.Errorf("valid name %q rejected: %v", ok, err)
		}
	}
	if err := ValidateName("<script>alert(1)</script>"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("markup in name: got %v, want ErrInvalidFormat", err)
	}
}

func TestSanitizeInstructions(t *testing.T) {
	got, err := SanitizeInstructions("  sans   oignon \n bien cuit ")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sans oignon bien cuit" {
		t.Errorf("sanitized = %q", got)
	}

	if _, err := SanitizeInstructions("abc\x00def"); !errors.Is(err, ErrControlChars) {
		t.Errorf("control chars: got %v, want ErrControlChars", err)
	}

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := SanitizeInstructions(string(long)); !errors.Is(err, ErrTooLong) {
		t.Errorf("long input: got %v, want ErrTooLong", err)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	fresh := signedToken(t, now.Add(time.Hour))
	stale := signedToken(t, now.Add(-time.Hour))

	if TokenExpired(fresh, now) {
		t.Error("token expiring in one hour reported expired")
	}
	if !TokenExpired(stale, now) {
		t.Error("token expired an hour ago reported fresh")
	}
	if !TokenExpired("garbage", now) {
		t.Error("unparseable token should count as expired")
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(fmt.Errorf("sign token: %w", err))
	}
	return s
}
