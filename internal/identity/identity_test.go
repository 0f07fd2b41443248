package identity

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestParseReadsPreferredUsername(t *testing.T) {
	raw := signed(t, jwt.MapClaims{"preferred_username": "admin", "sub": "42", "email": "a@example.com"})
	id, err := Parse(raw, "https://sso.example.com/auth/")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id.PreferredUsername != "admin" {
		t.Errorf("username = %q, want admin", id.PreferredUsername)
	}
	if id.Subject != "42" || id.Email != "a@example.com" {
		t.Errorf("subject/email = %q/%q", id.Subject, id.Email)
	}
	want := "https://sso.example.com/auth/realms/aerogear/account?referrer=unified-push-server-js"
	if got := id.AccountURL("aerogear", "unified-push-server-js"); got != want {
		t.Errorf("AccountURL = %q, want %q", got, want)
	}
}

func TestParseMissingClaim(t *testing.T) {
	raw := signed(t, jwt.MapClaims{"sub": "42"})
	if _, err := Parse(raw, ""); !errors.Is(err, ErrMissingClaim) {
		t.Fatalf("err = %v, want ErrMissingClaim", err)
	}
}

func TestParseEmptyAndGarbage(t *testing.T) {
	if _, err := Parse("  ", ""); !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
	if _, err := Parse("not-a-token", ""); err == nil {
		t.Fatal("expected parse error")
	}
}
