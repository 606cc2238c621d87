package application

import (
	"strings"
	"testing"
	"time"
)

func TestTokenIssueAndValidate(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	subject, ok := svc.Validate(token)
	if !ok {
		t.Fatal("Validate() rejected a freshly issued token")
	}
	if subject != "alice" {
		t.Errorf("Validate() subject = %q, want %q", subject, "alice")
	}
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, ok := svc.Validate(token); ok {
		t.Error("Validate() accepted an expired token")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, ok := verifier.Validate(token); ok {
		t.Error("Validate() accepted a token signed with a different secret")
	}
}

func TestTokenMalformedInput(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	good, err := svc.Issue("alice")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	tampered := good[:len(good)-2] + "xx"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"two segments", "aaaa.bbbb"},
		{"tampered signature", tampered},
		{"whitespace", "   "},
		{"oversized", strings.Repeat("A", 16*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := svc.Validate(tt.token); ok {
				t.Errorf("Validate(%q) accepted a malformed token", tt.name)
			}
		})
	}
}
