package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "attendance", time.Hour, "admin-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.AdminID != "admin-1" {
		t.Fatalf("expected admin-1, got %s", claims.AdminID)
	}
	if claims.Issuer != "attendance" {
		t.Fatalf("expected issuer attendance, got %s", claims.Issuer)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken("secret", "attendance", time.Hour, "admin-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := NewAccessToken("secret", "attendance", -time.Minute, "admin-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatalf("expected expiry failure")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("secret", "not-a-token"); err == nil {
		t.Fatalf("expected parse failure")
	}
}
