package util

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	const secret = "test-secret-test-secret-test-secret"

	token, err := GenerateJWT("alice", "sess-123", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want alice", claims.Username)
	}
	if claims.SessionID != "sess-123" {
		t.Errorf("SessionID = %q, want sess-123", claims.SessionID)
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT("alice", "sess-123", "secret-one", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret-two"); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseJWTRejectsExpired(t *testing.T) {
	token, err := GenerateJWT("alice", "sess-123", "secret-one", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ParseJWT(token, "secret-one"); err == nil {
		t.Fatal("expected error for expired token")
	}
}
