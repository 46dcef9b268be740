//go:build !integration

package utils

import (
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("s3cret", hash) {
		t.Error("expected password to match")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected mismatch for wrong password")
	}
}

func TestJWT(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateJWT("42", "user")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "42" || claims.Role != "user" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := ParseJWT(token + "x"); err == nil {
		t.Error("expected tampered token to fail")
	}

	InitJWT("other-secret", time.Hour)
	if _, err := ParseJWT(token); err == nil {
		t.Error("expected token signed with another secret to fail")
	}
}
