package auth

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("admin", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ValidateJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateJWT failed: %v", err)
	}
	if claims.Username != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("admin", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if _, err := ValidateJWT(token, "other-secret"); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("admin", "admin", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if _, err := ValidateJWT(token, "test-secret"); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	if got := ExtractTokenFromHeader("Bearer abc123"); got != "abc123" {
		t.Fatalf("got %q", got)
	}
	for _, header := range []string{"", "abc123", "Basic abc123", "Bearer"} {
		if got := ExtractTokenFromHeader(header); got != "" {
			t.Fatalf("ExtractTokenFromHeader(%q) = %q, want empty", header, got)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}
