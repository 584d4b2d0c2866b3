package util

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", 42, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.AccountID != 42 {
		t.Errorf("account id = %d, want 42", claims.AccountID)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Error("token should not be expired yet")
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret", 1, time.Hour)
	if _, err := ParseToken("other", token); err == nil {
		t.Error("wrong secret must fail verification")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, _ := GenerateToken("secret", 1, time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseToken("secret", token); err == nil {
		t.Error("expired token must fail verification")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("secret", "not-a-token"); err == nil {
		t.Error("garbage input must fail")
	}
}
