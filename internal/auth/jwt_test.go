package auth

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateJWT(12, "builder", RoleAdmin, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.PlayerID != 12 || claims.Username != "builder" || !claims.IsAdmin() {
		t.Fatalf("unexpected claims %#v", claims)
	}
}

func TestValidateRejectsWrongSecretAndExpiry(t *testing.T) {
	token, err := GenerateJWT(12, "builder", "player", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateJWT(token, testSecret+"x"); err == nil {
		t.Fatalf("expected signature error")
	}

	expired, err := GenerateJWT(12, "builder", "player", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateJWT(expired, testSecret); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestShortSecretRejected(t *testing.T) {
	if _, err := GenerateJWT(1, "a", "player", "short", time.Hour); err == nil {
		t.Fatalf("expected short secret error")
	}
}
