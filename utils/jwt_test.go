package utils

import (
	"testing"
	"time"

	"meridian/config"
	"meridian/models"
)

func withSecret(t *testing.T, secret string) {
	t.Helper()
	saved := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = secret
	t.Cleanup(func() { config.AppConfig.JWTSecret = saved })
}

func TestTokenRoundTrip(t *testing.T) {
	withSecret(t, "test-secret")

	token, err := GenerateToken("prov-7", models.RoleProvider, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	caller, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.ID != "prov-7" || caller.Role != models.RoleProvider {
		t.Errorf("unexpected caller %+v", caller)
	}
}

func TestValidateTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	withSecret(t, "test-secret")

	expired, err := GenerateToken("pat-1", models.RolePatient, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ValidateToken(expired); err == nil {
		t.Error("expected expired token to be rejected")
	}

	withSecret(t, "other-secret")
	foreign, _ := GenerateToken("pat-1", models.RolePatient, time.Hour)
	withSecret(t, "test-secret")
	if _, err := ValidateToken(foreign); err == nil {
		t.Error("expected token signed with another key to be rejected")
	}
}

func TestGenerateTokenRequiresSecretAndRole(t *testing.T) {
	withSecret(t, "")
	if _, err := GenerateToken("pat-1", models.RolePatient, time.Hour); err == nil {
		t.Error("expected error without a configured secret")
	}

	withSecret(t, "test-secret")
	if _, err := GenerateToken("pat-1", "superuser", time.Hour); err == nil {
		t.Error("expected error for unknown role")
	}
}
