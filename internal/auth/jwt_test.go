package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tokens, err := Issue("admin1", "faceattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := Parse(tokens.AccessToken, "secret", "faceattend")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.AdminID != "admin1" {
		t.Errorf("AdminID = %q, want %q", claims.AdminID, "admin1")
	}
	if claims.Subject != "admin1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "admin1")
	}
}

func TestParse_WrongKey(t *testing.T) {
	tokens, err := Issue("admin1", "faceattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := Parse(tokens.AccessToken, "other-secret", "faceattend"); err == nil {
		t.Error("expected error for wrong signing key")
	}
}

func TestParse_IssuerMismatch(t *testing.T) {
	tokens, err := Issue("admin1", "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := Parse(tokens.AccessToken, "secret", "faceattend"); err == nil {
		t.Error("expected error for issuer mismatch")
	}
}

func TestParse_Expired(t *testing.T) {
	tokens, err := Issue("admin1", "faceattend", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := Parse(tokens.AccessToken, "secret", "faceattend"); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParse_RefreshTokenCarriesLongerExpiry(t *testing.T) {
	tokens, err := Issue("admin1", "faceattend", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if !tokens.RefreshExp.After(tokens.AccessExp) {
		t.Errorf("RefreshExp %v not after AccessExp %v", tokens.RefreshExp, tokens.AccessExp)
	}
	if _, err := Parse(tokens.RefreshToken, "secret", "faceattend"); err != nil {
		t.Errorf("refresh token should parse: %v", err)
	}
}
