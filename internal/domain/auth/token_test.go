package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "test-secret"
	claims := Claims{
		UserID:    "u1",
		AgencyID:  "a1",
		RoleID:    "r1",
		RoleName:  RoleHR,
		SessionID: "s1",
	}
	token, err := GenerateToken(secret, claims, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parsed, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.UserID != "u1" || parsed.AgencyID != "a1" || parsed.RoleName != RoleHR || parsed.SessionID != "s1" {
		t.Fatalf("claims lost in round trip: %+v", parsed)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("right", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("wrong", token); err == nil {
		t.Fatal("wrong secret must not verify")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("session-token")
	b := HashToken("session-token")
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if a == "session-token" {
		t.Fatal("token must not be stored in the clear")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "s3cret!"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "other"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestRolePermissionsAreDeclared(t *testing.T) {
	declared := make(map[string]bool, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		declared[p] = true
	}
	for role, perms := range RolePermissions {
		for _, p := range perms {
			if !declared[p] {
				t.Fatalf("role %s grants undeclared permission %s", role, p)
			}
		}
	}
}
