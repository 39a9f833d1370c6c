package authn

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	token, tokenID, expiresAt, err := issuer.Issue("user-1", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expiresAt should be in the future")
	}
	if tokenID == "" {
		t.Fatal("expected a non-empty token_id")
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "admin" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.TokenID() != tokenID {
		t.Errorf("expected claims to carry token_id %q, got %q", tokenID, claims.TokenID())
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	issuer := NewIssuer("secret-a", time.Minute)
	token, _, _, _ := issuer.Issue("user-1", "admin")

	other := NewIssuer("secret-b", time.Minute)
	if _, err := other.Verify(token); err == nil {
		t.Error("expected verification failure with different secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Sup3r-Strong-Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "Sup3r-Strong-Passw0rd!") {
		t.Error("expected password to match its own hash")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("expected mismatch for wrong password")
	}
}

func TestRevocationLedger(t *testing.T) {
	ledger := NewRevocationLedger()
	before := time.Now()
	time.Sleep(time.Millisecond)

	if ledger.IsRevoked("user-1", "", before) {
		t.Fatal("expected no revocation before Revoke is called")
	}

	ledger.Revoke("user-1", time.Minute)
	if !ledger.IsRevoked("user-1", "", before) {
		t.Error("expected token issued before revocation to be revoked")
	}

	after := time.Now()
	if ledger.IsRevoked("user-1", "", after) {
		t.Error("expected token issued after revocation to remain valid")
	}
}

func TestRevocationLedger_RevokeTokenOnlyAffectsThatSession(t *testing.T) {
	ledger := NewRevocationLedger()
	now := time.Now()

	ledger.RevokeToken("user-1", "session-a", now.Add(time.Hour))

	if !ledger.IsRevoked("user-1", "session-a", now.Add(-time.Minute)) {
		t.Error("expected session-a to be revoked")
	}
	if ledger.IsRevoked("user-1", "session-b", now.Add(-time.Minute)) {
		t.Error("expected session-b to remain valid after revoking only session-a")
	}
}
