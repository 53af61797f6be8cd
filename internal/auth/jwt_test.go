package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTIssueVerify(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	token, err := manager.Issue("account-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	accountID, err := manager.Verify(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if accountID != "account-1" {
		t.Fatalf("unexpected account id: %s", accountID)
	}
}

func TestJWTIssueEmptySubject(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	if _, err := manager.Issue(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestJWTVerifyMissing(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	if _, err := manager.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestJWTVerifyExpired(t *testing.T) {
	manager := NewJWTManager("secret", -time.Minute, "issuer")
	token, err := manager.Issue("account-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := manager.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error for expired token, got %v", err)
	}
}

func TestJWTVerifyWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret", time.Hour, "issuer")
	other := NewJWTManager("different", time.Hour, "issuer")

	token, err := manager.Issue("account-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error for wrong secret, got %v", err)
	}
}

func TestTokenFromHeader(t *testing.T) {
	if _, err := TokenFromHeader("nope"); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if token, err := TokenFromHeader("Bearer token"); err != nil || token != "token" {
		t.Fatalf("expected token, got %s err %v", token, err)
	}
}
