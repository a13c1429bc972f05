package util

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

func TestJWTManagerGenerateAndParse(t *testing.T) {
	ttl := time.Minute
	manager := NewJWTManager("top-secret", ttl)

	userID := uuid.New()
	token, expiresAt, err := manager.Generate(userID, "editor@example.com", domain.UserRoleEditor)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token to be non-empty")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "editor@example.com" {
		t.Fatalf("expected email claim to round-trip, got %q", claims.Email)
	}
	if claims.Role != domain.UserRoleEditor {
		t.Fatalf("expected editor role claim, got %q", claims.Role)
	}
}

func TestJWTManagerParseExpiredToken(t *testing.T) {
	manager := NewJWTManager("secret", time.Millisecond)
	userID := uuid.New()
	token, _, err := manager.Generate(userID, "user@example.com", domain.UserRoleViewer)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Parse(token); err == nil {
		t.Fatalf("expected parse error for expired token")
	}
}

func TestJWTManagerRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTManager("issuer-secret", time.Minute)
	verifier := NewJWTManager("other-secret", time.Minute)

	token, _, err := issuer.Generate(uuid.New(), "user@example.com", domain.UserRoleViewer)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := verifier.Parse(token); err == nil {
		t.Fatalf("expected parse error for token signed with a different secret")
	}
}
