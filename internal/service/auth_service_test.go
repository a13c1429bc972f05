package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/squadcards/cardforge-backend/internal/util"
)

func newAuthService() (*AuthService, *memoryUserRepo) {
	users := newMemoryUserRepo()
	jwt := util.NewJWTManager("test-secret-material", time.Hour)
	return NewAuthService(users, jwt, ""), users
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService()

	session, err := svc.Register(context.Background(), " Dev@Example.com ", "long-enough-password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if session.User.Email != "dev@example.com" {
		t.Fatalf("expected lowercased email, got %q", session.User.Email)
	}
	if session.Token == "" {
		t.Fatal("expected a session token")
	}

	login, err := svc.Login(context.Background(), "dev@example.com", "long-enough-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != session.User.ID {
		t.Fatal("login must resolve the registered user")
	}
}

func TestAuthRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newAuthService()
	if _, err := svc.Register(context.Background(), "dev@example.com", "short"); err == nil {
		t.Fatal("expected password policy error")
	}
}

func TestAuthRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService()
	if _, err := svc.Register(context.Background(), "dev@example.com", "long-enough-password"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "dev@example.com", "another-long-password"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthService()
	if _, err := svc.Register(context.Background(), "dev@example.com", "long-enough-password"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(context.Background(), "dev@example.com", "wrong-password-here"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@example.com", "long-enough-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthAuthenticateRoundTrip(t *testing.T) {
	svc, _ := newAuthService()
	session, err := svc.Register(context.Background(), "dev@example.com", "long-enough-password")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, err := svc.Authenticate(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != session.User.ID {
		t.Fatal("token must resolve to the issuing user")
	}

	if _, err := svc.Authenticate(context.Background(), "not-a-token"); err == nil {
		t.Fatal("expected garbage token rejected")
	}
}
