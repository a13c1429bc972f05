package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
	"github.com/squadcards/cardforge-backend/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidGoogleToken = errors.New("invalid google token")
)

type AuthService struct {
	users     ports.UserRepository
	jwt       *util.JWTManager
	googleAud string
}

func NewAuthService(users ports.UserRepository, jwt *util.JWTManager, googleAud string) *AuthService {
	return &AuthService{users: users, jwt: jwt, googleAud: googleAud}
}

type Session struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, err
	}
	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateEmailUser(ctx, email, hash, salt)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueSession(user)
}

// LoginWithGoogle validates a Google ID token and upserts the user by email.
func (s *AuthService) LoginWithGoogle(ctx context.Context, rawIDToken string) (*Session, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, s.googleAud)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}

	email, _ := payload.Claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidGoogleToken
	}
	var displayName *string
	if name, ok := payload.Claims["name"].(string); ok && strings.TrimSpace(name) != "" {
		displayName = &name
	}

	user, err := s.users.UpsertGoogleUser(ctx, strings.ToLower(email), displayName)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, claims.UserID)
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
