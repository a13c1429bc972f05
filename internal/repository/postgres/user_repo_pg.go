package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	const query = `
		INSERT INTO app_user (id, email, role, password_hash, password_salt)
		VALUES ($1, $2, 'editor', $3, $4)
		RETURNING id, email, display_name, role, password_hash, password_salt, created_at, updated_at
	`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, uuid.New(), email, passwordHash, passwordSalt); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email string, displayName *string) (*domain.User, error) {
	const query = `
		INSERT INTO app_user (id, email, display_name, role)
		VALUES ($1, $2, $3, 'editor')
		ON CONFLICT (email) DO UPDATE SET
			display_name = COALESCE(EXCLUDED.display_name, app_user.display_name),
			updated_at = NOW()
		RETURNING id, email, display_name, role, password_hash, password_salt, created_at, updated_at
	`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, uuid.New(), email, displayName); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
		SELECT id, email, display_name, role, password_hash, password_salt, created_at, updated_at
		FROM app_user
		WHERE email = $1
	`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const query = `
		SELECT id, email, display_name, role, password_hash, password_salt, created_at, updated_at
		FROM app_user
		WHERE id = $1
	`
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

var _ ports.UserRepository = (*UserRepository)(nil)
