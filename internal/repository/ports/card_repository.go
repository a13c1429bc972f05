package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

type CardListFilter struct {
	Positions []domain.Position
	Theme     *domain.Theme
	Search    string
}

type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) (*domain.Card, error)
	Update(ctx context.Context, card *domain.Card) (*domain.Card, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	List(ctx context.Context, limit, offset int, filter CardListFilter) ([]domain.Card, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
