package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

type HistoryRepository interface {
	Insert(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.HistoryEntry, error)
	Prune(ctx context.Context, userID uuid.UUID, keep int) error
	ClearByUser(ctx context.Context, userID uuid.UUID) error
}
