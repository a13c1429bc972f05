package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

const defaultHistoryLimit = 10

// HistoryService keeps the most recent cards per user, pruning beyond a cap.
type HistoryService struct {
	repo  ports.HistoryRepository
	limit int
	now   func() time.Time
}

func NewHistoryService(repo ports.HistoryRepository, limit int) *HistoryService {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &HistoryService{
		repo:  repo,
		limit: limit,
		now:   time.Now,
	}
}

// Record appends a card to the user's history and prunes entries past the cap.
func (s *HistoryService) Record(ctx context.Context, userID uuid.UUID, card *domain.Card) error {
	entry := &domain.HistoryEntry{
		ID:        uuid.New(),
		UserID:    userID,
		CardID:    card.ID,
		CardName:  card.Name,
		Theme:     card.Theme,
		CreatedAt: s.now(),
	}
	if _, err := s.repo.Insert(ctx, entry); err != nil {
		return err
	}
	return s.repo.Prune(ctx, userID, s.limit)
}

func (s *HistoryService) List(ctx context.Context, userID uuid.UUID) ([]domain.HistoryEntry, error) {
	return s.repo.ListByUser(ctx, userID, s.limit)
}

func (s *HistoryService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.ClearByUser(ctx, userID)
}
