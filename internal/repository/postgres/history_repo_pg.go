package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

type HistoryRepository struct {
	db *sqlx.DB
}

func NewHistoryRepo(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Insert(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	const query = `
		INSERT INTO card_history (id, user_id, card_id, card_name, theme, created_at)
		VALUES (:id, :user_id, :card_id, :card_name, :theme, :created_at)
		RETURNING id, user_id, card_id, card_name, theme, created_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, entry)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var inserted domain.HistoryEntry
		if err = rows.StructScan(&inserted); err != nil {
			return nil, err
		}
		return &inserted, nil
	}
	return nil, sql.ErrNoRows
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	const query = `
		SELECT id, user_id, card_id, card_name, theme, created_at
		FROM card_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	entries := make([]domain.HistoryEntry, 0, limit)
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

// Prune deletes everything beyond the user's newest keep entries.
func (r *HistoryRepository) Prune(ctx context.Context, userID uuid.UUID, keep int) error {
	const query = `
		DELETE FROM card_history
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM card_history
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`
	_, err := r.db.ExecContext(ctx, query, userID, keep)
	return err
}

func (r *HistoryRepository) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM card_history WHERE user_id = $1`, userID)
	return err
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)
