package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry references a recently created card for one user. The history
// is capped per user; the oldest entries are pruned as new ones arrive.
type HistoryEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CardID    uuid.UUID `db:"card_id" json:"card_id"`
	CardName  string    `db:"card_name" json:"card_name"`
	Theme     Theme     `db:"theme" json:"theme"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
