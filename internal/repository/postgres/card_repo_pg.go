package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

const cardColumns = `
	id, name, position, nationality, rating, rating_manual,
	technical, leadership, creativity, reliability, collaboration, adaptability,
	theme, photo_key, logo_key, created_by, created_at, updated_at
`

// cardRow flattens the skill struct for scanning.
type cardRow struct {
	ID            uuid.UUID       `db:"id"`
	Name          string          `db:"name"`
	Position      domain.Position `db:"position"`
	Nationality   string          `db:"nationality"`
	Rating        int             `db:"rating"`
	RatingManual  bool            `db:"rating_manual"`
	Technical     int             `db:"technical"`
	Leadership    int             `db:"leadership"`
	Creativity    int             `db:"creativity"`
	Reliability   int             `db:"reliability"`
	Collaboration int             `db:"collaboration"`
	Adaptability  int             `db:"adaptability"`
	Theme         domain.Theme    `db:"theme"`
	PhotoKey      *string         `db:"photo_key"`
	LogoKey       *string         `db:"logo_key"`
	CreatedBy     uuid.UUID       `db:"created_by"`
	CreatedAt     sql.NullTime    `db:"created_at"`
	UpdatedAt     sql.NullTime    `db:"updated_at"`
}

func (r cardRow) toDomain() domain.Card {
	card := domain.Card{
		ID:           r.ID,
		Name:         r.Name,
		Position:     r.Position,
		Nationality:  r.Nationality,
		Rating:       r.Rating,
		RatingManual: r.RatingManual,
		Skills: domain.SkillSet{
			Technical:     r.Technical,
			Leadership:    r.Leadership,
			Creativity:    r.Creativity,
			Reliability:   r.Reliability,
			Collaboration: r.Collaboration,
			Adaptability:  r.Adaptability,
		},
		Theme:     r.Theme,
		PhotoKey:  r.PhotoKey,
		LogoKey:   r.LogoKey,
		CreatedBy: r.CreatedBy,
	}
	if r.CreatedAt.Valid {
		card.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		card.UpdatedAt = r.UpdatedAt.Time
	}
	return card
}

type CardRepository struct {
	db *sqlx.DB
}

func NewCardRepo(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	query := `
		INSERT INTO player_card (
			id, name, position, nationality, rating, rating_manual,
			technical, leadership, creativity, reliability, collaboration, adaptability,
			theme, photo_key, logo_key, created_by, created_at, updated_at
		) VALUES (
			:id, :name, :position, :nationality, :rating, :rating_manual,
			:technical, :leadership, :creativity, :reliability, :collaboration, :adaptability,
			:theme, :photo_key, :logo_key, :created_by, :created_at, :updated_at
		)
		RETURNING ` + cardColumns

	rows, err := r.db.NamedQueryContext(ctx, query, cardArgs(card))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var row cardRow
		if err = rows.StructScan(&row); err != nil {
			return nil, err
		}
		result := row.toDomain()
		return &result, nil
	}
	return nil, sql.ErrNoRows
}

func (r *CardRepository) Update(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	query := `
		UPDATE player_card SET
			name = :name,
			position = :position,
			nationality = :nationality,
			rating = :rating,
			rating_manual = :rating_manual,
			technical = :technical,
			leadership = :leadership,
			creativity = :creativity,
			reliability = :reliability,
			collaboration = :collaboration,
			adaptability = :adaptability,
			theme = :theme,
			photo_key = :photo_key,
			logo_key = :logo_key,
			updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + cardColumns

	rows, err := r.db.NamedQueryContext(ctx, query, cardArgs(card))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var row cardRow
		if err = rows.StructScan(&row); err != nil {
			return nil, err
		}
		result := row.toDomain()
		return &result, nil
	}
	return nil, sql.ErrNoRows
}

func (r *CardRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM player_card WHERE id = $1`
	var row cardRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	card := row.toDomain()
	return &card, nil
}

func (r *CardRepository) List(ctx context.Context, limit, offset int, filter ports.CardListFilter) ([]domain.Card, error) {
	var builder strings.Builder
	builder.WriteString(`SELECT ` + cardColumns + ` FROM player_card WHERE TRUE`)

	params := make([]any, 0, 5)

	if len(filter.Positions) > 0 {
		positions := make([]string, 0, len(filter.Positions))
		for _, p := range filter.Positions {
			positions = append(positions, string(p))
		}
		placeholder := fmt.Sprintf("$%d", len(params)+1)
		builder.WriteString(" AND position = ANY(" + placeholder + ")")
		params = append(params, pq.StringArray(positions))
	}

	if filter.Theme != nil {
		placeholder := fmt.Sprintf("$%d", len(params)+1)
		builder.WriteString(" AND theme = " + placeholder)
		params = append(params, string(*filter.Theme))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		placeholder := fmt.Sprintf("$%d", len(params)+1)
		builder.WriteString(" AND name ILIKE " + placeholder)
		params = append(params, "%"+search+"%")
	}

	limitPlaceholder := fmt.Sprintf("$%d", len(params)+1)
	offsetPlaceholder := fmt.Sprintf("$%d", len(params)+2)
	builder.WriteString(" ORDER BY updated_at DESC LIMIT " + limitPlaceholder + " OFFSET " + offsetPlaceholder)
	params = append(params, limit, offset)

	var rows []cardRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), params...); err != nil {
		return nil, err
	}
	cards := make([]domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.toDomain())
	}
	return cards, nil
}

func (r *CardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM player_card WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func cardArgs(card *domain.Card) map[string]any {
	return map[string]any{
		"id":            card.ID,
		"name":          card.Name,
		"position":      card.Position,
		"nationality":   card.Nationality,
		"rating":        card.Rating,
		"rating_manual": card.RatingManual,
		"technical":     card.Skills.Technical,
		"leadership":    card.Skills.Leadership,
		"creativity":    card.Skills.Creativity,
		"reliability":   card.Skills.Reliability,
		"collaboration": card.Skills.Collaboration,
		"adaptability":  card.Skills.Adaptability,
		"theme":         card.Theme,
		"photo_key":     card.PhotoKey,
		"logo_key":      card.LogoKey,
		"created_by":    card.CreatedBy,
		"created_at":    card.CreatedAt,
		"updated_at":    card.UpdatedAt,
	}
}

var _ ports.CardRepository = (*CardRepository)(nil)
