package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

type CardImportRepository struct {
	db *sqlx.DB
}

func NewCardImportRepo(db *sqlx.DB) *CardImportRepository {
	return &CardImportRepository{db: db}
}

func (r *CardImportRepository) CreateJob(ctx context.Context, job *domain.CardImportJob) (*domain.CardImportJob, error) {
	const query = `
		INSERT INTO card_import_job (
			id, uploaded_by, format, status, file_key,
			total_rows, accepted_rows, failed_rows, warned_rows, submitted_at
		) VALUES (
			:id, :uploaded_by, :format, :status, :file_key,
			:total_rows, :accepted_rows, :failed_rows, :warned_rows, :submitted_at
		)
		RETURNING id, uploaded_by, format, status, file_key,
		          total_rows, accepted_rows, failed_rows, warned_rows,
		          submitted_at, completed_at, created_at, updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, job)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var inserted domain.CardImportJob
		if err = rows.StructScan(&inserted); err != nil {
			return nil, err
		}
		return &inserted, nil
	}
	return nil, sql.ErrNoRows
}

func (r *CardImportRepository) UpdateJob(ctx context.Context, job *domain.CardImportJob) (*domain.CardImportJob, error) {
	const query = `
		UPDATE card_import_job SET
			status = :status,
			total_rows = :total_rows,
			accepted_rows = :accepted_rows,
			failed_rows = :failed_rows,
			warned_rows = :warned_rows,
			completed_at = :completed_at,
			updated_at = NOW()
		WHERE id = :id
		RETURNING id, uploaded_by, format, status, file_key,
		          total_rows, accepted_rows, failed_rows, warned_rows,
		          submitted_at, completed_at, created_at, updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, job)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var updated domain.CardImportJob
		if err = rows.StructScan(&updated); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, sql.ErrNoRows
}

func (r *CardImportRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*domain.CardImportJob, error) {
	const query = `
		SELECT id, uploaded_by, format, status, file_key,
		       total_rows, accepted_rows, failed_rows, warned_rows,
		       submitted_at, completed_at, created_at, updated_at
		FROM card_import_job
		WHERE id = $1
	`
	var job domain.CardImportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *CardImportRepository) InsertRow(ctx context.Context, row *domain.CardImportRow) (*domain.CardImportRow, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	const query = `
		INSERT INTO card_import_row (
			id, job_id, row_number, status, card_id, error, raw_input
		) VALUES (
			:id, :job_id, :row_number, :status, :card_id, :error, :raw_input
		)
		RETURNING id, job_id, row_number, status, card_id, error, raw_input, created_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, row)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		var inserted domain.CardImportRow
		if err = rows.StructScan(&inserted); err != nil {
			return nil, err
		}
		return &inserted, nil
	}
	return nil, sql.ErrNoRows
}

func (r *CardImportRepository) ListRowsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.CardImportRow, error) {
	const query = `
		SELECT id, job_id, row_number, status, card_id, error, raw_input, created_at
		FROM card_import_row
		WHERE job_id = $1
		ORDER BY row_number ASC
	`
	rows := make([]domain.CardImportRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, jobID); err != nil {
		return nil, err
	}
	return rows, nil
}

var _ ports.CardImportRepository = (*CardImportRepository)(nil)
