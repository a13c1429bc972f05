package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

type CardImportRepository interface {
	CreateJob(ctx context.Context, job *domain.CardImportJob) (*domain.CardImportJob, error)
	UpdateJob(ctx context.Context, job *domain.CardImportJob) (*domain.CardImportJob, error)
	FindJobByID(ctx context.Context, id uuid.UUID) (*domain.CardImportJob, error)
	InsertRow(ctx context.Context, row *domain.CardImportRow) (*domain.CardImportRow, error)
	ListRowsByJob(ctx context.Context, jobID uuid.UUID) ([]domain.CardImportRow, error)
}
