package domain

import (
	"time"

	"github.com/google/uuid"
)

type ImportStatus string

const (
	ImportStatusIdle       ImportStatus = "idle"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusError      ImportStatus = "error"
)

type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatJSON ImportFormat = "json"
)

// ImportRowError records one rejected input row. Row is 1-based over the
// data rows of the original payload (CSV header excluded, JSON array index+1).
type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
	Raw     string `json:"raw,omitempty"`
}

// ImportRowWarning flags an accepted card as suspicious without blocking it.
type ImportRowWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
	Card    *Card  `json:"card,omitempty"`
}

// ImportResult partitions one import call. Accepted, Errors and Warnings all
// preserve original row order. A card may appear in both Accepted and the
// warning list.
type ImportResult struct {
	Accepted []Card             `json:"accepted"`
	Errors   []ImportRowError   `json:"errors"`
	Warnings []ImportRowWarning `json:"warnings"`
}

// ImportProgress is one progress notification. Current counts accepted cards
// processed so far; on completion Current == Total == len(Accepted).
type ImportProgress struct {
	Current int          `json:"current"`
	Total   int          `json:"total"`
	Status  ImportStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

type ImportRowStatus string

const (
	ImportRowStatusAccepted ImportRowStatus = "accepted"
	ImportRowStatusWarning  ImportRowStatus = "warning"
	ImportRowStatusFailed   ImportRowStatus = "failed"
)

// CardImportJob is the persisted record of one import call.
type CardImportJob struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UploadedBy    uuid.UUID       `db:"uploaded_by" json:"uploaded_by"`
	Format        ImportFormat    `db:"format" json:"format"`
	Status        ImportStatus    `db:"status" json:"status"`
	FileKey       string          `db:"file_key" json:"file_key"`
	TotalRows     int             `db:"total_rows" json:"total_rows"`
	AcceptedRows  int             `db:"accepted_rows" json:"accepted_rows"`
	FailedRows    int             `db:"failed_rows" json:"failed_rows"`
	WarnedRows    int             `db:"warned_rows" json:"warned_rows"`
	SubmittedAt   time.Time       `db:"submitted_at" json:"submitted_at"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	Rows          []CardImportRow `db:"-" json:"rows,omitempty"`
}

// CardImportRow is the persisted outcome of one input row.
type CardImportRow struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	JobID        uuid.UUID       `db:"job_id" json:"job_id"`
	RowNumber    int             `db:"row_number" json:"row_number"`
	Status       ImportRowStatus `db:"status" json:"status"`
	CardID       *uuid.UUID      `db:"card_id" json:"card_id,omitempty"`
	ErrorMessage *string         `db:"error" json:"error,omitempty"`
	RawInput     *string         `db:"raw_input" json:"raw_input,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
