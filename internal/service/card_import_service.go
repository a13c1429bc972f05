package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
	"github.com/squadcards/cardforge-backend/internal/sanitize"
)

var (
	ErrImportEmptyFile        = errors.New("import payload is empty")
	ErrImportTooLarge         = errors.New("import payload exceeds maximum size")
	ErrImportInvalidHeaders   = errors.New("csv headers missing required columns")
	ErrImportRowLimitExceeded = errors.New("import exceeds maximum allowed rows")
	ErrImportBadShape         = errors.New("json payload must be an array, or an object with a cards or players array")
)

// ProgressFunc receives one notification per processed row plus a terminal
// completed or error notification. Callers may pass nil.
type ProgressFunc func(domain.ImportProgress)

// cardInserter persists one accepted card. Satisfied by CardService.
type cardInserter interface {
	InsertImported(ctx context.Context, card *domain.Card) (*domain.Card, error)
}

type CardImportServiceConfig struct {
	Bucket       string
	MaxRows      int
	MaxFileBytes int64
}

// CardImportService turns CSV or JSON payloads into validated cards. Row
// failures are collected and never abort the run; structural problems with
// the payload itself abort immediately with a sentinel error.
type CardImportService struct {
	repo         ports.CardImportRepository
	cards        cardInserter
	storage      ports.ObjectStorage
	validator    *CardValidator
	bucket       string
	maxRows      int
	maxFileBytes int64
	now          func() time.Time
}

func NewCardImportService(repo ports.CardImportRepository, cards cardInserter, storage ports.ObjectStorage, sanitizer *sanitize.Sanitizer, cfg CardImportServiceConfig) *CardImportService {
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = 500
	}
	maxFile := cfg.MaxFileBytes
	if maxFile <= 0 {
		maxFile = 5 * 1024 * 1024
	}

	return &CardImportService{
		repo:         repo,
		cards:        cards,
		storage:      storage,
		validator:    NewCardValidator(sanitizer),
		bucket:       cfg.Bucket,
		maxRows:      maxRows,
		maxFileBytes: maxFile,
		now:          time.Now,
	}
}

// ImportCSV ingests newline-delimited card rows. The first non-blank line is
// the header; name, position and nationality columns are required. One bad
// row never blocks the rest.
func (s *CardImportService) ImportCSV(ctx context.Context, uploadedBy uuid.UUID, filename string, contents []byte, progress ProgressFunc) (_ *domain.CardImportJob, _ *domain.ImportResult, err error) {
	if err := s.checkSize(contents); err != nil {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: err.Error()})
		return nil, nil, err
	}

	lines := splitLines(contents)
	if len(lines) == 0 {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: ErrImportEmptyFile.Error()})
		return nil, nil, ErrImportEmptyFile
	}

	header := normalizeHeader(splitCSVLine(lines[0]))
	required := []string{"name", "position", "nationality"}
	if missing := missingColumns(header, required); len(missing) > 0 {
		err := fmt.Errorf("%w: %s", ErrImportInvalidHeaders, strings.Join(missing, ", "))
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: err.Error()})
		return nil, nil, err
	}

	dataRows := lines[1:]
	if len(dataRows) == 0 {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: ErrImportEmptyFile.Error()})
		return nil, nil, ErrImportEmptyFile
	}
	if s.maxRows > 0 && len(dataRows) > s.maxRows {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: ErrImportRowLimitExceeded.Error()})
		return nil, nil, ErrImportRowLimitExceeded
	}

	job, err := s.openJob(ctx, uploadedBy, domain.ImportFormatCSV, filename, contents, len(dataRows))
	if err != nil {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: "could not start import"})
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			s.failJob(ctx, job)
			notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: err.Error()})
		}
	}()

	result := &domain.ImportResult{Accepted: make([]domain.Card, 0, len(dataRows))}

	for idx, line := range dataRows {
		rowNumber := idx + 1
		values := rowToMap(header, splitCSVLine(line))
		card := s.buildCardFromValues(uploadedBy, values)

		if err := s.processRow(ctx, job, result, card, rowNumber, line); err != nil {
			return nil, nil, err
		}
		notify(progress, domain.ImportProgress{
			Current: rowNumber,
			Total:   len(dataRows),
			Status:  domain.ImportStatusProcessing,
			Message: fmt.Sprintf("processed row %d of %d", rowNumber, len(dataRows)),
		})
	}

	if err := s.completeJob(ctx, job, result); err != nil {
		return nil, nil, err
	}
	notify(progress, domain.ImportProgress{
		Current: len(result.Accepted),
		Total:   len(result.Accepted),
		Status:  domain.ImportStatusCompleted,
		Message: fmt.Sprintf("imported %d cards", len(result.Accepted)),
	})
	return job, result, nil
}

// ImportJSON accepts a bare array of card objects, or an object wrapping the
// array under "cards" or "players". Any other top-level shape aborts.
func (s *CardImportService) ImportJSON(ctx context.Context, uploadedBy uuid.UUID, filename string, contents []byte, progress ProgressFunc) (_ *domain.CardImportJob, _ *domain.ImportResult, err error) {
	if err := s.checkSize(contents); err != nil {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: err.Error()})
		return nil, nil, err
	}

	items, err := decodeJSONItems(contents)
	if err != nil {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: err.Error()})
		return nil, nil, err
	}
	if len(items) == 0 {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: ErrImportEmptyFile.Error()})
		return nil, nil, ErrImportEmptyFile
	}
	if s.maxRows > 0 && len(items) > s.maxRows {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: ErrImportRowLimitExceeded.Error()})
		return nil, nil, ErrImportRowLimitExceeded
	}

	job, err := s.openJob(ctx, uploadedBy, domain.ImportFormatJSON, filename, contents, len(items))
	if err != nil {
		notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: "could not start import"})
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			s.failJob(ctx, job)
			notify(progress, domain.ImportProgress{Status: domain.ImportStatusError, Message: err.Error()})
		}
	}()

	result := &domain.ImportResult{Accepted: make([]domain.Card, 0, len(items))}

	for idx, raw := range items {
		rowNumber := idx + 1

		var payload cardPayload
		if unmarshalErr := json.Unmarshal(raw, &payload); unmarshalErr != nil {
			if err := s.recordFailure(ctx, job, result, rowNumber, "invalid card object: "+unmarshalErr.Error(), string(raw)); err != nil {
				return nil, nil, err
			}
			notify(progress, domain.ImportProgress{
				Current: rowNumber,
				Total:   len(items),
				Status:  domain.ImportStatusProcessing,
				Message: fmt.Sprintf("processed item %d of %d", rowNumber, len(items)),
			})
			continue
		}

		card := s.buildCardFromPayload(uploadedBy, payload)
		if err := s.processRow(ctx, job, result, card, rowNumber, string(raw)); err != nil {
			return nil, nil, err
		}
		notify(progress, domain.ImportProgress{
			Current: rowNumber,
			Total:   len(items),
			Status:  domain.ImportStatusProcessing,
			Message: fmt.Sprintf("processed item %d of %d", rowNumber, len(items)),
		})
	}

	if err := s.completeJob(ctx, job, result); err != nil {
		return nil, nil, err
	}
	notify(progress, domain.ImportProgress{
		Current: len(result.Accepted),
		Total:   len(result.Accepted),
		Status:  domain.ImportStatusCompleted,
		Message: fmt.Sprintf("imported %d cards", len(result.Accepted)),
	})
	return job, result, nil
}

// GetJob returns a persisted import job with its rows.
func (s *CardImportService) GetJob(ctx context.Context, jobID uuid.UUID) (*domain.CardImportJob, error) {
	job, err := s.repo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListRowsByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	job.Rows = rows
	return job, nil
}

// Template returns the example CSV handed to users as a starting point.
func (s *CardImportService) Template() string {
	return strings.Join([]string{
		"name,position,nationality,rating,theme,technical,leadership,creativity,reliability,collaboration,adaptability",
		"Larry Mota,DEV,FR,85,gold-classic,88,82,90,85,83,87",
		"Sarah Chen,DATA,US,,dark-mode-it,92,78,88,90,85,82",
		"Mike Johnson,OPS,GB,,gold-classic,85,88,75,92,80,85",
	}, "\n")
}

func (s *CardImportService) checkSize(contents []byte) error {
	if len(bytes.TrimSpace(contents)) == 0 {
		return ErrImportEmptyFile
	}
	if s.maxFileBytes > 0 && int64(len(contents)) > s.maxFileBytes {
		return ErrImportTooLarge
	}
	return nil
}

func (s *CardImportService) openJob(ctx context.Context, uploadedBy uuid.UUID, format domain.ImportFormat, filename string, contents []byte, total int) (*domain.CardImportJob, error) {
	jobID := uuid.New()
	objectName := buildImportObjectName(jobID, filename, format)
	if s.storage != nil && s.bucket != "" {
		contentType := "text/csv"
		if format == domain.ImportFormatJSON {
			contentType = "application/json"
		}
		if _, err := s.storage.Upload(ctx, s.bucket, objectName, contentType, bytes.NewReader(contents), int64(len(contents))); err != nil {
			return nil, err
		}
	}

	job := &domain.CardImportJob{
		ID:          jobID,
		UploadedBy:  uploadedBy,
		Format:      format,
		Status:      domain.ImportStatusProcessing,
		FileKey:     objectName,
		TotalRows:   total,
		SubmittedAt: s.now(),
	}
	return s.repo.CreateJob(ctx, job)
}

// processRow validates one candidate card and routes it into the accepted,
// error and warning partitions, persisting the row outcome as it goes.
func (s *CardImportService) processRow(ctx context.Context, job *domain.CardImportJob, result *domain.ImportResult, card domain.Card, rowNumber int, raw string) error {
	verdict := s.validator.Validate(card)
	if !verdict.Valid {
		return s.recordFailure(ctx, job, result, rowNumber, strings.Join(verdict.Errors, "; "), raw)
	}

	inserted := &card
	if s.cards != nil {
		var err error
		inserted, err = s.cards.InsertImported(ctx, &card)
		if err != nil {
			return s.recordFailure(ctx, job, result, rowNumber, err.Error(), raw)
		}
	}

	result.Accepted = append(result.Accepted, *inserted)
	job.AcceptedRows++

	status := domain.ImportRowStatusAccepted
	if len(verdict.Warnings) > 0 {
		status = domain.ImportRowStatusWarning
		job.WarnedRows++
		message := strings.Join(verdict.Warnings, "; ")
		result.Warnings = append(result.Warnings, domain.ImportRowWarning{
			Row:     rowNumber,
			Message: message,
			Card:    inserted,
		})
	}

	row := &domain.CardImportRow{
		JobID:     job.ID,
		RowNumber: rowNumber,
		Status:    status,
		CardID:    &inserted.ID,
	}
	if len(verdict.Warnings) > 0 {
		message := strings.Join(verdict.Warnings, "; ")
		row.ErrorMessage = &message
	}
	if _, err := s.repo.InsertRow(ctx, row); err != nil {
		return err
	}
	return nil
}

func (s *CardImportService) recordFailure(ctx context.Context, job *domain.CardImportJob, result *domain.ImportResult, rowNumber int, message, raw string) error {
	result.Errors = append(result.Errors, domain.ImportRowError{
		Row:     rowNumber,
		Message: message,
		Raw:     raw,
	})
	job.FailedRows++

	row := &domain.CardImportRow{
		JobID:        job.ID,
		RowNumber:    rowNumber,
		Status:       domain.ImportRowStatusFailed,
		ErrorMessage: &message,
	}
	if raw != "" {
		row.RawInput = &raw
	}
	_, err := s.repo.InsertRow(ctx, row)
	return err
}

func (s *CardImportService) completeJob(ctx context.Context, job *domain.CardImportJob, result *domain.ImportResult) error {
	completed := s.now()
	job.Status = domain.ImportStatusCompleted
	job.CompletedAt = &completed
	updated, err := s.repo.UpdateJob(ctx, job)
	if err != nil {
		return err
	}
	*job = *updated
	return nil
}

func (s *CardImportService) failJob(ctx context.Context, job *domain.CardImportJob) {
	if job == nil {
		return
	}
	job.Status = domain.ImportStatusError
	now := s.now()
	job.CompletedAt = &now
	_, _ = s.repo.UpdateJob(ctx, job)
}

// buildCardFromValues maps a header→cell row onto a card, applying the
// defaulting rules: skills default to 75, an explicit rating cell marks the
// rating manual, absent rating falls back to the skill aggregate.
func (s *CardImportService) buildCardFromValues(createdBy uuid.UUID, values map[string]string) domain.Card {
	skills := domain.SkillSet{
		Technical:     ClampSkill(values["technical"]),
		Leadership:    ClampSkill(values["leadership"]),
		Creativity:    ClampSkill(values["creativity"]),
		Reliability:   ClampSkill(values["reliability"]),
		Collaboration: ClampSkill(values["collaboration"]),
		Adaptability:  ClampSkill(values["adaptability"]),
	}

	ratingCell := strings.TrimSpace(values["rating"])
	rating := domain.AggregateRating(skills)
	manual := ratingCell != ""
	if manual {
		rating = ClampInt(ratingCell, rating, 1, 99)
	}

	now := s.now()
	return domain.Card{
		ID:           uuid.New(),
		Name:         s.validator.SanitizeName(values["name"]),
		Position:     domain.NormalizePosition(values["position"]),
		Nationality:  strings.ToUpper(strings.TrimSpace(values["nationality"])),
		Rating:       rating,
		RatingManual: manual,
		Skills:       skills,
		Theme:        domain.NormalizeTheme(values["theme"]),
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *CardImportService) buildCardFromPayload(createdBy uuid.UUID, payload cardPayload) domain.Card {
	skills := payload.skills()

	rating := domain.AggregateRating(skills)
	manual := payload.Rating != nil
	if manual {
		rating = clampValue(*payload.Rating, 1, 99)
	}

	id := uuid.New()
	if parsed, err := uuid.Parse(strings.TrimSpace(payload.ID)); err == nil {
		id = parsed
	}

	now := s.now()
	createdAt := now
	if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.CreatedAt)); err == nil {
		createdAt = parsed
	}

	return domain.Card{
		ID:           id,
		Name:         s.validator.SanitizeName(payload.Name),
		Position:     domain.NormalizePosition(payload.Position),
		Nationality:  strings.ToUpper(strings.TrimSpace(payload.Nationality)),
		Rating:       rating,
		RatingManual: manual,
		Skills:       skills,
		Theme:        domain.NormalizeTheme(firstNonEmpty(payload.Theme, payload.BackgroundTheme)),
		Photo:        decodeImagePayload(firstNonEmpty(payload.Photo, payload.ProfilePhoto)),
		Logo:         decodeImagePayload(firstNonEmpty(payload.Logo, payload.CustomLogo)),
		CreatedBy:    createdBy,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}
}

// cardPayload is the loose JSON item shape. Skill values may sit at the top
// level or inside "stats"; top level wins. Photo and logo each accept two
// alternate key names, resolved in declaration order.
type cardPayload struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Position        string        `json:"position"`
	Nationality     string        `json:"nationality"`
	Rating          *int          `json:"rating"`
	Theme           string        `json:"theme"`
	BackgroundTheme string        `json:"backgroundTheme"`
	Photo           string        `json:"photo"`
	ProfilePhoto    string        `json:"profilePhoto"`
	Logo            string        `json:"logo"`
	CustomLogo      string        `json:"customLogo"`
	CreatedAt       string        `json:"createdAt"`
	Stats           *skillPayload `json:"stats"`
	skillPayload
}

type skillPayload struct {
	Technical     *int `json:"technical"`
	Leadership    *int `json:"leadership"`
	Creativity    *int `json:"creativity"`
	Reliability   *int `json:"reliability"`
	Collaboration *int `json:"collaboration"`
	Adaptability  *int `json:"adaptability"`
}

func (p cardPayload) skills() domain.SkillSet {
	nested := p.Stats
	if nested == nil {
		nested = &skillPayload{}
	}
	return domain.SkillSet{
		Technical:     pickSkill(p.Technical, nested.Technical),
		Leadership:    pickSkill(p.Leadership, nested.Leadership),
		Creativity:    pickSkill(p.Creativity, nested.Creativity),
		Reliability:   pickSkill(p.Reliability, nested.Reliability),
		Collaboration: pickSkill(p.Collaboration, nested.Collaboration),
		Adaptability:  pickSkill(p.Adaptability, nested.Adaptability),
	}
}

func pickSkill(flat, nested *int) int {
	if flat != nil {
		return clampValue(*flat, skillMin, skillMax)
	}
	if nested != nil {
		return clampValue(*nested, skillMin, skillMax)
	}
	return defaultSkillValue
}

func clampValue(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func decodeJSONItems(contents []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(contents, &items); err == nil {
		return items, nil
	}

	var wrapper struct {
		Cards   []json.RawMessage `json:"cards"`
		Players []json.RawMessage `json:"players"`
	}
	if err := json.Unmarshal(contents, &wrapper); err != nil {
		return nil, ErrImportBadShape
	}
	if wrapper.Cards != nil {
		return wrapper.Cards, nil
	}
	if wrapper.Players != nil {
		return wrapper.Players, nil
	}
	return nil, ErrImportBadShape
}

// decodeImagePayload accepts a base64 string, optionally carrying a data-URL
// prefix. Undecodable payloads are dropped rather than failing the row.
func decodeImagePayload(raw string) []byte {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if idx := strings.Index(raw, ";base64,"); idx >= 0 {
		raw = raw[idx+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	return data
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// splitLines breaks the payload into non-blank lines, tolerating both LF and
// CRLF endings.
func splitLines(contents []byte) []string {
	rawLines := strings.Split(string(contents), "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitCSVLine splits one CSV line on commas, honoring double-quote-enclosed
// fields that themselves contain commas. Quotes toggle an in-quotes state and
// are stripped from the output.
func splitCSVLine(line string) []string {
	fields := make([]string, 0, 11)
	var current strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		switch c := line[i]; c {
		case '"':
			inQuotes = !inQuotes
		case ',':
			if inQuotes {
				current.WriteByte(c)
			} else {
				fields = append(fields, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	fields = append(fields, current.String())
	return fields
}

func normalizeHeader(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return out
}

func missingColumns(header []string, required []string) []string {
	set := make(map[string]struct{}, len(header))
	for _, h := range header {
		set[h] = struct{}{}
	}
	var missing []string
	for _, req := range required {
		if _, ok := set[req]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

func rowToMap(header []string, record []string) map[string]string {
	out := make(map[string]string, len(header))
	for idx, key := range header {
		val := ""
		if idx < len(record) {
			val = strings.TrimSpace(record[idx])
		}
		out[key] = val
	}
	return out
}

func buildImportObjectName(jobID uuid.UUID, filename string, format domain.ImportFormat) string {
	name := strings.TrimSpace(filename)
	if name == "" {
		name = "upload." + string(format)
	}
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return fmt.Sprintf("cards/imports/%s/%s", jobID.String(), name)
}

func notify(progress ProgressFunc, update domain.ImportProgress) {
	if progress != nil {
		progress(update)
	}
}
