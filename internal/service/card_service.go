package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/media"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
	"github.com/squadcards/cardforge-backend/internal/sanitize"
	"github.com/squadcards/cardforge-backend/internal/stats"
)

var ErrCardInvalid = errors.New("card failed validation")

// CardInput is the loose shape accepted from API callers. Absent skills
// default to 75; an explicit rating marks the card's rating manual.
type CardInput struct {
	Name        string           `json:"name"`
	Position    string           `json:"position"`
	Nationality string           `json:"nationality"`
	Rating      *int             `json:"rating"`
	Theme       string           `json:"theme"`
	Skills      *domain.SkillSet `json:"skills"`
	Photo       []byte           `json:"-"`
	Logo        []byte           `json:"-"`
}

type CardServiceConfig struct {
	PhotoBucket       string
	PhotoMaxDimension int
}

// CardService owns card CRUD, skill generation and photo/logo uploads.
type CardService struct {
	repo        ports.CardRepository
	history     *HistoryService
	storage     ports.ObjectStorage
	processor   media.Processor
	validator   *CardValidator
	bucket      string
	photoMaxDim int
	now         func() time.Time
}

func NewCardService(repo ports.CardRepository, history *HistoryService, storage ports.ObjectStorage, processor media.Processor, sanitizer *sanitize.Sanitizer, cfg CardServiceConfig) *CardService {
	maxDim := cfg.PhotoMaxDimension
	if maxDim <= 0 {
		maxDim = media.DefaultMaxDimension
	}
	return &CardService{
		repo:        repo,
		history:     history,
		storage:     storage,
		processor:   processor,
		validator:   NewCardValidator(sanitizer),
		bucket:      cfg.PhotoBucket,
		photoMaxDim: maxDim,
		now:         time.Now,
	}
}

// Create builds, validates and persists a card. The rating invariant is
// enforced before validation: without an explicit rating the overall is the
// rounded skill mean.
func (s *CardService) Create(ctx context.Context, createdBy uuid.UUID, input CardInput) (*domain.Card, error) {
	card := s.buildCard(createdBy, input)

	verdict := s.validator.Validate(card)
	if !verdict.Valid {
		return nil, fmt.Errorf("%w: %s", ErrCardInvalid, strings.Join(verdict.Errors, "; "))
	}

	return s.persistNew(ctx, &card)
}

// InsertImported persists an already-validated card coming out of the batch
// import pipeline, uploading any matched photo payloads.
func (s *CardService) InsertImported(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	clone := *card
	return s.persistNew(ctx, &clone)
}

func (s *CardService) persistNew(ctx context.Context, card *domain.Card) (*domain.Card, error) {
	if card.ID == uuid.Nil {
		card.ID = uuid.New()
	}
	now := s.now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	if err := s.uploadImages(ctx, card); err != nil {
		return nil, err
	}

	inserted, err := s.repo.Create(ctx, card)
	if err != nil {
		return nil, err
	}
	if s.history != nil {
		if err := s.history.Record(ctx, inserted.CreatedBy, inserted); err != nil {
			return nil, err
		}
	}
	return inserted, nil
}

func (s *CardService) Get(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CardService) List(ctx context.Context, limit, offset int, filter ports.CardListFilter) ([]domain.Card, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset, filter)
}

// Update applies a partial update. When skills change and the rating is not
// manual, the overall is recomputed; supplying a rating flips it to manual.
func (s *CardService) Update(ctx context.Context, id uuid.UUID, input CardInput) (*domain.Card, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Name) != "" {
		card.Name = s.validator.SanitizeName(input.Name)
	}
	if strings.TrimSpace(input.Position) != "" {
		card.Position = domain.NormalizePosition(input.Position)
	}
	if strings.TrimSpace(input.Nationality) != "" {
		card.Nationality = strings.ToUpper(strings.TrimSpace(input.Nationality))
	}
	if strings.TrimSpace(input.Theme) != "" {
		card.Theme = domain.NormalizeTheme(input.Theme)
	}
	if input.Skills != nil {
		card.Skills = clampSkills(*input.Skills)
	}
	if input.Rating != nil {
		card.Rating = clampValue(*input.Rating, 1, 99)
		card.RatingManual = true
	}
	card.EnforceRating()

	verdict := s.validator.Validate(*card)
	if !verdict.Valid {
		return nil, fmt.Errorf("%w: %s", ErrCardInvalid, strings.Join(verdict.Errors, "; "))
	}

	card.Photo = input.Photo
	card.Logo = input.Logo
	if err := s.uploadImages(ctx, card); err != nil {
		return nil, err
	}

	card.UpdatedAt = s.now()
	return s.repo.Update(ctx, card)
}

// Delete removes the card and best-effort cleans up its stored images.
func (s *CardService) Delete(ctx context.Context, id uuid.UUID) error {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.storage != nil && s.bucket != "" {
		if card.PhotoKey != nil {
			_ = s.storage.Remove(ctx, s.bucket, *card.PhotoKey)
		}
		if card.LogoKey != nil {
			_ = s.storage.Remove(ctx, s.bucket, *card.LogoKey)
		}
	}
	return nil
}

// AttachMatchedPhotos uploads photo payloads attached by the library matcher
// and persists the new object keys. Cards without a payload pass through.
func (s *CardService) AttachMatchedPhotos(ctx context.Context, cards []domain.Card) ([]domain.Card, error) {
	out := make([]domain.Card, 0, len(cards))
	for _, card := range cards {
		if len(card.Photo) == 0 {
			out = append(out, card)
			continue
		}
		if err := s.uploadImages(ctx, &card); err != nil {
			return nil, err
		}
		card.UpdatedAt = s.now()
		updated, err := s.repo.Update(ctx, &card)
		if err != nil {
			return nil, err
		}
		out = append(out, *updated)
	}
	return out, nil
}

// GenerateSkills produces a skill set from the seed, deterministically for a
// given seed string; an empty seed draws from a time-keyed stream.
func (s *CardService) GenerateSkills(seed string) domain.SkillSet {
	if strings.TrimSpace(seed) == "" {
		return stats.NewRandom().Skills()
	}
	return stats.New(seed).Skills()
}

func (s *CardService) buildCard(createdBy uuid.UUID, input CardInput) domain.Card {
	skills := domain.SkillSet{
		Technical:     defaultSkillValue,
		Leadership:    defaultSkillValue,
		Creativity:    defaultSkillValue,
		Reliability:   defaultSkillValue,
		Collaboration: defaultSkillValue,
		Adaptability:  defaultSkillValue,
	}
	if input.Skills != nil {
		skills = clampSkills(*input.Skills)
	}

	rating := domain.AggregateRating(skills)
	manual := input.Rating != nil
	if manual {
		rating = clampValue(*input.Rating, 1, 99)
	}

	now := s.now()
	return domain.Card{
		ID:           uuid.New(),
		Name:         s.validator.SanitizeName(input.Name),
		Position:     domain.NormalizePosition(input.Position),
		Nationality:  strings.ToUpper(strings.TrimSpace(input.Nationality)),
		Rating:       rating,
		RatingManual: manual,
		Skills:       skills,
		Theme:        domain.NormalizeTheme(input.Theme),
		Photo:        input.Photo,
		Logo:         input.Logo,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// uploadImages moves in-memory photo/logo payloads into object storage and
// swaps them for object keys. Without storage configured the payloads are
// dropped, keeping persisted cards free of inline blobs.
func (s *CardService) uploadImages(ctx context.Context, card *domain.Card) error {
	if s.storage == nil || s.bucket == "" {
		card.Photo = nil
		card.Logo = nil
		return nil
	}

	if len(card.Photo) > 0 {
		key, err := s.uploadImage(ctx, card.ID, "photo", card.Photo)
		if err != nil {
			return err
		}
		card.PhotoKey = &key
		card.Photo = nil
	}
	if len(card.Logo) > 0 {
		key, err := s.uploadImage(ctx, card.ID, "logo", card.Logo)
		if err != nil {
			return err
		}
		card.LogoKey = &key
		card.Logo = nil
	}
	return nil
}

func (s *CardService) uploadImage(ctx context.Context, cardID uuid.UUID, kind string, payload []byte) (string, error) {
	upload := media.Upload{
		Reader:      bytes.NewReader(payload),
		Size:        int64(len(payload)),
		FileName:    kind,
		ContentType: "",
	}

	reader, size, contentType, err := prepareImageForUpload(ctx, s.processor, upload, s.photoMaxDim)
	if err != nil {
		return "", err
	}

	ext := ".jpg"
	if contentType == "image/png" {
		ext = ".png"
	}
	objectName := fmt.Sprintf("cards/%s/%s%s", cardID.String(), kind, ext)
	return s.storage.Upload(ctx, s.bucket, objectName, contentType, reader, size)
}

func clampSkills(s domain.SkillSet) domain.SkillSet {
	return domain.SkillSet{
		Technical:     clampValue(s.Technical, skillMin, skillMax),
		Leadership:    clampValue(s.Leadership, skillMin, skillMax),
		Creativity:    clampValue(s.Creativity, skillMin, skillMax),
		Reliability:   clampValue(s.Reliability, skillMin, skillMax),
		Collaboration: clampValue(s.Collaboration, skillMin, skillMax),
		Adaptability:  clampValue(s.Adaptability, skillMin, skillMax),
	}
}
