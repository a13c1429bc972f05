package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

// memoryCardRepo is an in-memory ports.CardRepository for service tests.
type memoryCardRepo struct {
	mu    sync.Mutex
	cards map[uuid.UUID]domain.Card
}

func newMemoryCardRepo() *memoryCardRepo {
	return &memoryCardRepo{cards: map[uuid.UUID]domain.Card{}}
}

func (r *memoryCardRepo) Create(_ context.Context, card *domain.Card) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *card
	r.cards[stored.ID] = stored
	return &stored, nil
}

func (r *memoryCardRepo) Update(_ context.Context, card *domain.Card) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[card.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	stored := *card
	r.cards[stored.ID] = stored
	return &stored, nil
}

func (r *memoryCardRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, ok := r.cards[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &card, nil
}

func (r *memoryCardRepo) List(_ context.Context, limit, offset int, _ ports.CardListFilter) ([]domain.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Card, 0, len(r.cards))
	for _, card := range r.cards {
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryCardRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cards[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.cards, id)
	return nil
}

// memoryImportRepo backs import pipeline tests.
type memoryImportRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]domain.CardImportJob
	rows []domain.CardImportRow
}

func newMemoryImportRepo() *memoryImportRepo {
	return &memoryImportRepo{jobs: map[uuid.UUID]domain.CardImportJob{}}
}

func (r *memoryImportRepo) CreateJob(_ context.Context, job *domain.CardImportJob) (*domain.CardImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *job
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.jobs[stored.ID] = stored
	return &stored, nil
}

func (r *memoryImportRepo) UpdateJob(_ context.Context, job *domain.CardImportJob) (*domain.CardImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return nil, sql.ErrNoRows
	}
	stored := *job
	stored.UpdatedAt = time.Now()
	r.jobs[stored.ID] = stored
	return &stored, nil
}

func (r *memoryImportRepo) FindJobByID(_ context.Context, id uuid.UUID) (*domain.CardImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

func (r *memoryImportRepo) InsertRow(_ context.Context, row *domain.CardImportRow) (*domain.CardImportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *row
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	r.rows = append(r.rows, stored)
	return &stored, nil
}

func (r *memoryImportRepo) ListRowsByJob(_ context.Context, jobID uuid.UUID) ([]domain.CardImportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CardImportRow
	for _, row := range r.rows {
		if row.JobID == jobID {
			out = append(out, row)
		}
	}
	return out, nil
}

// memoryHistoryRepo records history entries newest-last.
type memoryHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (r *memoryHistoryRepo) Insert(_ context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *entry
	r.entries = append(r.entries, stored)
	return &stored, nil
}

func (r *memoryHistoryRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.HistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID != userID {
			continue
		}
		out = append(out, r.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memoryHistoryRepo) Prune(_ context.Context, userID uuid.UUID, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.HistoryEntry
	seen := 0
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if entry.UserID == userID {
			seen++
			if seen > keep {
				continue
			}
		}
		kept = append([]domain.HistoryEntry{entry}, kept...)
	}
	r.entries = kept
	return nil
}

func (r *memoryHistoryRepo) ClearByUser(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []domain.HistoryEntry
	for _, entry := range r.entries {
		if entry.UserID != userID {
			kept = append(kept, entry)
		}
	}
	r.entries = kept
	return nil
}

// memoryUserRepo backs auth tests.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[uuid.UUID]domain.User{}}
}

func (r *memoryUserRepo) CreateEmailUser(_ context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user := domain.User{
		ID:           uuid.New(),
		Email:        email,
		Role:         domain.UserRoleEditor,
		PasswordHash: passwordHash,
		PasswordSalt: passwordSalt,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.users[user.ID] = user
	return &user, nil
}

func (r *memoryUserRepo) UpsertGoogleUser(_ context.Context, email string, displayName *string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			user.DisplayName = displayName
			r.users[user.ID] = user
			return &user, nil
		}
	}
	user := domain.User{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		Role:        domain.UserRoleEditor,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.users[user.ID] = user
	return &user, nil
}

func (r *memoryUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryUserRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

// recordingStorage captures uploads keyed by bucket/object.
type recordingStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{objects: map[string][]byte{}}
}

func (s *recordingStorage) Upload(_ context.Context, bucket, objectName, _ string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+objectName] = data
	return objectName, nil
}

func (s *recordingStorage) Download(_ context.Context, bucket, objectName string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+objectName]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return bytes.Clone(data), nil
}

func (s *recordingStorage) Remove(_ context.Context, bucket, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+objectName)
	return nil
}

// stubInserter accepts every card unchanged, counting calls.
type stubInserter struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (s *stubInserter) InsertImported(_ context.Context, card *domain.Card) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	s.calls++
	clone := *card
	return &clone, nil
}
