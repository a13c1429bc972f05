package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

func TestHistoryServiceKeepsNewestWithinCap(t *testing.T) {
	repo := &memoryHistoryRepo{}
	svc := NewHistoryService(repo, 3)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return tick }
		card := &domain.Card{ID: uuid.New(), Name: fmt.Sprintf("Card %d", i), Theme: domain.ThemeGoldClassic}
		if err := svc.Record(context.Background(), userID, card); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected cap of 3 entries, got %d", len(entries))
	}
	if entries[0].CardName != "Card 4" {
		t.Fatalf("expected newest first, got %q", entries[0].CardName)
	}
	if entries[2].CardName != "Card 2" {
		t.Fatalf("expected oldest kept to be Card 2, got %q", entries[2].CardName)
	}
}

func TestHistoryServiceClearIsPerUser(t *testing.T) {
	repo := &memoryHistoryRepo{}
	svc := NewHistoryService(repo, 10)
	alice := uuid.New()
	bob := uuid.New()

	for _, user := range []uuid.UUID{alice, bob} {
		card := &domain.Card{ID: uuid.New(), Name: "Shared Card", Theme: domain.ThemeTOTW}
		if err := svc.Record(context.Background(), user, card); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	if err := svc.Clear(context.Background(), alice); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if entries, _ := svc.List(context.Background(), alice); len(entries) != 0 {
		t.Fatalf("expected alice history empty, got %d", len(entries))
	}
	if entries, _ := svc.List(context.Background(), bob); len(entries) != 1 {
		t.Fatalf("expected bob history intact, got %d", len(entries))
	}
}
