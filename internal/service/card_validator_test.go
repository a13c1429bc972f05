package service

import (
	"strings"
	"testing"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

func validCard() domain.Card {
	return domain.Card{
		Name:        "Larry Mota",
		Position:    domain.PositionDev,
		Nationality: "FR",
		Rating:      85,
	}
}

func TestValidateAcceptsCompleteCard(t *testing.T) {
	v := NewCardValidator(nil)
	verdict := v.Validate(validCard())
	if !verdict.Valid {
		t.Fatalf("expected valid, got errors %v", verdict.Errors)
	}
	if len(verdict.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", verdict.Warnings)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := NewCardValidator(nil)
	verdict := v.Validate(domain.Card{Nationality: "F", Rating: 85})
	if verdict.Valid {
		t.Fatal("expected invalid")
	}
	want := []string{
		"Name is required",
		"Position is required",
		"Nationality must be at least 2 characters",
	}
	if len(verdict.Errors) != len(want) {
		t.Fatalf("expected %d errors, got %v", len(want), verdict.Errors)
	}
	for i, msg := range want {
		if verdict.Errors[i] != msg {
			t.Errorf("error %d = %q, want %q", i, verdict.Errors[i], msg)
		}
	}
}

func TestValidateWarningsDoNotBlock(t *testing.T) {
	v := NewCardValidator(nil)

	card := validCard()
	card.Name = strings.Repeat("x", 26)
	verdict := v.Validate(card)
	if !verdict.Valid {
		t.Fatalf("warnings must not invalidate, got errors %v", verdict.Errors)
	}
	if len(verdict.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", verdict.Warnings)
	}

	card = validCard()
	card.Rating = 49
	if got := v.Validate(card); !got.Valid || len(got.Warnings) != 1 {
		t.Fatalf("expected low-rating warning only, got %+v", got)
	}

	card = validCard()
	card.Rating = 96
	if got := v.Validate(card); !got.Valid || len(got.Warnings) != 1 {
		t.Fatalf("expected high-rating warning only, got %+v", got)
	}
}

func TestClampSkill(t *testing.T) {
	cases := map[string]int{
		"":     75,
		"junk": 75,
		"0":    1,
		"150":  99,
		"88":   88,
		" 42 ": 42,
	}
	for input, want := range cases {
		if got := ClampSkill(input); got != want {
			t.Errorf("ClampSkill(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestSanitizeNameMasksAndBounds(t *testing.T) {
	v := NewCardValidator(nil)
	if got := v.SanitizeName("  test player  "); got != "*** player" {
		t.Fatalf("expected masked name, got %q", got)
	}
	long := v.SanitizeName(strings.Repeat("b", 60))
	if len(long) != MaxCardNameLength {
		t.Fatalf("expected name bounded to %d, got %d", MaxCardNameLength, len(long))
	}
}
