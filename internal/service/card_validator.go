package service

import (
	"strconv"
	"strings"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/sanitize"
)

const (
	// MaxCardNameLength bounds a card name after sanitization.
	MaxCardNameLength = 30

	defaultSkillValue = 75
	skillMin          = 1
	skillMax          = 99
)

type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CardValidator normalizes loosely-typed card input and separates blocking
// errors from advisory warnings. A card with warnings but no errors is still
// accepted.
type CardValidator struct {
	sanitizer *sanitize.Sanitizer
}

func NewCardValidator(sanitizer *sanitize.Sanitizer) *CardValidator {
	if sanitizer == nil {
		sanitizer = sanitize.New(nil)
	}
	return &CardValidator{sanitizer: sanitizer}
}

// SanitizeName trims, masks and bounds a card name.
func (v *CardValidator) SanitizeName(raw string) string {
	return v.sanitizer.Clean(raw, MaxCardNameLength)
}

// ClampInt parses raw as an integer, substituting def when unparsable and
// clamping the result to [lo,hi].
func ClampInt(raw string, def, lo, hi int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		value = def
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// ClampSkill bounds one skill cell, defaulting missing or garbage input to 75.
func ClampSkill(raw string) int {
	return ClampInt(raw, defaultSkillValue, skillMin, skillMax)
}

// Validate checks one card. Errors block acceptance; warnings do not.
func (v *CardValidator) Validate(card domain.Card) ValidationResult {
	var errs []string
	var warnings []string

	name := strings.TrimSpace(card.Name)
	if name == "" {
		errs = append(errs, "Name is required")
	}
	if card.Position == "" {
		errs = append(errs, "Position is required")
	}
	if len(strings.TrimSpace(card.Nationality)) < 2 {
		errs = append(errs, "Nationality must be at least 2 characters")
	}

	if len(name) > 25 {
		warnings = append(warnings, "Name longer than 25 characters may overflow the card")
	}
	if card.Rating < 50 {
		warnings = append(warnings, "Rating below 50 is unusually low")
	}
	if card.Rating > 95 {
		warnings = append(warnings, "Rating above 95 is reserved for exceptional players")
	}

	return ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
