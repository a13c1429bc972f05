package domain

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Position is the role printed on a card. Unknown input normalizes to DEV.
type Position string

const (
	PositionDev  Position = "DEV"
	PositionOps  Position = "OPS"
	PositionData Position = "DATA"
	PositionPM   Position = "PM"
	PositionQA   Position = "QA"
	PositionUX   Position = "UX"
	PositionSec  Position = "SEC"
	PositionArch Position = "ARCH"
)

var Positions = []Position{
	PositionDev, PositionOps, PositionData, PositionPM,
	PositionQA, PositionUX, PositionSec, PositionArch,
}

// Theme selects the visual card template.
type Theme string

const (
	ThemeGoldClassic   Theme = "gold-classic"
	ThemeDarkModeIT    Theme = "dark-mode-it"
	ThemeSilverModern  Theme = "silver-modern"
	ThemeBronzeVintage Theme = "bronze-vintage"
	ThemeTOTW          Theme = "totw"
)

var Themes = []Theme{
	ThemeGoldClassic, ThemeDarkModeIT, ThemeSilverModern,
	ThemeBronzeVintage, ThemeTOTW,
}

// SkillSet holds the six card skills, each expected in [1,99].
type SkillSet struct {
	Technical     int `db:"technical" json:"technical"`
	Leadership    int `db:"leadership" json:"leadership"`
	Creativity    int `db:"creativity" json:"creativity"`
	Reliability   int `db:"reliability" json:"reliability"`
	Collaboration int `db:"collaboration" json:"collaboration"`
	Adaptability  int `db:"adaptability" json:"adaptability"`
}

// Values returns the skills in their canonical order.
func (s SkillSet) Values() [6]int {
	return [6]int{s.Technical, s.Leadership, s.Creativity, s.Reliability, s.Collaboration, s.Adaptability}
}

// AggregateRating is the rounded mean of the six skills. Half values round
// away from zero, matching the card designer's displayed overall.
func AggregateRating(s SkillSet) int {
	sum := 0
	for _, v := range s.Values() {
		sum += v
	}
	return int(math.Round(float64(sum) / 6.0))
}

// Card is one player card. Photo and Logo carry raw image payloads while a
// card moves through import and matching; persisted cards reference uploaded
// objects via PhotoKey and LogoKey instead.
type Card struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Position     Position  `db:"position" json:"position"`
	Nationality  string    `db:"nationality" json:"nationality"`
	Rating       int       `db:"rating" json:"rating"`
	RatingManual bool      `db:"rating_manual" json:"rating_manual"`
	Skills       SkillSet  `db:"skills" json:"skills"`
	Theme        Theme     `db:"theme" json:"theme"`
	Photo        []byte    `db:"-" json:"-"`
	Logo         []byte    `db:"-" json:"-"`
	PhotoKey     *string   `db:"photo_key" json:"photo_key,omitempty"`
	LogoKey      *string   `db:"logo_key" json:"logo_key,omitempty"`
	CreatedBy    uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HasPhoto reports whether a card already carries or references a photo.
func (c *Card) HasPhoto() bool {
	return len(c.Photo) > 0 || (c.PhotoKey != nil && *c.PhotoKey != "")
}

// EnforceRating recomputes the overall from the skills unless the rating was
// supplied manually. Call after any skill mutation.
func (c *Card) EnforceRating() {
	if !c.RatingManual {
		c.Rating = AggregateRating(c.Skills)
	}
}

// NormalizePosition upper-cases raw and checks it against the known codes.
// Anything else falls back to DEV; the fallback is silent on purpose, the
// importer treats an unknown role as a default rather than an error.
func NormalizePosition(raw string) Position {
	candidate := Position(strings.ToUpper(strings.TrimSpace(raw)))
	for _, p := range Positions {
		if candidate == p {
			return p
		}
	}
	return PositionDev
}

// NormalizeTheme checks raw against the known templates and falls back to
// gold-classic, mirroring NormalizePosition's silent-default policy.
func NormalizeTheme(raw string) Theme {
	candidate := Theme(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range Themes {
		if candidate == t {
			return t
		}
	}
	return ThemeGoldClassic
}
