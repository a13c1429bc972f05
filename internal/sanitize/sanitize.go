package sanitize

import "strings"

const mask = "***"

// DefaultBlocklist masks words that must never land on a rendered card.
// Config may replace it wholesale; the list is fixed at construction time.
var DefaultBlocklist = []string{"test", "dummy", "fake", "admin"}

// Sanitizer trims, masks blocked words and truncates free-text card fields.
type Sanitizer struct {
	blocklist []string
}

func New(blocklist []string) *Sanitizer {
	if blocklist == nil {
		blocklist = DefaultBlocklist
	}
	return &Sanitizer{blocklist: blocklist}
}

// Clean trims whitespace, replaces every case-insensitive occurrence of a
// blocked word with "***" and truncates the result to maxLength, reserving
// three characters for a trailing ellipsis. The returned string never
// exceeds maxLength.
func (s *Sanitizer) Clean(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 50
	}
	out := strings.TrimSpace(text)
	for _, word := range s.blocklist {
		out = replaceFold(out, word)
	}
	if len(out) > maxLength {
		out = out[:maxLength-3] + "..."
	}
	return out
}

func replaceFold(text, word string) string {
	if word == "" {
		return text
	}
	lower := strings.ToLower(text)
	target := strings.ToLower(word)

	var builder strings.Builder
	start := 0
	for {
		idx := strings.Index(lower[start:], target)
		if idx < 0 {
			builder.WriteString(text[start:])
			return builder.String()
		}
		abs := start + idx
		builder.WriteString(text[start:abs])
		builder.WriteString(mask)
		start = abs + len(target)
	}
}
