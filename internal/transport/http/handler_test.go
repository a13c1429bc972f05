package http

import (
	"strings"
	"testing"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

func TestImportFormat(t *testing.T) {
	cases := []struct {
		filename string
		explicit string
		want     domain.ImportFormat
	}{
		{"cards.csv", "", domain.ImportFormatCSV},
		{"cards.json", "", domain.ImportFormatJSON},
		{"CARDS.JSON", "", domain.ImportFormatJSON},
		{"cards.txt", "", domain.ImportFormatCSV},
		{"cards.csv", "json", domain.ImportFormatJSON},
		{"cards.json", "csv", domain.ImportFormatCSV},
		{"cards.json", " CSV ", domain.ImportFormatCSV},
	}
	for _, tc := range cases {
		if got := importFormat(tc.filename, tc.explicit); got != tc.want {
			t.Errorf("importFormat(%q, %q) = %s, want %s", tc.filename, tc.explicit, got, tc.want)
		}
	}
}

func TestAttachmentFilename(t *testing.T) {
	if got := attachment("Larry Mota", "png"); got != `attachment; filename="larry_mota.png"` {
		t.Fatalf("unexpected header %q", got)
	}
	if got := attachment("  ", "zip"); got != `attachment; filename="card.zip"` {
		t.Fatalf("unexpected fallback header %q", got)
	}
}

func TestSummarizeBodyRedactsSecrets(t *testing.T) {
	body := []byte(`{"email":"dev@example.com","password":"hunter22!!","photo":"aGVsbG8=","nested":{"token":"abc"}}`)
	summary := summarizeBody(body, "application/json")

	m, ok := summary.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map summary, got %T", summary)
	}
	if m["password"] != "redacted" || m["photo"] != "redacted" {
		t.Fatalf("credentials not redacted: %v", m)
	}
	nested, ok := m["nested"].(map[string]interface{})
	if !ok || nested["token"] != "redacted" {
		t.Fatalf("nested token not redacted: %v", m["nested"])
	}
	if m["email"] != "dev@example.com" {
		t.Fatalf("plain field must survive: %v", m["email"])
	}
}

func TestSummarizeBodyPlaceholders(t *testing.T) {
	if got := summarizeBody([]byte("--boundary--"), "multipart/form-data; boundary=x"); got != "multipart-upload" {
		t.Fatalf("expected multipart placeholder, got %v", got)
	}
	if got := summarizeBody([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png"); got != "binary" {
		t.Fatalf("expected binary placeholder, got %v", got)
	}
	if got := summarizeBody(nil, "application/json"); got != nil {
		t.Fatalf("expected nil for empty body, got %v", got)
	}
}

func TestClampTextTruncates(t *testing.T) {
	out := clampText(strings.Repeat("a", maxLoggedBody+100))
	if !strings.HasSuffix(out, "...(truncated)") {
		t.Fatalf("expected truncation marker, got tail %q", out[len(out)-20:])
	}
	if len(out) > maxLoggedBody+len("...(truncated)") {
		t.Fatalf("output too long: %d", len(out))
	}
}
