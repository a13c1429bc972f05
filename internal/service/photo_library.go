package service

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/squadcards/cardforge-backend/internal/domain"
)

var ErrPhotoArchiveUnreadable = errors.New("photo archive could not be read")

// ArchiveEntry is one named file pulled out of an uploaded photo bundle.
type ArchiveEntry struct {
	Name string
	Data []byte
}

var photoExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// ReadPhotoArchive unpacks a ZIP of card photos into entries. An unreadable
// archive is a pipeline-level failure; individual entries that fail to read
// are skipped.
func ReadPhotoArchive(data []byte) ([]ArchiveEntry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhotoArchiveUnreadable, err)
	}

	entries := make([]ArchiveEntry, 0, len(reader.File))
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		payload, err := io.ReadAll(rc)
		rc.Close()
		if err != nil || len(payload) == 0 {
			continue
		}
		entries = append(entries, ArchiveEntry{Name: file.Name, Data: payload})
	}
	return entries, nil
}

// BuildPhotoLibrary keys image entries by lowercased filename with the
// extension stripped. Non-image entries are ignored.
func BuildPhotoLibrary(entries []ArchiveEntry) map[string][]byte {
	library := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		base := filepath.Base(entry.Name)
		ext := strings.ToLower(filepath.Ext(base))
		if _, ok := photoExtensions[ext]; !ok {
			continue
		}
		key := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
		library[key] = entry.Data
	}
	return library
}

// MatchPhotos attaches library images to cards that lack a photo, matching on
// the card name lowercased with whitespace turned into underscores. Matching
// is exact; cards with a photo or without a match pass through unchanged. The
// input slice is not mutated.
func MatchPhotos(cards []domain.Card, library map[string][]byte) []domain.Card {
	out := make([]domain.Card, len(cards))
	copy(out, cards)
	if len(library) == 0 {
		return out
	}
	for i := range out {
		if out[i].HasPhoto() {
			continue
		}
		if photo, ok := library[photoKeyForName(out[i].Name)]; ok {
			out[i].Photo = photo
		}
	}
	return out
}

func photoKeyForName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, lower)
}
