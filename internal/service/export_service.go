package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/squadcards/cardforge-backend/internal/domain"
	"github.com/squadcards/cardforge-backend/internal/repository/ports"
)

const (
	cardWidth  = 360
	cardHeight = 500
)

type themePalette struct {
	background color.RGBA
	accent     color.RGBA
	text       color.RGBA
}

var themePalettes = map[domain.Theme]themePalette{
	domain.ThemeGoldClassic:   {color.RGBA{0xf5, 0xd7, 0x6e, 0xff}, color.RGBA{0x8a, 0x6d, 0x1a, 0xff}, color.RGBA{0x2b, 0x21, 0x00, 0xff}},
	domain.ThemeDarkModeIT:    {color.RGBA{0x1e, 0x22, 0x2b, 0xff}, color.RGBA{0x3d, 0xd6, 0x8c, 0xff}, color.RGBA{0xe8, 0xea, 0xf0, 0xff}},
	domain.ThemeSilverModern:  {color.RGBA{0xd9, 0xdd, 0xe3, 0xff}, color.RGBA{0x6b, 0x72, 0x80, 0xff}, color.RGBA{0x1c, 0x1f, 0x26, 0xff}},
	domain.ThemeBronzeVintage: {color.RGBA{0xc8, 0x9b, 0x6d, 0xff}, color.RGBA{0x6e, 0x47, 0x22, 0xff}, color.RGBA{0x2e, 0x1d, 0x0a, 0xff}},
	domain.ThemeTOTW:          {color.RGBA{0x14, 0x14, 0x1e, 0xff}, color.RGBA{0xff, 0xc4, 0x2e, 0xff}, color.RGBA{0xff, 0xf6, 0xdd, 0xff}},
}

type ExportServiceConfig struct {
	PhotoBucket  string
	ExportBucket string
}

// ExportService rasterizes cards to PNG and packages PDF and ZIP downloads.
// Finished exports are archived to object storage when a bucket is set.
type ExportService struct {
	storage      ports.ObjectStorage
	photoBucket  string
	exportBucket string
	now          func() time.Time
}

func NewExportService(storage ports.ObjectStorage, cfg ExportServiceConfig) *ExportService {
	return &ExportService{
		storage:      storage,
		photoBucket:  cfg.PhotoBucket,
		exportBucket: cfg.ExportBucket,
		now:          time.Now,
	}
}

// RenderPNG draws one card: theme background, header band with rating and
// position, the photo when stored, and a six-row skill table.
func (s *ExportService) RenderPNG(ctx context.Context, card domain.Card) ([]byte, error) {
	palette, ok := themePalettes[card.Theme]
	if !ok {
		palette = themePalettes[domain.ThemeGoldClassic]
	}

	canvas := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{palette.background}, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, cardWidth, 64), &image.Uniform{palette.accent}, image.Point{}, draw.Src)

	drawText(canvas, 16, 28, fmt.Sprintf("%d", card.Rating), palette.background)
	drawText(canvas, 16, 48, string(card.Position), palette.background)
	drawText(canvas, cardWidth-16-7*len(card.Nationality), 28, card.Nationality, palette.background)

	if err := s.drawPhoto(ctx, canvas, card); err != nil {
		return nil, err
	}

	drawText(canvas, centerX(card.Name), 312, card.Name, palette.text)

	labels := []string{"TEC", "LEA", "CRE", "REL", "COL", "ADA"}
	values := card.Skills.Values()
	for i, label := range labels {
		y := 344 + i*24
		drawText(canvas, 24, y, label, palette.text)
		drawText(canvas, 64, y, fmt.Sprintf("%2d", values[i]), palette.text)
		barWidth := values[i] * 240 / 99
		bar := image.Rect(100, y-10, 100+barWidth, y-2)
		draw.Draw(canvas, bar, &image.Uniform{palette.accent}, image.Point{}, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("export: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPNG renders the card and archives the result.
func (s *ExportService) ExportPNG(ctx context.Context, card domain.Card) ([]byte, error) {
	data, err := s.RenderPNG(ctx, card)
	if err != nil {
		return nil, err
	}
	s.archive(ctx, exportObjectName(card.ID.String(), "png"), "image/png", data)
	return data, nil
}

// ExportPDF lays the rendered card onto a single A4 page with a caption.
func (s *ExportService) ExportPDF(ctx context.Context, card domain.Card) ([]byte, error) {
	raster, err := s.RenderPNG(ctx, card)
	if err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, card.Name, "", 1, "C", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 8, fmt.Sprintf("%s / %s / overall %d", card.Position, card.Nationality, card.Rating), "", 1, "C", false, 0, "")

	imageName := "card-" + card.ID.String()
	doc.RegisterImageOptionsReader(imageName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(raster))
	doc.ImageOptions(imageName, 57, 40, 96, 0, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: build pdf: %w", err)
	}
	data := buf.Bytes()
	s.archive(ctx, exportObjectName(card.ID.String(), "pdf"), "application/pdf", data)
	return data, nil
}

// ExportZIP bundles one PNG per card. Cards that fail to render fail the
// whole bundle; a partial archive would silently drop cards.
func (s *ExportService) ExportZIP(ctx context.Context, cards []domain.Card) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, card := range cards {
		raster, err := s.RenderPNG(ctx, card)
		if err != nil {
			return nil, err
		}
		entry, err := writer.Create(zipEntryName(card))
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(raster); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	data := buf.Bytes()
	s.archive(ctx, exportObjectName(fmt.Sprintf("bundle-%d", s.now().Unix()), "zip"), "application/zip", data)
	return data, nil
}

func (s *ExportService) drawPhoto(ctx context.Context, canvas *image.RGBA, card domain.Card) error {
	payload := card.Photo
	if len(payload) == 0 && card.PhotoKey != nil && s.storage != nil && s.photoBucket != "" {
		data, err := s.storage.Download(ctx, s.photoBucket, *card.PhotoKey)
		if err != nil {
			return nil
		}
		payload = data
	}
	if len(payload) == 0 {
		return nil
	}

	src, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil
	}

	target := image.Rect(cardWidth/2-100, 84, cardWidth/2+100, 284)
	xdraw.CatmullRom.Scale(canvas, target, src, src.Bounds(), xdraw.Over, nil)
	return nil
}

func (s *ExportService) archive(ctx context.Context, objectName, contentType string, data []byte) {
	if s.storage == nil || s.exportBucket == "" {
		return
	}
	_, _ = s.storage.Upload(ctx, s.exportBucket, objectName, contentType, bytes.NewReader(data), int64(len(data)))
}

func drawText(canvas *image.RGBA, x, y int, text string, col color.RGBA) {
	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

func centerX(text string) int {
	width := 7 * len(text)
	x := (cardWidth - width) / 2
	if x < 8 {
		return 8
	}
	return x
}

func exportObjectName(stem, ext string) string {
	return fmt.Sprintf("cards/exports/%s.%s", stem, ext)
}

func zipEntryName(card domain.Card) string {
	name := strings.ToLower(strings.TrimSpace(card.Name))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		name = "card"
	}
	return fmt.Sprintf("%s-%s.png", name, card.ID.String()[:8])
}
