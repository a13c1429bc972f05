package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestProcessPassesThroughSmallImages(t *testing.T) {
	p := NewResizeProcessor(100)
	data := encodePNG(t, 40, 30)

	result, err := p.Process(context.Background(), Upload{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		FileName:    "small.png",
		ContentType: "image/png",
	}, 0)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Resized {
		t.Fatal("image within limit must not be resized")
	}
	if !bytes.Equal(result.Bytes, data) {
		t.Fatal("pass-through must keep the original bytes")
	}
}

func TestProcessDownscalesLargeImages(t *testing.T) {
	p := NewResizeProcessor(100)
	data := encodePNG(t, 400, 200)

	result, err := p.Process(context.Background(), Upload{
		Reader:      bytes.NewReader(data),
		Size:        int64(len(data)),
		FileName:    "big.png",
		ContentType: "image/png",
	}, 100)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Resized {
		t.Fatal("expected resize")
	}
	if result.ContentType != "image/png" {
		t.Fatalf("expected png output, got %s", result.ContentType)
	}

	img, err := png.Decode(bytes.NewReader(result.Bytes))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Fatalf("expected 100x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessRejectsGarbage(t *testing.T) {
	p := NewResizeProcessor(100)
	if _, err := p.Process(context.Background(), Upload{
		Reader:   bytes.NewReader([]byte("not an image")),
		FileName: "junk.png",
	}, 0); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestScaleToFit(t *testing.T) {
	cases := []struct {
		w, h, max, wantW, wantH int
	}{
		{400, 200, 100, 100, 50},
		{200, 400, 100, 50, 100},
		{300, 300, 100, 100, 100},
		{1000, 3, 100, 100, 2},
	}
	for _, tc := range cases {
		gotW, gotH := scaleToFit(tc.w, tc.h, tc.max)
		if gotW != tc.wantW || gotH != tc.wantH {
			t.Errorf("scaleToFit(%d,%d,%d) = %dx%d, want %dx%d", tc.w, tc.h, tc.max, gotW, gotH, tc.wantW, tc.wantH)
		}
	}
}

func TestNormalizeContentType(t *testing.T) {
	cases := map[[2]string]string{
		{"image/jpg", ""}:      "image/jpeg",
		{"IMAGE/PNG", ""}:      "image/png",
		{"", "photo.JPG"}:      "image/jpeg",
		{"", "photo.webp"}:     "image/webp",
		{"", "mystery"}:        "image/jpeg",
	}
	for input, want := range cases {
		if got := normalizeContentType(input[0], input[1]); got != want {
			t.Errorf("normalizeContentType(%q, %q) = %q, want %q", input[0], input[1], got, want)
		}
	}
}
