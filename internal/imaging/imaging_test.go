package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	ct, err := Sniff(encodePNG(t, 4, 2))
	if err != nil || ct != "image/png" {
		t.Errorf("Sniff(png) = %q, %v", ct, err)
	}
	if Extension(ct) != ".png" {
		t.Errorf("Extension(%q) = %q", ct, Extension(ct))
	}

	if _, err := Sniff([]byte("%PDF-1.7 hello")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("Sniff(pdf) err = %v, want ErrUnsupportedType", err)
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"panorama scaled", 2000, 1000, 400, 200},
		{"narrow kept", 300, 150, 300, 150},
		{"very flat stays at least one row", 4000, 2, 400, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Thumbnail(encodePNG(t, tt.w, tt.h), ThumbWidth)
			if err != nil {
				t.Fatalf("Thumbnail: %v", err)
			}
			if p.Width != tt.wantW || p.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", p.Width, p.Height, tt.wantW, tt.wantH)
			}
			if p.ContentType != "image/jpeg" {
				t.Errorf("content type = %q", p.ContentType)
			}
			cfg, err := jpeg.DecodeConfig(bytes.NewReader(p.Data))
			if err != nil {
				t.Fatalf("output is not JPEG: %v", err)
			}
			if cfg.Width != tt.wantW {
				t.Errorf("encoded width = %d", cfg.Width)
			}
		})
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	if _, err := Thumbnail([]byte("not an image"), ThumbWidth); err == nil {
		t.Error("expected error for garbage input")
	}
}
