// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging sniffs uploaded panoramas and covers and produces the
// downscaled JPEG preview stored next to each original.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// ThumbWidth is the preview width in pixels.
	ThumbWidth = 400

	// ThumbQuality is the JPEG quality for previews.
	ThumbQuality = 80

	// MaxPixels caps decoded size. Equirectangular panoramas run large;
	// 16384x8192 is the biggest supported.
	MaxPixels = 16384 * 8192
)

// ErrUnsupportedType is returned for content other than JPEG, PNG or WebP.
var ErrUnsupportedType = errors.New("unsupported image type")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Sniff detects the content type of data and checks it is an accepted
// image type.
func Sniff(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if _, ok := extensions[ct]; !ok {
		return ct, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return ct, nil
}

// Extension returns the file extension for an accepted content type.
func Extension(contentType string) string {
	return extensions[contentType]
}

// ProcessedImage is an encoded preview ready for upload.
type ProcessedImage struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string
}

// Thumbnail scales the image down to maxWidth preserving aspect ratio and
// encodes it as JPEG. Images already narrower than maxWidth are re-encoded
// at their own size so every upload gets a preview.
func Thumbnail(data []byte, maxWidth int) (*ProcessedImage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return &ProcessedImage{Width: w, Height: h, Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}
