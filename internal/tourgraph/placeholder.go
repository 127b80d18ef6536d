package tourgraph

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	PlaceholderWidth  = 2048
	PlaceholderHeight = 1024

	placeholderQuality  = 80
	placeholderTitle    = "Virtual Tour Preview"
	placeholderSubtitle = "Media not available"

	// Caption scale factors over the 13px bitmap face.
	titleScale    = 4
	subtitleScale = 2
	subtitleGap   = 60
)

// gradientStops run top to bottom.
var gradientStops = []struct {
	at float64
	c  color.RGBA
}{
	{0, color.RGBA{0x87, 0xCE, 0xEB, 0xFF}},
	{0.5, color.RGBA{0x98, 0xFB, 0x98, 0xFF}},
	{1, color.RGBA{0x90, 0xEE, 0x90, 0xFF}},
}

var captionColor = color.RGBA{0x33, 0x33, 0x33, 0xFF}

// tinyGIF is a 1x1 image used only if JPEG encoding of the placeholder fails.
const tinyGIF = "data:image/gif;base64,R0lGODlhAQABAIAAAP///wAAACH5BAEAAAAALAAAAAABAAEAAAICRAEAOw=="

var (
	placeholderOnce sync.Once
	placeholderURL  string
)

// Placeholder returns the stand-in panorama as a JPEG data URL. The image
// is identical for every node, so it is rendered once per process.
func Placeholder() string {
	placeholderOnce.Do(func() {
		url, err := PlaceholderDataURL(PlaceholderWidth, PlaceholderHeight)
		if err != nil {
			slog.Error("placeholder render failed", "error", err)
			url = tinyGIF
		}
		placeholderURL = url
	})
	return placeholderURL
}

// PlaceholderDataURL renders a w×h placeholder and encodes it as a data URL.
func PlaceholderDataURL(w, h int) (string, error) {
	img := PlaceholderImage(w, h)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: placeholderQuality}); err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PlaceholderImage draws the vertical gradient with the centred caption.
func PlaceholderImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		c := gradientAt(t)
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			row[x*4] = c.R
			row[x*4+1] = c.G
			row[x*4+2] = c.B
			row[x*4+3] = 0xFF
		}
	}

	drawCaption(img, placeholderTitle, titleScale, w/2, h/2)
	drawCaption(img, placeholderSubtitle, subtitleScale, w/2, h/2+subtitleGap)
	return img
}

func gradientAt(t float64) color.RGBA {
	for i := 1; i < len(gradientStops); i++ {
		lo, hi := gradientStops[i-1], gradientStops[i]
		if t <= hi.at {
			f := (t - lo.at) / (hi.at - lo.at)
			return color.RGBA{
				R: lerp(lo.c.R, hi.c.R, f),
				G: lerp(lo.c.G, hi.c.G, f),
				B: lerp(lo.c.B, hi.c.B, f),
				A: 0xFF,
			}
		}
	}
	return gradientStops[len(gradientStops)-1].c
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*f + 0.5)
}

// drawCaption renders text with the bitmap face onto a scratch image and
// scales it onto dst, centred horizontally on cx with its middle on cy.
func drawCaption(dst *image.RGBA, text string, scale, cx, cy int) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	tw := font.MeasureString(face, text).Ceil()
	th := metrics.Height.Ceil()
	if tw == 0 || th == 0 {
		return
	}

	scratch := image.NewRGBA(image.Rect(0, 0, tw, th))
	d := &font.Drawer{
		Dst:  scratch,
		Src:  image.NewUniform(captionColor),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(text)

	sw, sh := tw*scale, th*scale
	target := image.Rect(cx-sw/2, cy-sh/2, cx-sw/2+sw, cy-sh/2+sh)
	draw.NearestNeighbor.Scale(dst, target, scratch, scratch.Bounds(), draw.Over, nil)
}
