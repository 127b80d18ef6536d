package embedding

import (
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Code holds the copy-paste snippets for embedding one tour.
type Code struct {
	URL    string `json:"url"`
	IFrame string `json:"iframe"`
	Link   string `json:"link"`
}

// EmbedURL returns the public embed page URL for a tour under baseURL.
func EmbedURL(baseURL string, tourID uuid.UUID) string {
	return strings.TrimRight(baseURL, "/") + "/embed/tour/" + tourID.String()
}

// NewCode builds the iframe and link snippets. Non-positive dimensions
// fall back to 800x600.
func NewCode(baseURL string, tourID uuid.UUID, tourName string, width, height int) Code {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	u := EmbedURL(baseURL, tourID)
	src := html.EscapeString(u)

	return Code{
		URL: u,
		IFrame: fmt.Sprintf(`<iframe src="%s" width="%d" height="%d" frameborder="0" allowfullscreen `+
			`allow="accelerometer; gyroscope; fullscreen" loading="lazy"></iframe>`, src, width, height),
		Link: fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">View Virtual Tour: %s</a>`,
			src, html.EscapeString(tourName)),
	}
}
