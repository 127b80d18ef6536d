package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentFormat tells the renderer how to turn Article.Content into HTML.
type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
)

// Article is a blog entry belonging to an article category.
type Article struct {
	ID            uuid.UUID     `json:"id"`
	CategoryID    uuid.UUID     `json:"category_id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Content       string        `json:"content"`
	ContentFormat ContentFormat `json:"content_format"`
	Tags          []string      `json:"tags"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Category *Category `json:"category,omitempty"`
	Cover    *Media    `json:"cover,omitempty"`
}
