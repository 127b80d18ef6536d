// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryType discriminates which listing a category belongs to.
type CategoryType string

const (
	CategoryTour    CategoryType = "virtual tour"
	CategoryArticle CategoryType = "article"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryTour || t == CategoryArticle
}

// Category groups tours or articles, depending on Type.
type Category struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`

	// Populated by stats queries.
	UsageCount int `json:"usage_count"`
}
