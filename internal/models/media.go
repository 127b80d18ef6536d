// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaOwner is the kind of record a media item is attached to.
type MediaOwner string

const (
	OwnerSphere  MediaOwner = "sphere"
	OwnerArticle MediaOwner = "article"
)

// Named media collections.
const (
	CollectionSphereFile  = "sphere_file"
	CollectionSphereImage = "sphere_image"
	CollectionCover       = "cover"
)

// Media represents a file uploaded to S3-compatible object storage and
// attached to a sphere or an article under a named collection.
// Metadata is stored in PostgreSQL; the file itself lives in the bucket.
type Media struct {
	ID           uuid.UUID  `json:"id"`
	ModelType    MediaOwner `json:"model_type"`
	ModelID      uuid.UUID  `json:"model_id"`
	Collection   string     `json:"collection"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"original_name"`
	ContentType  string     `json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	Bucket       string     `json:"bucket"`
	S3Key        string     `json:"s3_key"`
	ThumbS3Key   *string    `json:"thumb_s3_key,omitempty"`
	UploaderID   *uuid.UUID `json:"uploader_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	// URL is resolved by the storage layer when the record is loaded for display.
	URL string `json:"url,omitempty"`
}

// IsImage reports whether the declared content type is image/*. MIME types
// are case-insensitive.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(m.ContentType), "image/")
}

// IsPanorama reports whether the item is a sphere's panorama: an image in
// the sphere_file collection of a sphere.
func (m *Media) IsPanorama() bool {
	return m.ModelType == OwnerSphere && m.Collection == CollectionSphereFile && m.IsImage()
}

// HumanSize returns a human-readable file size string.
func (m *Media) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case m.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(m.SizeBytes)/float64(mb))
	case m.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(m.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
}
