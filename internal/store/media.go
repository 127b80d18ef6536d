// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tourcms/internal/models"
)

// MediaStore handles all media-related database operations.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, model_type, model_id, collection, filename, original_name,
	content_type, size_bytes, bucket, s3_key, thumb_s3_key, uploader_id, created_at`

// scanMedia scans a media row from the result set.
func scanMedia(scanner interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := scanner.Scan(
		&m.ID, &m.ModelType, &m.ModelID, &m.Collection, &m.Filename, &m.OriginalName,
		&m.ContentType, &m.SizeBytes, &m.Bucket, &m.S3Key, &m.ThumbS3Key, &m.UploaderID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new media record and returns it with the generated ID.
func (s *MediaStore) Create(m *models.Media) (*models.Media, error) {
	created, err := scanMedia(s.db.QueryRow(`
		INSERT INTO media (model_type, model_id, collection, filename, original_name,
			content_type, size_bytes, bucket, s3_key, thumb_s3_key, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+mediaColumns,
		m.ModelType, m.ModelID, m.Collection, m.Filename, m.OriginalName,
		m.ContentType, m.SizeBytes, m.Bucket, m.S3Key, m.ThumbS3Key, m.UploaderID,
	))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single media record by its UUID.
func (s *MediaStore) FindByID(id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRow(`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return m, nil
}

// ListFor returns the media attached to one record. An empty collection
// matches every collection. Items are ordered oldest first.
func (s *MediaStore) ListFor(owner models.MediaOwner, modelID uuid.UUID, collection string) ([]models.Media, error) {
	rows, err := s.db.Query(`
		SELECT `+mediaColumns+`
		FROM media
		WHERE model_type = $1 AND model_id = $2 AND ($3::text = '' OR collection = $3)
		ORDER BY created_at, id
	`, owner, modelID, collection)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	return collectMedia(rows)
}

// ListForMany returns the media of several records of the same kind,
// grouped by model id and ordered oldest first within each group.
func (s *MediaStore) ListForMany(owner models.MediaOwner, modelIDs []uuid.UUID) (map[uuid.UUID][]models.Media, error) {
	out := make(map[uuid.UUID][]models.Media, len(modelIDs))
	if len(modelIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(modelIDs))
	for i, id := range modelIDs {
		ids[i] = id.String()
	}

	rows, err := s.db.Query(`
		SELECT `+mediaColumns+`
		FROM media
		WHERE model_type = $1 AND model_id = ANY($2::uuid[])
		ORDER BY created_at, id
	`, owner, ids)
	if err != nil {
		return nil, fmt.Errorf("list media for models: %w", err)
	}
	items, err := collectMedia(rows)
	if err != nil {
		return nil, err
	}
	for _, m := range items {
		out[m.ModelID] = append(out[m.ModelID], m)
	}
	return out, nil
}

func collectMedia(rows *sql.Rows) ([]models.Media, error) {
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Delete removes a media record and returns it so the caller can clean
// up the corresponding S3 objects.
func (s *MediaStore) Delete(id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRow(`DELETE FROM media WHERE id = $1 RETURNING `+mediaColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media: %w", err)
	}
	return m, nil
}
