// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tourcms/internal/datatable"
	"tourcms/internal/models"
)

// TourStore handles virtual tours. Every admin query is scoped to the
// owning user; rows outside that scope behave as if they did not exist.
type TourStore struct {
	db *sql.DB
}

// NewTourStore creates a new TourStore.
func NewTourStore(db *sql.DB) *TourStore {
	return &TourStore{db: db}
}

// tourSelect is shared by single-row lookups and list queries. It joins
// the category name and counts spheres.
const tourSelect = `t.id, t.name, t.description, t.category_id, t.user_id,
	t.created_at, t.updated_at, t.deleted_at, c.name, c.type,
	(SELECT COUNT(*) FROM spheres s WHERE s.virtual_tour_id = t.id)`

const tourFrom = `virtual_tours t JOIN categories c ON c.id = t.category_id`

// TourList is the admin list endpoint for tours.
var TourList = datatable.Definition{
	From:          tourFrom,
	Select:        tourSelect,
	Key:           "t.id",
	Columns:       []string{"t.id", "t.name", "t.description", "t.created_at", "t.updated_at"},
	SearchColumns: []string{"t.name"},
	SoftDelete:    "t.deleted_at",
	DefaultOrder:  "t.created_at",
	DefaultDir:    "desc",
}

func scanTour(scanner interface{ Scan(...any) error }) (*models.VirtualTour, error) {
	var t models.VirtualTour
	cat := &models.Category{}
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Description, &t.CategoryID, &t.UserID,
		&t.CreatedAt, &t.UpdatedAt, &t.DeletedAt, &cat.Name, &cat.Type,
		&t.SphereCount,
	)
	if err != nil {
		return nil, err
	}
	cat.ID = t.CategoryID
	t.Category = cat
	return &t, nil
}

// List runs a datatable request over the user's tours.
func (s *TourStore) List(ctx context.Context, userID uuid.UUID, req datatable.Request) (*datatable.Result[models.VirtualTour], error) {
	res, err := datatable.Run(ctx, s.db, TourList, req, func(rows *sql.Rows) (models.VirtualTour, error) {
		t, err := scanTour(rows)
		if err != nil {
			return models.VirtualTour{}, err
		}
		return *t, nil
	}, datatable.Where("t.user_id = ?", userID))
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	return res, nil
}

// FindForUser returns the user's tour in the given trash state, or nil.
func (s *TourStore) FindForUser(id, userID uuid.UUID, filter datatable.TrashFilter) (*models.VirtualTour, error) {
	t, err := scanTour(s.db.QueryRow(`
		SELECT `+tourSelect+` FROM `+tourFrom+`
		WHERE t.id = $1 AND t.user_id = $2`+trashClause("t.deleted_at", filter),
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tour: %w", err)
	}
	return t, nil
}

// FindPublic returns a non-trashed tour regardless of owner, or nil.
func (s *TourStore) FindPublic(id uuid.UUID) (*models.VirtualTour, error) {
	t, err := scanTour(s.db.QueryRow(`
		SELECT `+tourSelect+` FROM `+tourFrom+`
		WHERE t.id = $1 AND t.deleted_at IS NULL`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find public tour: %w", err)
	}
	return t, nil
}

// LoadSpheres fills t.Spheres ordered by sort_order then creation, each
// with its live hotspots and attached media. Media URLs are left empty
// for the caller to resolve against storage.
func (s *TourStore) LoadSpheres(t *models.VirtualTour) error {
	rows, err := s.db.Query(`SELECT `+sphereColumns+` FROM spheres
		WHERE virtual_tour_id = $1 ORDER BY sort_order, created_at, id`, t.ID)
	if err != nil {
		return fmt.Errorf("load spheres: %w", err)
	}
	spheres, err := collectSpheres(rows)
	if err != nil {
		return err
	}

	index := make(map[uuid.UUID]int, len(spheres))
	ids := make([]uuid.UUID, len(spheres))
	for i := range spheres {
		index[spheres[i].ID] = i
		ids[i] = spheres[i].ID
	}

	hrows, err := s.db.Query(`
		SELECT `+hotspotColumnsQualified+`
		FROM hotspots h JOIN spheres s ON s.id = h.sphere_id
		WHERE s.virtual_tour_id = $1 AND h.deleted_at IS NULL
		ORDER BY h.created_at, h.id`, t.ID)
	if err != nil {
		return fmt.Errorf("load hotspots: %w", err)
	}
	hotspots, err := collectHotspots(hrows)
	if err != nil {
		return err
	}
	for _, h := range hotspots {
		if i, ok := index[h.SphereID]; ok {
			spheres[i].Hotspots = append(spheres[i].Hotspots, h)
		}
	}

	media, err := NewMediaStore(s.db).ListForMany(models.OwnerSphere, ids)
	if err != nil {
		return err
	}
	for i := range spheres {
		spheres[i].Media = media[spheres[i].ID]
	}

	t.Spheres = spheres
	t.SphereCount = len(spheres)
	return nil
}

// NameTaken reports whether a live tour other than exclude already uses name.
func (s *TourStore) NameTaken(name string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := s.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM virtual_tours
			WHERE name = $1 AND id <> $2 AND deleted_at IS NULL
		)`, name, exclude).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check tour name: %w", err)
	}
	return taken, nil
}

// Create inserts a tour owned by t.UserID.
func (s *TourStore) Create(t *models.VirtualTour) (*models.VirtualTour, error) {
	err := s.db.QueryRow(`
		INSERT INTO virtual_tours (name, description, category_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		t.Name, t.Description, t.CategoryID, t.UserID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	return t, nil
}

// Update saves name, description and category of a live tour owned by
// t.UserID. It reports whether a row was changed.
func (s *TourStore) Update(t *models.VirtualTour) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE virtual_tours
		SET name = $1, description = $2, category_id = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5 AND deleted_at IS NULL`,
		t.Name, t.Description, t.CategoryID, t.ID, t.UserID,
	)
	if err != nil {
		return false, fmt.Errorf("update tour: %w", err)
	}
	return affected(res)
}

// SoftDelete moves the tour to the trash. Trashing twice keeps the
// first deletion time.
func (s *TourStore) SoftDelete(id, userID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE virtual_tours SET deleted_at = COALESCE(deleted_at, NOW())
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("soft delete tour: %w", err)
	}
	return affected(res)
}

// Restore brings a trashed tour back. Live tours are left untouched.
func (s *TourStore) Restore(id, userID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE virtual_tours SET deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NOT NULL`, id, userID)
	if err != nil {
		return false, fmt.Errorf("restore tour: %w", err)
	}
	return affected(res)
}

// ForceDelete permanently removes a tour, live or trashed, together with
// its spheres and hotspots. The media records of its spheres are deleted
// in the same transaction and returned so the caller can remove the files.
func (s *TourStore) ForceDelete(id, userID uuid.UUID) ([]models.Media, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		DELETE FROM media
		WHERE model_type = $1 AND model_id IN (
			SELECT s.id FROM spheres s JOIN virtual_tours t ON t.id = s.virtual_tour_id
			WHERE t.id = $2 AND t.user_id = $3
		)
		RETURNING `+mediaColumns, models.OwnerSphere, id, userID)
	if err != nil {
		return nil, fmt.Errorf("delete tour media: %w", err)
	}
	removed, err := collectMedia(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM virtual_tours WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return nil, fmt.Errorf("force delete tour: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit force delete: %w", err)
	}
	return removed, nil
}

// Count returns the number of live tours owned by userID.
func (s *TourStore) Count(userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM virtual_tours WHERE user_id = $1 AND deleted_at IS NULL`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tours: %w", err)
	}
	return n, nil
}

// Recent returns the user's newest live tours.
func (s *TourStore) Recent(userID uuid.UUID, limit int) ([]models.VirtualTour, error) {
	rows, err := s.db.Query(`
		SELECT `+tourSelect+` FROM `+tourFrom+`
		WHERE t.user_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent tours: %w", err)
	}
	return collectTours(rows)
}

// Latest returns the newest live tours across all owners.
func (s *TourStore) Latest(limit int) ([]models.VirtualTour, error) {
	rows, err := s.db.Query(`
		SELECT `+tourSelect+` FROM `+tourFrom+`
		WHERE t.deleted_at IS NULL
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest tours: %w", err)
	}
	return collectTours(rows)
}

// ListPublic pages through live tours, newest first, optionally limited
// to one category by name. It returns the page and the total match count.
func (s *TourStore) ListPublic(category string, page, perPage int) ([]models.VirtualTour, int, error) {
	if page < 1 {
		page = 1
	}

	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM `+tourFrom+`
		WHERE t.deleted_at IS NULL AND ($1::text = '' OR c.name = $1)`, category,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count public tours: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+tourSelect+` FROM `+tourFrom+`
		WHERE t.deleted_at IS NULL AND ($1::text = '' OR c.name = $1)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`, category, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list public tours: %w", err)
	}
	tours, err := collectTours(rows)
	if err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

func collectTours(rows *sql.Rows) ([]models.VirtualTour, error) {
	defer rows.Close()

	var items []models.VirtualTour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// trashClause renders the soft-delete predicate for a single-row lookup.
func trashClause(column string, filter datatable.TrashFilter) string {
	switch filter {
	case datatable.FilterTrashed:
		return " AND " + column + " IS NOT NULL"
	case datatable.FilterAll:
		return ""
	default:
		return " AND " + column + " IS NULL"
	}
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
