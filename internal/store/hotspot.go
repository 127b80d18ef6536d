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

var (
	// ErrTargetRequired is returned for a navigation hotspot without a target.
	ErrTargetRequired = errors.New("navigation hotspot needs a target sphere")
	// ErrTargetOutsideTour is returned when the target sphere does not
	// exist or belongs to another tour than the hotspot's sphere.
	ErrTargetOutsideTour = errors.New("target sphere is not in the same tour")
)

// HotspotStore handles hotspots. Ownership follows sphere then tour.
type HotspotStore struct {
	db *sql.DB
}

// NewHotspotStore creates a new HotspotStore.
func NewHotspotStore(db *sql.DB) *HotspotStore {
	return &HotspotStore{db: db}
}

const hotspotColumnsQualified = `h.id, h.sphere_id, h.type, h.yaw, h.pitch, h.tooltip, h.content,
	h.target_sphere_id, h.created_at, h.updated_at, h.deleted_at`

// hotspotOwned restricts h to hotspots whose tour belongs to a user.
const hotspotOwned = `h.sphere_id IN (
	SELECT s.id FROM spheres s JOIN virtual_tours t ON t.id = s.virtual_tour_id WHERE t.user_id = $2
)`

// HotspotList is the admin list endpoint for hotspots.
var HotspotList = datatable.Definition{
	From: `hotspots h
		JOIN spheres s ON s.id = h.sphere_id
		JOIN virtual_tours t ON t.id = s.virtual_tour_id`,
	Select:        hotspotColumnsQualified + `, s.name, t.id, t.name`,
	Key:           "h.id",
	Columns:       []string{"h.id", "h.type", "h.tooltip", "h.yaw", "h.pitch", "h.created_at"},
	SearchColumns: []string{"h.type", "h.tooltip", "h.content"},
	SoftDelete:    "h.deleted_at",
	DefaultOrder:  "h.created_at",
	DefaultDir:    "desc",
}

// HotspotRow is a hotspot list entry with its sphere and tour names.
type HotspotRow struct {
	models.Hotspot
	SphereName string    `json:"sphere_name"`
	TourID     uuid.UUID `json:"virtual_tour_id"`
	TourName   string    `json:"tour_name"`
}

func scanHotspot(scanner interface{ Scan(...any) error }, extra ...any) (*models.Hotspot, error) {
	var h models.Hotspot
	dest := []any{
		&h.ID, &h.SphereID, &h.Type, &h.Yaw, &h.Pitch, &h.Tooltip, &h.Content,
		&h.TargetSphereID, &h.CreatedAt, &h.UpdatedAt, &h.DeletedAt,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &h, nil
}

func collectHotspots(rows *sql.Rows) ([]models.Hotspot, error) {
	defer rows.Close()

	var items []models.Hotspot
	for rows.Next() {
		h, err := scanHotspot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hotspot: %w", err)
		}
		items = append(items, *h)
	}
	return items, rows.Err()
}

// List runs a datatable request over the user's hotspots. A non-nil
// tourID narrows the list to one tour.
func (s *HotspotStore) List(ctx context.Context, userID uuid.UUID, tourID *uuid.UUID, req datatable.Request) (*datatable.Result[HotspotRow], error) {
	scope := []datatable.Condition{datatable.Where("t.user_id = ?", userID)}
	if tourID != nil {
		scope = append(scope, datatable.Where("s.virtual_tour_id = ?", *tourID))
	}

	res, err := datatable.Run(ctx, s.db, HotspotList, req, func(rows *sql.Rows) (HotspotRow, error) {
		var row HotspotRow
		h, err := scanHotspot(rows, &row.SphereName, &row.TourID, &row.TourName)
		if err != nil {
			return HotspotRow{}, err
		}
		row.Hotspot = *h
		return row, nil
	}, scope...)
	if err != nil {
		return nil, fmt.Errorf("list hotspots: %w", err)
	}
	return res, nil
}

// FindForUser returns the user's hotspot in the given trash state, or nil.
func (s *HotspotStore) FindForUser(id, userID uuid.UUID, filter datatable.TrashFilter) (*models.Hotspot, error) {
	h, err := scanHotspot(s.db.QueryRow(`
		SELECT `+hotspotColumnsQualified+` FROM hotspots h
		WHERE h.id = $1 AND `+hotspotOwned+trashClause("h.deleted_at", filter),
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find hotspot: %w", err)
	}
	return h, nil
}

// checkTarget enforces the target rules: navigation hotspots need a target
// in the same tour as their sphere; info hotspots never keep one.
func (s *HotspotStore) checkTarget(h *models.Hotspot) error {
	if !h.IsNavigation() {
		h.TargetSphereID = nil
		return nil
	}
	if h.TargetSphereID == nil {
		return ErrTargetRequired
	}

	var same bool
	err := s.db.QueryRow(`
		SELECT a.virtual_tour_id = b.virtual_tour_id
		FROM spheres a, spheres b
		WHERE a.id = $1 AND b.id = $2`, h.SphereID, *h.TargetSphereID,
	).Scan(&same)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTargetOutsideTour
	}
	if err != nil {
		return fmt.Errorf("check hotspot target: %w", err)
	}
	if !same {
		return ErrTargetOutsideTour
	}
	return nil
}

// Create inserts a hotspot after checking its target.
func (s *HotspotStore) Create(h *models.Hotspot) (*models.Hotspot, error) {
	if err := s.checkTarget(h); err != nil {
		return nil, err
	}
	err := s.db.QueryRow(`
		INSERT INTO hotspots (sphere_id, type, yaw, pitch, tooltip, content, target_sphere_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		h.SphereID, h.Type, h.Yaw, h.Pitch, h.Tooltip, h.Content, h.TargetSphereID,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create hotspot: %w", err)
	}
	return h, nil
}

// Update saves a live hotspot after checking its target. The hotspot may
// move to another sphere; the target rule is checked against the new one.
func (s *HotspotStore) Update(h *models.Hotspot) error {
	if err := s.checkTarget(h); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		UPDATE hotspots SET
			sphere_id = $1, type = $2, yaw = $3, pitch = $4, tooltip = $5,
			content = $6, target_sphere_id = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL`,
		h.SphereID, h.Type, h.Yaw, h.Pitch, h.Tooltip, h.Content, h.TargetSphereID, h.ID,
	)
	if err != nil {
		return fmt.Errorf("update hotspot: %w", err)
	}
	return nil
}

// SoftDelete trashes one of the user's hotspots.
func (s *HotspotStore) SoftDelete(id, userID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE hotspots h SET deleted_at = COALESCE(h.deleted_at, NOW())
		WHERE h.id = $1 AND `+hotspotOwned, id, userID)
	if err != nil {
		return false, fmt.Errorf("soft delete hotspot: %w", err)
	}
	return affected(res)
}

// Restore brings back a trashed hotspot. Live rows are left untouched.
func (s *HotspotStore) Restore(id, userID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE hotspots h SET deleted_at = NULL, updated_at = NOW()
		WHERE h.id = $1 AND h.deleted_at IS NOT NULL AND `+hotspotOwned, id, userID)
	if err != nil {
		return false, fmt.Errorf("restore hotspot: %w", err)
	}
	return affected(res)
}

// ForceDelete permanently removes a hotspot. Only trashed rows qualify.
func (s *HotspotStore) ForceDelete(id, userID uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM hotspots h
		WHERE h.id = $1 AND h.deleted_at IS NOT NULL AND `+hotspotOwned, id, userID)
	if err != nil {
		return false, fmt.Errorf("force delete hotspot: %w", err)
	}
	return affected(res)
}
