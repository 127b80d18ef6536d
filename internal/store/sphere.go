package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tourcms/internal/models"
)

// SphereStore handles spheres. Ownership follows the parent tour.
type SphereStore struct {
	db *sql.DB
}

// NewSphereStore creates a new SphereStore.
func NewSphereStore(db *sql.DB) *SphereStore {
	return &SphereStore{db: db}
}

const sphereColumns = `id, virtual_tour_id, name, description, initial_yaw,
	sphere_file, sphere_image, sort_order, created_at, updated_at`

func scanSphere(scanner interface{ Scan(...any) error }) (*models.Sphere, error) {
	var sp models.Sphere
	err := scanner.Scan(
		&sp.ID, &sp.VirtualTourID, &sp.Name, &sp.Description, &sp.InitialYaw,
		&sp.SphereFile, &sp.SphereImage, &sp.SortOrder, &sp.CreatedAt, &sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func collectSpheres(rows *sql.Rows) ([]models.Sphere, error) {
	defer rows.Close()

	var items []models.Sphere
	for rows.Next() {
		sp, err := scanSphere(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sphere: %w", err)
		}
		items = append(items, *sp)
	}
	return items, rows.Err()
}

// FindForUser returns a sphere whose tour is live and owned by userID, or nil.
func (s *SphereStore) FindForUser(id, userID uuid.UUID) (*models.Sphere, error) {
	sp, err := scanSphere(s.db.QueryRow(`
		SELECT s.id, s.virtual_tour_id, s.name, s.description, s.initial_yaw,
		       s.sphere_file, s.sphere_image, s.sort_order, s.created_at, s.updated_at
		FROM spheres s JOIN virtual_tours t ON t.id = s.virtual_tour_id
		WHERE s.id = $1 AND t.user_id = $2 AND t.deleted_at IS NULL`, id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find sphere: %w", err)
	}
	return sp, nil
}

// ListByTour returns a tour's spheres in display order.
func (s *SphereStore) ListByTour(tourID uuid.UUID) ([]models.Sphere, error) {
	rows, err := s.db.Query(`SELECT `+sphereColumns+` FROM spheres
		WHERE virtual_tour_id = $1 ORDER BY sort_order, created_at, id`, tourID)
	if err != nil {
		return nil, fmt.Errorf("list spheres: %w", err)
	}
	return collectSpheres(rows)
}

// Create appends a sphere to the end of its tour.
func (s *SphereStore) Create(sp *models.Sphere) (*models.Sphere, error) {
	created, err := scanSphere(s.db.QueryRow(`
		INSERT INTO spheres (virtual_tour_id, name, description, initial_yaw, sphere_file, sphere_image, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM spheres WHERE virtual_tour_id = $1))
		RETURNING `+sphereColumns,
		sp.VirtualTourID, sp.Name, sp.Description, sp.InitialYaw, sp.SphereFile, sp.SphereImage,
	))
	if err != nil {
		return nil, fmt.Errorf("create sphere: %w", err)
	}
	return created, nil
}

// Update saves a sphere's editable fields.
func (s *SphereStore) Update(sp *models.Sphere) error {
	_, err := s.db.Exec(`
		UPDATE spheres SET
			name = $1, description = $2, initial_yaw = $3,
			sphere_file = $4, sphere_image = $5, sort_order = $6, updated_at = NOW()
		WHERE id = $7`,
		sp.Name, sp.Description, sp.InitialYaw, sp.SphereFile, sp.SphereImage, sp.SortOrder, sp.ID,
	)
	if err != nil {
		return fmt.Errorf("update sphere: %w", err)
	}
	return nil
}

// Delete removes a sphere and its hotspots. Navigation hotspots elsewhere
// that targeted it lose their target (ON DELETE SET NULL). Media records
// are returned for file cleanup.
func (s *SphereStore) Delete(id uuid.UUID) ([]models.Media, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`DELETE FROM media WHERE model_type = $1 AND model_id = $2 RETURNING `+mediaColumns,
		models.OwnerSphere, id)
	if err != nil {
		return nil, fmt.Errorf("delete sphere media: %w", err)
	}
	removed, err := collectMedia(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM spheres WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete sphere: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sphere delete: %w", err)
	}
	return removed, nil
}

// Count returns the number of spheres in the user's live tours.
func (s *SphereStore) Count(userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM spheres s JOIN virtual_tours t ON t.id = s.virtual_tour_id
		WHERE t.user_id = $1 AND t.deleted_at IS NULL`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count spheres: %w", err)
	}
	return n, nil
}

// Latest returns the newest spheres of live tours across all owners,
// with their media attached.
func (s *SphereStore) Latest(limit int) ([]models.Sphere, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.virtual_tour_id, s.name, s.description, s.initial_yaw,
		       s.sphere_file, s.sphere_image, s.sort_order, s.created_at, s.updated_at
		FROM spheres s JOIN virtual_tours t ON t.id = s.virtual_tour_id
		WHERE t.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest spheres: %w", err)
	}
	spheres, err := collectSpheres(rows)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(spheres))
	for i := range spheres {
		ids[i] = spheres[i].ID
	}
	media, err := NewMediaStore(s.db).ListForMany(models.OwnerSphere, ids)
	if err != nil {
		return nil, err
	}
	for i := range spheres {
		spheres[i].Media = media[spheres[i].ID]
	}
	return spheres, nil
}
