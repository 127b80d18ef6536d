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

// ErrCategoryInUse is returned when deleting a category that still has
// tours or articles attached.
var ErrCategoryInUse = errors.New("category is in use")

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, type, created_at, updated_at`

// categoryUsage counts the live tours or articles of a category, depending on its type.
const categoryUsage = `
	CASE c.type
		WHEN 'virtual tour' THEN (SELECT COUNT(*) FROM virtual_tours t WHERE t.category_id = c.id AND t.deleted_at IS NULL)
		ELSE (SELECT COUNT(*) FROM articles a WHERE a.category_id = c.id)
	END`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	if err := scanner.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by type and name, with usage counts.
func (s *CategoryStore) List() ([]models.Category, error) {
	return s.list(`
		SELECT c.id, c.name, c.type, c.created_at, c.updated_at,` + categoryUsage + `
		FROM categories c
		ORDER BY c.type, c.name
	`)
}

// ListByType returns the categories of one type ordered by name, with usage counts.
func (s *CategoryStore) ListByType(typ models.CategoryType) ([]models.Category, error) {
	return s.list(`
		SELECT c.id, c.name, c.type, c.created_at, c.updated_at,`+categoryUsage+`
		FROM categories c
		WHERE c.type = $1
		ORDER BY c.name
	`, typ)
}

func (s *CategoryStore) list(query string, args ...any) ([]models.Category, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt, &c.UpdatedAt, &c.UsageCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindByName retrieves a category by name within a type. Returns nil if not found.
func (s *CategoryStore) FindByName(name string, typ models.CategoryType) (*models.Category, error) {
	c, err := scanCategory(s.db.QueryRow(
		`SELECT `+categoryColumns+` FROM categories WHERE name = $1 AND type = $2`, name, typ,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(c *models.Category) (*models.Category, error) {
	result, err := scanCategory(s.db.QueryRow(`
		INSERT INTO categories (name, type)
		VALUES ($1, $2)
		RETURNING `+categoryColumns,
		c.Name, c.Type,
	))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(c *models.Category) error {
	_, err := s.db.Exec(`
		UPDATE categories SET name = $1, type = $2, updated_at = NOW()
		WHERE id = $3
	`, c.Name, c.Type, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category by ID. Categories still referenced by a tour
// (trashed ones included) or an article return ErrCategoryInUse.
func (s *CategoryStore) Delete(id uuid.UUID) error {
	var used bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM virtual_tours WHERE category_id = $1)
		    OR EXISTS (SELECT 1 FROM articles WHERE category_id = $1)
	`, id).Scan(&used)
	if err != nil {
		return fmt.Errorf("check category usage: %w", err)
	}
	if used {
		return ErrCategoryInUse
	}

	if _, err := s.db.Exec(`DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
