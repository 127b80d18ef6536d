package models

import (
	"time"

	"github.com/google/uuid"
)

// VirtualTour is a named collection of spheres owned by one user.
type VirtualTour struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CategoryID  uuid.UUID  `json:"category_id"`
	UserID      uuid.UUID  `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`

	// Relations populated by store loaders.
	Category    *Category `json:"category,omitempty"`
	Spheres     []Sphere  `json:"spheres,omitempty"`
	SphereCount int       `json:"sphere_count"`
}

// Trashed reports whether the tour is soft-deleted.
func (t *VirtualTour) Trashed() bool {
	return t.DeletedAt != nil
}

// Sphere is one 360° panorama within a tour.
type Sphere struct {
	ID            uuid.UUID `json:"id"`
	VirtualTourID uuid.UUID `json:"virtual_tour_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	InitialYaw    float64   `json:"initial_yaw"` // degrees
	SphereFile    *string   `json:"sphere_file,omitempty"`
	SphereImage   *string   `json:"sphere_image,omitempty"`
	SortOrder     int       `json:"sort_order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Media    []Media   `json:"media,omitempty"`
	Hotspots []Hotspot `json:"hotspots,omitempty"`
}

// HotspotType distinguishes navigation links from informational markers.
type HotspotType string

const (
	HotspotNavigation HotspotType = "navigation"
	HotspotInfo       HotspotType = "info"
)

// Hotspot is an interactive point on a sphere. Yaw and pitch are degrees
// in the sphere's own unrotated frame.
type Hotspot struct {
	ID             uuid.UUID   `json:"id"`
	SphereID       uuid.UUID   `json:"sphere_id"`
	Type           HotspotType `json:"type"`
	Yaw            float64     `json:"yaw"`
	Pitch          float64     `json:"pitch"`
	Tooltip        *string     `json:"tooltip,omitempty"`
	Content        *string     `json:"content,omitempty"`
	TargetSphereID *uuid.UUID  `json:"target_sphere_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	DeletedAt      *time.Time  `json:"deleted_at,omitempty"`
}

// IsNavigation reports whether the hotspot links to another sphere.
func (h *Hotspot) IsNavigation() bool {
	return h.Type == HotspotNavigation
}

// Trashed reports whether the hotspot is soft-deleted.
func (h *Hotspot) Trashed() bool {
	return h.DeletedAt != nil
}
