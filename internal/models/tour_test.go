package models

import (
	"testing"
	"time"
)

func TestHotspotIsNavigation(t *testing.T) {
	tests := []struct {
		typ  HotspotType
		want bool
	}{
		{HotspotNavigation, true},
		{HotspotInfo, false},
		{HotspotType(""), false},
	}
	for _, tt := range tests {
		h := &Hotspot{Type: tt.typ}
		if got := h.IsNavigation(); got != tt.want {
			t.Errorf("Hotspot{Type: %q}.IsNavigation() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestTrashed(t *testing.T) {
	now := time.Now()

	if (&VirtualTour{}).Trashed() {
		t.Error("tour without deleted_at should not be trashed")
	}
	if !(&VirtualTour{DeletedAt: &now}).Trashed() {
		t.Error("tour with deleted_at should be trashed")
	}
	if (&Hotspot{}).Trashed() {
		t.Error("hotspot without deleted_at should not be trashed")
	}
	if !(&Hotspot{DeletedAt: &now}).Trashed() {
		t.Error("hotspot with deleted_at should be trashed")
	}
}

func TestCategoryTypeValid(t *testing.T) {
	tests := []struct {
		typ  CategoryType
		want bool
	}{
		{CategoryTour, true},
		{CategoryArticle, true},
		{CategoryType("page"), false},
		{CategoryType("Virtual Tour"), false},
	}
	for _, tt := range tests {
		if got := tt.typ.Valid(); got != tt.want {
			t.Errorf("CategoryType(%q).Valid() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}
