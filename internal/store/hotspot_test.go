package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"tourcms/internal/datatable"
	"tourcms/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestHotspotStoreTargetRules(t *testing.T) {
	db := testDB(t)
	s := NewHotspotStore(db)
	owner := testUser(t, db)

	tour := testTour(t, db, owner, "Targets "+uuid.NewString()[:8])
	other := testTour(t, db, owner, "Elsewhere "+uuid.NewString()[:8])
	a := testSphere(t, db, tour, "A")
	b := testSphere(t, db, tour, "B")
	foreign := testSphere(t, db, other, "Foreign")

	tests := []struct {
		name    string
		h       models.Hotspot
		wantErr error
	}{
		{"same tour", models.Hotspot{SphereID: a.ID, Type: models.HotspotNavigation, TargetSphereID: &b.ID}, nil},
		{"missing target", models.Hotspot{SphereID: a.ID, Type: models.HotspotNavigation}, ErrTargetRequired},
		{"other tour", models.Hotspot{SphereID: a.ID, Type: models.HotspotNavigation, TargetSphereID: &foreign.ID}, ErrTargetOutsideTour},
		{"unknown sphere", models.Hotspot{SphereID: a.ID, Type: models.HotspotNavigation, TargetSphereID: ptr(uuid.New())}, ErrTargetOutsideTour},
		{"info drops target", models.Hotspot{SphereID: a.ID, Type: models.HotspotInfo, TargetSphereID: &b.ID}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.h
			created, err := s.Create(&h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && !created.IsNavigation() && created.TargetSphereID != nil {
				t.Error("info hotspot kept a target")
			}
		})
	}
}

func TestHotspotStoreListAndLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewHotspotStore(db)
	owner := testUser(t, db)
	intruder := testUser(t, db)

	tour := testTour(t, db, owner, "Hotspots "+uuid.NewString()[:8])
	sp := testSphere(t, db, tour, "Room")

	marker := "Marker " + uuid.NewString()[:8]
	h, err := s.Create(&models.Hotspot{SphereID: sp.ID, Type: models.HotspotInfo, Tooltip: &marker, Content: ptr("Details")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ctx := context.Background()
	res, err := s.List(ctx, owner.ID, &tour.ID, listReq(datatable.FilterActive, marker))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Data) != 1 || res.Data[0].ID != h.ID {
		t.Fatalf("List rows = %+v", res.Data)
	}
	if res.Data[0].SphereName != "Room" || res.Data[0].TourID != tour.ID {
		t.Errorf("row context = %q / %s", res.Data[0].SphereName, res.Data[0].TourID)
	}

	// Another user sees nothing and cannot mutate.
	res, _ = s.List(ctx, intruder.ID, nil, listReq(datatable.FilterAll, marker))
	if len(res.Data) != 0 {
		t.Error("another user's hotspot appeared in the list")
	}
	if found, _ := s.FindForUser(h.ID, intruder.ID, datatable.FilterAll); found != nil {
		t.Error("FindForUser returned another user's hotspot")
	}
	if ok, _ := s.SoftDelete(h.ID, intruder.ID); ok {
		t.Error("SoftDelete trashed another user's hotspot")
	}

	// Force delete needs the trash.
	if ok, _ := s.ForceDelete(h.ID, owner.ID); ok {
		t.Error("ForceDelete removed a live hotspot")
	}
	if ok, err := s.SoftDelete(h.ID, owner.ID); err != nil || !ok {
		t.Fatalf("SoftDelete: ok=%v err=%v", ok, err)
	}
	res, _ = s.List(ctx, owner.ID, &tour.ID, listReq(datatable.FilterTrashed, ""))
	if len(res.Data) != 1 {
		t.Errorf("trashed rows = %d, want 1", len(res.Data))
	}
	if ok, err := s.Restore(h.ID, owner.ID); err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Restore(h.ID, owner.ID); ok {
		t.Error("second Restore should not touch a live row")
	}
	s.SoftDelete(h.ID, owner.ID)
	if ok, err := s.ForceDelete(h.ID, owner.ID); err != nil || !ok {
		t.Fatalf("ForceDelete: ok=%v err=%v", ok, err)
	}
	if found, _ := s.FindForUser(h.ID, owner.ID, datatable.FilterAll); found != nil {
		t.Error("hotspot still present after force delete")
	}
}
