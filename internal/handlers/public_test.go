// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"tourcms/internal/cache"
	"tourcms/internal/models"
	"tourcms/internal/tourgraph"
)

func TestHomepage(t *testing.T) {
	env := newTestEnv(t)
	env.Deps.PageCache.Invalidate(t.Context(), cache.HomepageKey())

	rec := httptest.NewRecorder()
	env.Public.Homepage(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Explore the world in 360") {
		t.Error("homepage missing hero")
	}
	if _, ok := env.Deps.PageCache.Get(t.Context(), cache.HomepageKey()); !ok {
		t.Error("homepage was not cached")
	}
}

func TestTourPage(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, models.RoleUser)
	tour := testTour(t, env, owner)
	lobby := testSphere(t, env, tour, "lobby")
	hall := testSphere(t, env, tour, "hall")
	tooltip := "Ticket desk"
	if _, err := env.Deps.Hotspots.Create(&models.Hotspot{
		SphereID: lobby.ID, Type: models.HotspotInfo, Tooltip: &tooltip,
	}); err != nil {
		t.Fatalf("create hotspot: %v", err)
	}

	t.Run("live tour", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.Public.TourPage(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", tour.ID.String()))

		if rec.Code != http.StatusOK {
			t.Fatalf("status: got %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "/embed/tour/"+tour.ID.String()) {
			t.Error("tour page missing embed iframe")
		}
		if !strings.Contains(body, "Current Location") || !strings.Contains(body, `<p id="current-sphere">lobby</p>`) {
			t.Error("current location should start at the first sphere")
		}
		for _, sp := range []*models.Sphere{lobby, hall} {
			if !strings.Contains(body, `data-sphere="`+sp.ID.String()+`"`) {
				t.Errorf("sphere %s missing from the picker", sp.Name)
			}
		}
		if !strings.Contains(body, "Ticket desk") {
			t.Error("hotspot list missing the lobby hotspot")
		}
		if !strings.Contains(body, "sphere-changed") {
			t.Error("tour page should follow sphere-changed messages")
		}
	})

	t.Run("unknown tour", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.Public.TourPage(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", uuid.NewString()))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rec.Code)
		}
	})

	t.Run("trashed tour", func(t *testing.T) {
		if _, err := env.Deps.Tours.SoftDelete(tour.ID, owner.ID); err != nil {
			t.Fatalf("soft delete: %v", err)
		}
		env.Deps.PageCache.InvalidateTour(t.Context(), tour.ID)

		rec := httptest.NewRecorder()
		env.Public.TourPage(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", tour.ID.String()))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status: got %d, want 404", rec.Code)
		}
	})
}

func TestGraphJSON(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, models.RoleUser)
	tour := testTour(t, env, owner)
	lobby := testSphere(t, env, tour, "lobby")
	hall := testSphere(t, env, tour, "hall")
	if _, err := env.Deps.Hotspots.Create(&models.Hotspot{
		SphereID:       lobby.ID,
		Type:           models.HotspotNavigation,
		Yaw:            0,
		TargetSphereID: &hall.ID,
	}); err != nil {
		t.Fatalf("create hotspot: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Public.GraphJSON(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", tour.ID.String()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var g tourgraph.Graph
	if err := json.NewDecoder(rec.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("nodes: got %d, want 2", len(g.Nodes))
	}
	first := g.Nodes[0]
	if first.ID != lobby.ID.String() {
		t.Errorf("first node: got %s, want lobby", first.ID)
	}
	if len(first.Links) != 1 || first.Links[0].NodeID != hall.ID.String() {
		t.Errorf("lobby links: got %+v", first.Links)
	}
	// Initial yaw of 90° rotates the link into viewer space.
	if got, want := first.Links[0].Position.Yaw, tourgraph.ToRadians(90); got != want {
		t.Errorf("link yaw: got %v, want %v", got, want)
	}
}

func TestGraphJSON_UnknownTour(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.Public.GraphJSON(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "id", uuid.NewString()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Tour not found.") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestArticlePage(t *testing.T) {
	env := newTestEnv(t)
	cat := testCategory(t, env, models.CategoryArticle)
	slug := "handler-test-" + uuid.NewString()[:8]
	if _, err := env.Deps.Articles.Create(&models.Article{
		CategoryID:    cat.ID,
		Title:         "Shooting Panoramas",
		Slug:          slug,
		Content:       "# Gear\n\nUse a **nodal** slide.",
		ContentFormat: models.FormatMarkdown,
		Tags:          []string{"photography"},
	}); err != nil {
		t.Fatalf("create article: %v", err)
	}

	rec := httptest.NewRecorder()
	env.Public.ArticlePage(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "slug", slug))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>nodal</strong>") {
		t.Error("markdown body not rendered")
	}
	if !strings.Contains(body, "#photography") {
		t.Error("tags not rendered")
	}

	rec = httptest.NewRecorder()
	env.Public.ArticlePage(rec, withChiURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "slug", "missing-"+slug))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing slug: got %d, want 404", rec.Code)
	}
}

func TestListParams(t *testing.T) {
	tests := []struct {
		query    string
		page     int
		category string
	}{
		{"", 1, ""},
		{"page=3", 3, ""},
		{"page=-2", 1, ""},
		{"page=abc&category=Museums", 1, "Museums"},
	}
	for _, tt := range tests {
		page, cat := listParams(httptest.NewRequest(http.MethodGet, "/tours?"+tt.query, nil))
		if page != tt.page || cat != tt.category {
			t.Errorf("%q: got (%d, %q), want (%d, %q)", tt.query, page, cat, tt.page, tt.category)
		}
	}
}

func TestPager(t *testing.T) {
	p := newPager(1, 0, "")
	if p.Last != 1 || p.HasPrev() || p.HasNext() {
		t.Errorf("empty listing: got %+v", p)
	}
	p = newPager(2, 25, "Museums")
	if p.Last != 3 || !p.HasPrev() || !p.HasNext() {
		t.Errorf("middle page: got %+v", p)
	}
}
