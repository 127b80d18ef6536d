package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tourcms/internal/datatable"
	"tourcms/internal/models"
)

func hotspotCreateRequest(sp *models.Sphere, form url.Values, owner *models.User) *http.Request {
	req := formRequest(http.MethodPost, "/admin/spheres/"+sp.ID.String()+"/hotspots", form)
	return withChiURLParamAndSession(req, "sphereID", sp.ID.String(), sessionFor(owner))
}

func TestHotspotCreate_NavigationRules(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, models.RoleUser)
	tour := testTour(t, env, owner)
	lobby := testSphere(t, env, tour, "lobby")
	hall := testSphere(t, env, tour, "hall")
	elsewhere := testSphere(t, env, testTour(t, env, owner), "elsewhere")

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "navigation without target",
			form:       url.Values{"type": {"navigation"}, "yaw": {"10"}, "pitch": {"0"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Target sphere id is required",
		},
		{
			name:       "target in another tour",
			form:       url.Values{"type": {"navigation"}, "target_sphere_id": {elsewhere.ID.String()}},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "same virtual tour",
		},
		{
			name:       "pitch out of range",
			form:       url.Values{"type": {"info"}, "pitch": {"120"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Pitch must be at most 90",
		},
		{
			name:       "unknown type",
			form:       url.Values{"type": {"teleport"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Type must be one of",
		},
		{
			name:       "valid navigation",
			form:       url.Values{"type": {"navigation"}, "target_sphere_id": {hall.ID.String()}, "yaw": {"45"}},
			wantStatus: http.StatusSeeOther,
		},
		{
			name:       "info drops a stray target",
			form:       url.Values{"type": {"info"}, "target_sphere_id": {elsewhere.ID.String()}, "content": {"Reception desk"}},
			wantStatus: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.Admin.HotspotCreate(rec, hotspotCreateRequest(lobby, tt.form, owner))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d\n%s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantMsg != "" && !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Errorf("body does not mention %q", tt.wantMsg)
			}
			if tt.wantStatus == http.StatusSeeOther {
				want := "/admin/hotspots?virtual_tour_id=" + tour.ID.String()
				if loc := rec.Header().Get("Location"); loc != want {
					t.Errorf("Location: got %q, want %q", loc, want)
				}
			}
		})
	}
}

func TestHotspotCreate_ForeignSphereIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, models.RoleUser)
	stranger := testUser(t, env, models.RoleUser)
	sp := testSphere(t, env, testTour(t, env, owner), "lobby")

	rec := httptest.NewRecorder()
	env.Admin.HotspotCreate(rec, hotspotCreateRequest(sp, url.Values{"type": {"info"}}, stranger))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHotspotLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env, models.RoleUser)
	sp := testSphere(t, env, testTour(t, env, owner), "lobby")
	content := "Fire exit"
	h, err := env.Deps.Hotspots.Create(&models.Hotspot{SphereID: sp.ID, Type: models.HotspotInfo, Content: &content})
	if err != nil {
		t.Fatalf("create hotspot: %v", err)
	}
	sess := sessionFor(owner)
	call := func(fn http.HandlerFunc, method string) int {
		rec := httptest.NewRecorder()
		fn(rec, withChiURLParamAndSession(httptest.NewRequest(method, "/", nil), "id", h.ID.String(), sess))
		return rec.Code
	}

	if code := call(env.Admin.HotspotDelete, http.MethodDelete); code != http.StatusSeeOther {
		t.Fatalf("trash: got %d, want 303", code)
	}
	if code := call(env.Admin.HotspotEdit, http.MethodGet); code != http.StatusNotFound {
		t.Errorf("edit trashed: got %d, want 404", code)
	}
	if code := call(env.Admin.HotspotRestore, http.MethodPost); code != http.StatusSeeOther {
		t.Fatalf("restore: got %d, want 303", code)
	}
	if code := call(env.Admin.HotspotEdit, http.MethodGet); code != http.StatusOK {
		t.Errorf("edit restored: got %d, want 200", code)
	}
	if code := call(env.Admin.HotspotDelete, http.MethodDelete); code != http.StatusSeeOther {
		t.Fatalf("trash again: got %d, want 303", code)
	}
	if code := call(env.Admin.HotspotForceDelete, http.MethodDelete); code != http.StatusSeeOther {
		t.Fatalf("force delete: got %d, want 303", code)
	}

	gone, err := env.Deps.Hotspots.FindForUser(h.ID, owner.ID, datatable.FilterAll)
	if err != nil || gone != nil {
		t.Errorf("hotspot still present after force delete (err=%v)", err)
	}
}
