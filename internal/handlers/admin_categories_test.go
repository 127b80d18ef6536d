package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tourcms/internal/models"
)

func TestCategoryCreate_DuplicateNameWithinType(t *testing.T) {
	env := newTestEnv(t)
	admin := testUser(t, env, models.RoleAdmin)
	existing := testCategory(t, env, models.CategoryTour)

	req := formRequest(http.MethodPost, "/admin/categories", url.Values{
		"name": {existing.Name},
		"type": {string(models.CategoryTour)},
	})
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(admin)))
	rec := httptest.NewRecorder()
	env.Admin.CategoryCreate(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "already been taken") {
		t.Error("body missing duplicate-name message")
	}
}

func TestCategoryCreate_SameNameOtherType(t *testing.T) {
	env := newTestEnv(t)
	admin := testUser(t, env, models.RoleAdmin)
	existing := testCategory(t, env, models.CategoryTour)

	req := formRequest(http.MethodPost, "/admin/categories", url.Values{
		"name": {existing.Name},
		"type": {string(models.CategoryArticle)},
	})
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(admin)))
	rec := httptest.NewRecorder()
	env.Admin.CategoryCreate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	created, err := env.Deps.Categories.FindByName(existing.Name, models.CategoryArticle)
	if err != nil || created == nil {
		t.Fatalf("article category not created (err=%v)", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM categories WHERE id = $1", created.ID) })
}

func TestCategoryDelete_InUse(t *testing.T) {
	env := newTestEnv(t)
	admin := testUser(t, env, models.RoleAdmin)
	tour := testTour(t, env, admin)

	req := withChiURLParamAndSession(httptest.NewRequest(http.MethodDelete, "/", nil), "id", tour.CategoryID.String(), sessionFor(admin))
	rec := httptest.NewRecorder()
	env.Admin.CategoryDelete(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "still used") {
		t.Error("body missing in-use message")
	}
}

func TestCategoryDelete_Unused(t *testing.T) {
	env := newTestEnv(t)
	admin := testUser(t, env, models.RoleAdmin)
	cat := testCategory(t, env, models.CategoryArticle)

	req := withChiURLParamAndSession(httptest.NewRequest(http.MethodDelete, "/", nil), "id", cat.ID.String(), sessionFor(admin))
	rec := httptest.NewRecorder()
	env.Admin.CategoryDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want 303", rec.Code)
	}
	if got, _ := env.Deps.Categories.FindByID(cat.ID); got != nil {
		t.Error("category still exists")
	}

	entries, err := env.Deps.CacheLog.RecentEntries(50)
	if err != nil {
		t.Fatalf("cache log: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.EntityType == "category" && e.EntityID != nil && *e.EntityID == cat.ID {
			found = true
		}
	}
	if !found {
		t.Error("category delete was not logged as a cache invalidation")
	}
}
