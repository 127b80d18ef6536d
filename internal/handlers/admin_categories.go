package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/store"
)

// CategoriesList renders categories with their usage counts and the
// inline creation form.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	a.renderCategories(w, r, http.StatusOK, categoryForm{Type: string(models.CategoryTour)}, "")
}

// CategoryCreate adds a category. Names are unique per type.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	f := bindCategoryForm(r)

	if msg := a.checkCategoryForm(f, nil); msg != "" {
		a.renderCategories(w, r, http.StatusUnprocessableEntity, f, msg)
		return
	}

	c, err := a.Categories.Create(&models.Category{Name: f.Name, Type: models.CategoryType(f.Type)})
	if err != nil {
		slog.Error("create category failed", "error", err)
		a.renderCategories(w, r, http.StatusInternalServerError, f, "Failed to save category.")
		return
	}

	a.invalidateAllCache(r.Context(), "category", c.ID, "create", &sess.UserID)
	redirect(w, r, "/admin/categories")
}

// CategoryUpdate renames a category or changes its type.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	c := a.findCategory(w, r)
	if c == nil {
		return
	}

	f := bindCategoryForm(r)
	if msg := a.checkCategoryForm(f, c); msg != "" {
		a.renderCategories(w, r, http.StatusUnprocessableEntity, f, msg)
		return
	}

	c.Name = f.Name
	c.Type = models.CategoryType(f.Type)
	if err := a.Categories.Update(c); err != nil {
		slog.Error("update category failed", "error", err)
		a.renderCategories(w, r, http.StatusInternalServerError, f, "Failed to save category.")
		return
	}

	a.invalidateAllCache(r.Context(), "category", c.ID, "update", &sess.UserID)
	redirect(w, r, "/admin/categories")
}

// CategoryDelete removes an unused category.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	c := a.findCategory(w, r)
	if c == nil {
		return
	}

	if err := a.Categories.Delete(c.ID); err != nil {
		if errors.Is(err, store.ErrCategoryInUse) {
			a.renderCategories(w, r, http.StatusConflict, categoryForm{Type: string(c.Type)},
				"The category \""+c.Name+"\" is still used and cannot be deleted.")
			return
		}
		slog.Error("delete category failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.invalidateAllCache(r.Context(), "category", c.ID, "delete", &sess.UserID)
	redirect(w, r, "/admin/categories")
}

func (a *Admin) findCategory(w http.ResponseWriter, r *http.Request) *models.Category {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil
	}
	c, err := a.Categories.FindByID(id)
	if err != nil {
		slog.Error("find category failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if c == nil {
		http.NotFound(w, r)
		return nil
	}
	return c
}

// checkCategoryForm validates f and rejects a name already used by
// another category of the same type.
func (a *Admin) checkCategoryForm(f categoryForm, current *models.Category) string {
	if msg := formError(f); msg != "" {
		return msg
	}
	existing, err := a.Categories.FindByName(f.Name, models.CategoryType(f.Type))
	if err != nil {
		slog.Error("find category by name failed", "error", err)
		return "Failed to save category."
	}
	if existing != nil && (current == nil || existing.ID != current.ID) {
		return "The name has already been taken."
	}
	return ""
}

func (a *Admin) renderCategories(w http.ResponseWriter, r *http.Request, status int, f categoryForm, errMsg string) {
	categories, err := a.Categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	data := map[string]any{
		"Categories": categories,
		"Form":       f,
		"Types":      []models.CategoryType{models.CategoryTour, models.CategoryArticle},
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}

	a.Renderer.PageStatus(w, r, status, "categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    data,
	})
}
