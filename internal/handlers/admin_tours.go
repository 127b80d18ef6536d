// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"tourcms/internal/datatable"
	"tourcms/internal/embedding"
	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/tourgraph"
)

// ToursList renders the tour management page. The table is rendered
// server-side from the same list query the JSON endpoint serves.
func (a *Admin) ToursList(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	req := datatable.ParseRequest(r.URL.Query())

	res, err := a.Tours.List(r.Context(), sess.UserID, req)
	if err != nil {
		slog.Error("list tours failed", "error", err)
	}

	a.Renderer.Page(w, r, "tours_list", &render.PageData{
		Title:   "Virtual Tours",
		Section: "tours",
		Data: map[string]any{
			"Result": res,
			"Filter": string(req.Filter),
			"Search": req.Search,
		},
	})
}

// ToursData serves the tour list as JSON.
func (a *Admin) ToursData(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	res, err := a.Tours.List(r.Context(), sess.UserID, datatable.ParseRequest(r.URL.Query()))
	if err != nil {
		slog.Error("list tours failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load tours.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// TourNew renders the tour creation form.
func (a *Admin) TourNew(w http.ResponseWriter, r *http.Request) {
	a.renderTourForm(w, r, http.StatusOK, nil, tourForm{}, "")
}

// TourCreate handles the tour creation form.
func (a *Admin) TourCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	f := bindTourForm(r)

	categoryID, msg := a.checkTourForm(f, uuid.Nil)
	if msg != "" {
		a.renderTourForm(w, r, http.StatusUnprocessableEntity, nil, f, msg)
		return
	}

	t, err := a.Tours.Create(&models.VirtualTour{
		Name:        f.Name,
		Description: f.Description,
		CategoryID:  categoryID,
		UserID:      sess.UserID,
	})
	if err != nil {
		slog.Error("create tour failed", "error", err)
		a.renderTourForm(w, r, http.StatusInternalServerError, nil, f, "Failed to save virtual tour.")
		return
	}

	a.invalidateTourCache(r.Context(), t.ID, "create", &sess.UserID)
	slog.Info("tour created", "tour", t.ID, "user", sess.Email)
	redirect(w, r, "/admin/virtual-tour/"+t.ID.String())
}

// TourShow renders a tour with its spheres, the viewer preview and the
// embed snippets. Trashed tours remain visible to their owner.
func (a *Admin) TourShow(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	t, err := a.Tours.FindForUser(id, sess.UserID, datatable.FilterAll)
	if err != nil {
		slog.Error("find tour failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.NotFound(w, r)
		return
	}

	data := map[string]any{
		"Tour":      t,
		"EmbedCode": embedding.NewCode(a.BaseURL, t.ID, t.Name, 0, 0),
	}

	g, err := a.projectTour(r.Context(), t)
	switch {
	case errors.Is(err, tourgraph.ErrEmptyGraph):
		data["GraphError"] = "This tour has no spheres yet."
	case err != nil:
		slog.Error("project tour failed", "tour", t.ID, "error", err)
		data["GraphError"] = "Virtual Tour Unavailable"
	default:
		data["Graph"] = g
		if len(g.Nodes) == 0 {
			data["GraphError"] = "This tour has no spheres yet."
		}
	}

	a.Renderer.Page(w, r, "tour_show", &render.PageData{
		Title:   t.Name,
		Section: "tours",
		Data:    data,
	})
}

// TourEdit renders the edit form for a live tour.
func (a *Admin) TourEdit(w http.ResponseWriter, r *http.Request) {
	t := a.findLiveTour(w, r)
	if t == nil {
		return
	}
	a.renderTourForm(w, r, http.StatusOK, t, tourForm{
		CategoryID:  t.CategoryID.String(),
		Name:        t.Name,
		Description: t.Description,
	}, "")
}

// TourUpdate saves a live tour. Names are unique among live tours.
func (a *Admin) TourUpdate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	t := a.findLiveTour(w, r)
	if t == nil {
		return
	}

	f := bindTourForm(r)
	categoryID, msg := a.checkTourForm(f, t.ID)
	if msg != "" {
		a.renderTourForm(w, r, http.StatusUnprocessableEntity, t, f, msg)
		return
	}

	t.Name = f.Name
	t.Description = f.Description
	t.CategoryID = categoryID
	updated, err := a.Tours.Update(t)
	if err != nil {
		slog.Error("update tour failed", "error", err)
		a.renderTourForm(w, r, http.StatusInternalServerError, t, f, "Failed to save virtual tour.")
		return
	}
	if !updated {
		http.NotFound(w, r)
		return
	}

	a.invalidateTourCache(r.Context(), t.ID, "update", &sess.UserID)
	redirect(w, r, "/admin/virtual-tour/"+t.ID.String())
}

// TourDelete moves a tour to the trash.
func (a *Admin) TourDelete(w http.ResponseWriter, r *http.Request) {
	a.tourLifecycle(w, r, "trash", a.Tours.SoftDelete)
}

// TourRestore brings a trashed tour back.
func (a *Admin) TourRestore(w http.ResponseWriter, r *http.Request) {
	a.tourLifecycle(w, r, "restore", a.Tours.Restore)
}

func (a *Admin) tourLifecycle(w http.ResponseWriter, r *http.Request, action string, op func(id, userID uuid.UUID) (bool, error)) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	changed, err := op(id, sess.UserID)
	if err != nil {
		slog.Error("tour "+action+" failed", "tour", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !changed {
		http.NotFound(w, r)
		return
	}

	a.invalidateTourCache(r.Context(), id, action, &sess.UserID)
	slog.Info("tour "+action, "tour", id, "user", sess.Email)
	redirect(w, r, "/admin/virtual-tour")
}

// TourForceDelete permanently removes a tour, trashed or not, with its
// spheres, hotspots and media files.
func (a *Admin) TourForceDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	t, err := a.Tours.FindForUser(id, sess.UserID, datatable.FilterAll)
	if err != nil {
		slog.Error("find tour failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.NotFound(w, r)
		return
	}

	removed, err := a.Tours.ForceDelete(id, sess.UserID)
	if err != nil {
		slog.Error("force delete tour failed", "tour", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.removeFiles(r.Context(), removed)

	a.invalidateTourCache(r.Context(), id, "delete", &sess.UserID)
	slog.Info("tour deleted permanently", "tour", id, "user", sess.Email, "media", len(removed))
	redirect(w, r, "/admin/virtual-tour?filter="+string(datatable.FilterTrashed))
}

// TourEmbedCode returns the iframe and link snippets as JSON. Optional
// width and height query parameters size the iframe.
func (a *Admin) TourEmbedCode(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	t, err := a.Tours.FindForUser(id, sess.UserID, datatable.FilterActive)
	if err != nil {
		slog.Error("find tour failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load tour.")
		return
	}
	if t == nil {
		writeJSONError(w, http.StatusNotFound, "Tour not found.")
		return
	}

	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	height, _ := strconv.Atoi(r.URL.Query().Get("height"))
	writeJSON(w, http.StatusOK, embedding.NewCode(a.BaseURL, t.ID, t.Name, width, height))
}

// findLiveTour loads the {id} tour if it is live and owned by the session
// user. It writes the error response and returns nil otherwise.
func (a *Admin) findLiveTour(w http.ResponseWriter, r *http.Request) *models.VirtualTour {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil
	}
	t, err := a.Tours.FindForUser(id, sess.UserID, datatable.FilterActive)
	if err != nil {
		slog.Error("find tour failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if t == nil {
		http.NotFound(w, r)
		return nil
	}
	return t
}

// checkTourForm validates f and resolves its category. exclude is the
// tour being edited; uuid.Nil on create skips the name check.
func (a *Admin) checkTourForm(f tourForm, exclude uuid.UUID) (uuid.UUID, string) {
	if msg := formError(f); msg != "" {
		return uuid.Nil, msg
	}

	categoryID := uuid.MustParse(f.CategoryID)
	cat, err := a.Categories.FindByID(categoryID)
	if err != nil {
		slog.Error("find category failed", "error", err)
		return uuid.Nil, "Failed to save virtual tour."
	}
	if cat == nil || cat.Type != models.CategoryTour {
		return uuid.Nil, "The selected category is invalid."
	}

	if exclude != uuid.Nil {
		taken, err := a.Tours.NameTaken(f.Name, exclude)
		if err != nil {
			slog.Error("check tour name failed", "error", err)
			return uuid.Nil, "Failed to save virtual tour."
		}
		if taken {
			return uuid.Nil, "The name has already been taken."
		}
	}
	return categoryID, ""
}

func (a *Admin) renderTourForm(w http.ResponseWriter, r *http.Request, status int, t *models.VirtualTour, f tourForm, errMsg string) {
	categories, err := a.Categories.ListByType(models.CategoryTour)
	if err != nil {
		slog.Error("list tour categories failed", "error", err)
	}

	title := "New Virtual Tour"
	if t != nil {
		title = "Edit " + t.Name
	}
	data := map[string]any{
		"Tour":       t,
		"Form":       f,
		"Categories": categories,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}

	a.Renderer.PageStatus(w, r, status, "tour_form", &render.PageData{
		Title:   title,
		Section: "tours",
		Data:    data,
	})
}
