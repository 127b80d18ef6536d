package handlers

import (
	"log/slog"
	"net/http"

	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
)

// SphereNew renders the form for adding a sphere to a live tour.
func (a *Admin) SphereNew(w http.ResponseWriter, r *http.Request) {
	t := a.findLiveTour(w, r)
	if t == nil {
		return
	}
	a.renderSphereForm(w, r, http.StatusOK, t, nil, sphereForm{}, "")
}

// SphereCreate appends a sphere to the tour.
func (a *Admin) SphereCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	t := a.findLiveTour(w, r)
	if t == nil {
		return
	}

	f, err := bindSphereForm(r)
	if err != nil {
		a.renderSphereForm(w, r, http.StatusUnprocessableEntity, t, nil, f, err.Error())
		return
	}
	if msg := formError(f); msg != "" {
		a.renderSphereForm(w, r, http.StatusUnprocessableEntity, t, nil, f, msg)
		return
	}

	sp := &models.Sphere{VirtualTourID: t.ID}
	f.apply(sp)
	created, err := a.Spheres.Create(sp)
	if err != nil {
		slog.Error("create sphere failed", "error", err)
		a.renderSphereForm(w, r, http.StatusInternalServerError, t, nil, f, "Failed to save sphere.")
		return
	}

	a.invalidateTourCache(r.Context(), t.ID, "sphere_create", &sess.UserID)
	redirect(w, r, "/admin/spheres/"+created.ID.String()+"/edit")
}

// SphereEdit renders the edit form with the sphere's media.
func (a *Admin) SphereEdit(w http.ResponseWriter, r *http.Request) {
	sp, t := a.findSphere(w, r)
	if sp == nil {
		return
	}
	a.renderSphereForm(w, r, http.StatusOK, t, sp, sphereForm{
		Name:        sp.Name,
		Description: sp.Description,
		InitialYaw:  sp.InitialYaw,
		SphereFile:  deref(sp.SphereFile),
		SphereImage: deref(sp.SphereImage),
		SortOrder:   sp.SortOrder,
	}, "")
}

// SphereUpdate saves a sphere.
func (a *Admin) SphereUpdate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	sp, t := a.findSphere(w, r)
	if sp == nil {
		return
	}

	f, err := bindSphereForm(r)
	if err != nil {
		a.renderSphereForm(w, r, http.StatusUnprocessableEntity, t, sp, f, err.Error())
		return
	}
	if msg := formError(f); msg != "" {
		a.renderSphereForm(w, r, http.StatusUnprocessableEntity, t, sp, f, msg)
		return
	}

	f.apply(sp)
	if err := a.Spheres.Update(sp); err != nil {
		slog.Error("update sphere failed", "error", err)
		a.renderSphereForm(w, r, http.StatusInternalServerError, t, sp, f, "Failed to save sphere.")
		return
	}

	a.invalidateTourCache(r.Context(), t.ID, "sphere_update", &sess.UserID)
	redirect(w, r, "/admin/virtual-tour/"+t.ID.String())
}

// SphereDelete removes a sphere with its hotspots and media files.
// Navigation hotspots that pointed at it lose their target.
func (a *Admin) SphereDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	sp, t := a.findSphere(w, r)
	if sp == nil {
		return
	}

	removed, err := a.Spheres.Delete(sp.ID)
	if err != nil {
		slog.Error("delete sphere failed", "sphere", sp.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.removeFiles(r.Context(), removed)

	a.invalidateTourCache(r.Context(), t.ID, "sphere_delete", &sess.UserID)
	slog.Info("sphere deleted", "sphere", sp.ID, "tour", t.ID, "user", sess.Email)
	redirect(w, r, "/admin/virtual-tour/"+t.ID.String())
}

// findSphere loads the {sphereID} sphere and its live tour, both scoped
// to the session user. It writes the error response and returns nils
// otherwise.
func (a *Admin) findSphere(w http.ResponseWriter, r *http.Request) (*models.Sphere, *models.VirtualTour) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "sphereID")
	if !ok {
		return nil, nil
	}

	sp, err := a.Spheres.FindForUser(id, sess.UserID)
	if err != nil {
		slog.Error("find sphere failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil
	}
	if sp == nil {
		http.NotFound(w, r)
		return nil, nil
	}

	t, err := a.Tours.FindPublic(sp.VirtualTourID)
	if err != nil || t == nil {
		slog.Error("find sphere tour failed", "sphere", sp.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil
	}
	return sp, t
}

func (a *Admin) renderSphereForm(w http.ResponseWriter, r *http.Request, status int, t *models.VirtualTour, sp *models.Sphere, f sphereForm, errMsg string) {
	title := "New Sphere"
	data := map[string]any{
		"Tour":           t,
		"Sphere":         sp,
		"Form":           f,
		"StorageEnabled": a.Storage != nil,
	}
	if sp != nil {
		title = "Edit " + sp.Name
		media, err := a.Media.ListFor(models.OwnerSphere, sp.ID, "")
		if err != nil {
			slog.Error("list sphere media failed", "error", err)
		}
		for i := range media {
			a.resolveURL(&media[i])
		}
		data["Media"] = media
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}

	a.Renderer.PageStatus(w, r, status, "sphere_form", &render.PageData{
		Title:   title,
		Section: "tours",
		Data:    data,
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
