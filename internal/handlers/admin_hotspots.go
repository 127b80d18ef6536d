// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"tourcms/internal/datatable"
	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/store"
)

// HotspotsList renders the hotspot management page. An optional
// virtual_tour_id query parameter narrows it to one tour.
func (a *Admin) HotspotsList(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	req := datatable.ParseRequest(r.URL.Query())
	tourID := tourFilter(r)

	res, err := a.Hotspots.List(r.Context(), sess.UserID, tourID, req)
	if err != nil {
		slog.Error("list hotspots failed", "error", err)
	}

	a.Renderer.Page(w, r, "hotspots_list", &render.PageData{
		Title:   "Hotspots",
		Section: "hotspots",
		Data: map[string]any{
			"Result": res,
			"Filter": string(req.Filter),
			"Search": req.Search,
			"TourID": tourID,
		},
	})
}

// HotspotsData serves the hotspot list as JSON.
func (a *Admin) HotspotsData(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	res, err := a.Hotspots.List(r.Context(), sess.UserID, tourFilter(r), datatable.ParseRequest(r.URL.Query()))
	if err != nil {
		slog.Error("list hotspots failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load hotspots.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// tourFilter reads the optional virtual_tour_id list filter. Malformed
// values are ignored.
func tourFilter(r *http.Request) *uuid.UUID {
	id, err := uuid.Parse(r.URL.Query().Get("virtual_tour_id"))
	if err != nil {
		return nil
	}
	return &id
}

// HotspotNew renders the form for adding a hotspot to a sphere.
func (a *Admin) HotspotNew(w http.ResponseWriter, r *http.Request) {
	sp, _ := a.findSphere(w, r)
	if sp == nil {
		return
	}
	a.renderHotspotForm(w, r, http.StatusOK, sp, nil, hotspotForm{
		SphereID: sp.ID.String(),
		Type:     string(models.HotspotInfo),
	}, "")
}

// HotspotCreate adds a hotspot. Navigation hotspots must target a sphere
// in the same tour.
func (a *Admin) HotspotCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	sp, t := a.findSphere(w, r)
	if sp == nil {
		return
	}

	f, err := bindHotspotForm(r)
	if f.SphereID == "" {
		f.SphereID = sp.ID.String()
	}
	if err != nil {
		a.renderHotspotForm(w, r, http.StatusUnprocessableEntity, sp, nil, f, err.Error())
		return
	}

	h, host, msg := a.checkHotspotForm(f, sess.UserID)
	if msg != "" {
		a.renderHotspotForm(w, r, http.StatusUnprocessableEntity, sp, nil, f, msg)
		return
	}

	if _, err := a.Hotspots.Create(h); err != nil {
		if msg := hotspotTargetMessage(err); msg != "" {
			a.renderHotspotForm(w, r, http.StatusUnprocessableEntity, sp, nil, f, msg)
			return
		}
		slog.Error("create hotspot failed", "error", err)
		a.renderHotspotForm(w, r, http.StatusInternalServerError, sp, nil, f, "Failed to save hotspot.")
		return
	}

	a.invalidateTourCache(r.Context(), host.VirtualTourID, "hotspot_create", &sess.UserID)
	if host.VirtualTourID != t.ID {
		a.invalidateTourCache(r.Context(), t.ID, "hotspot_create", &sess.UserID)
	}
	redirect(w, r, "/admin/hotspots?virtual_tour_id="+host.VirtualTourID.String())
}

// HotspotEdit renders the edit form for a live hotspot.
func (a *Admin) HotspotEdit(w http.ResponseWriter, r *http.Request) {
	h, sp := a.findLiveHotspot(w, r)
	if h == nil {
		return
	}
	f := hotspotForm{
		SphereID: h.SphereID.String(),
		Type:     string(h.Type),
		Yaw:      h.Yaw,
		Pitch:    h.Pitch,
		Tooltip:  deref(h.Tooltip),
		Content:  deref(h.Content),
	}
	if h.TargetSphereID != nil {
		f.TargetSphereID = h.TargetSphereID.String()
	}
	a.renderHotspotForm(w, r, http.StatusOK, sp, h, f, "")
}

// HotspotUpdate saves a live hotspot. It may move to another sphere of
// the user's; the target rule is checked against the new sphere.
func (a *Admin) HotspotUpdate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	existing, sp := a.findLiveHotspot(w, r)
	if existing == nil {
		return
	}

	f, err := bindHotspotForm(r)
	if err != nil {
		a.renderHotspotForm(w, r, http.StatusUnprocessableEntity, sp, existing, f, err.Error())
		return
	}

	h, host, msg := a.checkHotspotForm(f, sess.UserID)
	if msg != "" {
		a.renderHotspotForm(w, r, http.StatusUnprocessableEntity, sp, existing, f, msg)
		return
	}

	h.ID = existing.ID
	if err := a.Hotspots.Update(h); err != nil {
		if msg := hotspotTargetMessage(err); msg != "" {
			a.renderHotspotForm(w, r, http.StatusUnprocessableEntity, sp, existing, f, msg)
			return
		}
		slog.Error("update hotspot failed", "error", err)
		a.renderHotspotForm(w, r, http.StatusInternalServerError, sp, existing, f, "Failed to save hotspot.")
		return
	}

	a.invalidateTourCache(r.Context(), host.VirtualTourID, "hotspot_update", &sess.UserID)
	if host.VirtualTourID != sp.VirtualTourID {
		a.invalidateTourCache(r.Context(), sp.VirtualTourID, "hotspot_update", &sess.UserID)
	}
	redirect(w, r, "/admin/hotspots?virtual_tour_id="+host.VirtualTourID.String())
}

// HotspotDelete moves a hotspot to the trash.
func (a *Admin) HotspotDelete(w http.ResponseWriter, r *http.Request) {
	a.hotspotLifecycle(w, r, "hotspot_trash", a.Hotspots.SoftDelete)
}

// HotspotRestore brings a trashed hotspot back.
func (a *Admin) HotspotRestore(w http.ResponseWriter, r *http.Request) {
	a.hotspotLifecycle(w, r, "hotspot_restore", a.Hotspots.Restore)
}

// HotspotForceDelete permanently removes a trashed hotspot.
func (a *Admin) HotspotForceDelete(w http.ResponseWriter, r *http.Request) {
	a.hotspotLifecycle(w, r, "hotspot_delete", a.Hotspots.ForceDelete)
}

func (a *Admin) hotspotLifecycle(w http.ResponseWriter, r *http.Request, action string, op func(id, userID uuid.UUID) (bool, error)) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	// Looked up first so the tour's cached pages can be dropped afterwards.
	h, err := a.Hotspots.FindForUser(id, sess.UserID, datatable.FilterAll)
	if err != nil {
		slog.Error("find hotspot failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if h == nil {
		http.NotFound(w, r)
		return
	}

	changed, err := op(id, sess.UserID)
	if err != nil {
		slog.Error(action+" failed", "hotspot", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !changed {
		http.NotFound(w, r)
		return
	}

	target := "/admin/hotspots"
	if sp, err := a.Spheres.FindForUser(h.SphereID, sess.UserID); err == nil && sp != nil {
		a.invalidateTourCache(r.Context(), sp.VirtualTourID, action, &sess.UserID)
		target += "?virtual_tour_id=" + sp.VirtualTourID.String()
	}
	slog.Info(action, "hotspot", id, "user", sess.Email)
	redirect(w, r, target)
}

// findLiveHotspot loads the {id} hotspot, live and owned by the session
// user, plus its sphere.
func (a *Admin) findLiveHotspot(w http.ResponseWriter, r *http.Request) (*models.Hotspot, *models.Sphere) {
	sess := middleware.SessionFromCtx(r.Context())
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil, nil
	}

	h, err := a.Hotspots.FindForUser(id, sess.UserID, datatable.FilterActive)
	if err != nil {
		slog.Error("find hotspot failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil
	}
	if h == nil {
		http.NotFound(w, r)
		return nil, nil
	}

	sp, err := a.Spheres.FindForUser(h.SphereID, sess.UserID)
	if err != nil {
		slog.Error("find hotspot sphere failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, nil
	}
	if sp == nil {
		// The tour is trashed; its hotspots are not editable.
		http.NotFound(w, r)
		return nil, nil
	}
	return h, sp
}

// checkHotspotForm validates f and resolves the host sphere within the
// user's scope.
func (a *Admin) checkHotspotForm(f hotspotForm, userID uuid.UUID) (*models.Hotspot, *models.Sphere, string) {
	if msg := formError(f); msg != "" {
		return nil, nil, msg
	}
	h, err := f.hotspot()
	if err != nil {
		return nil, nil, err.Error()
	}

	host, err := a.Spheres.FindForUser(h.SphereID, userID)
	if err != nil {
		slog.Error("find hotspot sphere failed", "error", err)
		return nil, nil, "Failed to save hotspot."
	}
	if host == nil {
		return nil, nil, "The selected sphere is invalid."
	}
	return h, host, ""
}

func hotspotTargetMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrTargetRequired):
		return "Target sphere id is required for navigation hotspots."
	case errors.Is(err, store.ErrTargetOutsideTour):
		return "The target sphere must belong to the same virtual tour."
	default:
		return ""
	}
}

func (a *Admin) renderHotspotForm(w http.ResponseWriter, r *http.Request, status int, sp *models.Sphere, h *models.Hotspot, f hotspotForm, errMsg string) {
	spheres, err := a.Spheres.ListByTour(sp.VirtualTourID)
	if err != nil {
		slog.Error("list tour spheres failed", "error", err)
	}

	title := "New Hotspot"
	if h != nil {
		title = "Edit Hotspot"
	}
	data := map[string]any{
		"Sphere":   sp,
		"Hotspot":  h,
		"Form":     f,
		"Spheres":  spheres,
		"TourID":   sp.VirtualTourID,
		"IsCreate": h == nil,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}

	a.Renderer.PageStatus(w, r, status, "hotspot_form", &render.PageData{
		Title:   title,
		Section: "hotspots",
		Data:    data,
	})
}
