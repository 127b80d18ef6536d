// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for TourCMS.
// Handlers are grouped by concern (admin, public, embed, auth) and receive
// their dependencies through the handler struct.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tourcms/internal/cache"
	"tourcms/internal/embedding"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/store"
	"tourcms/internal/tourgraph"
)

// ObjectStorage is the subset of the S3 client the handlers use.
// *storage.Client satisfies it.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	Bucket() string
}

// Deps bundles the collaborators shared by the admin, public and embed
// handler groups.
type Deps struct {
	Renderer   *render.Renderer
	Users      *store.UserStore
	Tours      *store.TourStore
	Spheres    *store.SphereStore
	Hotspots   *store.HotspotStore
	Articles   *store.ArticleStore
	Categories *store.CategoryStore
	Media      *store.MediaStore
	CacheLog   *store.CacheLogStore
	PageCache  *cache.PageCache // nil disables page caching
	Storage    ObjectStorage    // nil when S3 is not configured
	Projector  *tourgraph.Projector
	Origins    *embedding.OriginPolicy
	BaseURL    string
}

// urlID parses a UUID route parameter. It writes a 400 and returns false
// when the parameter is malformed.
func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// redirect sends HTMX clients an HX-Redirect and everyone else a 303.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// resolveMediaURLs fills Media.URL for every sphere of t from storage.
// Without storage URLs stay empty and the legacy fields take over.
func (d *Deps) resolveMediaURLs(t *models.VirtualTour) {
	if d.Storage == nil {
		return
	}
	for i := range t.Spheres {
		for j := range t.Spheres[i].Media {
			d.resolveURL(&t.Spheres[i].Media[j])
		}
	}
}

func (d *Deps) resolveURL(m *models.Media) {
	if d.Storage != nil && m != nil && m.URL == "" {
		m.URL = d.Storage.FileURL(m.S3Key)
	}
}

// projectTour loads t's spheres, hotspots and media and projects the graph.
func (d *Deps) projectTour(ctx context.Context, t *models.VirtualTour) (*tourgraph.Graph, error) {
	if err := d.Tours.LoadSpheres(t); err != nil {
		return nil, err
	}
	d.resolveMediaURLs(t)
	return d.Projector.Project(ctx, t)
}

// removeFiles deletes the stored objects behind media records. Failures
// are logged; the database rows are already gone.
func (d *Deps) removeFiles(ctx context.Context, media []models.Media) {
	if d.Storage == nil {
		return
	}
	for _, m := range media {
		if err := d.Storage.Delete(ctx, m.S3Key); err != nil {
			slog.Warn("delete media object", "key", m.S3Key, "error", err)
		}
		if m.ThumbS3Key != nil {
			if err := d.Storage.Delete(ctx, *m.ThumbS3Key); err != nil {
				slog.Warn("delete media thumbnail", "key", *m.ThumbS3Key, "error", err)
			}
		}
	}
}

// --- Cache invalidation helpers ---

// invalidateTourCache purges a tour's public pages and logs the event.
func (d *Deps) invalidateTourCache(ctx context.Context, tourID uuid.UUID, action string, userID *uuid.UUID) {
	if d.PageCache != nil {
		d.PageCache.InvalidateTour(ctx, tourID)
	}
	d.CacheLog.Log("virtual_tour", tourID, action, userID)
}

// invalidateArticleCache purges an article page plus listings.
func (d *Deps) invalidateArticleCache(ctx context.Context, articleID uuid.UUID, slug, action string, userID *uuid.UUID) {
	if d.PageCache != nil {
		d.PageCache.InvalidateArticle(ctx, slug)
	}
	d.CacheLog.Log("article", articleID, action, userID)
}

// invalidateAllCache clears every cached page. Category changes show up
// on all listings.
func (d *Deps) invalidateAllCache(ctx context.Context, entityType string, id uuid.UUID, action string, userID *uuid.UUID) {
	if d.PageCache != nil {
		d.PageCache.InvalidateAll(ctx)
	}
	d.CacheLog.Log(entityType, id, action, userID)
}
