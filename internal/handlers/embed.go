package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"tourcms/internal/embedding"
	"tourcms/internal/metrics"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/tourgraph"
	"tourcms/internal/viewer"
)

// Embed serves the iframe-embeddable tour page.
type Embed struct {
	*Deps
}

// NewEmbed creates a new Embed handler group.
func NewEmbed(deps *Deps) *Embed {
	return &Embed{Deps: deps}
}

// EmbedTour renders the standalone viewer page for a live tour. The
// page ships the graph and the outbox of messages its script posts to
// the parent frame; ?sphere picks the start node.
func (e *Embed) EmbedTour(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	t, err := e.Tours.FindPublic(id)
	if err != nil {
		slog.Error("find tour failed", "tour", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.NotFound(w, r)
		return
	}

	if ref := r.Referer(); ref != "" {
		if err := e.Origins.Check(ref); err != nil {
			slog.Debug("embed from unlisted origin", "tour", id, "referer", ref, "error", err)
		}
	}
	outbox := embedding.NewOutbox(e.Origins.TargetOrigin(r.Referer()))
	data := map[string]any{
		"Tour":   t,
		"Outbox": outbox,
	}

	g, err := e.projectTour(r.Context(), t)
	if err != nil {
		slog.Error("project tour failed", "tour", id, "error", err)
		e.renderUnavailable(w, t, outbox, data)
		return
	}

	sess, err := viewer.NewSession(g, r.URL.Query().Get("sphere"))
	if errors.Is(err, tourgraph.ErrEmptyGraph) {
		e.renderUnavailable(w, t, outbox, data)
		return
	}
	if err != nil {
		slog.Error("open viewer session failed", "tour", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer sess.Destroy()

	mounted, err := embedding.Mount(sess, outbox)
	if err != nil {
		slog.Error("mount embed failed", "tour", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer mounted.Unmount()

	data["Graph"] = g
	data["StartID"] = sess.Current().ID
	e.renderEmbed(w, t, data, http.StatusOK)
}

// renderUnavailable writes the page for a tour the viewer cannot show. The
// parent frame still gets its tour-loaded message.
func (e *Embed) renderUnavailable(w http.ResponseWriter, t *models.VirtualTour, outbox *embedding.Outbox, data map[string]any) {
	if err := outbox.Post(embedding.TourLoaded{TourName: t.Name, SphereCount: len(t.Spheres)}); err != nil {
		slog.Warn("post tour-loaded failed", "tour", t.ID, "error", err)
	}
	e.renderEmbed(w, t, data, http.StatusOK)
}

// renderEmbed writes the embed page. Without a "Graph" key the page shows
// the unavailable state.
func (e *Embed) renderEmbed(w http.ResponseWriter, t *models.VirtualTour, data map[string]any, status int) {
	page, err := e.Renderer.Public("embed", &render.SiteData{
		Title: t.Name,
		Data:  data,
	})
	if err != nil {
		slog.Error("render embed failed", "tour", t.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	metrics.EmbedPageViews.Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(page)
}
