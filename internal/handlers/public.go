// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tourcms/internal/cache"
	"tourcms/internal/markdown"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/tourgraph"
)

const (
	// perPage is the page size of the public listings.
	perPage = 12

	homeArticles    = 5
	homeTours       = 5
	homeSpheres     = 12
	excerptLength   = 100
	tourBlurbLength = 120
)

// Public groups handlers for the public-facing site. It checks the
// Valkey page cache before rendering and stores rendered results on miss.
type Public struct {
	*Deps
}

// NewPublic creates a new Public handler group.
func NewPublic(deps *Deps) *Public {
	return &Public{Deps: deps}
}

// tourCard is a tour summary on the homepage and the tour listing.
type tourCard struct {
	Tour        models.VirtualTour
	Blurb       string
	PreviewURL  string
	SphereCount int
}

// articleCard is an article summary on the homepage and the article listing.
type articleCard struct {
	Article  models.Article
	Excerpt  string
	CoverURL string
}

// pager describes the position within a paginated listing.
type pager struct {
	Current  int
	Last     int
	Total    int
	Category string
}

func newPager(page, total int, category string) pager {
	last := (total + perPage - 1) / perPage
	return pager{Current: page, Last: max(last, 1), Total: total, Category: category}
}

// HasPrev reports whether a previous page exists.
func (p pager) HasPrev() bool { return p.Current > 1 }

// HasNext reports whether a next page exists.
func (p pager) HasNext() bool { return p.Current < p.Last }

// Homepage renders the landing page with the latest articles, tours and
// spheres.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	p.cached(w, r, cache.HomepageKey(), func(ctx context.Context) ([]byte, int, error) {
		articles, err := p.Articles.Latest(homeArticles)
		if err != nil {
			return nil, 0, err
		}
		tours, err := p.Tours.Latest(homeTours)
		if err != nil {
			return nil, 0, err
		}
		spheres, err := p.Spheres.Latest(homeSpheres)
		if err != nil {
			return nil, 0, err
		}

		type sphereCard struct {
			Sphere     models.Sphere
			PreviewURL string
		}
		sphereCards := make([]sphereCard, 0, len(spheres))
		for i := range spheres {
			sphereCards = append(sphereCards, sphereCard{Sphere: spheres[i], PreviewURL: p.previewURL(&spheres[i])})
		}

		page, err := p.Renderer.Public("home", &render.SiteData{
			Title:       "Virtual Tours",
			Description: "Explore immersive 360° virtual tours.",
			Section:     "home",
			Data: map[string]any{
				"Articles": p.articleCards(articles),
				"Tours":    p.tourCards(tours),
				"Spheres":  sphereCards,
			},
		})
		return page, http.StatusOK, err
	})
}

// TourIndex renders the paginated tour listing, optionally filtered by
// category name.
func (p *Public) TourIndex(w http.ResponseWriter, r *http.Request) {
	page, category := listParams(r)

	p.cached(w, r, cache.ListKey("tours", page, category), func(ctx context.Context) ([]byte, int, error) {
		tours, total, err := p.Tours.ListPublic(category, page, perPage)
		if err != nil {
			return nil, 0, err
		}
		categories, err := p.Categories.ListByType(models.CategoryTour)
		if err != nil {
			return nil, 0, err
		}

		out, err := p.Renderer.Public("tours", &render.SiteData{
			Title:   "Virtual Tours",
			Section: "tours",
			Data: map[string]any{
				"Tours":      p.tourCards(tours),
				"Categories": categories,
				"Pager":      newPager(page, total, category),
			},
		})
		return out, http.StatusOK, err
	})
}

// TourPage renders one live tour with the viewer.
func (p *Public) TourPage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	p.cached(w, r, cache.TourKey(id), func(ctx context.Context) ([]byte, int, error) {
		t, err := p.Tours.FindPublic(id)
		if err != nil {
			return nil, 0, err
		}
		if t == nil {
			return nil, http.StatusNotFound, nil
		}

		data := map[string]any{
			"Tour":      t,
			"EmbedURL":  embedPath(t.ID),
			"GraphURL":  "/tours/" + t.ID.String() + "/graph.json",
			"Available": true,
		}
		g, err := p.projectTour(ctx, t)
		if err != nil {
			return nil, 0, err
		}
		if len(g.Nodes) == 0 {
			data["Available"] = false
		} else {
			data["Nodes"] = g.Nodes
			data["Current"] = g.Nodes[0]
		}

		out, err := p.Renderer.Public("tour", &render.SiteData{
			Title:       t.Name,
			Description: markdown.Truncate(t.Description, 160),
			Section:     "tours",
			Data:        data,
		})
		return out, http.StatusOK, err
	})
}

// GraphJSON serves a live tour's projected graph.
func (p *Public) GraphJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	key := cache.GraphKey(id)

	if p.PageCache != nil {
		if body, ok := p.PageCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
			return
		}
	}

	t, err := p.Tours.FindPublic(id)
	if err != nil {
		slog.Error("find tour failed", "tour", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load tour.")
		return
	}
	if t == nil {
		writeJSONError(w, http.StatusNotFound, "Tour not found.")
		return
	}

	g, err := p.projectTour(ctx, t)
	if err != nil {
		slog.Error("project tour failed", "tour", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load tour.")
		return
	}

	body, err := json.Marshal(g)
	if err != nil {
		slog.Error("encode graph failed", "tour", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load tour.")
		return
	}
	if p.PageCache != nil {
		p.PageCache.Set(ctx, key, body)
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// ArticleIndex renders the paginated article listing.
func (p *Public) ArticleIndex(w http.ResponseWriter, r *http.Request) {
	page, category := listParams(r)

	p.cached(w, r, cache.ListKey("articles", page, category), func(ctx context.Context) ([]byte, int, error) {
		articles, total, err := p.Articles.ListPublic(category, page, perPage)
		if err != nil {
			return nil, 0, err
		}
		categories, err := p.Categories.ListByType(models.CategoryArticle)
		if err != nil {
			return nil, 0, err
		}

		out, err := p.Renderer.Public("articles", &render.SiteData{
			Title:   "Articles",
			Section: "articles",
			Data: map[string]any{
				"Articles":   p.articleCards(articles),
				"Categories": categories,
				"Pager":      newPager(page, total, category),
			},
		})
		return out, http.StatusOK, err
	})
}

// ArticlePage renders one article by slug.
func (p *Public) ArticlePage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p.cached(w, r, cache.ArticleKey(slug), func(ctx context.Context) ([]byte, int, error) {
		art, err := p.Articles.FindBySlug(slug)
		if err != nil {
			return nil, 0, err
		}
		if art == nil {
			return nil, http.StatusNotFound, nil
		}
		p.resolveURL(art.Cover)

		body, err := markdown.Render(art.Content, art.ContentFormat)
		if err != nil {
			return nil, 0, err
		}

		out, err := p.Renderer.Public("article", &render.SiteData{
			Title:       art.Title,
			Description: markdown.Excerpt(art.Content, art.ContentFormat, 160),
			Section:     "articles",
			Data: map[string]any{
				"Article": art,
				// Rendered by goldmark; raw HTML articles are authored by editors.
				"Body": template.HTML(body),
			},
		})
		return out, http.StatusOK, err
	})
}

// cached serves key from the page cache, or calls build and caches a 200
// result. build returns a non-200 status with a nil page for 404s.
func (p *Public) cached(w http.ResponseWriter, r *http.Request, key string, build func(ctx context.Context) ([]byte, int, error)) {
	ctx := r.Context()

	if p.PageCache != nil {
		if page, ok := p.PageCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(page)
			return
		}
	}

	page, status, err := build(ctx)
	if err != nil {
		slog.Error("render public page failed", "key", key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if status == http.StatusNotFound {
		http.NotFound(w, r)
		return
	}

	if p.PageCache != nil {
		p.PageCache.Set(ctx, key, page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(page)
}

// listParams reads ?page and ?category. Invalid pages become 1.
func listParams(r *http.Request) (int, string) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return page, q.Get("category")
}

func (p *Public) tourCards(tours []models.VirtualTour) []tourCard {
	cards := make([]tourCard, 0, len(tours))
	for i := range tours {
		t := &tours[i]
		card := tourCard{Tour: *t, Blurb: markdown.Truncate(t.Description, tourBlurbLength), SphereCount: t.SphereCount}
		if err := p.Tours.LoadSpheres(t); err != nil {
			slog.Warn("load tour spheres failed", "tour", t.ID, "error", err)
		} else {
			card.SphereCount = len(t.Spheres)
			if len(t.Spheres) > 0 {
				card.PreviewURL = p.previewURL(&t.Spheres[0])
			}
		}
		cards = append(cards, card)
	}
	return cards
}

func (p *Public) articleCards(articles []models.Article) []articleCard {
	cards := make([]articleCard, 0, len(articles))
	for _, a := range articles {
		card := articleCard{Article: a, Excerpt: markdown.Excerpt(a.Content, a.ContentFormat, excerptLength)}
		if a.Cover != nil {
			p.resolveURL(a.Cover)
			card.CoverURL = a.Cover.URL
		}
		cards = append(cards, card)
	}
	return cards
}

// previewURL resolves a sphere's panorama for a listing card without
// probing it. Spheres without one get the placeholder.
func (p *Public) previewURL(s *models.Sphere) string {
	for i := range s.Media {
		p.resolveURL(&s.Media[i])
	}
	if src, ok := tourgraph.ResolveSphere(s); ok {
		return src.URL
	}
	return tourgraph.Placeholder()
}

func embedPath(id uuid.UUID) string {
	return "/embed/tour/" + id.String()
}
