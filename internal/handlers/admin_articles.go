package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tourcms/internal/datatable"
	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/slug"
)

// ArticlesList renders the article management page.
func (a *Admin) ArticlesList(w http.ResponseWriter, r *http.Request) {
	req := datatable.ParseRequest(r.URL.Query())

	res, err := a.Articles.List(r.Context(), req)
	if err != nil {
		slog.Error("list articles failed", "error", err)
	}

	a.Renderer.Page(w, r, "articles_list", &render.PageData{
		Title:   "Articles",
		Section: "articles",
		Data: map[string]any{
			"Result": res,
			"Search": req.Search,
		},
	})
}

// ArticlesData serves the article list as JSON.
func (a *Admin) ArticlesData(w http.ResponseWriter, r *http.Request) {
	res, err := a.Articles.List(r.Context(), datatable.ParseRequest(r.URL.Query()))
	if err != nil {
		slog.Error("list articles failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to load articles.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ArticleNew renders the article creation form.
func (a *Admin) ArticleNew(w http.ResponseWriter, r *http.Request) {
	a.renderArticleForm(w, r, http.StatusOK, nil, articleForm{ContentFormat: string(models.FormatMarkdown)}, "")
}

// ArticleCreate handles the article creation form. A blank slug is
// generated from the title; taken slugs get a numeric suffix.
func (a *Admin) ArticleCreate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	f := bindArticleForm(r)

	categoryID, msg := a.checkArticleForm(f)
	if msg != "" {
		a.renderArticleForm(w, r, http.StatusUnprocessableEntity, nil, f, msg)
		return
	}

	articleSlug, err := a.uniqueSlug(r.Context(), f, uuid.Nil)
	if err != nil {
		slog.Error("generate slug failed", "error", err)
		a.renderArticleForm(w, r, http.StatusInternalServerError, nil, f, "Failed to save article.")
		return
	}

	art, err := a.Articles.Create(&models.Article{
		CategoryID:    categoryID,
		Title:         f.Title,
		Slug:          articleSlug,
		Content:       f.Content,
		ContentFormat: models.ContentFormat(f.ContentFormat),
		Tags:          f.tags(),
	})
	if err != nil {
		slog.Error("create article failed", "error", err)
		a.renderArticleForm(w, r, http.StatusInternalServerError, nil, f, "Failed to save article.")
		return
	}

	a.invalidateArticleCache(r.Context(), art.ID, art.Slug, "create", &sess.UserID)
	redirect(w, r, "/admin/articles/"+art.ID.String()+"/edit")
}

// ArticleEdit renders the article edit form.
func (a *Admin) ArticleEdit(w http.ResponseWriter, r *http.Request) {
	art := a.findArticle(w, r)
	if art == nil {
		return
	}
	a.renderArticleForm(w, r, http.StatusOK, art, articleForm{
		CategoryID:    art.CategoryID.String(),
		Title:         art.Title,
		Slug:          art.Slug,
		Content:       art.Content,
		ContentFormat: string(art.ContentFormat),
		Tags:          strings.Join(art.Tags, ", "),
	}, "")
}

// ArticleUpdate saves an article. Changing the slug drops the cached
// page under the old one as well.
func (a *Admin) ArticleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	art := a.findArticle(w, r)
	if art == nil {
		return
	}

	f := bindArticleForm(r)
	categoryID, msg := a.checkArticleForm(f)
	if msg != "" {
		a.renderArticleForm(w, r, http.StatusUnprocessableEntity, art, f, msg)
		return
	}

	articleSlug, err := a.uniqueSlug(r.Context(), f, art.ID)
	if err != nil {
		slog.Error("generate slug failed", "error", err)
		a.renderArticleForm(w, r, http.StatusInternalServerError, art, f, "Failed to save article.")
		return
	}

	oldSlug := art.Slug
	art.CategoryID = categoryID
	art.Title = f.Title
	art.Slug = articleSlug
	art.Content = f.Content
	art.ContentFormat = models.ContentFormat(f.ContentFormat)
	art.Tags = f.tags()
	if err := a.Articles.Update(art); err != nil {
		slog.Error("update article failed", "error", err)
		a.renderArticleForm(w, r, http.StatusInternalServerError, art, f, "Failed to save article.")
		return
	}

	a.invalidateArticleCache(r.Context(), art.ID, art.Slug, "update", &sess.UserID)
	if oldSlug != art.Slug {
		a.invalidateArticleCache(r.Context(), art.ID, oldSlug, "rename", &sess.UserID)
	}
	redirect(w, r, "/admin/articles")
}

// ArticleDelete removes an article and its cover files.
func (a *Admin) ArticleDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	art := a.findArticle(w, r)
	if art == nil {
		return
	}

	removed, err := a.Articles.Delete(art.ID)
	if err != nil {
		slog.Error("delete article failed", "article", art.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.removeFiles(r.Context(), removed)

	a.invalidateArticleCache(r.Context(), art.ID, art.Slug, "delete", &sess.UserID)
	slog.Info("article deleted", "article", art.ID, "user", sess.Email)
	redirect(w, r, "/admin/articles")
}

func (a *Admin) findArticle(w http.ResponseWriter, r *http.Request) *models.Article {
	id, ok := urlID(w, r, "id")
	if !ok {
		return nil
	}
	art, err := a.Articles.FindByID(id)
	if err != nil {
		slog.Error("find article failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil
	}
	if art == nil {
		http.NotFound(w, r)
		return nil
	}
	a.resolveURL(art.Cover)
	return art
}

// checkArticleForm validates f and checks its category is an article category.
func (a *Admin) checkArticleForm(f articleForm) (uuid.UUID, string) {
	if msg := formError(f); msg != "" {
		return uuid.Nil, msg
	}
	categoryID := uuid.MustParse(f.CategoryID)
	cat, err := a.Categories.FindByID(categoryID)
	if err != nil {
		slog.Error("find category failed", "error", err)
		return uuid.Nil, "Failed to save article."
	}
	if cat == nil || cat.Type != models.CategoryArticle {
		return uuid.Nil, "The selected category is invalid."
	}
	return categoryID, ""
}

func (a *Admin) uniqueSlug(ctx context.Context, f articleForm, exclude uuid.UUID) (string, error) {
	base := f.Slug
	if base == "" {
		base = f.Title
	}
	return slug.Unique(ctx, base, func(ctx context.Context, candidate string) (bool, error) {
		return a.Articles.SlugExists(ctx, candidate, exclude)
	})
}

func (a *Admin) renderArticleForm(w http.ResponseWriter, r *http.Request, status int, art *models.Article, f articleForm, errMsg string) {
	categories, err := a.Categories.ListByType(models.CategoryArticle)
	if err != nil {
		slog.Error("list article categories failed", "error", err)
	}

	title := "New Article"
	if art != nil {
		title = "Edit " + art.Title
	}
	data := map[string]any{
		"Article":        art,
		"Form":           f,
		"Categories":     categories,
		"StorageEnabled": a.Storage != nil,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}

	a.Renderer.PageStatus(w, r, status, "article_form", &render.PageData{
		Title:   title,
		Section: "articles",
		Data:    data,
	})
}
