// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"tourcms/internal/datatable"
	"tourcms/internal/models"
)

// ArticleStore handles blog articles.
type ArticleStore struct {
	db *sql.DB
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleSelect = `a.id, a.category_id, a.title, a.slug, a.content, a.content_format,
	a.tags, a.created_at, a.updated_at, c.name, c.type`

const articleFrom = `articles a JOIN categories c ON c.id = a.category_id`

// ArticleList is the admin list endpoint for articles.
var ArticleList = datatable.Definition{
	From:          articleFrom,
	Select:        articleSelect,
	Key:           "a.id",
	Columns:       []string{"a.id", "a.title", "a.slug", "c.name", "a.created_at", "a.updated_at"},
	SearchColumns: []string{"a.title", "a.slug", "c.name"},
	DefaultOrder:  "a.created_at",
	DefaultDir:    "desc",
}

// articleScanner scans article rows. text[] tags go through a pgtype map.
type articleScanner struct {
	types *pgtype.Map
}

func newArticleScanner() articleScanner {
	return articleScanner{types: pgtype.NewMap()}
}

func (as articleScanner) scan(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	cat := &models.Category{}
	err := scanner.Scan(
		&a.ID, &a.CategoryID, &a.Title, &a.Slug, &a.Content, &a.ContentFormat,
		as.types.SQLScanner(&a.Tags), &a.CreatedAt, &a.UpdatedAt, &cat.Name, &cat.Type,
	)
	if err != nil {
		return nil, err
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	cat.ID = a.CategoryID
	a.Category = cat
	return &a, nil
}

func (as articleScanner) collect(rows *sql.Rows) ([]models.Article, error) {
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := as.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// List runs a datatable request over all articles.
func (s *ArticleStore) List(ctx context.Context, req datatable.Request) (*datatable.Result[models.Article], error) {
	as := newArticleScanner()
	res, err := datatable.Run(ctx, s.db, ArticleList, req, func(rows *sql.Rows) (models.Article, error) {
		a, err := as.scan(rows)
		if err != nil {
			return models.Article{}, err
		}
		return *a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return res, nil
}

// FindByID retrieves an article with its cover. Returns nil if not found.
func (s *ArticleStore) FindByID(id uuid.UUID) (*models.Article, error) {
	return s.findOne(`a.id = $1`, id)
}

// FindBySlug retrieves an article with its cover. Returns nil if not found.
func (s *ArticleStore) FindBySlug(slug string) (*models.Article, error) {
	return s.findOne(`a.slug = $1`, slug)
}

func (s *ArticleStore) findOne(where string, arg any) (*models.Article, error) {
	a, err := newArticleScanner().scan(s.db.QueryRow(`SELECT `+articleSelect+` FROM `+articleFrom+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}
	items := []models.Article{*a}
	if err := s.attachCovers(items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// SlugExists reports whether another article than exclude uses slug.
func (s *ArticleStore) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`, slug, exclude,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article slug: %w", err)
	}
	return exists, nil
}

// Create inserts an article. The slug must already be unique.
func (s *ArticleStore) Create(a *models.Article) (*models.Article, error) {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	err := s.db.QueryRow(`
		INSERT INTO articles (category_id, title, slug, content, content_format, tags)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		a.CategoryID, a.Title, a.Slug, a.Content, a.ContentFormat, a.Tags,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return a, nil
}

// Update saves an article's editable fields.
func (s *ArticleStore) Update(a *models.Article) error {
	if a.Tags == nil {
		a.Tags = []string{}
	}
	_, err := s.db.Exec(`
		UPDATE articles SET
			category_id = $1, title = $2, slug = $3, content = $4,
			content_format = $5, tags = $6, updated_at = NOW()
		WHERE id = $7`,
		a.CategoryID, a.Title, a.Slug, a.Content, a.ContentFormat, a.Tags, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// Delete removes an article and its media records, returning the media
// so the caller can remove the files.
func (s *ArticleStore) Delete(id uuid.UUID) ([]models.Media, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`DELETE FROM media WHERE model_type = $1 AND model_id = $2 RETURNING `+mediaColumns,
		models.OwnerArticle, id)
	if err != nil {
		return nil, fmt.Errorf("delete article media: %w", err)
	}
	removed, err := collectMedia(rows)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM articles WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete article: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit article delete: %w", err)
	}
	return removed, nil
}

// Count returns the number of articles.
func (s *ArticleStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// Latest returns the newest articles with their covers.
func (s *ArticleStore) Latest(limit int) ([]models.Article, error) {
	rows, err := s.db.Query(`
		SELECT `+articleSelect+` FROM `+articleFrom+`
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest articles: %w", err)
	}
	items, err := newArticleScanner().collect(rows)
	if err != nil {
		return nil, err
	}
	return items, s.attachCovers(items)
}

// ListPublic pages through articles, newest first, optionally limited to
// one category by name. It returns the page and the total match count.
func (s *ArticleStore) ListPublic(category string, page, perPage int) ([]models.Article, int, error) {
	if page < 1 {
		page = 1
	}

	var total int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM `+articleFrom+` WHERE ($1::text = '' OR c.name = $1)`, category,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count public articles: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT `+articleSelect+` FROM `+articleFrom+`
		WHERE ($1::text = '' OR c.name = $1)
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`, category, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list public articles: %w", err)
	}
	items, err := newArticleScanner().collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, s.attachCovers(items)
}

// attachCovers sets each article's Cover to its newest cover media.
func (s *ArticleStore) attachCovers(items []models.Article) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	media, err := NewMediaStore(s.db).ListForMany(models.OwnerArticle, ids)
	if err != nil {
		return err
	}
	for i := range items {
		for _, m := range media[items[i].ID] {
			if m.Collection == models.CollectionCover {
				items[i].Cover = &m
			}
		}
	}
	return nil
}
