// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page HTML cache for the public
// site. Tour and article pages, the paginated listings and the homepage
// are stored after rendering; admin mutations invalidate the affected keys.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page HTML caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves cached HTML for a page key.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single page.
func (pc *PageCache) Invalidate(ctx context.Context, key string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache invalidate error", "key", key, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "key", key)
}

// InvalidateTour drops a tour's detail page and graph together with the
// listings and the homepage that summarize tours.
func (pc *PageCache) InvalidateTour(ctx context.Context, id uuid.UUID) {
	pc.Invalidate(ctx, TourKey(id))
	pc.Invalidate(ctx, GraphKey(id))
	pc.invalidatePrefix(ctx, "tours")
	pc.Invalidate(ctx, HomepageKey())
}

// InvalidateArticle drops an article page plus article listings and the homepage.
func (pc *PageCache) InvalidateArticle(ctx context.Context, slug string) {
	pc.Invalidate(ctx, ArticleKey(slug))
	pc.invalidatePrefix(ctx, "articles")
	pc.Invalidate(ctx, HomepageKey())
}

// InvalidateAll removes all cached pages. Used when categories change,
// since every listing shows them.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	deleted, err := deleteMatching(ctx, pc.client, pageKeyPrefix+"*")
	if err != nil {
		slog.Warn("page cache clear error", "error", err)
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
}

func (pc *PageCache) invalidatePrefix(ctx context.Context, prefix string) {
	if _, err := deleteMatching(ctx, pc.client, pageKeyPrefix+prefix+"?*"); err != nil {
		slog.Warn("page cache prefix invalidate error", "prefix", prefix, "error", err)
	}
}

// HomepageKey returns the cache key for the homepage.
func HomepageKey() string {
	return "_homepage"
}

// TourKey returns the cache key for a public tour page.
func TourKey(id uuid.UUID) string {
	return "tour:" + id.String()
}

// GraphKey returns the cache key for a tour's graph JSON.
func GraphKey(id uuid.UUID) string {
	return "graph:" + id.String()
}

// ArticleKey returns the cache key for an article page.
func ArticleKey(slug string) string {
	return "article:" + slug
}

// ListKey returns the cache key for a paginated listing such as "tours"
// or "articles", filtered by category name.
func ListKey(kind string, page int, category string) string {
	return fmt.Sprintf("%s?page=%d&category=%s", kind, page, url.QueryEscape(category))
}
