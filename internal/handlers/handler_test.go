// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"tourcms/internal/cache"
	"tourcms/internal/database"
	"tourcms/internal/embedding"
	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
	"tourcms/internal/session"
	"tourcms/internal/store"
	"tourcms/internal/tourgraph"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "tourcms")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "tourcms")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		// Clean up test session and cache keys.
		for _, pattern := range []string{"session:*", "page:*", "probe:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// stubProber answers every probe with ok.
type stubProber bool

func (p stubProber) Probe(context.Context, string) bool { return bool(p) }

// memStorage is an in-memory ObjectStorage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) FileURL(key string) string { return "https://cdn.test/" + key }
func (m *memStorage) Bucket() string            { return "test-bucket" }

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB       *sql.DB
	Valkey   *redis.Client
	Sessions *session.Store
	Deps     *Deps
	Admin    *Admin
	Auth     *Auth
	Public   *Public
	Embed    *Embed
}

// newTestEnv creates a complete test environment with all handler
// dependencies. Panorama probes always succeed; storage is absent.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	deps := &Deps{
		Renderer:   renderer,
		Users:      store.NewUserStore(db),
		Tours:      store.NewTourStore(db),
		Spheres:    store.NewSphereStore(db),
		Hotspots:   store.NewHotspotStore(db),
		Articles:   store.NewArticleStore(db),
		Categories: store.NewCategoryStore(db),
		Media:      store.NewMediaStore(db),
		CacheLog:   store.NewCacheLogStore(db),
		PageCache:  cache.NewPageCache(vk, time.Minute),
		Projector:  tourgraph.NewProjector(stubProber(true), 2),
		Origins:    embedding.NewOriginPolicy([]string{"https://partner.example"}),
		BaseURL:    "https://tours.test",
	}

	return &testEnv{
		DB:       db,
		Valkey:   vk,
		Sessions: sessions,
		Deps:     deps,
		Admin:    NewAdmin(deps),
		Auth:     NewAuth(renderer, sessions, deps.Users),
		Public:   NewPublic(deps),
		Embed:    NewEmbed(deps),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// testSession creates a session.Data for testing.
func testSession(userID uuid.UUID, email, role string, twoFADone bool) *session.Data {
	return &session.Data{
		UserID:      userID,
		Email:       email,
		DisplayName: "Test User",
		Role:        role,
		TwoFADone:   twoFADone,
	}
}

// sessionFor returns a completed session for u.
func sessionFor(u *models.User) *session.Data {
	return testSession(u.ID, u.Email, string(u.Role), true)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// formRequest builds a urlencoded request.
func formRequest(method, target string, form url.Values) *http.Request {
	r, _ := http.NewRequest(method, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// htmx marks r as an HTMX request.
func htmx(r *http.Request) *http.Request {
	r.Header.Set("HX-Request", "true")
	return r
}

// testUser creates a throwaway user removed when the test ends. Owned
// tours, spheres and hotspots cascade with it.
func testUser(t *testing.T, env *testEnv, role models.Role) *models.User {
	t.Helper()
	email := "h-" + uuid.NewString()[:8] + "@handler-test.local"
	u, err := env.Deps.Users.Create(email, "correct-horse", "Handler Test", role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE email = $1", email) })
	return u
}

// testCategory creates a throwaway category. Register it before the
// records that use it so cleanup runs after theirs.
func testCategory(t *testing.T, env *testEnv, typ models.CategoryType) *models.Category {
	t.Helper()
	c, err := env.Deps.Categories.Create(&models.Category{
		Name: "Handler " + uuid.NewString()[:8],
		Type: typ,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM virtual_tours WHERE category_id = $1", c.ID)
		env.DB.Exec("DELETE FROM articles WHERE category_id = $1", c.ID)
		env.DB.Exec("DELETE FROM categories WHERE id = $1", c.ID)
	})
	return c
}

// testTour creates a live tour for owner in a fresh category.
func testTour(t *testing.T, env *testEnv, owner *models.User) *models.VirtualTour {
	t.Helper()
	cat := testCategory(t, env, models.CategoryTour)
	tour, err := env.Deps.Tours.Create(&models.VirtualTour{
		Name:        "Tour " + uuid.NewString()[:8],
		Description: "A tour used by handler tests",
		CategoryID:  cat.ID,
		UserID:      owner.ID,
	})
	if err != nil {
		t.Fatalf("create tour: %v", err)
	}
	return tour
}

// testSphere appends a sphere with an external panorama to tour.
func testSphere(t *testing.T, env *testEnv, tour *models.VirtualTour, name string) *models.Sphere {
	t.Helper()
	panorama := "https://img.test/" + name + ".jpg"
	sp, err := env.Deps.Spheres.Create(&models.Sphere{
		VirtualTourID: tour.ID,
		Name:          name,
		InitialYaw:    90,
		SphereFile:    &panorama,
	})
	if err != nil {
		t.Fatalf("create sphere: %v", err)
	}
	return sp
}

// jpegBytes encodes a small solid JPEG for upload tests.
func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := encodeTestJPEG(&buf, 64, 32); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
