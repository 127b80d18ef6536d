// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tourcms/internal/database"
	"tourcms/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "tourcms")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "tourcms")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Reset goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email. Their tours, spheres and
// hotspots cascade. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanMediaByKey removes test media by S3 key. Call in t.Cleanup().
func cleanMediaByKey(t *testing.T, db *sql.DB, s3keys ...string) {
	t.Helper()
	for _, key := range s3keys {
		db.Exec("DELETE FROM media WHERE s3_key = $1", key)
	}
}

// testUser creates a throwaway user removed when the test ends.
func testUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	email := "owner-" + uuid.NewString()[:8] + "@store-test.local"
	u, err := NewUserStore(db).Create(email, "pass", "Owner", models.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { cleanUsers(t, db, email) })
	return u
}

// testCategory creates a throwaway category removed when the test ends.
// Tours and articles using it must be gone first, so register it before them.
func testCategory(t *testing.T, db *sql.DB, typ models.CategoryType) *models.Category {
	t.Helper()
	c, err := NewCategoryStore(db).Create(&models.Category{
		Name: "Test " + uuid.NewString()[:8],
		Type: typ,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM virtual_tours WHERE category_id = $1", c.ID)
		db.Exec("DELETE FROM articles WHERE category_id = $1", c.ID)
		db.Exec("DELETE FROM categories WHERE id = $1", c.ID)
	})
	return c
}

// testTour creates a tour for owner in a fresh category.
func testTour(t *testing.T, db *sql.DB, owner *models.User, name string) *models.VirtualTour {
	t.Helper()
	cat := testCategory(t, db, models.CategoryTour)
	tour, err := NewTourStore(db).Create(&models.VirtualTour{
		Name:        name,
		Description: "A tour used by store tests",
		CategoryID:  cat.ID,
		UserID:      owner.ID,
	})
	if err != nil {
		t.Fatalf("create tour: %v", err)
	}
	return tour
}

// testSphere appends a sphere to tour.
func testSphere(t *testing.T, db *sql.DB, tour *models.VirtualTour, name string) *models.Sphere {
	t.Helper()
	sp, err := NewSphereStore(db).Create(&models.Sphere{
		VirtualTourID: tour.ID,
		Name:          name,
		InitialYaw:    30,
	})
	if err != nil {
		t.Fatalf("create sphere: %v", err)
	}
	return sp
}
