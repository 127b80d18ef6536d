package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes to an empty users table. We don't clear the database
	// first because other test packages may share it.
	if err := Seed(db, "password"); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db, "password"); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if n < 1 {
		t.Errorf("expected at least 1 user, got %d", n)
	}

	var dup int
	if err := db.QueryRow(`
		SELECT COUNT(*) FROM (
			SELECT name, type FROM categories GROUP BY name, type HAVING COUNT(*) > 1
		) d`).Scan(&dup); err != nil {
		t.Fatalf("count duplicate categories: %v", err)
	}
	if dup != 0 {
		t.Errorf("duplicate categories after double seed: %d", dup)
	}
}
