package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// seedUser describes one of the accounts created on an empty database.
type seedUser struct {
	email       string
	displayName string
	role        string
}

var seedUsers = []seedUser{
	{email: "admin@example.com", displayName: "Admin", role: "admin"},
	{email: "user@example.com", displayName: "User", role: "user"},
}

// seedCategories are the default categories, one per listing type.
var seedCategories = []struct {
	name string
	typ  string
}{
	{name: "Virtual Tour", typ: "virtual tour"},
	{name: "Article", typ: "article"},
}

// Seed populates the database with initial data: an admin and a regular
// user (both must enroll in 2FA on first login) and one category per type.
// It is a no-op once any user exists.
func Seed(db *sql.DB, password string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	for _, u := range seedUsers {
		if _, err := tx.Exec(`
			INSERT INTO users (email, password_hash, display_name, role, totp_enabled)
			VALUES ($1, $2, $3, $4, FALSE)
			ON CONFLICT (email) DO NOTHING
		`, u.email, string(hash), u.displayName, u.role); err != nil {
			return fmt.Errorf("seed insert user %s: %w", u.email, err)
		}
	}

	for _, c := range seedCategories {
		if _, err := tx.Exec(`
			INSERT INTO categories (name, type) VALUES ($1, $2)
			ON CONFLICT (name, type) DO NOTHING
		`, c.name, c.typ); err != nil {
			return fmt.Errorf("seed insert category %s: %w", c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	for _, u := range seedUsers {
		slog.Info("seeded user", "email", u.email, "role", u.role)
	}
	return nil
}
