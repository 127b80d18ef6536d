// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/render"
)

// Admin groups all admin panel HTTP handlers.
type Admin struct {
	*Deps
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(deps *Deps) *Admin {
	return &Admin{Deps: deps}
}

// dashboardRecent is how many tours and articles the dashboard lists.
const dashboardRecent = 5

// Dashboard renders the admin dashboard. Tour and sphere counts are
// scoped to the signed-in user.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	tourCount, err := a.Tours.Count(sess.UserID)
	if err != nil {
		slog.Error("count tours failed", "error", err)
	}
	sphereCount, err := a.Spheres.Count(sess.UserID)
	if err != nil {
		slog.Error("count spheres failed", "error", err)
	}
	articleCount, err := a.Articles.Count()
	if err != nil {
		slog.Error("count articles failed", "error", err)
	}
	userCount, err := a.Users.Count()
	if err != nil {
		slog.Error("count users failed", "error", err)
	}
	recentTours, err := a.Tours.Recent(sess.UserID, dashboardRecent)
	if err != nil {
		slog.Error("recent tours failed", "error", err)
	}
	recentArticles, err := a.Articles.Latest(dashboardRecent)
	if err != nil {
		slog.Error("recent articles failed", "error", err)
	}
	categories, err := a.Categories.List()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	a.Renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"TourCount":      tourCount,
			"SphereCount":    sphereCount,
			"ArticleCount":   articleCount,
			"UserCount":      userCount,
			"RecentTours":    recentTours,
			"RecentArticles": recentArticles,
			"Categories":     categories,
		},
	})
}

// --- Users ---

// UsersList renders the user management page.
func (a *Admin) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := a.Users.List()
	if err != nil {
		slog.Error("list users failed", "error", err)
	}

	a.Renderer.Page(w, r, "users_list", &render.PageData{
		Title:   "Users",
		Section: "users",
		Data:    map[string]any{"Users": users},
	})
}

// UserResetTwoFA resets another user's 2FA, forcing re-setup on next login.
func (a *Admin) UserResetTwoFA(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	targetID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	// Cannot reset your own 2FA.
	if targetID == sess.UserID {
		http.Error(w, "Cannot reset your own 2FA", http.StatusForbidden)
		return
	}

	if err := a.Users.ResetTOTP(targetID); err != nil {
		slog.Error("reset 2fa failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("2fa reset by admin", "admin", sess.Email, "target_user", targetID)
	redirect(w, r, "/admin/users")
}

// UserNew renders the new user creation form.
func (a *Admin) UserNew(w http.ResponseWriter, r *http.Request) {
	a.Renderer.Page(w, r, "user_form", &render.PageData{
		Title:   "New User",
		Section: "users",
		Data:    map[string]any{"Role": string(models.RoleUser)},
	})
}

// UserCreate handles the new user form submission.
func (a *Admin) UserCreate(w http.ResponseWriter, r *http.Request) {
	f := bindUserForm(r)

	fail := func(status int, msg string) {
		a.Renderer.PageStatus(w, r, status, "user_form", &render.PageData{
			Title:   "New User",
			Section: "users",
			Data: map[string]any{
				"Error":       msg,
				"Email":       f.Email,
				"DisplayName": f.DisplayName,
				"Role":        f.Role,
			},
		})
	}

	if msg := formError(f); msg != "" {
		fail(http.StatusUnprocessableEntity, msg)
		return
	}

	existing, err := a.Users.FindByEmail(f.Email)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		fail(http.StatusInternalServerError, "Failed to create user.")
		return
	}
	if existing != nil {
		fail(http.StatusUnprocessableEntity, "A user with this email already exists.")
		return
	}

	if _, err := a.Users.Create(f.Email, f.Password, f.DisplayName, models.Role(f.Role)); err != nil {
		slog.Error("create user failed", "error", err)
		fail(http.StatusInternalServerError, "Failed to create user.")
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	slog.Info("user created", "admin", sess.Email, "new_user", f.Email, "role", f.Role)
	redirect(w, r, "/admin/users")
}

// CacheLogPage renders the recent cache invalidation events.
func (a *Admin) CacheLogPage(w http.ResponseWriter, r *http.Request) {
	entries, err := a.CacheLog.RecentEntries(50)
	if err != nil {
		slog.Error("list cache log failed", "error", err)
	}

	a.Renderer.Page(w, r, "cache_log", &render.PageData{
		Title:   "Cache Activity",
		Section: "cache",
		Data:    map[string]any{"Entries": entries},
	})
}
