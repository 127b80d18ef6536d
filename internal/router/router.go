// Package router sets up all HTTP routes and middleware chains for
// TourCMS. It organizes routes into admin, public and embed groups with
// appropriate middleware stacks.
package router

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourcms/internal/embedding"
	"tourcms/internal/handlers"
	"tourcms/internal/middleware"
	"tourcms/internal/models"
	"tourcms/internal/session"
	"tourcms/web"
)

// Options carries the settings that shape the middleware chains.
type Options struct {
	SecureCookies  bool
	LoginRateLimit int // attempts per IP per minute; 0 disables the limit
	Origins        *embedding.OriginPolicy
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(
	sessionStore *session.Store,
	admin *handlers.Admin,
	auth *handlers.Auth,
	public *handlers.Public,
	embed *handlers.Embed,
	opts Options,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check and metrics: no auth, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", staticHandler())

	// Admin routes require authentication and CSRF protection.
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Auth pages, accessible without a session.
		r.Get("/login", auth.LoginPage)
		r.With(loginLimit(opts.LoginRateLimit)...).Post("/login", auth.LoginSubmit)
		r.Post("/logout", auth.Logout)

		// 2FA requires auth but NOT completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", auth.TwoFASetupPage)
			r.Get("/2fa/verify", auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", auth.TwoFAVerifySubmit)
		})

		// Authenticated + 2FA-verified admin area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			// Dashboard
			r.With(middleware.RequirePermission(models.PermViewDashboard)).Get("/", admin.Dashboard)
			r.With(middleware.RequirePermission(models.PermViewDashboard)).Get("/dashboard", admin.Dashboard)

			// Virtual tours
			r.Route("/virtual-tour", func(r chi.Router) {
				r.Get("/", admin.ToursList)
				r.Get("/data", admin.ToursData)
				r.Get("/new", admin.TourNew)
				r.Post("/", admin.TourCreate)
				r.Get("/{id}", admin.TourShow)
				r.Get("/{id}/edit", admin.TourEdit)
				r.Put("/{id}", admin.TourUpdate)
				r.Delete("/{id}", admin.TourDelete)
				r.Post("/{id}/restore", admin.TourRestore)
				r.Delete("/{id}/force", admin.TourForceDelete)
				r.Get("/{id}/embed-code", admin.TourEmbedCode)

				// Spheres are created under their tour.
				r.Get("/{id}/spheres/new", admin.SphereNew)
				r.Post("/{id}/spheres", admin.SphereCreate)
			})

			// Spheres
			r.Route("/spheres/{sphereID}", func(r chi.Router) {
				r.Get("/edit", admin.SphereEdit)
				r.Put("/", admin.SphereUpdate)
				r.Delete("/", admin.SphereDelete)
				r.Post("/media", admin.SphereMediaUpload)
				r.Get("/hotspots/new", admin.HotspotNew)
				r.Post("/hotspots", admin.HotspotCreate)
			})

			// Hotspots
			r.Route("/hotspots", func(r chi.Router) {
				r.Get("/", admin.HotspotsList)
				r.Get("/data", admin.HotspotsData)
				r.Get("/{id}/edit", admin.HotspotEdit)
				r.Put("/{id}", admin.HotspotUpdate)
				r.Delete("/{id}", admin.HotspotDelete)
				r.Post("/{id}/restore", admin.HotspotRestore)
				r.Delete("/{id}/force", admin.HotspotForceDelete)
			})

			// Articles
			r.Route("/articles", func(r chi.Router) {
				r.Get("/", admin.ArticlesList)
				r.Get("/data", admin.ArticlesData)
				r.Get("/new", admin.ArticleNew)
				r.Post("/", admin.ArticleCreate)
				r.Get("/{id}/edit", admin.ArticleEdit)
				r.Put("/{id}", admin.ArticleUpdate)
				r.Delete("/{id}", admin.ArticleDelete)
				r.Post("/{id}/cover", admin.ArticleCoverUpload)
			})

			r.Delete("/media/{id}", admin.MediaDelete)

			// Admin-only management
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", admin.CategoriesList)
					r.Post("/", admin.CategoryCreate)
					r.Put("/{id}", admin.CategoryUpdate)
					r.Delete("/{id}", admin.CategoryDelete)
				})

				r.Route("/users", func(r chi.Router) {
					r.Get("/", admin.UsersList)
					r.Get("/new", admin.UserNew)
					r.Post("/", admin.UserCreate)
					r.Post("/{id}/reset-2fa", admin.UserResetTwoFA)
				})

				r.Get("/cache-log", admin.CacheLogPage)
			})
		})
	})

	// Public site
	r.Get("/", public.Homepage)
	r.Get("/tours", public.TourIndex)
	r.Get("/tours/{id}", public.TourPage)
	r.With(middleware.CORS(opts.Origins.Origins())).Get("/tours/{id}/graph.json", public.GraphJSON)
	r.Get("/articles", public.ArticleIndex)
	r.Get("/articles/{slug}", public.ArticlePage)

	// Embed page, framable by the allowed origins.
	r.With(middleware.AllowFraming(opts.Origins.FrameAncestors())).Get("/embed/tour/{id}", embed.EmbedTour)

	return r
}

func loginLimit(perMinute int) []func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return nil
	}
	return []func(http.Handler) http.Handler{middleware.RateLimit(perMinute, time.Minute)}
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic(err) // the embed directive guarantees the directory
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
