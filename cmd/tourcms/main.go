// Package main is the entry point for the TourCMS server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourcms/internal/cache"
	"tourcms/internal/config"
	"tourcms/internal/database"
	"tourcms/internal/embedding"
	"tourcms/internal/handlers"
	"tourcms/internal/render"
	"tourcms/internal/router"
	"tourcms/internal/session"
	"tourcms/internal/storage"
	"tourcms/internal/store"
	"tourcms/internal/tourgraph"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON in production, text in development.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"embed_origins", cfg.EmbedAllowedOrigins,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if users already exist).
	if cfg.IsDev() {
		if err := database.Seed(db, cfg.SeedPassword); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, page cache, probe verdicts).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Panorama probing: HTTP checks behind a Valkey verdict cache. Probes
	// only reach public addresses.
	prober := tourgraph.NewCachedProber(
		tourgraph.NewHTTPProber(tourgraph.PublicOnlyClient(cfg.ProbeTimeout), cfg.ProbeTimeout),
		cache.NewProbeCache(valkeyClient, cfg.ProbeCacheTTL),
	)

	deps := &handlers.Deps{
		Renderer:   renderer,
		Users:      store.NewUserStore(db),
		Tours:      store.NewTourStore(db),
		Spheres:    store.NewSphereStore(db),
		Hotspots:   store.NewHotspotStore(db),
		Articles:   store.NewArticleStore(db),
		Categories: store.NewCategoryStore(db),
		Media:      store.NewMediaStore(db),
		CacheLog:   store.NewCacheLogStore(db),
		PageCache:  cache.NewPageCache(valkeyClient, cache.DefaultPageTTL),
		Projector:  tourgraph.NewProjector(prober, cfg.ProbeConcurrency),
		Origins:    embedding.NewOriginPolicy(embedOrigins(cfg)),
		BaseURL:    cfg.BaseURL,
	}

	// S3-compatible object storage is optional; uploads answer 503 without it.
	if cfg.StorageEnabled() {
		storageClient, err := storage.New(
			cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
			cfg.S3PublicBucket, cfg.S3PublicURL,
		)
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		if storageClient != nil {
			deps.Storage = storageClient
			slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3PublicBucket)
		}
	} else {
		slog.Warn("s3 storage not configured, media uploads disabled")
	}

	r := router.New(
		sessionStore,
		handlers.NewAdmin(deps),
		handlers.NewAuth(renderer, sessionStore, deps.Users),
		handlers.NewPublic(deps),
		handlers.NewEmbed(deps),
		router.Options{
			SecureCookies:  secureCookies,
			LoginRateLimit: cfg.LoginRateLimit,
			Origins:        deps.Origins,
		},
	)

	// WriteTimeout covers 50 MB panorama uploads on slow links.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// embedOrigins is the configured allow-list plus the site itself, whose
// tour pages follow the embedded viewer.
func embedOrigins(cfg *config.Config) []string {
	origins := make([]string, 0, len(cfg.EmbedAllowedOrigins)+1)
	origins = append(origins, cfg.EmbedAllowedOrigins...)
	return append(origins, cfg.BaseURL)
}
