// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/ocms-catalog/internal/admin"
	"github.com/olegiv/ocms-catalog/internal/cache"
	"github.com/olegiv/ocms-catalog/internal/catalog"
	"github.com/olegiv/ocms-catalog/internal/config"
	"github.com/olegiv/ocms-catalog/internal/handler/api"
	"github.com/olegiv/ocms-catalog/internal/logging"
	"github.com/olegiv/ocms-catalog/internal/reconcile"
	"github.com/olegiv/ocms-catalog/internal/scheduler"
	"github.com/olegiv/ocms-catalog/internal/store"
	"github.com/olegiv/ocms-catalog/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func buildInfo() *version.Info {
	return &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "catalogd - oCMS message catalog service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DB_PATH               SQLite database path (default: ./data/catalog.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_HOST           Listen host (default: localhost)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SERVER_PORT           Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_ENV                   Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_LOG_LEVEL             debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_DEFAULT_LOCALE        Default locale (default: en)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_LOCALES               Comma-separated configured locales (default: en)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_REDIS_URL             Redis URL for shared locale bundles (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_SCAN_PATHS            Comma-separated code manifests or directories\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_RESCAN_SCHEDULE       Cron spec for periodic re-scans (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OCMS_RESCAN_PURGE_ORPHANS  Purge messages missing from scheduled scans (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("catalogd %s\n", buildInfo())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := buildInfo()

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Also write WARN+ logs and categorized admin actions to the Event Log
	events := store.NewEventStore(db)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, events))
	slog.SetDefault(logger)

	ctx := context.Background()

	repo := catalog.NewRepository(store.NewMessageStore(db), logger)
	if err := repo.Load(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog loaded", "messages", repo.Len())

	cacheCfg := cache.DefaultConfig()
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = cfg.CacheTTLDuration()
	cacheCfg.MaxSize = cfg.CacheMaxSize
	if cfg.UseRedisCache() {
		cacheCfg.Type = cache.TypeRedis
		cacheCfg.RedisURL = cfg.RedisURL
	}
	caches, err := cache.NewManager(repo, cacheCfg, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() {
		if err := caches.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()
	slog.Info("cache initialized", "backend", caches.Info(), "redis_url", cache.SanitizeRedisURL(cfg.RedisURL))

	if err := caches.Preload(ctx, cfg.Locales); err != nil {
		slog.Warn("cache preload failed", "error", err)
	}

	locales := admin.StaticLocales{Default: cfg.DefaultLocale, List: cfg.Locales}
	facade := admin.NewFacade(repo, locales, logger)
	engine := reconcile.NewEngine(repo, logger)

	var scanner reconcile.Scanner
	if len(cfg.ScanPaths) > 0 {
		scanner = reconcile.NewManifestScanner(cfg.ScanPaths...)
	}

	sched := scheduler.New(engine, scanner, logger)
	if cfg.RescanEnabled() {
		if err := sched.ScheduleRescan(cfg.RescanSchedule, reconcile.Options{
			PurgeOrphans: cfg.RescanPurgeOrphans,
		}); err != nil {
			return fmt.Errorf("scheduling re-scan: %w", err)
		}
	}
	if cfg.EventRetentionDays > 0 {
		retention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
		if err := sched.AddJob("prune events", "@daily", func(ctx context.Context) error {
			n, err := events.DeleteEventsBefore(ctx, time.Now().Add(-retention))
			if err == nil && n > 0 {
				slog.Info("old events pruned", "count", n)
			}
			return err
		}); err != nil {
			return fmt.Errorf("scheduling event pruning: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	h := api.NewHandler(api.Deps{
		DB:      db,
		Facade:  facade,
		Engine:  engine,
		Scanner: scanner,
		Caches:  caches,
		Events:  events,
		Jobs:    sched,
		Logger:  logger,
		Version: versionInfo,
	})

	routeOpts := api.DefaultRouteOptions()
	routeOpts.IsDevelopment = cfg.IsDevelopment()
	routeOpts.WriteRPS = cfg.WriteRPS
	routeOpts.WriteBurst = cfg.WriteBurst

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           h.Routes(routeOpts),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
