package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gapless-controller/internal/catalog"
	"gapless-controller/internal/platform/config"
	"gapless-controller/internal/platform/logger"
	"gapless-controller/internal/platform/metrics"
	"gapless-controller/internal/playback"
	"gapless-controller/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()
	cfg := config.LoadServer()

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	repo := session.NewInMemoryRepository()

	source, closeSource, err := openCatalog(ctx, cfg, log)
	if err != nil {
		log.Error("catalog unavailable", "error", err)
		os.Exit(1)
	}
	defer closeSource()

	svc := session.NewService(repo, source, log, met, session.Options{
		Clock:           playback.SystemClock{},
		VolumeDebounce:  cfg.VolumeDebounce,
		SkipCooldown:    cfg.SkipCooldown,
		PreviewInterval: cfg.SeekPreviewInterval,
		MediaDuration:   cfg.MediaDuration,
	})
	if err := svc.Refresh(ctx); err != nil {
		log.Error("initial catalog load failed", "error", err)
		os.Exit(1)
	}
	watchCatalog(ctx, cfg, svc, source, log)

	go svc.Run(ctx, cfg.TickInterval)

	h := session.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetActiveSessions(svc.ActiveSessionCount()) }).ServeHTTP(w, r)
	})
	h.Routes(r)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	addr := ":" + cfg.Port
	srv := &http.Server{Addr: addr, Handler: corsHandler.Handler(r)}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", cfg.Port,
		"catalog_path", cfg.CatalogPath,
		"catalog_db", cfg.CatalogDB,
		"tick_interval", cfg.TickInterval.String(),
		"log_level", cfg.LogLevel,
	)

	<-ctx.Done()

	log.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	for _, s := range repo.List() {
		_ = svc.Delete(s.ID)
	}

	log.Info("server stopped")
}

// openCatalog picks the catalog source: SQLite when CATALOG_DB is set (seeded
// from CATALOG_PATH if both are set), else the JSON file, else empty.
func openCatalog(ctx context.Context, cfg config.Server, log *slog.Logger) (catalog.Source, func(), error) {
	if cfg.CatalogDB == "" {
		if cfg.CatalogPath == "" {
			log.Warn("no catalog configured, starting empty")
			return catalog.Static(nil), func() {}, nil
		}
		return catalog.NewFileSource(cfg.CatalogPath, log), func() {}, nil
	}

	db, err := catalog.OpenSQLite(cfg.CatalogDB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.CatalogPath != "" {
		if err := importFile(ctx, db, cfg.CatalogPath, log); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return db, func() { db.Close() }, nil
}

func importFile(ctx context.Context, db *catalog.SQLiteSource, path string, log *slog.Logger) error {
	songs, err := catalog.NewFileSource(path, log).Songs(ctx)
	if err != nil {
		return err
	}
	if err := db.Upsert(ctx, songs...); err != nil {
		return err
	}
	log.Info("catalog imported", "path", path, "songs", len(songs))
	return nil
}

// watchCatalog hot-reloads the catalog file. With a SQLite source the file
// is re-imported before the database is re-read.
func watchCatalog(ctx context.Context, cfg config.Server, svc *session.Service, source catalog.Source, log *slog.Logger) {
	if cfg.CatalogPath == "" {
		return
	}
	file := catalog.NewFileSource(cfg.CatalogPath, log)
	go func() {
		err := file.Watch(ctx, func(songs []playback.Interval) {
			db, ok := source.(*catalog.SQLiteSource)
			if !ok {
				svc.ApplyCatalog(songs)
				return
			}
			if err := db.Upsert(ctx, songs...); err != nil {
				log.Warn("catalog import failed", "error", err)
				return
			}
			if err := svc.Refresh(ctx); err != nil {
				log.Warn("catalog refresh failed", "error", err)
			}
		})
		if err != nil {
			log.Warn("catalog watch stopped", "error", err)
		}
	}()
}
