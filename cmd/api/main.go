// Package main is the entry point for the Shabbat schedule API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fairlawncommons/shabbat-api/internal/announce"
	"github.com/fairlawncommons/shabbat-api/internal/api"
	"github.com/fairlawncommons/shabbat-api/internal/calendar"
	"github.com/fairlawncommons/shabbat-api/internal/config"
	"github.com/fairlawncommons/shabbat-api/internal/database"
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
	"github.com/fairlawncommons/shabbat-api/internal/logger"
	"github.com/fairlawncommons/shabbat-api/internal/metrics"
	"github.com/fairlawncommons/shabbat-api/internal/minyan"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server exited properly")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log.Info("starting shabbat API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("location", cfg.LocationName),
	)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Migrate(ctx); err != nil {
		return err
	}

	store := minyan.NewStore(cfg.MinyanCachePath, log)
	if err := store.Load(); err != nil {
		// The old file stays on disk; the next fetch rewrites it.
		log.Warn("minyan cache unreadable, starting empty", slog.Any("error", err))
	}
	publishCacheState(store)

	announcements, err := announce.Load(cfg.AnnouncementsPath)
	if err != nil {
		return err
	}

	scraper := minyan.NewScraper(&minyan.Options{
		CalendarURL:   cfg.MinyanCalendarURL,
		Timeout:       cfg.MinyanFetchTimeout,
		RespectRobots: true,
	}, log)
	updater := minyan.NewUpdater(store, scraper, db, minyan.UpdaterOptions{
		Weeks:    cfg.MinyanFetchWeeks,
		Delay:    cfg.MinyanFetchDelay,
		Location: loc.TimeZone,
	}, log)

	handlers := api.NewHandlers(api.Deps{
		DB:            db,
		Engine:        calendar.NewEngine(hebrew.NewCalendar(loc), log),
		Store:         store,
		Updater:       updater,
		Announcements: announcements,
		Location:      loc,
		Logger:        log,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.WatchCache {
		g.Go(func() error {
			return store.Watch(gCtx, func(err error) {
				if err == nil {
					publishCacheState(store)
				}
			})
		})
	}

	if cfg.MinyanFetchSchedule != "" {
		g.Go(func() error {
			return updater.Schedule(gCtx, cfg.MinyanFetchSchedule)
		})
	}

	return g.Wait()
}

func publishCacheState(store *minyan.Store) {
	snap := store.Snapshot()
	var updated int64
	if snap.LastUpdated != nil {
		updated = snap.LastUpdated.Unix()
	}
	metrics.SetCacheState(len(snap.Times), updated)
}
