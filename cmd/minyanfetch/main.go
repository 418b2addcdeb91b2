// Package main implements minyanfetch, the command that refreshes the
// minyan times cache from the synagogue calendar.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairlawncommons/shabbat-api/internal/config"
	"github.com/fairlawncommons/shabbat-api/internal/database"
	"github.com/fairlawncommons/shabbat-api/internal/logger"
	"github.com/fairlawncommons/shabbat-api/internal/minyan"
	"github.com/fairlawncommons/shabbat-api/internal/output"
)

var rootCmd = &cobra.Command{
	Use:           "minyanfetch",
	Short:         "Refresh the minyan times cache",
	Long:          "Fetches Friday and Shabbat minyan times from the synagogue calendar for the coming weeks and writes them to the cache file the API serves.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	noColor bool
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the components every subcommand needs.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *database.DB
	store   *minyan.Store
	updater *minyan.Updater
	printer *output.Printer
}

// newApp loads configuration, applies override if set, and opens the
// database and cache.
func newApp(ctx context.Context, override func(*config.Config)) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return nil, err
	}
	if _, err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := minyan.NewStore(cfg.MinyanCachePath, log)
	if err := store.Load(); err != nil {
		log.Warn("minyan cache unreadable, starting empty", slog.Any("error", err))
	}

	scraper := minyan.NewScraper(&minyan.Options{
		CalendarURL:   cfg.MinyanCalendarURL,
		Timeout:       cfg.MinyanFetchTimeout,
		RespectRobots: true,
	}, log)

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: store,
		updater: minyan.NewUpdater(store, scraper, db, minyan.UpdaterOptions{
			Weeks:    cfg.MinyanFetchWeeks,
			Delay:    cfg.MinyanFetchDelay,
			Location: loc.TimeZone,
		}, log),
		printer: output.NewPrinter(!noColor),
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}
