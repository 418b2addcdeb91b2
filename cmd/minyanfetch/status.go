package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairlawncommons/shabbat-api/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent fetch attempts and the cache contents",
	RunE:  runStatus,
}

var statusLimit int

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of attempts to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.db.GetScrapeStats(ctx)
	if err != nil {
		return err
	}
	logs, err := a.db.GetRecentScrapeLogs(ctx, statusLimit)
	if err != nil {
		return err
	}

	a.printer.Header("Recent fetch attempts")
	attempts := output.NewTable(os.Stdout, "When", "Friday", "Status", "Found", "Duration", "Error")
	for _, l := range logs {
		duration := ""
		if l.DurationMs != nil {
			duration = (time.Duration(*l.DurationMs) * time.Millisecond).String()
		}
		errMsg := ""
		if l.ErrorMessage != nil {
			errMsg = *l.ErrorMessage
		}
		attempts.AddRow(
			l.ScrapedAt.Local().Format(time.DateTime),
			l.Friday,
			a.printer.Status(l.Success),
			fmt.Sprint(l.FieldsFound),
			duration,
			errMsg,
		)
	}
	if err := attempts.Render(); err != nil {
		return err
	}
	fmt.Printf("%d attempts, %d successful, %d failed, %d Fridays\n",
		stats.TotalAttempts, stats.Successful, stats.Failed, stats.DistinctFridays)

	a.printer.Header("Cached times")
	snap := a.store.Snapshot()
	cached := output.NewTable(os.Stdout, "Friday", "Friday Mincha", "Shacharis", "Shabbat Mincha", "Maariv")
	for _, key := range slices.Sorted(maps.Keys(snap.Times)) {
		t := a.store.Lookup(key)
		cached.AddRow(key, t.FridayMincha, t.ShabbatShacharis, t.ShabbatMincha, t.ShabbatMaariv)
	}
	if err := cached.Render(); err != nil {
		return err
	}
	if snap.LastUpdated == nil {
		a.printer.Warning("cache has never been written")
	} else {
		fmt.Printf("last updated %s\n", snap.LastUpdated.Local().Format(time.DateTime))
	}
	return nil
}
