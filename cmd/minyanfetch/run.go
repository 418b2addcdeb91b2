package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairlawncommons/shabbat-api/internal/config"
	"github.com/fairlawncommons/shabbat-api/internal/minyan"
	"github.com/fairlawncommons/shabbat-api/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the coming weeks once",
	RunE:  runFetch,
}

var runWeeks int

func init() {
	runCmd.Flags().IntVarP(&runWeeks, "weeks", "w", 0, "Number of Fridays to fetch (default from MINYAN_FETCH_WEEKS)")
	rootCmd.AddCommand(runCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if runWeeks < 0 || runWeeks > 26 {
		return fmt.Errorf("--weeks must be between 1 and 26, got %d", runWeeks)
	}

	a, err := newApp(ctx, func(cfg *config.Config) {
		if runWeeks > 0 {
			cfg.MinyanFetchWeeks = runWeeks
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.updater.Run(ctx)
	if result != nil {
		printRun(a.printer, result)
	}
	if err != nil {
		return err
	}

	a.printer.Success("updated %d of %d weeks in %s", result.Updated, len(result.Weeks), a.store.Path())
	return nil
}

func printRun(p *output.Printer, result *minyan.RunResult) {
	table := output.NewTable(os.Stdout, "Friday", "Status", "Times found", "Error")
	for _, w := range result.Weeks {
		table.AddRow(w.Friday, p.Status(w.Error == ""), fmt.Sprint(w.Found), w.Error)
	}
	if err := table.Render(); err != nil {
		p.Error("render table: %v", err)
	}
	for _, w := range result.Weeks {
		if w.Error != "" {
			p.Warning("%s kept its cached times", w.Friday)
		}
	}
}
