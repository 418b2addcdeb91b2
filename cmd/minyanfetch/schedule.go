package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Fetch on a cron schedule until interrupted",
	Example: `  minyanfetch schedule --cron "0 6 * * 3"
  MINYAN_FETCH_SCHEDULE="30 5 * * 4" minyanfetch schedule`,
	RunE: runSchedule,
}

var (
	scheduleSpec string
	scheduleNow  bool
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "cron", "", "Five-field cron expression (default from MINYAN_FETCH_SCHEDULE)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Also fetch once at startup")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	spec := scheduleSpec
	if spec == "" {
		spec = a.cfg.MinyanFetchSchedule
	}
	if spec == "" {
		return fmt.Errorf("no schedule: pass --cron or set MINYAN_FETCH_SCHEDULE")
	}

	if scheduleNow {
		result, err := a.updater.Run(ctx)
		if result != nil {
			printRun(a.printer, result)
		}
		if err != nil {
			return err
		}
	}

	a.printer.Success("fetching on %q, press Ctrl-C to stop", spec)
	return a.updater.Schedule(ctx, spec)
}
