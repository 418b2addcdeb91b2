// Package main implements weekgen, which prints Shabbat schedules for a run
// of weeks as a table, JSON or YAML.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fairlawncommons/shabbat-api/internal/calendar"
	"github.com/fairlawncommons/shabbat-api/internal/config"
	"github.com/fairlawncommons/shabbat-api/internal/hebrew"
	"github.com/fairlawncommons/shabbat-api/internal/logger"
	"github.com/fairlawncommons/shabbat-api/internal/output"
)

var rootCmd = &cobra.Command{
	Use:   "weekgen",
	Short: "Print Shabbat schedules for a range of weeks",
	Example: `  weekgen --weeks 8
  weekgen --date 2024-10-01 --weeks 4 --format yaml`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWeekgen,
}

var (
	startOffset int
	startDate   string
	weekCount   int
	format      string
)

func init() {
	rootCmd.Flags().IntVar(&startOffset, "offset", 0, "Week offset to start from (0 is the coming Shabbat)")
	rootCmd.Flags().StringVar(&startDate, "date", "", "Start from the Shabbat on or after this date (YYYY-MM-DD)")
	rootCmd.Flags().IntVarP(&weekCount, "weeks", "n", 4, "Number of weeks to print")
	rootCmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWeekgen(_ *cobra.Command, _ []string) error {
	if weekCount < 1 || weekCount > 104 {
		return fmt.Errorf("--weeks must be between 1 and 104, got %d", weekCount)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	first, err := firstShabbat(startDate, startOffset, time.Now().In(loc.TimeZone))
	if err != nil {
		return err
	}

	engine := calendar.NewEngine(hebrew.NewCalendar(loc), log)
	weeks, err := collectWeeks(engine, first, weekCount)
	if err != nil {
		return err
	}

	return render(os.Stdout, format, weeks, loc.TimeZone)
}

// firstShabbat picks the starting Shabbat from an explicit date or an offset
// from now.
func firstShabbat(date string, offset int, now time.Time) (hebrew.CivilDate, error) {
	if date != "" {
		d, err := hebrew.ParseCivilDate(date)
		if err != nil {
			return hebrew.CivilDate{}, fmt.Errorf("invalid --date: %w", err)
		}
		return calendar.ShabbatOnOrAfter(d), nil
	}
	_, shabbat := calendar.TargetWeek(now, offset)
	return shabbat, nil
}

func collectWeeks(engine *calendar.Engine, first hebrew.CivilDate, n int) ([]*calendar.WeekSchedule, error) {
	weeks := make([]*calendar.WeekSchedule, 0, n)
	for i := 0; i < n; i++ {
		w, err := engine.Week(first.AddDays(7 * i))
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

func render(w io.Writer, format string, weeks []*calendar.WeekSchedule, tz *time.Location) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(weeks)

	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(weeks); err != nil {
			return err
		}
		return enc.Close()

	case "table":
		table := output.NewTable(w, "Shabbat", "Hebrew date", "Parsha", "Candles", "Occasion", "Kiddush Levana", "Maariv")
		for _, wk := range weeks {
			table.AddRow(
				wk.Shabbat.Date.String(),
				wk.Shabbat.HebrewDate,
				wk.Parsha.CurrentWeekName,
				wk.Friday.Sunset.In(tz).Format(time.Kitchen),
				occasion(wk.SpecialDay),
				kiddushLevana(wk.KiddushLevana),
				strings.Join(append(wk.Notices.ShabbatMaariv.Additions.Items(), omitted(wk.Notices.ShabbatMaariv.Omissions)...), ", "),
			)
		}
		return table.Render()
	}
	return fmt.Errorf("unknown format %q: use table, json or yaml", format)
}

func occasion(s calendar.SpecialDay) string {
	if !s.IsSpecial {
		return "-"
	}
	return string(s.Reason)
}

func kiddushLevana(w calendar.KiddushLevanaWindow) string {
	switch {
	case w.CanSayTonight && w.LastChance != nil && *w.LastChance:
		return "yes (last chance)"
	case w.CanSayTonight:
		return "yes"
	case w.Reason != "":
		return "no: " + w.Reason
	}
	return "no"
}

func omitted(s *calendar.NoticeSet) []string {
	items := s.Items()
	for i, item := range items {
		items[i] = "omit " + item
	}
	return items
}
