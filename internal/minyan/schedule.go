package minyan

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule runs the updater on a standard five-field cron spec, in the
// updater's location, until ctx is cancelled. Runs that overlap a manual
// refresh are skipped.
func (u *Updater) Schedule(ctx context.Context, spec string) error {
	c := cron.New(cron.WithLocation(u.loc))

	_, err := c.AddFunc(spec, func() {
		if _, err := u.Run(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				u.logger.Info("scheduled minyan fetch skipped, run in progress")
				return
			}
			u.logger.Error("scheduled minyan fetch failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid fetch schedule %q: %w", spec, err)
	}

	c.Start()
	u.logger.Info("minyan fetch scheduled", "schedule", spec, "next", c.Entries()[0].Next)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
