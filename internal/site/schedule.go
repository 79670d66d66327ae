package site

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "campusevents/internal/log"
)

// Refresher re-runs Catalog.Refresh on a cron schedule.
type Refresher struct {
	cron *cron.Cron
}

// StartRefresher schedules c.Refresh with the standard 5-field cron syntax
// (e.g. "*/15 * * * *"). Each run gets its own timeout derived from ctx.
func StartRefresher(ctx context.Context, c *Catalog, schedule string, timeout time.Duration) (*Refresher, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	cr := cron.New(cron.WithLocation(c.Location()))
	_, err := cr.AddFunc(schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		appLog.Debug("scheduled refresh start", "schedule", schedule)
		c.Refresh(runCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", schedule, err)
	}
	cr.Start()
	appLog.Info("refresh scheduler started", "schedule", schedule)
	return &Refresher{cron: cr}, nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}
