package ingestctl

import (
	"context"
	"time"
)

// Serve runs the controller on a fixed schedule: one run every Period,
// measured from the previous run's finish, optionally starting one
// immediately on launch. It returns when ctx is canceled; a run in flight
// at that point drains cooperatively and is recorded as aborted.
func (c *Controller) Serve(ctx context.Context) error {
	if c.cfg.StartOnLaunch {
		if err := c.RunOnce(ctx); err != nil {
			c.logger.Error("scheduled ingest run failed", "err", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.Period):
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.RunOnce(ctx); err != nil {
			c.logger.Error("scheduled ingest run failed", "err", err)
		}
	}
}
