package coordinate

import (
	"context"
	"time"

	"github.com/stlalpha/specmech/internal/logging"
)

const (
	timeSyncNormalInterval = 86400 * time.Second
	timeSyncRetryInterval  = 60 * time.Second
)

// RunTimeSync sends "st<ISO_UTC>" every timeSyncNormalInterval, or
// every timeSyncRetryInterval after a failed attempt, until ctx is
// cancelled. It is meant to be run in its own goroutine for the
// lifetime of a connected Client.
func (c *Coordinator) RunTimeSync(ctx context.Context) {
	interval := timeSyncNormalInterval
	for {
		if err := sleepCtx(ctx, interval); err != nil {
			return
		}
		now := time.Now().UTC().Format("2006-01-02T15:04:05")
		if err := c.SetTime(ctx, now); err != nil {
			logging.Warn("time sync failed: %v", err)
			interval = timeSyncRetryInterval
			continue
		}
		interval = timeSyncNormalInterval
	}
}
