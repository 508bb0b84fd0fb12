package admin

import (
	"context"
	"log/slog"
	"time"
)

// RequestRetention is how long a pending approval request is kept before the
// periodic cleanup drops it.
const RequestRetention = 7 * 24 * time.Hour

// Cleanup periodically removes approval requests older than the retention
// threshold.
type Cleanup struct {
	requests RequestStore
	interval time.Duration
	logger   *slog.Logger
}

// NewCleanup creates a cleanup runner over the given request store.
func NewCleanup(requests RequestStore, logger *slog.Logger) *Cleanup {
	return &Cleanup{
		requests: requests,
		interval: 24 * time.Hour,
		logger:   logger,
	}
}

// Run blocks, cleaning obsolete requests once per interval until the context
// is cancelled.
func (c *Cleanup) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.requests.CleanObsolete(RequestRetention); err != nil {
				c.logger.Error("failed to clean obsolete approval requests", "error", err)
				continue
			}
			c.logger.Info("cleaned obsolete approval requests")
		}
	}
}
