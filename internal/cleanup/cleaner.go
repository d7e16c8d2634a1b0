package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecoquest/quest-engine/internal/storage"
)

// Cleaner periodically prunes old rejected submissions from the audit
// table. Accepted submissions are never pruned.
type Cleaner struct {
	repo      storage.Repository
	interval  time.Duration
	retention time.Duration
}

// NewCleaner creates a new retention sweeper
func NewCleaner(repo storage.Repository, interval, retention time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}

	return &Cleaner{
		repo:      repo,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the sweeper in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the sweeper
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("submission sweeper started", "interval", c.interval, "retention", c.retention)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("submission sweeper stopped")
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

// sweep deletes rejected submissions past the retention window
func (c *Cleaner) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-c.retention)

	deleted, err := c.repo.DeleteSubmissionsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("failed to prune submissions", "error", err)
		return
	}

	if deleted > 0 {
		slog.Info("pruned old submissions", "count", deleted, "cutoff", cutoff)
	}
}
