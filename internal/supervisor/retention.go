package supervisor

import (
	"context"
	"time"

	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/metrics"
)

type AlertPurger interface {
	PurgeAlertsBefore(ctx context.Context, before time.Time) (int, error)
}

// RetentionService deletes alerts older than the retention window, once at
// start and then every interval.
type RetentionService struct {
	purger    AlertPurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewRetentionService(p AlertPurger, retentionDays int, interval time.Duration) *RetentionService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionService{
		purger:    p,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		now:       time.Now,
	}
}

func (r *RetentionService) Serve(ctx context.Context) error {
	r.runOnce(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

func (r *RetentionService) runOnce(ctx context.Context) int {
	before := r.now().UTC().Add(-r.retention)
	ctxPurge, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := r.purger.PurgeAlertsBefore(ctxPurge, before)
	if err != nil {
		logging.Warn().Err(err).Msg("alert retention purge failed")
		return 0
	}
	if n > 0 {
		metrics.AlertsPurged.Add(float64(n))
		logging.Info().Int("purged", n).Time("before", before).Msg("alert retention purge")
	}
	return n
}

func (r *RetentionService) String() string { return "alert-retention" }
