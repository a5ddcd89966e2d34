package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Retention periodically purges durable audit entries older than a
// configured age. Only the durable sink is purged; the bounded in-memory
// buffer evicts on its own.
type Retention struct {
	sink   PurgeableSink
	maxAge time.Duration
	cron   *cron.Cron
	logger *logrus.Logger
}

// NewRetention creates a retention job for the given sink.
func NewRetention(sink PurgeableSink, maxAge time.Duration, logger *logrus.Logger) *Retention {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Retention{
		sink:   sink,
		maxAge: maxAge,
		logger: logger,
	}
}

// Start schedules the purge on a cron spec (e.g. "0 3 * * *" for 03:00
// daily) and begins running it.
func (r *Retention) Start(schedule string) error {
	r.cron = cron.New()
	if _, err := r.cron.AddFunc(schedule, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			r.logger.WithError(err).Error("audit retention purge failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduled purge.
func (r *Retention) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// RunOnce purges immediately and returns the number of deleted entries.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-r.maxAge)
	deleted, err := r.sink.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff,
		}).Info("purged expired audit entries")
	}
	return deleted, nil
}
