package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gausamvardhan/storefront-backend/pkg/logger"
)

// CartSweeper deletes durable carts untouched since cutoff.
type CartSweeper interface {
	DeleteUpdatedBefore(cutoff time.Time) (int64, error)
}

// CartRetentionScheduler purges saved carts that nobody has touched for
// the retention window.
type CartRetentionScheduler struct {
	cron      *cron.Cron
	sweeper   CartSweeper
	retention time.Duration
	schedule  string
	now       func() time.Time
}

func NewCartRetentionScheduler(sweeper CartSweeper, retentionDays int, schedule string) *CartRetentionScheduler {
	return &CartRetentionScheduler{
		cron:      cron.New(),
		sweeper:   sweeper,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		schedule:  schedule,
		now:       time.Now,
	}
}

// Start registers the sweep. A zero retention leaves the scheduler idle.
func (s *CartRetentionScheduler) Start() error {
	if s.retention <= 0 {
		logger.Info("Cart retention disabled", nil)
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(); err != nil {
			logger.Error("Scheduled cart sweep failed", err)
		}
	}); err != nil {
		logger.Error("Failed to add cron job for cart retention", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return fmt.Errorf("invalid cart retention schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	logger.Info("Cart retention scheduler started", map[string]interface{}{
		"schedule":       s.schedule,
		"retention_days": int(s.retention.Hours() / 24),
	})
	return nil
}

// RunOnce deletes every cart last written before now minus the retention.
func (s *CartRetentionScheduler) RunOnce() (int64, error) {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.sweeper.DeleteUpdatedBefore(cutoff)
	if err != nil {
		return 0, err
	}

	logger.Info("Stale carts purged", map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	})
	return deleted, nil
}

func (s *CartRetentionScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cart retention scheduler stopped", nil)
}
