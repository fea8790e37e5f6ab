package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"partner-portal.backend/pkg/logger"
)

// StaleRefresher pulls provider status for registrations nobody has looked at lately
type StaleRefresher interface {
	RefreshStale(ctx context.Context, staleAfter time.Duration, limit int) (int, error)
}

// StatusRefreshJob periodically re-pulls seller status for registrations stuck in a
// non-final state, so missed webhooks are eventually repaired.
type StatusRefreshJob struct {
	refresher  StaleRefresher
	interval   time.Duration
	staleAfter time.Duration
	batchSize  int
	stop       chan struct{}
}

func NewStatusRefreshJob(refresher StaleRefresher, interval, staleAfter time.Duration, batchSize int) *StatusRefreshJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &StatusRefreshJob{
		refresher:  refresher,
		interval:   interval,
		staleAfter: staleAfter,
		batchSize:  batchSize,
		stop:       make(chan struct{}),
	}
}

// Enabled is false when no interval is configured
func (j *StatusRefreshJob) Enabled() bool {
	return j.interval > 0
}

func (j *StatusRefreshJob) Start(ctx context.Context) {
	if !j.Enabled() {
		return
	}
	logger.Info(ctx, "Starting seller status refresh job",
		zap.Duration("interval", j.interval),
		zap.Duration("stale_after", j.staleAfter),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Seller status refresh job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Seller status refresh job stopped")
			return
		case <-ticker.C:
			j.refreshStale(ctx)
		}
	}
}

func (j *StatusRefreshJob) Stop() {
	close(j.stop)
}

func (j *StatusRefreshJob) refreshStale(ctx context.Context) {
	refreshed, err := j.refresher.RefreshStale(ctx, j.staleAfter, j.batchSize)
	if err != nil {
		logger.Error(ctx, "Error refreshing stale seller statuses", zap.Error(err))
		return
	}
	if refreshed > 0 {
		logger.Info(ctx, "Refreshed stale seller statuses", zap.Int("count", refreshed))
	}
}
