package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupWorker periodically deactivates expired balances. The sweep commutes
// with consumption (consumption never touches ineligible rows), so no
// coordination with request handling is needed.
type CleanupWorker struct {
	balanceSvc *BalanceService
	interval   time.Duration
	log        *logrus.Logger
}

func NewCleanupWorker(balanceSvc *BalanceService, interval time.Duration, log *logrus.Logger) *CleanupWorker {
	return &CleanupWorker{
		balanceSvc: balanceSvc,
		interval:   interval,
		log:        log,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	w.log.WithField("interval", w.interval).Info("balance cleanup worker started")

	// Initial sweep on startup
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("balance cleanup worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	count, err := w.balanceSvc.ExpireSweep(ctx, time.Now())
	if err != nil {
		w.log.WithError(err).Error("balance cleanup sweep failed")
		return
	}
	if count > 0 {
		w.log.WithField("deactivated", count).Info("deactivated expired balances")
	}
}
