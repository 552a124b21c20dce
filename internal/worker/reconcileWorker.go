package worker

import (
	"context"
	"time"

	"github.com/ticketforge/ticketforge/internal/database"

	"github.com/sirupsen/logrus"
)

// CounterReconcileWorker periodically rewrites each sold counter from the
// actual ticket rows. Reservations whose ticket insert failed after the
// compensating decrement also failed leave the counter too high; this
// worker repairs that drift.
type CounterReconcileWorker struct {
	ticketTypeRepo database.TicketTypeRepository
	cache          database.CacheRepository
	interval       time.Duration
}

func NewCounterReconcileWorker(ticketTypeRepo database.TicketTypeRepository, cache database.CacheRepository, interval time.Duration) *CounterReconcileWorker {
	return &CounterReconcileWorker{
		ticketTypeRepo: ticketTypeRepo,
		cache:          cache,
		interval:       interval,
	}
}

func (w *CounterReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.Info("Counter reconcile worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Counter reconcile worker stopped")
			return
		case <-ticker.C:
			w.reconcileCounters(ctx)
		}
	}
}

func (w *CounterReconcileWorker) reconcileCounters(ctx context.Context) {
	logrus.Debug("Starting sold counter reconciliation")

	repaired, err := w.ticketTypeRepo.RecountSold(ctx)
	if err != nil {
		logrus.Errorf("Failed to recount sold counters: %v", err)
		return
	}

	if repaired == 0 {
		logrus.Debug("Sold counters are consistent, nothing to repair")
		return
	}

	logrus.Warnf("Repaired %d drifted sold counters", repaired)

	// Cached catalog listings carry the stale counters, drop them.
	if w.cache != nil {
		if err := w.cache.InvalidateEvents(ctx); err != nil {
			logrus.Errorf("Failed to invalidate event cache after reconciliation: %v", err)
		}
	}
}

// GetStats reports worker health for the diagnostics endpoint.
func (w *CounterReconcileWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"worker_type": "counter_reconcile",
		"interval":    w.interval.String(),
		"status":      "running",
	}
}
