/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically sweeps the catalog for ledger drift and writes corrective
  entries, so external edits to the cached stock never go unrecorded for
  long.

CONFIGURATION:
  - Interval: how often to sweep (default: 1 hour)
  - Enabled: whether the scheduler is active (default: true)

USAGE:
  scheduler := NewReconcileScheduler(rec, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Reconcile endpoint (manual sweep)
  - inventory/reconcile.go: the drift repair itself
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/stock-engine/inventory"
)

// ReconcileScheduler runs drift reconciliation on a fixed interval.
type ReconcileScheduler struct {
	Reconciler *inventory.Reconciler
	Interval   time.Duration
	Enabled    bool

	log    *logrus.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewReconcileScheduler(rec *inventory.Reconciler, log *logrus.Logger) *ReconcileScheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReconcileScheduler{
		Reconciler: rec,
		Interval:   time.Hour,
		Enabled:    true,
		log:        log,
		stop:       make(chan struct{}),
	}
}

// Start begins the background sweep. The first sweep runs immediately.
func (rs *ReconcileScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.log.Info("reconcile scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.wg.Add(1)
	go rs.run()

	rs.log.WithField("interval", rs.Interval).Info("reconcile scheduler started")
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (rs *ReconcileScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.log.Info("reconcile scheduler stopped")
	}
}

// RunNow triggers an immediate sweep (for admin use).
func (rs *ReconcileScheduler) RunNow() {
	rs.sweep()
}

func (rs *ReconcileScheduler) run() {
	defer rs.wg.Done()

	rs.sweep()
	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconcileScheduler) sweep() {
	corrections, err := rs.Reconciler.Reconcile(context.Background())
	if err != nil {
		rs.log.WithError(err).Error("scheduled reconciliation failed")
		return
	}
	if len(corrections) > 0 {
		rs.log.WithField("corrections", len(corrections)).Info("scheduled reconciliation repaired drift")
	}
}
