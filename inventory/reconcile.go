/*
reconcile.go - Drift detection and repair

PURPOSE:
  The cached stock projection and the ledger sum should always agree. If
  they ever diverge (a crash between paired writes, a hand-edited database,
  a historical import), reconciliation repairs the ledger by appending a
  corrective entry so that sum(ledger) == stock again.

DIRECTION OF TRUTH:
  The cached stock is treated as ground truth and the LEDGER is corrected
  toward it, never the reverse. Operators count shelves, not audit logs; the
  projection is what they have verified.

GUARANTEES:
  - Idempotent: running twice in a row yields no second correction.
  - Fault-isolated: a failure on one product is logged and skipped; the
    sweep continues and never fails the caller over a single product.
  - Atomic per product: stock and sum are re-read inside the same
    transaction that appends the correction, so a concurrent mutation
    between detection and repair cannot produce a stale correction.
*/
package inventory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Correction reports one repaired product.
type Correction struct {
	ProductID ProductID
	Name      string
	LedgerSum int // sum(ledger) before the correction
	Stock     int // cached projection, the target
	Delta     int // appended corrective delta: Stock - LedgerSum
}

// Reconciler sweeps the catalog for projection/ledger drift.
type Reconciler struct {
	store TxStore
	log   *logrus.Logger
}

func NewReconciler(store TxStore, log *logrus.Logger) *Reconciler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reconciler{store: store, log: log}
}

// Reconcile sweeps every product and returns the corrections applied.
// Per-product failures are logged and skipped. Only a failure to list the
// catalog itself is returned to the caller.
func (r *Reconciler) Reconcile(ctx context.Context) ([]Correction, error) {
	products, err := r.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	corrections := make([]Correction, 0)
	for _, p := range products {
		c, err := r.reconcileProduct(ctx, p.ID)
		if err != nil {
			r.log.WithFields(logrus.Fields{
				"product_id": p.ID,
				"product":    p.Name,
			}).WithError(err).Warn("reconciliation skipped product")
			continue
		}
		if c != nil {
			r.log.WithFields(logrus.Fields{
				"product":    c.Name,
				"ledger_sum": c.LedgerSum,
				"stock":      c.Stock,
				"delta":      c.Delta,
			}).Info("reconciled stock drift")
			corrections = append(corrections, *c)
		}
	}
	return corrections, nil
}

func (r *Reconciler) reconcileProduct(ctx context.Context, id ProductID) (*Correction, error) {
	var c *Correction
	err := r.store.WithTx(ctx, func(tx Store) error {
		c = nil
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// Deleted since the sweep listed it. Nothing to repair.
				return nil
			}
			return err
		}
		sum, err := tx.SumDeltas(ctx, id)
		if err != nil {
			return err
		}
		if sum == p.Stock {
			return nil
		}
		delta := p.Stock - sum
		if err := tx.AppendEntry(ctx, &LedgerEntry{
			ProductID: id,
			Date:      time.Now().UTC(),
			Delta:     delta,
			Reason:    ReasonReconciliation,
		}); err != nil {
			return err
		}
		c = &Correction{
			ProductID: id,
			Name:      p.Name,
			LedgerSum: sum,
			Stock:     p.Stock,
			Delta:     delta,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
