/*
mutation.go - The single write path for stock deltas

PURPOSE:
  Every stock change in the system goes through Service: sales, damage
  reports, invoices, imports and manual corrections all apply signed deltas
  here. That is what keeps the cached projection and the append-only ledger
  in lockstep.

CRITICAL INVARIANTS:
  1. NON-NEGATIVE: A delta that would drive stock below zero is rejected
     before any write. The rejection carries the available quantity.
  2. PAIRED WRITES: Projection update and ledger append happen in the same
     storage transaction. One without the other is drift.
  3. FIRE-AND-FORGET ALERTS: Low-stock notifications are emitted only after
     the transaction commits, and never block or fail the mutation.

EXAMPLE FLOW:
  1. Sale of 3 chargers: MutateStock(id, -3, "Sale of 3 units with 0% discount")
  2. Projection 10 -> 7, ledger gains a -3 entry
  3. Later, damage of 2: projection 7 -> 5, threshold hit, LowStock emitted

SEE ALSO:
  - notify.go: LowStock delivery
  - reconcile.go: Repairs drift if the pairing is ever broken externally
*/
package inventory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultLowStockThreshold is the projection level at or below which a
// LowStock event fires.
const DefaultLowStockThreshold = 5

// =============================================================================
// SERVICE - Stock mutation engine
// =============================================================================

type Service struct {
	store     TxStore
	notifier  *Notifier
	threshold int
	log       *logrus.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithNotifier(n *Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithThreshold(t int) Option {
	return func(s *Service) { s.threshold = t }
}

func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store TxStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		threshold: DefaultLowStockThreshold,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store for read paths (listing, filtering).
func (s *Service) Store() TxStore { return s.store }

// =============================================================================
// TRANSACTION SCOPE
// =============================================================================

// ApplyFunc applies a signed stock delta inside the enclosing transaction
// and returns the resulting quantity. Rejections leave the transaction's
// view untouched; callers decide whether to abort the whole unit of work.
type ApplyFunc func(id ProductID, delta int, reason string) (int, error)

// InTx runs fn inside one storage transaction, giving it a transactional
// store view plus an ApplyFunc bound to that view. Compound operations
// (sale + delta, invoice + per-line deltas) use this so that either every
// write commits or none do.
//
// Low-stock events observed during fn are held back and emitted only after
// a successful commit.
func (s *Service) InTx(ctx context.Context, fn func(tx Store, apply ApplyFunc) error) error {
	var events []LowStockEvent
	err := s.store.WithTx(ctx, func(tx Store) error {
		events = events[:0]
		apply := func(id ProductID, delta int, reason string) (int, error) {
			qty, ev, err := s.applyDelta(ctx, tx, id, delta, reason)
			if err != nil {
				return 0, err
			}
			if ev != nil {
				events = append(events, *ev)
			}
			return qty, nil
		}
		return fn(tx, apply)
	})
	if err != nil {
		return err
	}
	for _, ev := range events {
		s.emit(ev)
	}
	return nil
}

// MutateStock applies one signed delta as its own transaction and returns
// the new quantity.
func (s *Service) MutateStock(ctx context.Context, id ProductID, delta int, reason string) (int, error) {
	var qty int
	err := s.InTx(ctx, func(tx Store, apply ApplyFunc) error {
		q, err := apply(id, delta, reason)
		if err != nil {
			return err
		}
		qty = q
		return nil
	})
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// applyDelta is the invariant checkpoint. It must only run inside a
// transaction so the read-check-write below is atomic.
func (s *Service) applyDelta(ctx context.Context, tx Store, id ProductID, delta int, reason string) (int, *LowStockEvent, error) {
	p, err := tx.GetProduct(ctx, id)
	if err != nil {
		return 0, nil, err
	}

	newQty := p.Stock + delta
	if newQty < 0 {
		return 0, nil, &InsufficientStockError{
			ProductID: id,
			Name:      p.Name,
			Available: p.Stock,
			Requested: -delta,
		}
	}

	now := time.Now().UTC()
	if err := tx.SetStock(ctx, id, newQty, now); err != nil {
		return 0, nil, err
	}
	if err := tx.AppendEntry(ctx, &LedgerEntry{
		ProductID: id,
		Date:      now,
		Delta:     delta,
		Reason:    reason,
	}); err != nil {
		return 0, nil, err
	}

	var ev *LowStockEvent
	if newQty <= s.threshold {
		ev = &LowStockEvent{ProductID: id, Name: p.Name, Quantity: newQty}
	}
	return newQty, ev, nil
}

func (s *Service) emit(ev LowStockEvent) {
	if s.notifier == nil {
		return
	}
	if !s.notifier.Emit(ev) {
		s.log.WithFields(logrus.Fields{
			"product": ev.Name,
			"stock":   ev.Quantity,
		}).Warn("low-stock event dropped: notifier buffer full")
	}
}
