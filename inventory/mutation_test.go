package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T, opts ...inventory.Option) (*inventory.Service, *store.Memory) {
	mem := store.NewMemory()
	svc := inventory.NewService(mem, opts...)
	return svc, mem
}

func seedProduct(t *testing.T, mem *store.Memory, name string, stock int) inventory.ProductID {
	t.Helper()
	ctx := context.Background()
	p := &inventory.Product{
		Name:        name,
		Category:    "Chargers",
		BuyPrice:    decimal.NewFromInt(5),
		SellPrice:   decimal.NewFromInt(8),
		Stock:       stock,
		LastUpdated: time.Now().UTC(),
	}
	require.NoError(t, mem.CreateProduct(ctx, p))
	if stock > 0 {
		require.NoError(t, mem.AppendEntry(ctx, &inventory.LedgerEntry{
			ProductID: p.ID,
			Date:      time.Now().UTC(),
			Delta:     stock,
			Reason:    inventory.ReasonInitialStock,
		}))
	}
	return p.ID
}

func subscribeEvents(t *testing.T) (*inventory.Notifier, chan inventory.LowStockEvent) {
	t.Helper()
	n := inventory.NewNotifier(16)
	t.Cleanup(n.Close)
	events := make(chan inventory.LowStockEvent, 16)
	n.Subscribe(func(ev inventory.LowStockEvent) { events <- ev })
	return n, events
}

func waitEvent(t *testing.T, events chan inventory.LowStockEvent) inventory.LowStockEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("expected a low-stock event")
		return inventory.LowStockEvent{}
	}
}

// =============================================================================
// MUTATION INVARIANTS
// =============================================================================

func TestMutateStock_ProjectionAndLedgerStayEqual(t *testing.T) {
	// GIVEN: A product with 10 units
	// WHEN: Applying several deltas
	// THEN: After each, cached stock == sum of ledger deltas

	svc, mem := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, mem, "USB-C Charger", 10)

	for _, delta := range []int{-3, -2, 4, -1} {
		_, err := svc.MutateStock(ctx, id, delta, "Stock updated")
		require.NoError(t, err)

		p, err := mem.GetProduct(ctx, id)
		require.NoError(t, err)
		sum, err := mem.SumDeltas(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, p.Stock, sum, "projection must equal ledger sum")
	}
}

func TestMutateStock_InsufficientStock_NothingWritten(t *testing.T) {
	// GIVEN: A product with 2 units
	// WHEN: Deducting 5
	// THEN: Rejected with available quantity; stock and ledger unchanged

	svc, mem := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, mem, "Mouse", 2)

	before, err := mem.Entries(ctx, id)
	require.NoError(t, err)

	_, err = svc.MutateStock(ctx, id, -5, "Damaged 5 units")
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 2, short.Available)
	assert.Equal(t, 5, short.Requested)

	p, err := mem.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	after, err := mem.Entries(ctx, id)
	require.NoError(t, err)
	assert.Len(t, after, len(before), "rejected mutation must not touch the ledger")
}

func TestMutateStock_ToExactlyZero_Allowed(t *testing.T) {
	// GIVEN: A product with 4 units
	// WHEN: Deducting exactly 4
	// THEN: Succeeds, stock is zero

	svc, mem := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, mem, "Cable", 4)

	qty, err := svc.MutateStock(ctx, id, -4, inventory.ReasonSale(4, decimal.Zero))
	require.NoError(t, err)
	assert.Equal(t, 0, qty)
}

func TestMutateStock_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.MutateStock(context.Background(), 999, -1, "Damaged 1 units")
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

// =============================================================================
// LOW-STOCK NOTIFICATIONS
// =============================================================================

func TestMutateStock_LowStockEventAtThreshold(t *testing.T) {
	// GIVEN: A product with 10 units and threshold 5
	// WHEN: Deducting down to 5
	// THEN: One event fires with the product name and remaining quantity

	notifier, events := subscribeEvents(t)
	svc, mem := newTestService(t, inventory.WithNotifier(notifier))
	ctx := context.Background()
	id := seedProduct(t, mem, "Earbuds", 10)

	// 10 -> 7: above threshold, silent.
	_, err := svc.MutateStock(ctx, id, -3, inventory.ReasonSale(3, decimal.Zero))
	require.NoError(t, err)
	select {
	case ev := <-events:
		t.Fatalf("unexpected event above threshold: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	// 7 -> 5: at threshold.
	_, err = svc.MutateStock(ctx, id, -2, inventory.ReasonDamaged(2))
	require.NoError(t, err)

	ev := waitEvent(t, events)
	assert.Equal(t, "Earbuds", ev.Name)
	assert.Equal(t, 5, ev.Quantity)
}

func TestInTx_RolledBackMutation_EmitsNoEvent(t *testing.T) {
	// GIVEN: A delta that would cross the threshold inside a failing tx
	// WHEN: The enclosing operation returns an error
	// THEN: No event is delivered and the stock is untouched

	notifier, events := subscribeEvents(t)
	svc, mem := newTestService(t, inventory.WithNotifier(notifier))
	ctx := context.Background()
	id := seedProduct(t, mem, "Headset", 6)

	boom := errors.New("record write failed")
	err := svc.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		if _, err := apply(id, -3, inventory.ReasonSale(3, decimal.Zero)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	p, err := mem.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock, "rollback must restore the projection")

	select {
	case ev := <-events:
		t.Fatalf("event from a rolled-back mutation: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInTx_CompoundFailure_NoPartialWrites(t *testing.T) {
	// GIVEN: Two deltas in one transaction, the second insufficient
	// WHEN: The transaction aborts
	// THEN: The first delta is rolled back too

	svc, mem := newTestService(t)
	ctx := context.Background()
	a := seedProduct(t, mem, "Keyboard", 10)
	b := seedProduct(t, mem, "Webcam", 1)

	err := svc.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		if _, err := apply(a, -5, inventory.ReasonImportedStock); err != nil {
			return err
		}
		_, err := apply(b, -3, inventory.ReasonImportedStock)
		return err
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	pa, err := mem.GetProduct(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 10, pa.Stock)
	sum, err := mem.SumDeltas(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 10, sum)
}
