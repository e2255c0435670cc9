package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// DRIFT RECONCILIATION
// =============================================================================

func TestReconcile_NoDrift_NoCorrections(t *testing.T) {
	// GIVEN: Products whose ledger sums match their stock
	// WHEN: Reconciling
	// THEN: No corrective entries are written

	svc, mem := newTestService(t)
	_ = svc
	ctx := context.Background()
	id := seedProduct(t, mem, "Adapter", 7)

	rec := inventory.NewReconciler(mem, nil)
	corrections, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, corrections)

	entries, err := mem.Entries(ctx, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the seed entry should exist")
}

func TestReconcile_Drift_CorrectedTowardCachedStock(t *testing.T) {
	// GIVEN: Stock 8 but ledger summing to 5 (external edit)
	// WHEN: Reconciling
	// THEN: A +3 "Stock reconciliation" entry restores sum == stock

	_, mem := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, mem, "Power Bank", 5)
	require.NoError(t, mem.SetStock(ctx, id, 8, time.Now().UTC()))

	rec := inventory.NewReconciler(mem, nil)
	corrections, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, corrections, 1)

	c := corrections[0]
	assert.Equal(t, id, c.ProductID)
	assert.Equal(t, 5, c.LedgerSum)
	assert.Equal(t, 8, c.Stock)
	assert.Equal(t, 3, c.Delta)

	sum, err := mem.SumDeltas(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 8, sum)

	entries, err := mem.Entries(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, inventory.ReasonReconciliation, entries[0].Reason, "newest entry is the correction")
	assert.Equal(t, 8, firstProduct(t, mem).Stock, "cached stock is ground truth and must not change")
}

func TestReconcile_Idempotent(t *testing.T) {
	// GIVEN: Drift already repaired by one reconciliation pass
	// WHEN: Running a second pass
	// THEN: No further corrections

	_, mem := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, mem, "Trimmer", 3)
	require.NoError(t, mem.SetStock(ctx, id, 9, time.Now().UTC()))

	rec := inventory.NewReconciler(mem, nil)

	first, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, second, "second pass must be a no-op")
}

func TestReconcile_NegativeDrift(t *testing.T) {
	// GIVEN: Ledger sum above the cached stock
	// WHEN: Reconciling
	// THEN: A negative corrective delta is appended

	_, mem := newTestService(t)
	ctx := context.Background()
	id := seedProduct(t, mem, "Phone Case", 10)
	require.NoError(t, mem.SetStock(ctx, id, 6, time.Now().UTC()))

	rec := inventory.NewReconciler(mem, nil)
	corrections, err := rec.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, corrections, 1)
	assert.Equal(t, -4, corrections[0].Delta)

	sum, err := mem.SumDeltas(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 6, sum)
}

func firstProduct(t *testing.T, s inventory.Store) inventory.Product {
	t.Helper()
	products, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, products)
	return products[0]
}
