package pos_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/pos"
	"github.com/warp/stock-engine/store/sqlite"
)

// TestFullCounterDay walks one product through a day at the counter: sale,
// damage, replacement, invoice, drain to zero, and a final reconciliation.
func TestFullCounterDay(t *testing.T) {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	notifier := inventory.NewNotifier(16)
	t.Cleanup(notifier.Close)
	events := make(chan inventory.LowStockEvent, 16)
	notifier.Subscribe(func(ev inventory.LowStockEvent) { events <- ev })

	svc := inventory.NewService(st, inventory.WithNotifier(notifier))
	ctx := context.Background()

	catalog := pos.NewCatalogService(svc)
	sales := pos.NewSaleService(svc)
	damage := pos.NewDamageService(svc)
	invoices := pos.NewInvoiceService(svc)

	// Morning: 10 power banks on the shelf.
	p, err := catalog.Create(ctx, pos.ProductInput{
		Name: "Power Bank 10k", Category: "Chargers",
		BuyPrice: decimal.NewFromInt(12), SellPrice: decimal.NewFromInt(20),
		Stock: 10,
	})
	require.NoError(t, err)
	today := day(2025, time.August, 4)

	// Sale of 3: stock 10 -> 7, still above the threshold.
	_, err = sales.Create(ctx, pos.SaleInput{
		Date: today, Item: p.Name, Quantity: 3,
		UnitPrice: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.Equal(t, 7, stockOf(t, st, p.ID))
	select {
	case ev := <-events:
		t.Fatalf("no event expected above threshold, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	// 2 damaged: 7 -> 5 crosses the threshold and fires an alert.
	dmg, err := damage.Create(ctx, pos.DamageInput{Date: today, Item: p.Name, Quantity: 2})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, p.Name, ev.Name)
		assert.Equal(t, 5, ev.Quantity)
	case <-time.After(time.Second):
		t.Fatal("expected a low-stock alert at the threshold")
	}

	// Supplier replaces the damaged units: 5 -> 7.
	require.NoError(t, damage.Replace(ctx, dmg.ID))
	require.Equal(t, 7, stockOf(t, st, p.ID))

	// An invoice drains the rest: 7 -> 0.
	inv, err := invoices.Create(ctx, pos.InvoiceInput{
		Date: today, Customer: "Walk-in", Item: p.Name, Quantity: 7,
	})
	require.NoError(t, err)
	require.Equal(t, 0, stockOf(t, st, p.ID))

	// 7 * 20 = 140, plus 13% VAT.
	assert.True(t, inv.GrandTotal.Equal(decimal.RequireFromString("158.2")), "total %s", inv.GrandTotal)

	// Nothing left to sell.
	_, err = sales.Create(ctx, pos.SaleInput{
		Date: today, Item: p.Name, Quantity: 1,
		UnitPrice: decimal.NewFromInt(20),
	})
	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 0, short.Available)

	// Every movement went through the ledger, so closing time reconciles clean.
	assert.Equal(t, 0, ledgerSum(t, st, p.ID))
	corrections, err := inventory.NewReconciler(st, nil).Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, corrections)
}
