package pos_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/pos"
)

// =============================================================================
// FROM-STOCK INVOICES
// =============================================================================

func TestInvoice_FromStock_DeductsAndComputesVAT(t *testing.T) {
	// GIVEN: 10 units selling at 12.00
	// WHEN: Invoicing 7 directly from stock
	// THEN: Stock drops to 3; subtotal 84.00, VAT 10.92, total 94.92

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Router", 10, 12)

	invoices := pos.NewInvoiceService(svc)
	inv, err := invoices.Create(ctx, pos.InvoiceInput{
		Date:     day(2025, time.August, 3),
		Customer: "Acme Ltd",
		Item:     "Router",
		Quantity: 7,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(inv.Number, "INV-"), "number %q", inv.Number)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(84)), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.VAT.Equal(decimal.RequireFromString("10.92")), "vat %s", inv.VAT)
	assert.True(t, inv.GrandTotal.Equal(decimal.RequireFromString("94.92")), "total %s", inv.GrandTotal)
	assert.Nil(t, inv.SaleID)

	assert.Equal(t, 3, stockOf(t, st, id))

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Invoice "+inv.Number, entries[0].Reason)
	assert.Equal(t, -7, entries[0].Delta)
}

func TestInvoice_FromStock_InsufficientStock(t *testing.T) {
	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Modem", 2, 35)

	invoices := pos.NewInvoiceService(svc)
	_, err := invoices.Create(ctx, pos.InvoiceInput{
		Date: day(2025, time.August, 3), Customer: "Acme Ltd", Item: "Modem", Quantity: 5,
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, stockOf(t, st, id))

	list, err := invoices.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "aborted invoice must leave no header")
}

func TestInvoice_FromStock_Delete_Restocks(t *testing.T) {
	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Switch", 8, 20)

	invoices := pos.NewInvoiceService(svc)
	inv, err := invoices.Create(ctx, pos.InvoiceInput{
		Date: day(2025, time.August, 3), Customer: "Acme Ltd", Item: "Switch", Quantity: 3,
	})
	require.NoError(t, err)
	require.Equal(t, 5, stockOf(t, st, id))

	require.NoError(t, invoices.Delete(ctx, inv.ID))
	assert.Equal(t, 8, stockOf(t, st, id))

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Invoice "+inv.Number+" deletion", entries[0].Reason)

	_, _, err = invoices.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, inventory.ErrInvoiceNotFound)
}

// =============================================================================
// FROM-SALE INVOICES
// =============================================================================

func TestInvoice_FromSale_NoStockMovement(t *testing.T) {
	// GIVEN: A sale of 4 units that already deducted stock
	// WHEN: Invoicing that sale
	// THEN: Stock is untouched and the sale's unit price and discount carry over

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Printer", 10, 100)

	sales := pos.NewSaleService(svc)
	sale, err := sales.Create(ctx, pos.SaleInput{
		Date:      day(2025, time.August, 3),
		Item:      "Printer",
		Quantity:  4,
		UnitPrice: decimal.NewFromInt(90),
		Discount:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, st, id))

	invoices := pos.NewInvoiceService(svc)
	inv, err := invoices.Create(ctx, pos.InvoiceInput{
		Date:     day(2025, time.August, 3),
		Customer: "Acme Ltd",
		Item:     "Printer",
		Quantity: 4,
		Discount: decimal.NewFromInt(10),
		SaleID:   &sale.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, 6, stockOf(t, st, id), "from-sale invoices must not touch stock")
	require.NotNil(t, inv.SaleID)
	assert.Equal(t, sale.ID, *inv.SaleID)

	// 4 * 90 less 10% = 324, priced from the sale, not the catalog.
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(324)), "subtotal %s", inv.Subtotal)

	_, items, err := invoices.Get(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(90)))
}

func TestInvoice_FromSale_MismatchRejected(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()
	addProduct(t, svc, "Scanner", 10, 60)
	addProduct(t, svc, "Shredder", 10, 45)

	sales := pos.NewSaleService(svc)
	sale, err := sales.Create(ctx, pos.SaleInput{
		Date: day(2025, time.August, 3), Item: "Scanner", Quantity: 2,
		UnitPrice: decimal.NewFromInt(60), Discount: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	invoices := pos.NewInvoiceService(svc)
	tests := []struct {
		name  string
		in    pos.InvoiceInput
		field string
	}{
		{
			"wrong product",
			pos.InvoiceInput{Item: "Shredder", Quantity: 2, Discount: decimal.NewFromInt(5)},
			"product",
		},
		{
			"wrong quantity",
			pos.InvoiceInput{Item: "Scanner", Quantity: 3, Discount: decimal.NewFromInt(5)},
			"quantity",
		},
		{
			"wrong discount",
			pos.InvoiceInput{Item: "Scanner", Quantity: 2, Discount: decimal.Zero},
			"discount",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.Date = day(2025, time.August, 3)
			in.Customer = "Acme Ltd"
			in.SaleID = &sale.ID

			_, err := invoices.Create(ctx, in)
			require.Error(t, err)

			var mismatch *inventory.SaleMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.field, mismatch.Field)
		})
	}
}

func TestInvoice_FromSale_Delete_LeavesStockAlone(t *testing.T) {
	// Deleting the paperwork does not undo the sale.

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Projector", 5, 250)

	sales := pos.NewSaleService(svc)
	sale, err := sales.Create(ctx, pos.SaleInput{
		Date: day(2025, time.August, 3), Item: "Projector", Quantity: 2,
		UnitPrice: decimal.NewFromInt(250),
	})
	require.NoError(t, err)

	invoices := pos.NewInvoiceService(svc)
	inv, err := invoices.Create(ctx, pos.InvoiceInput{
		Date: day(2025, time.August, 3), Customer: "Acme Ltd", Item: "Projector",
		Quantity: 2, SaleID: &sale.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 3, stockOf(t, st, id))

	require.NoError(t, invoices.Delete(ctx, inv.ID))
	assert.Equal(t, 3, stockOf(t, st, id))
}

func TestInvoice_Numbers_Unique(t *testing.T) {
	svc, _ := newTestEnv(t)
	ctx := context.Background()
	addProduct(t, svc, "Label Maker", 50, 30)

	invoices := pos.NewInvoiceService(svc)
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		inv, err := invoices.Create(ctx, pos.InvoiceInput{
			Date: day(2025, time.August, 3), Customer: "Acme Ltd",
			Item: "Label Maker", Quantity: 1,
		})
		require.NoError(t, err)
		assert.False(t, seen[inv.Number], "duplicate invoice number %s", inv.Number)
		seen[inv.Number] = true
	}
}
