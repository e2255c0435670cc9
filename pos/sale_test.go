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

// =============================================================================
// TEST SETUP (shared by the pos test files)
// =============================================================================

func newTestEnv(t *testing.T) (*inventory.Service, *sqlite.Store) {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return inventory.NewService(st), st
}

func addProduct(t *testing.T, svc *inventory.Service, name string, stock int, sellPrice float64) inventory.ProductID {
	t.Helper()
	catalog := pos.NewCatalogService(svc)
	p, err := catalog.Create(context.Background(), pos.ProductInput{
		Name:      name,
		Category:  "Chargers",
		BuyPrice:  decimal.NewFromFloat(sellPrice / 2),
		SellPrice: decimal.NewFromFloat(sellPrice),
		Stock:     stock,
	})
	require.NoError(t, err)
	return p.ID
}

func stockOf(t *testing.T, s inventory.Store, id inventory.ProductID) int {
	t.Helper()
	p, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func ledgerSum(t *testing.T, s inventory.Store, id inventory.ProductID) int {
	t.Helper()
	sum, err := s.SumDeltas(context.Background(), id)
	require.NoError(t, err)
	return sum
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SALE CREATION
// =============================================================================

func TestSale_Create_DeductsStockAndComputesTotal(t *testing.T) {
	// GIVEN: 10 chargers in stock
	// WHEN: Selling 3 at 10.00 with 10% discount
	// THEN: Stock drops to 7, total is 27.00, ledger records the sale reason

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "USB-C Charger", 10, 10)

	sales := pos.NewSaleService(svc)
	rec, err := sales.Create(ctx, pos.SaleInput{
		Date:      day(2025, time.August, 1),
		Item:      "USB-C Charger",
		Quantity:  3,
		UnitPrice: decimal.NewFromInt(10),
		Discount:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.True(t, rec.Total.Equal(decimal.NewFromInt(27)), "3*10 less 10%% = 27, got %s", rec.Total)
	assert.Equal(t, 7, stockOf(t, st, id))
	assert.Equal(t, 7, ledgerSum(t, st, id))

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sale of 3 units with 10% discount", entries[0].Reason)
	assert.Equal(t, -3, entries[0].Delta)
}

func TestSale_Create_InsufficientStock_NoSaleRow(t *testing.T) {
	// GIVEN: Only 2 units in stock
	// WHEN: Selling 5
	// THEN: Rejected; no sale record, no stock change, no ledger entry

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Mouse", 2, 25)

	sales := pos.NewSaleService(svc)
	_, err := sales.Create(ctx, pos.SaleInput{
		Date:      day(2025, time.August, 1),
		Item:      "Mouse",
		Quantity:  5,
		UnitPrice: decimal.NewFromInt(25),
	})
	require.Error(t, err)

	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 2, short.Available)

	list, err := sales.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "aborted sale must leave no record")
	assert.Equal(t, 2, stockOf(t, st, id))
	assert.Equal(t, 2, ledgerSum(t, st, id))
}

func TestSale_Create_Validation(t *testing.T) {
	svc, _ := newTestEnv(t)
	sales := pos.NewSaleService(svc)
	ctx := context.Background()

	tests := []struct {
		name string
		in   pos.SaleInput
	}{
		{"zero quantity", pos.SaleInput{Item: "x", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
		{"negative price", pos.SaleInput{Item: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}},
		{"discount above 100", pos.SaleInput{Item: "x", Quantity: 1, Discount: decimal.NewFromInt(101)}},
		{"empty item", pos.SaleInput{Item: "  ", Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sales.Create(ctx, tt.in)
			assert.ErrorIs(t, err, inventory.ErrValidation)
		})
	}
}

func TestSale_Create_UnknownProduct(t *testing.T) {
	svc, _ := newTestEnv(t)
	sales := pos.NewSaleService(svc)

	_, err := sales.Create(context.Background(), pos.SaleInput{
		Date:     day(2025, time.August, 1),
		Item:     "Nope",
		Quantity: 1,
	})
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}

// =============================================================================
// SALE EDIT AND DELETE
// =============================================================================

func TestSale_Edit_AppliesCompensatingDelta(t *testing.T) {
	// GIVEN: A sale of 5 out of 10
	// WHEN: Editing the quantity down to 2
	// THEN: Stock rises by 3 with a sale-edit ledger entry

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Cable", 10, 5)

	sales := pos.NewSaleService(svc)
	rec, err := sales.Create(ctx, pos.SaleInput{
		Date: day(2025, time.August, 1), Item: "Cable", Quantity: 5,
		UnitPrice: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.Equal(t, 5, stockOf(t, st, id))

	edited, err := sales.Edit(ctx, rec.ID, pos.SaleInput{
		Date: day(2025, time.August, 1), Item: "Cable", Quantity: 2,
		UnitPrice: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, edited.Quantity)
	assert.True(t, edited.Total.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 8, stockOf(t, st, id))
	assert.Equal(t, 8, ledgerSum(t, st, id))

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sale edit (old: 5, new: 2)", entries[0].Reason)
}

func TestSale_Edit_IncreaseBeyondStock_Rejected(t *testing.T) {
	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Hub", 4, 12)

	sales := pos.NewSaleService(svc)
	rec, err := sales.Create(ctx, pos.SaleInput{
		Date: day(2025, time.August, 1), Item: "Hub", Quantity: 3,
		UnitPrice: decimal.NewFromInt(12),
	})
	require.NoError(t, err)

	// 1 left; raising the sale to 6 needs 3 more than available.
	_, err = sales.Edit(ctx, rec.ID, pos.SaleInput{
		Date: day(2025, time.August, 1), Item: "Hub", Quantity: 6,
		UnitPrice: decimal.NewFromInt(12),
	})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 1, stockOf(t, st, id))

	got, err := st.GetSale(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity, "failed edit must not change the record")
}

func TestSale_Delete_RestocksQuantity(t *testing.T) {
	// GIVEN: A sale of 4 out of 10
	// WHEN: Deleting the sale
	// THEN: Stock returns to 10 and the record is gone

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Dock", 10, 30)

	sales := pos.NewSaleService(svc)
	rec, err := sales.Create(ctx, pos.SaleInput{
		Date: day(2025, time.August, 1), Item: "Dock", Quantity: 4,
		UnitPrice: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	require.NoError(t, sales.Delete(ctx, rec.ID))

	assert.Equal(t, 10, stockOf(t, st, id))
	assert.Equal(t, 10, ledgerSum(t, st, id))

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Sale deletion (4 sold)", entries[0].Reason)

	_, err = st.GetSale(ctx, rec.ID)
	assert.ErrorIs(t, err, inventory.ErrSaleNotFound)
}

func TestSale_Delete_OrphanedProduct_RemovesRecordOnly(t *testing.T) {
	// GIVEN: A sale whose product was deleted afterwards
	// WHEN: Deleting the sale
	// THEN: The record goes away; no ledger movement is attempted

	svc, st := newTestEnv(t)
	ctx := context.Background()
	id := addProduct(t, svc, "Stand", 5, 15)

	sales := pos.NewSaleService(svc)
	rec, err := sales.Create(ctx, pos.SaleInput{
		Date: day(2025, time.August, 1), Item: "Stand", Quantity: 2,
		UnitPrice: decimal.NewFromInt(15),
	})
	require.NoError(t, err)

	catalog := pos.NewCatalogService(svc)
	require.NoError(t, catalog.Delete(ctx, id))

	require.NoError(t, sales.Delete(ctx, rec.ID))
	_, err = st.GetSale(ctx, rec.ID)
	assert.ErrorIs(t, err, inventory.ErrSaleNotFound)
}
