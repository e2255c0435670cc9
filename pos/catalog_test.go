package pos_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/pos"
)

func TestCatalog_Create_SeedsLedgerOnlyWhenStocked(t *testing.T) {
	// GIVEN: Two new products, one with stock and one without
	// WHEN: Creating them
	// THEN: Only the stocked one gets an "Initial stock" entry

	svc, st := newTestEnv(t)
	ctx := context.Background()
	catalog := pos.NewCatalogService(svc)

	stocked, err := catalog.Create(ctx, pos.ProductInput{
		Name: "Earphones", Category: "Audio Devices",
		BuyPrice: decimal.NewFromInt(8), SellPrice: decimal.NewFromInt(15),
		Stock: 12,
	})
	require.NoError(t, err)

	empty, err := catalog.Create(ctx, pos.ProductInput{
		Name: "Headband", Category: "Audio Devices",
		BuyPrice: decimal.NewFromInt(2), SellPrice: decimal.NewFromInt(4),
	})
	require.NoError(t, err)

	entries, err := st.Entries(ctx, stocked.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.ReasonInitialStock, entries[0].Reason)
	assert.Equal(t, 12, entries[0].Delta)

	entries, err = st.Entries(ctx, empty.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCatalog_Create_DuplicateName(t *testing.T) {
	svc, _ := newTestEnv(t)
	catalog := pos.NewCatalogService(svc)
	ctx := context.Background()

	in := pos.ProductInput{
		Name: "Smart Watch", Category: "Mobile Accessories",
		BuyPrice: decimal.NewFromInt(40), SellPrice: decimal.NewFromInt(70),
	}
	_, err := catalog.Create(ctx, in)
	require.NoError(t, err)

	_, err = catalog.Create(ctx, in)
	assert.ErrorIs(t, err, inventory.ErrDuplicateName)
}

func TestCatalog_Create_Validation(t *testing.T) {
	svc, _ := newTestEnv(t)
	catalog := pos.NewCatalogService(svc)
	ctx := context.Background()

	tests := []struct {
		name string
		in   pos.ProductInput
	}{
		{"empty name", pos.ProductInput{Category: "Phones"}},
		{"unknown category", pos.ProductInput{Name: "x", Category: "Widgets"}},
		{"negative stock", pos.ProductInput{Name: "x", Category: "Phones", Stock: -1}},
		{"negative price", pos.ProductInput{Name: "x", Category: "Phones", SellPrice: decimal.NewFromInt(-3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Create(ctx, tt.in)
			assert.ErrorIs(t, err, inventory.ErrValidation)
		})
	}
}

func TestCatalog_Update_StockChangeHitsLedger(t *testing.T) {
	// GIVEN: A product with 6 units
	// WHEN: Editing it with stock 9
	// THEN: A +3 "Stock updated" entry keeps the ledger in step

	svc, st := newTestEnv(t)
	ctx := context.Background()
	catalog := pos.NewCatalogService(svc)
	id := addProduct(t, svc, "Power Strip", 6, 11)

	updated, err := catalog.Update(ctx, id, pos.ProductInput{
		Name: "Power Strip", Category: "Chargers",
		BuyPrice: decimal.NewFromInt(5), SellPrice: decimal.NewFromInt(11),
		Stock: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock)
	assert.Equal(t, 9, ledgerSum(t, st, id))

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, inventory.ReasonStockUpdated, entries[0].Reason)
	assert.Equal(t, 3, entries[0].Delta)
}

func TestCatalog_Update_SameStock_NoLedgerEntry(t *testing.T) {
	svc, st := newTestEnv(t)
	ctx := context.Background()
	catalog := pos.NewCatalogService(svc)
	id := addProduct(t, svc, "Desk Lamp", 6, 18)

	_, err := catalog.Update(ctx, id, pos.ProductInput{
		Name: "Desk Lamp", Category: "Grooming & Others",
		BuyPrice: decimal.NewFromInt(9), SellPrice: decimal.NewFromInt(19),
		Stock: 6,
	})
	require.NoError(t, err)

	entries, err := st.Entries(ctx, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "price-only edits must not touch the ledger")
}

func TestCatalog_Delete_DropsHistory(t *testing.T) {
	svc, st := newTestEnv(t)
	ctx := context.Background()
	catalog := pos.NewCatalogService(svc)
	id := addProduct(t, svc, "Monitor Arm", 3, 55)

	require.NoError(t, catalog.Delete(ctx, id))

	_, err := st.GetProduct(ctx, id)
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)

	_, err = catalog.History(ctx, id)
	assert.ErrorIs(t, err, inventory.ErrProductNotFound)
}
