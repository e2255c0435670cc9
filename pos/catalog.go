/*
catalog.go - Manual product maintenance

STOCK SEMANTICS:
  - Add with stock > 0 writes an "Initial stock" ledger entry so the ledger
    sum matches the projection from day one.
  - Update writes a "Stock updated" delta entry when the stock field moved.
  - Delete cascades the product's ledger entries; sale/damage/invoice rows
    keep their denormalized names and stay readable.
*/
package pos

import (
	"context"
	"time"

	"github.com/warp/stock-engine/inventory"
)

type CatalogService struct {
	stock *inventory.Service
}

func NewCatalogService(stock *inventory.Service) *CatalogService {
	return &CatalogService{stock: stock}
}

// Create inserts a product, seeding the ledger when initial stock is set.
func (c *CatalogService) Create(ctx context.Context, in ProductInput) (*inventory.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &inventory.Product{
		Name:        in.Name,
		Category:    in.Category,
		BuyPrice:    in.BuyPrice,
		SellPrice:   in.SellPrice,
		Stock:       in.Stock,
		LastUpdated: time.Now().UTC(),
	}
	err := c.stock.InTx(ctx, func(tx inventory.Store, _ inventory.ApplyFunc) error {
		if err := tx.CreateProduct(ctx, p); err != nil {
			return err
		}
		if in.Stock > 0 {
			return tx.AppendEntry(ctx, &inventory.LedgerEntry{
				ProductID: p.ID,
				Date:      p.LastUpdated,
				Delta:     in.Stock,
				Reason:    inventory.ReasonInitialStock,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces a product's fields. A stock change is recorded in the
// ledger so the projection and the sum stay equal.
func (c *CatalogService) Update(ctx context.Context, id inventory.ProductID, in ProductInput) (*inventory.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *inventory.Product
	err := c.stock.InTx(ctx, func(tx inventory.Store, _ inventory.ApplyFunc) error {
		old, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		p := inventory.Product{
			ID:          id,
			Name:        in.Name,
			Category:    in.Category,
			BuyPrice:    in.BuyPrice,
			SellPrice:   in.SellPrice,
			Stock:       in.Stock,
			LastUpdated: now,
		}
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		if change := in.Stock - old.Stock; change != 0 {
			if err := tx.AppendEntry(ctx, &inventory.LedgerEntry{
				ProductID: id,
				Date:      now,
				Delta:     change,
				Reason:    inventory.ReasonStockUpdated,
			}); err != nil {
				return err
			}
		}
		updated = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a product and its ledger history.
func (c *CatalogService) Delete(ctx context.Context, id inventory.ProductID) error {
	return c.stock.InTx(ctx, func(tx inventory.Store, _ inventory.ApplyFunc) error {
		return tx.DeleteProduct(ctx, id)
	})
}

// History returns the product's ledger movements, newest first.
func (c *CatalogService) History(ctx context.Context, id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	if _, err := c.stock.Store().GetProduct(ctx, id); err != nil {
		return nil, err
	}
	return c.stock.Store().Entries(ctx, id)
}
