/*
importer.go - Bulk stock import

ONE BATCH, ONE TRANSACTION:
  Every row upserts a product and adds its quantity with an "Imported
  stock" ledger entry. Any bad row aborts the whole batch; a half-applied
  import would be indistinguishable from drift.
*/
package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/stock-engine/inventory"
)

type Importer struct {
	stock *inventory.Service
}

func NewImporter(stock *inventory.Service) *Importer {
	return &Importer{stock: stock}
}

// Import applies all rows atomically and returns the number imported.
func (im *Importer) Import(ctx context.Context, rows []ImportRow) (int, error) {
	for i, row := range rows {
		if err := validateRow(i, row); err != nil {
			return 0, err
		}
	}

	err := im.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		for _, row := range rows {
			p, err := tx.GetProductByName(ctx, row.Name)
			switch {
			case err == nil:
				// Existing product: refresh catalog fields, keep stock.
				p.Category = row.Category
				p.BuyPrice = row.BuyPrice
				p.SellPrice = row.SellPrice
				p.LastUpdated = time.Now().UTC()
				if err := tx.UpdateProduct(ctx, *p); err != nil {
					return err
				}
			case errors.Is(err, inventory.ErrProductNotFound):
				p = &inventory.Product{
					Name:        row.Name,
					Category:    row.Category,
					BuyPrice:    row.BuyPrice,
					SellPrice:   row.SellPrice,
					Stock:       0,
					LastUpdated: time.Now().UTC(),
				}
				if err := tx.CreateProduct(ctx, p); err != nil {
					return err
				}
			default:
				return err
			}
			if row.Quantity > 0 {
				if _, err := apply(p.ID, row.Quantity, inventory.ReasonImportedStock); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func validateRow(i int, row ImportRow) error {
	field := func(name string) string { return fmt.Sprintf("row %d: %s", i+1, name) }
	if strings.TrimSpace(row.Name) == "" {
		return &inventory.ValidationError{Field: field("name"), Message: "must not be empty"}
	}
	if !inventory.ValidCategory(row.Category) {
		return &inventory.ValidationError{Field: field("category"), Message: "unknown category"}
	}
	if row.BuyPrice.IsNegative() || row.SellPrice.IsNegative() {
		return &inventory.ValidationError{Field: field("price"), Message: "must not be negative"}
	}
	if row.Quantity < 0 {
		return &inventory.ValidationError{Field: field("quantity"), Message: "must not be negative"}
	}
	return nil
}
