/*
sale.go - Daily sales coordinator

STOCK SEMANTICS:
  - create: -quantity
  - edit:   oldQuantity - newQuantity (compensating delta on the same product)
  - delete: +quantity (restock)

Each operation pairs its record write with the stock delta in one engine
transaction. Insufficient stock aborts the whole operation; no partial
writes survive.
*/
package pos

import (
	"context"
	"errors"

	"github.com/warp/stock-engine/inventory"
)

type SaleService struct {
	stock *inventory.Service
}

func NewSaleService(stock *inventory.Service) *SaleService {
	return &SaleService{stock: stock}
}

// Create records a sale and deducts its quantity from stock.
func (s *SaleService) Create(ctx context.Context, in SaleInput) (*inventory.SaleRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec *inventory.SaleRecord
	err := s.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		p, err := tx.GetProductByName(ctx, in.Item)
		if err != nil {
			return err
		}
		if _, err := apply(p.ID, -in.Quantity, inventory.ReasonSale(in.Quantity, in.Discount)); err != nil {
			return err
		}
		rec = &inventory.SaleRecord{
			Date:      in.Date,
			Item:      p.Name,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Discount:  in.Discount,
			Total:     inventory.LineTotal(in.Quantity, in.UnitPrice, in.Discount),
			ProductID: p.ID,
		}
		return tx.CreateSale(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Edit replaces a sale's quantity, price and discount. The stock delta is
// the difference between the old and new quantity; the product is fixed.
func (s *SaleService) Edit(ctx context.Context, id int64, in SaleInput) (*inventory.SaleRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec *inventory.SaleRecord
	err := s.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		old, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if change := old.Quantity - in.Quantity; change != 0 {
			if _, err := apply(old.ProductID, change, inventory.ReasonSaleEdit(old.Quantity, in.Quantity)); err != nil {
				return err
			}
		}
		updated := inventory.SaleRecord{
			ID:        id,
			Date:      in.Date,
			Item:      old.Item,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
			Discount:  in.Discount,
			Total:     inventory.LineTotal(in.Quantity, in.UnitPrice, in.Discount),
			ProductID: old.ProductID,
		}
		if err := tx.UpdateSale(ctx, updated); err != nil {
			return err
		}
		rec = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a sale and restocks its quantity. If the product has been
// deleted since, the record is removed without a ledger movement.
func (s *SaleService) Delete(ctx context.Context, id int64) error {
	return s.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if _, err := apply(sale.ProductID, sale.Quantity, inventory.ReasonSaleDeletion(sale.Quantity)); err != nil {
			if !errors.Is(err, inventory.ErrProductNotFound) {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
}

// List returns all sale records.
func (s *SaleService) List(ctx context.Context) ([]inventory.SaleRecord, error) {
	return s.stock.Store().ListSales(ctx)
}
