/*
damage.go - Damaged goods coordinator

STOCK SEMANTICS:
  - create:  -quantity (units left sellable stock)
  - replace: +quantity, record marked replaced; a second replace is rejected
  - delete:  +quantity only if NOT replaced (replaced units were already
             restocked; restoring again would double-count)
*/
package pos

import (
	"context"
	"errors"

	"github.com/warp/stock-engine/inventory"
)

type DamageService struct {
	stock *inventory.Service
}

func NewDamageService(stock *inventory.Service) *DamageService {
	return &DamageService{stock: stock}
}

// Create records a damaged batch and deducts it from stock.
func (d *DamageService) Create(ctx context.Context, in DamageInput) (*inventory.DamageRecord, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var rec *inventory.DamageRecord
	err := d.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		p, err := tx.GetProductByName(ctx, in.Item)
		if err != nil {
			return err
		}
		if _, err := apply(p.ID, -in.Quantity, inventory.ReasonDamaged(in.Quantity)); err != nil {
			return err
		}
		rec = &inventory.DamageRecord{
			Date:        in.Date,
			ProductName: p.Name,
			Quantity:    in.Quantity,
			ProductID:   p.ID,
			Replaced:    false,
		}
		return tx.CreateDamage(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Replace restocks a damaged batch (supplier replacement) exactly once.
func (d *DamageService) Replace(ctx context.Context, id int64) error {
	return d.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		rec, err := tx.GetDamage(ctx, id)
		if err != nil {
			return err
		}
		if rec.Replaced {
			return inventory.ErrAlreadyReplaced
		}
		if _, err := apply(rec.ProductID, rec.Quantity, inventory.ReasonReplaced(rec.Quantity)); err != nil {
			return err
		}
		return tx.MarkDamageReplaced(ctx, id)
	})
}

// Delete removes a damage record. Unreplaced quantities are restored to
// stock; replaced ones already were. A missing product skips the restock.
func (d *DamageService) Delete(ctx context.Context, id int64) error {
	return d.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		rec, err := tx.GetDamage(ctx, id)
		if err != nil {
			return err
		}
		if !rec.Replaced {
			if _, err := apply(rec.ProductID, rec.Quantity, inventory.ReasonDamageDeletion(rec.Quantity)); err != nil {
				if !errors.Is(err, inventory.ErrProductNotFound) {
					return err
				}
			}
		}
		return tx.DeleteDamage(ctx, id)
	})
}

// List returns all damage records.
func (d *DamageService) List(ctx context.Context) ([]inventory.DamageRecord, error) {
	return d.stock.Store().ListDamage(ctx)
}
