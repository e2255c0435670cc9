/*
invoice.go - Invoicing coordinator

TWO SOURCES:
  - From stock: the invoice itself deducts the quantity (a direct sale at
    the product's sell price).
  - From sale: the invoice formalizes an existing sale record whose stock
    movement already happened. Input must match the sale's product,
    quantity and discount exactly; no stock is touched.

DELETE:
  A from-stock invoice restores its line quantities. A from-sale invoice
  restores nothing: deleting the paperwork does not undo the sale.

Invoice numbers are INV-<timestamp>-<suffix> and unique.
*/
package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// vatRate is the statutory 13% applied to every invoice subtotal.
var vatRate = decimal.NewFromFloat(0.13)

type InvoiceService struct {
	stock *inventory.Service
}

func NewInvoiceService(stock *inventory.Service) *InvoiceService {
	return &InvoiceService{stock: stock}
}

// newNumber builds a unique invoice number. The uuid suffix covers two
// invoices created within the same second.
func newNumber(now time.Time) string {
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102150405"), uuid.NewString()[:8])
}

// Create issues an invoice from either source, per in.SaleID.
func (v *InvoiceService) Create(ctx context.Context, in InvoiceInput) (*inventory.Invoice, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	number := newNumber(now)

	var inv *inventory.Invoice
	err := v.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		p, err := tx.GetProductByName(ctx, in.Item)
		if err != nil {
			return err
		}

		unitPrice := p.SellPrice
		if in.SaleID != nil {
			sale, err := tx.GetSale(ctx, *in.SaleID)
			if err != nil {
				return err
			}
			if sale.ProductID != p.ID {
				return &inventory.SaleMismatchError{SaleID: *in.SaleID, Field: "product"}
			}
			if sale.Quantity != in.Quantity {
				return &inventory.SaleMismatchError{SaleID: *in.SaleID, Field: "quantity"}
			}
			if !sale.Discount.Equal(in.Discount) {
				return &inventory.SaleMismatchError{SaleID: *in.SaleID, Field: "discount"}
			}
			// The sale already moved the stock; invoice it at the sale price.
			unitPrice = sale.UnitPrice
		} else {
			if _, err := apply(p.ID, -in.Quantity, inventory.ReasonInvoice(number)); err != nil {
				return err
			}
		}

		subtotal := inventory.LineTotal(in.Quantity, unitPrice, in.Discount)
		vat := subtotal.Mul(vatRate)
		inv = &inventory.Invoice{
			Number:     number,
			Date:       in.Date,
			Customer:   in.Customer,
			Subtotal:   subtotal,
			VAT:        vat,
			GrandTotal: subtotal.Add(vat),
			CreatedAt:  now,
			SaleID:     in.SaleID,
		}
		items := []inventory.InvoiceItem{{
			ProductID: p.ID,
			Quantity:  in.Quantity,
			UnitPrice: unitPrice,
			Discount:  in.Discount,
			Total:     subtotal,
		}}
		return tx.CreateInvoice(ctx, inv, items)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete removes an invoice. From-stock line quantities are restored;
// from-sale invoices leave stock alone.
func (v *InvoiceService) Delete(ctx context.Context, id int64) error {
	return v.stock.InTx(ctx, func(tx inventory.Store, apply inventory.ApplyFunc) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv.SaleID == nil {
			items, err := tx.GetInvoiceItems(ctx, id)
			if err != nil {
				return err
			}
			for _, item := range items {
				if _, err := apply(item.ProductID, item.Quantity, inventory.ReasonInvoiceDeletion(inv.Number)); err != nil {
					if !errors.Is(err, inventory.ErrProductNotFound) {
						return err
					}
				}
			}
		}
		return tx.DeleteInvoice(ctx, id)
	})
}

// Get returns an invoice with its items.
func (v *InvoiceService) Get(ctx context.Context, id int64) (*inventory.Invoice, []inventory.InvoiceItem, error) {
	inv, err := v.stock.Store().GetInvoice(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := v.stock.Store().GetInvoiceItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return inv, items, nil
}

// List returns all invoice headers.
func (v *InvoiceService) List(ctx context.Context) ([]inventory.Invoice, error) {
	return v.stock.Store().ListInvoices(ctx)
}
