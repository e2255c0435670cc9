/*
Package pos provides the transaction coordinators built on the inventory
engine: product catalog maintenance, daily sales, damaged-goods tracking,
invoicing and bulk import.

PURPOSE:
  Each coordinator composes business-record writes with stock deltas inside
  one engine transaction (inventory.Service.InTx), so a sale row and its
  stock movement commit or roll back together. None of them touch stock
  directly; the engine's apply function is the only mutation path.

SEE ALSO:
  - catalog.go: Manual product add/update/delete
  - sale.go, damage.go, invoice.go, importer.go: The four business flows
*/
package pos

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// INPUTS
// =============================================================================

// ProductInput is the manual catalog form.
type ProductInput struct {
	Name      string
	Category  string
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Stock     int
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return &inventory.ValidationError{Field: "name", Message: "must not be empty"}
	}
	if !inventory.ValidCategory(in.Category) {
		return &inventory.ValidationError{Field: "category", Message: "unknown category"}
	}
	if in.BuyPrice.IsNegative() || in.SellPrice.IsNegative() {
		return &inventory.ValidationError{Field: "price", Message: "must not be negative"}
	}
	if in.Stock < 0 {
		return &inventory.ValidationError{Field: "stock", Message: "must not be negative"}
	}
	return nil
}

// SaleInput is one daily sale line. Item is the product name.
type SaleInput struct {
	Date      time.Time
	Item      string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // percentage, 0..100
}

func (in SaleInput) validate() error {
	if strings.TrimSpace(in.Item) == "" {
		return &inventory.ValidationError{Field: "item", Message: "must not be empty"}
	}
	if in.Quantity <= 0 {
		return &inventory.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	if in.UnitPrice.IsNegative() {
		return &inventory.ValidationError{Field: "unit_price", Message: "must not be negative"}
	}
	if err := validateDiscount(in.Discount); err != nil {
		return err
	}
	return nil
}

// DamageInput reports a damaged batch.
type DamageInput struct {
	Date     time.Time
	Item     string
	Quantity int
}

func (in DamageInput) validate() error {
	if strings.TrimSpace(in.Item) == "" {
		return &inventory.ValidationError{Field: "item", Message: "must not be empty"}
	}
	if in.Quantity <= 0 {
		return &inventory.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	return nil
}

// InvoiceInput covers both invoice sources. SaleID nil means the invoice
// draws down stock directly; set, it snapshots an existing sale.
type InvoiceInput struct {
	Date     time.Time
	Customer string
	Item     string
	Quantity int
	Discount decimal.Decimal
	SaleID   *int64
}

func (in InvoiceInput) validate() error {
	if strings.TrimSpace(in.Item) == "" {
		return &inventory.ValidationError{Field: "item", Message: "must not be empty"}
	}
	if in.Quantity <= 0 {
		return &inventory.ValidationError{Field: "quantity", Message: "must be positive"}
	}
	return validateDiscount(in.Discount)
}

// ImportRow is one parsed line of a bulk stock import. Parsing the source
// file is the caller's concern.
type ImportRow struct {
	Name      string
	Category  string
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Quantity  int
}

func validateDiscount(d decimal.Decimal) error {
	hundred := decimal.NewFromInt(100)
	if d.IsNegative() || d.GreaterThan(hundred) {
		return &inventory.ValidationError{Field: "discount", Message: "must be between 0 and 100"}
	}
	return nil
}
