/*
Package inventory provides the core stock ledger and consistency engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking product
  stock as an append-only ledger of signed movements plus a cached quantity
  projection. Every sale, damage report, invoice and manual correction flows
  through the same mutation path, so the projection and the ledger can always
  be reconciled against each other.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: Catalog row carrying the cached stock projection
  - LedgerEntry: An immutable movement record (signed delta + reason)
  - SaleRecord/DamageRecord/Invoice/InvoiceItem: Business records that
    reference ledger movements
  - Category taxonomy and canonical ledger reason strings

DESIGN PRINCIPLES:
  1. Append-only: Ledger entries are written, never edited. Corrections are
     new compensating entries.
  2. Precision: Monetary values use decimal.Decimal, never float64.
  3. Denormalized names: Sale/damage records capture the product name at
     write time so history stays readable after a product is deleted.

SEE ALSO:
  - mutation.go: The single write path for stock deltas
  - reconcile.go: Drift detection between projection and ledger
  - store.go: Persistence interface
*/
package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// ProductID is the storage-assigned product identifier.
type ProductID int64

// =============================================================================
// PRODUCT - Catalog row with cached stock projection
// =============================================================================

type Product struct {
	ID          ProductID
	Name        string
	Category    string
	BuyPrice    decimal.Decimal
	SellPrice   decimal.Decimal
	Stock       int
	LastUpdated time.Time
}

// Categories is the fixed product taxonomy. "All" is a filter sentinel, not
// a real category.
var Categories = []string{
	"Cables & Connectors",
	"Chargers",
	"Audio Devices",
	"Peripherals",
	"Mobile Accessories",
	"Phones",
	"Computer Components",
	"Grooming & Others",
}

// CategoryAll disables category filtering when used in filter criteria.
const CategoryAll = "All"

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// =============================================================================
// LEDGER ENTRY - Immutable stock movement
// =============================================================================

type LedgerEntry struct {
	ID        int64
	ProductID ProductID
	Date      time.Time
	Delta     int
	Reason    string
}

// Canonical reason strings. Parameterized reasons (sales, damage, invoices)
// are built by the helpers below so every writer produces identical text.
const (
	ReasonInitialStock   = "Initial stock"
	ReasonStockUpdated   = "Stock updated"
	ReasonImportedStock  = "Imported stock"
	ReasonReconciliation = "Stock reconciliation"
)

func ReasonSale(quantity int, discount decimal.Decimal) string {
	return fmt.Sprintf("Sale of %d units with %s%% discount", quantity, discount.String())
}

func ReasonSaleEdit(oldQuantity, newQuantity int) string {
	return fmt.Sprintf("Sale edit (old: %d, new: %d)", oldQuantity, newQuantity)
}

func ReasonSaleDeletion(quantity int) string {
	return fmt.Sprintf("Sale deletion (%d sold)", quantity)
}

func ReasonDamaged(quantity int) string {
	return fmt.Sprintf("Damaged %d units", quantity)
}

func ReasonReplaced(quantity int) string {
	return fmt.Sprintf("Replaced %d damaged units", quantity)
}

func ReasonDamageDeletion(quantity int) string {
	return fmt.Sprintf("Deleted damage entry (%d units)", quantity)
}

func ReasonInvoice(number string) string {
	return fmt.Sprintf("Invoice %s", number)
}

func ReasonInvoiceDeletion(number string) string {
	return fmt.Sprintf("Invoice %s deletion", number)
}

// =============================================================================
// BUSINESS RECORDS - Rows that reference ledger movements
// =============================================================================

// SaleRecord is a daily sale line. Item keeps the product name captured at
// sale time; ProductID may dangle after a product deletion.
type SaleRecord struct {
	ID        int64
	Date      time.Time
	Item      string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // percentage, 0..100
	Total     decimal.Decimal
	ProductID ProductID
}

// DamageRecord tracks a damaged batch and whether the supplier replaced it.
type DamageRecord struct {
	ID          int64
	Date        time.Time
	ProductName string
	Quantity    int
	ProductID   ProductID
	Replaced    bool
}

// Invoice is a customer invoice header. SaleID is set when the invoice was
// derived from an existing sale record (no stock movement of its own).
type Invoice struct {
	ID         int64
	Number     string
	Date       time.Time
	Customer   string
	Subtotal   decimal.Decimal
	VAT        decimal.Decimal
	GrandTotal decimal.Decimal
	CreatedAt  time.Time
	SaleID     *int64
}

type InvoiceItem struct {
	ID        int64
	InvoiceID int64
	ProductID ProductID
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// LineTotal computes quantity * price less the percentage discount.
func LineTotal(quantity int, unitPrice, discount decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return gross.Sub(gross.Mul(discount).Div(decimal.NewFromInt(100)))
}
