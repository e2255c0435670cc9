/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry go-playground/validator tags; handlers run the
  shared validator before touching domain logic. Domain rules (stock
  availability, sale matching) stay in the coordinators.

MONEY:
  decimal.Decimal marshals as a JSON number string, so prices survive the
  wire without float rounding.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Router setup
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

const dayFormat = "2006-01-02"

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	BuyPrice    decimal.Decimal `json:"buy_price"`
	SellPrice   decimal.Decimal `json:"sell_price"`
	Stock       int             `json:"stock"`
	LastUpdated string          `json:"last_updated"`
}

func toProductDTO(p inventory.Product) ProductDTO {
	return ProductDTO{
		ID:          int64(p.ID),
		Name:        p.Name,
		Category:    p.Category,
		BuyPrice:    p.BuyPrice,
		SellPrice:   p.SellPrice,
		Stock:       p.Stock,
		LastUpdated: p.LastUpdated.Format(time.RFC3339),
	}
}

type ProductRequest struct {
	Name      string          `json:"name" validate:"required"`
	Category  string          `json:"category" validate:"required"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Stock     int             `json:"stock" validate:"gte=0"`
}

type LedgerEntryDTO struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func toLedgerEntryDTO(e inventory.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:     e.ID,
		Date:   e.Date.Format(time.RFC3339),
		Delta:  e.Delta,
		Reason: e.Reason,
	}
}

// =============================================================================
// SALES
// =============================================================================

type SaleDTO struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	Item      string          `json:"item"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	ProductID int64           `json:"product_id"`
}

func toSaleDTO(s inventory.SaleRecord) SaleDTO {
	return SaleDTO{
		ID:        s.ID,
		Date:      s.Date.Format(dayFormat),
		Item:      s.Item,
		Quantity:  s.Quantity,
		UnitPrice: s.UnitPrice,
		Discount:  s.Discount,
		Total:     s.Total,
		ProductID: int64(s.ProductID),
	}
}

type SaleRequest struct {
	Date      string          `json:"date" validate:"required"`
	Item      string          `json:"item" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
}

// =============================================================================
// DAMAGE
// =============================================================================

type DamageDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	ProductID   int64  `json:"product_id"`
	Replaced    bool   `json:"replaced"`
}

func toDamageDTO(d inventory.DamageRecord) DamageDTO {
	return DamageDTO{
		ID:          d.ID,
		Date:        d.Date.Format(dayFormat),
		ProductName: d.ProductName,
		Quantity:    d.Quantity,
		ProductID:   int64(d.ProductID),
		Replaced:    d.Replaced,
	}
}

type DamageRequest struct {
	Date     string `json:"date" validate:"required"`
	Item     string `json:"item" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// =============================================================================
// INVOICES
// =============================================================================

type InvoiceDTO struct {
	ID         int64           `json:"id"`
	Number     string          `json:"invoice_number"`
	Date       string          `json:"date"`
	Customer   string          `json:"customer_name"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VAT        decimal.Decimal `json:"vat"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	CreatedAt  string          `json:"created_at"`
	SaleID     *int64          `json:"sale_id,omitempty"`

	Items []InvoiceItemDTO `json:"items,omitempty"`
}

type InvoiceItemDTO struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}

func toInvoiceDTO(inv inventory.Invoice, items []inventory.InvoiceItem) InvoiceDTO {
	dto := InvoiceDTO{
		ID:         inv.ID,
		Number:     inv.Number,
		Date:       inv.Date.Format(dayFormat),
		Customer:   inv.Customer,
		Subtotal:   inv.Subtotal,
		VAT:        inv.VAT,
		GrandTotal: inv.GrandTotal,
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
		SaleID:     inv.SaleID,
	}
	for _, item := range items {
		dto.Items = append(dto.Items, InvoiceItemDTO{
			ProductID: int64(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			Total:     item.Total,
		})
	}
	return dto
}

type InvoiceRequest struct {
	Date     string          `json:"date" validate:"required"`
	Customer string          `json:"customer_name"`
	Item     string          `json:"item" validate:"required"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Discount decimal.Decimal `json:"discount"`
	SaleID   *int64          `json:"sale_id,omitempty"`
}

// =============================================================================
// IMPORT / RECONCILE
// =============================================================================

type ImportRowRequest struct {
	Name      string          `json:"name" validate:"required"`
	Category  string          `json:"category" validate:"required"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
}

type ImportRequest struct {
	Rows []ImportRowRequest `json:"rows" validate:"required,min=1,dive"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type CorrectionDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	LedgerSum int    `json:"ledger_sum"`
	Stock     int    `json:"stock"`
	Delta     int    `json:"delta"`
}

type ReconcileResponse struct {
	Corrections []CorrectionDTO `json:"corrections"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
