/*
store.go - Persistence interface for the stock engine

PURPOSE:
  Defines what the engine needs from storage. Implementations:
  - inventory/store: In-memory (tests, demos)
  - store/sqlite: SQLite (production)

DESIGN:
  The ledger is APPEND-ONLY: AppendEntry is the only ledger write besides the
  cascade in DeleteProduct. Corrections are new compensating entries.

  WithTx runs a function against a transactional view of the store. All
  methods called on the view happen atomically: either every write commits or
  none do. Implementations also guarantee mutual exclusion between
  transactions, which is what makes the engine's read-check-write sequences
  safe (single logical writer).

SEE ALSO:
  - mutation.go: The only caller allowed to pair SetStock with AppendEntry
  - store/memory.go: Reference implementation with snapshot rollback
*/
package inventory

import (
	"context"
	"time"
)

// =============================================================================
// STORE INTERFACES
// =============================================================================

// ProductStore persists the catalog with its cached stock projection.
type ProductStore interface {
	// CreateProduct inserts a product and assigns its ID.
	// Returns ErrDuplicateName on a name collision.
	CreateProduct(ctx context.Context, p *Product) error

	// UpdateProduct replaces all mutable fields of an existing product.
	UpdateProduct(ctx context.Context, p Product) error

	// DeleteProduct removes a product and cascades its ledger entries.
	// Business records referencing it are left in place (denormalized names).
	DeleteProduct(ctx context.Context, id ProductID) error

	GetProduct(ctx context.Context, id ProductID) (*Product, error)
	GetProductByName(ctx context.Context, name string) (*Product, error)

	// ListProducts returns all products in insertion order.
	ListProducts(ctx context.Context) ([]Product, error)

	// SetStock updates only the cached stock projection and LastUpdated.
	// Callers must pair it with AppendEntry inside one transaction.
	SetStock(ctx context.Context, id ProductID, stock int, updated time.Time) error
}

// LedgerStore persists the append-only movement log.
type LedgerStore interface {
	// AppendEntry adds a movement and assigns its ID. The only ledger write.
	AppendEntry(ctx context.Context, e *LedgerEntry) error

	// Entries returns all movements for a product, newest first.
	Entries(ctx context.Context, id ProductID) ([]LedgerEntry, error)

	// SumDeltas returns the signed sum of all movements for a product.
	// Zero when the product has no entries.
	SumDeltas(ctx context.Context, id ProductID) (int, error)
}

// SaleStore persists daily sale records.
type SaleStore interface {
	CreateSale(ctx context.Context, s *SaleRecord) error
	UpdateSale(ctx context.Context, s SaleRecord) error
	DeleteSale(ctx context.Context, id int64) error
	GetSale(ctx context.Context, id int64) (*SaleRecord, error)
	ListSales(ctx context.Context) ([]SaleRecord, error)
}

// DamageStore persists damaged-product records.
type DamageStore interface {
	CreateDamage(ctx context.Context, d *DamageRecord) error
	MarkDamageReplaced(ctx context.Context, id int64) error
	DeleteDamage(ctx context.Context, id int64) error
	GetDamage(ctx context.Context, id int64) (*DamageRecord, error)
	ListDamage(ctx context.Context) ([]DamageRecord, error)
}

// InvoiceStore persists invoice headers and lines.
type InvoiceStore interface {
	// CreateInvoice inserts a header with its items atomically.
	// Returns ErrDuplicateInvoiceNumber on a number collision.
	CreateInvoice(ctx context.Context, inv *Invoice, items []InvoiceItem) error

	// DeleteInvoice removes a header and cascades its items.
	DeleteInvoice(ctx context.Context, id int64) error

	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetInvoiceItems(ctx context.Context, invoiceID int64) ([]InvoiceItem, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
}

// Store is the full persistence surface the engine runs against.
type Store interface {
	ProductStore
	LedgerStore
	SaleStore
	DamageStore
	InvoiceStore
}

// TxStore adds transactional execution on top of Store.
type TxStore interface {
	Store

	// WithTx runs fn against a transactional view. If fn returns an error,
	// every write made through the view is rolled back. Transactions are
	// mutually exclusive; the view must not be retained after fn returns.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
