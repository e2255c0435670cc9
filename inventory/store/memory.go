// Package store provides inventory.Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/stock-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements inventory.TxStore with plain slices. Transactions are
// simulated with a snapshot + rollback on error, which also gives the
// mutual-exclusion guarantee (the store mutex is held for the whole tx).
type Memory struct {
	mu sync.RWMutex

	nextProductID int64
	nextEntryID   int64
	nextSaleID    int64
	nextDamageID  int64
	nextInvoiceID int64
	nextItemID    int64

	products []inventory.Product
	entries  []inventory.LedgerEntry
	sales    []inventory.SaleRecord
	damage   []inventory.DamageRecord
	invoices []inventory.Invoice
	items    []inventory.InvoiceItem
}

func NewMemory() *Memory {
	return &Memory{}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) WithTx(_ context.Context, fn func(tx inventory.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	view := &txMemoryView{parent: m}
	if err := fn(view); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	nextProductID, nextEntryID, nextSaleID  int64
	nextDamageID, nextInvoiceID, nextItemID int64

	products []inventory.Product
	entries  []inventory.LedgerEntry
	sales    []inventory.SaleRecord
	damage   []inventory.DamageRecord
	invoices []inventory.Invoice
	items    []inventory.InvoiceItem
}

func (m *Memory) snapshot() memorySnapshot {
	return memorySnapshot{
		nextProductID: m.nextProductID,
		nextEntryID:   m.nextEntryID,
		nextSaleID:    m.nextSaleID,
		nextDamageID:  m.nextDamageID,
		nextInvoiceID: m.nextInvoiceID,
		nextItemID:    m.nextItemID,
		products:      append([]inventory.Product{}, m.products...),
		entries:       append([]inventory.LedgerEntry{}, m.entries...),
		sales:         append([]inventory.SaleRecord{}, m.sales...),
		damage:        append([]inventory.DamageRecord{}, m.damage...),
		invoices:      append([]inventory.Invoice{}, m.invoices...),
		items:         append([]inventory.InvoiceItem{}, m.items...),
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.nextProductID = s.nextProductID
	m.nextEntryID = s.nextEntryID
	m.nextSaleID = s.nextSaleID
	m.nextDamageID = s.nextDamageID
	m.nextInvoiceID = s.nextInvoiceID
	m.nextItemID = s.nextItemID
	m.products = s.products
	m.entries = s.entries
	m.sales = s.sales
	m.damage = s.damage
	m.invoices = s.invoices
	m.items = s.items
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (m *Memory) CreateProduct(_ context.Context, p *inventory.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createProductLocked(p)
}

func (m *Memory) createProductLocked(p *inventory.Product) error {
	for _, existing := range m.products {
		if existing.Name == p.Name {
			return inventory.ErrDuplicateName
		}
	}
	m.nextProductID++
	p.ID = inventory.ProductID(m.nextProductID)
	m.products = append(m.products, *p)
	return nil
}

func (m *Memory) UpdateProduct(_ context.Context, p inventory.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateProductLocked(p)
}

func (m *Memory) updateProductLocked(p inventory.Product) error {
	for _, existing := range m.products {
		if existing.Name == p.Name && existing.ID != p.ID {
			return inventory.ErrDuplicateName
		}
	}
	for i := range m.products {
		if m.products[i].ID == p.ID {
			m.products[i] = p
			return nil
		}
	}
	return inventory.ErrProductNotFound
}

func (m *Memory) DeleteProduct(_ context.Context, id inventory.ProductID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteProductLocked(id)
}

func (m *Memory) deleteProductLocked(id inventory.ProductID) error {
	idx := -1
	for i := range m.products {
		if m.products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return inventory.ErrProductNotFound
	}
	m.products = append(m.products[:idx], m.products[idx+1:]...)

	// Cascade ledger entries.
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.ProductID != id {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *Memory) GetProduct(_ context.Context, id inventory.ProductID) (*inventory.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProductLocked(id)
}

func (m *Memory) getProductLocked(id inventory.ProductID) (*inventory.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, inventory.ErrProductNotFound
}

func (m *Memory) GetProductByName(_ context.Context, name string) (*inventory.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getProductByNameLocked(name)
}

func (m *Memory) getProductByNameLocked(name string) (*inventory.Product, error) {
	for i := range m.products {
		if m.products[i].Name == name {
			p := m.products[i]
			return &p, nil
		}
	}
	return nil, inventory.ErrProductNotFound
}

func (m *Memory) ListProducts(_ context.Context) ([]inventory.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listProductsLocked()
}

func (m *Memory) listProductsLocked() ([]inventory.Product, error) {
	out := make([]inventory.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *Memory) SetStock(_ context.Context, id inventory.ProductID, stock int, updated time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStockLocked(id, stock, updated)
}

func (m *Memory) setStockLocked(id inventory.ProductID, stock int, updated time.Time) error {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products[i].Stock = stock
			m.products[i].LastUpdated = updated
			return nil
		}
	}
	return inventory.ErrProductNotFound
}

// =============================================================================
// LEDGER
// =============================================================================

func (m *Memory) AppendEntry(_ context.Context, e *inventory.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEntryLocked(e)
}

func (m *Memory) appendEntryLocked(e *inventory.LedgerEntry) error {
	m.nextEntryID++
	e.ID = m.nextEntryID
	m.entries = append(m.entries, *e)
	return nil
}

func (m *Memory) Entries(_ context.Context, id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entriesLocked(id)
}

func (m *Memory) entriesLocked(id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	var out []inventory.LedgerEntry
	// Newest first.
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].ProductID == id {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *Memory) SumDeltas(_ context.Context, id inventory.ProductID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sumDeltasLocked(id)
}

func (m *Memory) sumDeltasLocked(id inventory.ProductID) (int, error) {
	sum := 0
	for _, e := range m.entries {
		if e.ProductID == id {
			sum += e.Delta
		}
	}
	return sum, nil
}

// =============================================================================
// SALES
// =============================================================================

func (m *Memory) CreateSale(_ context.Context, s *inventory.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createSaleLocked(s)
}

func (m *Memory) createSaleLocked(s *inventory.SaleRecord) error {
	m.nextSaleID++
	s.ID = m.nextSaleID
	m.sales = append(m.sales, *s)
	return nil
}

func (m *Memory) UpdateSale(_ context.Context, s inventory.SaleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateSaleLocked(s)
}

func (m *Memory) updateSaleLocked(s inventory.SaleRecord) error {
	for i := range m.sales {
		if m.sales[i].ID == s.ID {
			m.sales[i] = s
			return nil
		}
	}
	return inventory.ErrSaleNotFound
}

func (m *Memory) DeleteSale(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteSaleLocked(id)
}

func (m *Memory) deleteSaleLocked(id int64) error {
	for i := range m.sales {
		if m.sales[i].ID == id {
			m.sales = append(m.sales[:i], m.sales[i+1:]...)
			return nil
		}
	}
	return inventory.ErrSaleNotFound
}

func (m *Memory) GetSale(_ context.Context, id int64) (*inventory.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getSaleLocked(id)
}

func (m *Memory) getSaleLocked(id int64) (*inventory.SaleRecord, error) {
	for i := range m.sales {
		if m.sales[i].ID == id {
			s := m.sales[i]
			return &s, nil
		}
	}
	return nil, inventory.ErrSaleNotFound
}

func (m *Memory) ListSales(_ context.Context) ([]inventory.SaleRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listSalesLocked()
}

func (m *Memory) listSalesLocked() ([]inventory.SaleRecord, error) {
	out := make([]inventory.SaleRecord, len(m.sales))
	copy(out, m.sales)
	return out, nil
}

// =============================================================================
// DAMAGE
// =============================================================================

func (m *Memory) CreateDamage(_ context.Context, d *inventory.DamageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createDamageLocked(d)
}

func (m *Memory) createDamageLocked(d *inventory.DamageRecord) error {
	m.nextDamageID++
	d.ID = m.nextDamageID
	m.damage = append(m.damage, *d)
	return nil
}

func (m *Memory) MarkDamageReplaced(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markDamageReplacedLocked(id)
}

func (m *Memory) markDamageReplacedLocked(id int64) error {
	for i := range m.damage {
		if m.damage[i].ID == id {
			m.damage[i].Replaced = true
			return nil
		}
	}
	return inventory.ErrDamageNotFound
}

func (m *Memory) DeleteDamage(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteDamageLocked(id)
}

func (m *Memory) deleteDamageLocked(id int64) error {
	for i := range m.damage {
		if m.damage[i].ID == id {
			m.damage = append(m.damage[:i], m.damage[i+1:]...)
			return nil
		}
	}
	return inventory.ErrDamageNotFound
}

func (m *Memory) GetDamage(_ context.Context, id int64) (*inventory.DamageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getDamageLocked(id)
}

func (m *Memory) getDamageLocked(id int64) (*inventory.DamageRecord, error) {
	for i := range m.damage {
		if m.damage[i].ID == id {
			d := m.damage[i]
			return &d, nil
		}
	}
	return nil, inventory.ErrDamageNotFound
}

func (m *Memory) ListDamage(_ context.Context) ([]inventory.DamageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listDamageLocked()
}

func (m *Memory) listDamageLocked() ([]inventory.DamageRecord, error) {
	out := make([]inventory.DamageRecord, len(m.damage))
	copy(out, m.damage)
	return out, nil
}

// =============================================================================
// INVOICES
// =============================================================================

func (m *Memory) CreateInvoice(_ context.Context, inv *inventory.Invoice, items []inventory.InvoiceItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createInvoiceLocked(inv, items)
}

func (m *Memory) createInvoiceLocked(inv *inventory.Invoice, items []inventory.InvoiceItem) error {
	for _, existing := range m.invoices {
		if existing.Number == inv.Number {
			return inventory.ErrDuplicateInvoiceNumber
		}
	}
	m.nextInvoiceID++
	inv.ID = m.nextInvoiceID
	m.invoices = append(m.invoices, *inv)
	for _, item := range items {
		m.nextItemID++
		item.ID = m.nextItemID
		item.InvoiceID = inv.ID
		m.items = append(m.items, item)
	}
	return nil
}

func (m *Memory) DeleteInvoice(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteInvoiceLocked(id)
}

func (m *Memory) deleteInvoiceLocked(id int64) error {
	idx := -1
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return inventory.ErrInvoiceNotFound
	}
	m.invoices = append(m.invoices[:idx], m.invoices[idx+1:]...)

	kept := m.items[:0]
	for _, item := range m.items {
		if item.InvoiceID != id {
			kept = append(kept, item)
		}
	}
	m.items = kept
	return nil
}

func (m *Memory) GetInvoice(_ context.Context, id int64) (*inventory.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getInvoiceLocked(id)
}

func (m *Memory) getInvoiceLocked(id int64) (*inventory.Invoice, error) {
	for i := range m.invoices {
		if m.invoices[i].ID == id {
			inv := m.invoices[i]
			return &inv, nil
		}
	}
	return nil, inventory.ErrInvoiceNotFound
}

func (m *Memory) GetInvoiceItems(_ context.Context, invoiceID int64) ([]inventory.InvoiceItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getInvoiceItemsLocked(invoiceID)
}

func (m *Memory) getInvoiceItemsLocked(invoiceID int64) ([]inventory.InvoiceItem, error) {
	var out []inventory.InvoiceItem
	for _, item := range m.items {
		if item.InvoiceID == invoiceID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *Memory) ListInvoices(_ context.Context) ([]inventory.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listInvoicesLocked()
}

func (m *Memory) listInvoicesLocked() ([]inventory.Invoice, error) {
	out := make([]inventory.Invoice, len(m.invoices))
	copy(out, m.invoices)
	return out, nil
}

// =============================================================================
// TRANSACTIONAL VIEW - Delegates to locked methods (mutex held by WithTx)
// =============================================================================

type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreateProduct(_ context.Context, p *inventory.Product) error {
	return tv.parent.createProductLocked(p)
}

func (tv *txMemoryView) UpdateProduct(_ context.Context, p inventory.Product) error {
	return tv.parent.updateProductLocked(p)
}

func (tv *txMemoryView) DeleteProduct(_ context.Context, id inventory.ProductID) error {
	return tv.parent.deleteProductLocked(id)
}

func (tv *txMemoryView) GetProduct(_ context.Context, id inventory.ProductID) (*inventory.Product, error) {
	return tv.parent.getProductLocked(id)
}

func (tv *txMemoryView) GetProductByName(_ context.Context, name string) (*inventory.Product, error) {
	return tv.parent.getProductByNameLocked(name)
}

func (tv *txMemoryView) ListProducts(_ context.Context) ([]inventory.Product, error) {
	return tv.parent.listProductsLocked()
}

func (tv *txMemoryView) SetStock(_ context.Context, id inventory.ProductID, stock int, updated time.Time) error {
	return tv.parent.setStockLocked(id, stock, updated)
}

func (tv *txMemoryView) AppendEntry(_ context.Context, e *inventory.LedgerEntry) error {
	return tv.parent.appendEntryLocked(e)
}

func (tv *txMemoryView) Entries(_ context.Context, id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	return tv.parent.entriesLocked(id)
}

func (tv *txMemoryView) SumDeltas(_ context.Context, id inventory.ProductID) (int, error) {
	return tv.parent.sumDeltasLocked(id)
}

func (tv *txMemoryView) CreateSale(_ context.Context, s *inventory.SaleRecord) error {
	return tv.parent.createSaleLocked(s)
}

func (tv *txMemoryView) UpdateSale(_ context.Context, s inventory.SaleRecord) error {
	return tv.parent.updateSaleLocked(s)
}

func (tv *txMemoryView) DeleteSale(_ context.Context, id int64) error {
	return tv.parent.deleteSaleLocked(id)
}

func (tv *txMemoryView) GetSale(_ context.Context, id int64) (*inventory.SaleRecord, error) {
	return tv.parent.getSaleLocked(id)
}

func (tv *txMemoryView) ListSales(_ context.Context) ([]inventory.SaleRecord, error) {
	return tv.parent.listSalesLocked()
}

func (tv *txMemoryView) CreateDamage(_ context.Context, d *inventory.DamageRecord) error {
	return tv.parent.createDamageLocked(d)
}

func (tv *txMemoryView) MarkDamageReplaced(_ context.Context, id int64) error {
	return tv.parent.markDamageReplacedLocked(id)
}

func (tv *txMemoryView) DeleteDamage(_ context.Context, id int64) error {
	return tv.parent.deleteDamageLocked(id)
}

func (tv *txMemoryView) GetDamage(_ context.Context, id int64) (*inventory.DamageRecord, error) {
	return tv.parent.getDamageLocked(id)
}

func (tv *txMemoryView) ListDamage(_ context.Context) ([]inventory.DamageRecord, error) {
	return tv.parent.listDamageLocked()
}

func (tv *txMemoryView) CreateInvoice(_ context.Context, inv *inventory.Invoice, items []inventory.InvoiceItem) error {
	return tv.parent.createInvoiceLocked(inv, items)
}

func (tv *txMemoryView) DeleteInvoice(_ context.Context, id int64) error {
	return tv.parent.deleteInvoiceLocked(id)
}

func (tv *txMemoryView) GetInvoice(_ context.Context, id int64) (*inventory.Invoice, error) {
	return tv.parent.getInvoiceLocked(id)
}

func (tv *txMemoryView) GetInvoiceItems(_ context.Context, invoiceID int64) ([]inventory.InvoiceItem, error) {
	return tv.parent.getInvoiceItemsLocked(invoiceID)
}

func (tv *txMemoryView) ListInvoices(_ context.Context) ([]inventory.Invoice, error) {
	return tv.parent.listInvoicesLocked()
}
