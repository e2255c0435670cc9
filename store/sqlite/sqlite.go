/*
Package sqlite provides a SQLite-backed implementation of inventory.TxStore.

PURPOSE:
  Production persistence for the stock engine. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  products:         Catalog with the cached stock projection
  stock_ledger:     Append-only movement log (INSERT only; the single
                    exception is the cascade when a product is deleted)
  sales:            Daily sale records
  damaged_products: Damage reports with the replaced flag
  invoices:         Invoice headers
  invoice_items:    Invoice lines

CONCURRENCY:
  A sync.RWMutex serializes writers, which is what gives the engine its
  single-logical-writer guarantee. WithTx holds the write lock for the
  whole transaction; the transactional view routes every statement through
  the *sql.Tx and never re-enters the lock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/stock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - inventory/store.go: Interface definitions
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/inventory"
)

const dayFormat = "2006-01-02"

// Store implements inventory.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		buy_price TEXT NOT NULL,
		sell_price TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		last_updated TEXT NOT NULL
	);

	-- Append-only movement log
	CREATE TABLE IF NOT EXISTS stock_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		delta INTEGER NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stock_ledger_product
		ON stock_ledger(product_id);
	CREATE INDEX IF NOT EXISTS idx_stock_ledger_product_date
		ON stock_ledger(product_id, date DESC);

	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		item TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		discount TEXT NOT NULL,
		total TEXT NOT NULL,
		product_id INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(date);
	CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_id);

	CREATE TABLE IF NOT EXISTS damaged_products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		replaced INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_damaged_product ON damaged_products(product_id);

	CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_number TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		customer_name TEXT,
		subtotal TEXT NOT NULL,
		vat TEXT NOT NULL,
		grand_total TEXT NOT NULL,
		created_at TEXT NOT NULL,
		sale_id INTEGER
	);

	CREATE TABLE IF NOT EXISTS invoice_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price TEXT NOT NULL,
		discount TEXT NOT NULL,
		total TEXT NOT NULL,
		FOREIGN KEY(invoice_id) REFERENCES invoices(id)
	);

	CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice
		ON invoice_items(invoice_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so the query helpers below
// run unchanged inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS (inventory.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction, holding the write lock
// for the duration (single logical writer).
func (s *Store) WithTx(ctx context.Context, fn func(tx inventory.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &inventory.StorageError{Op: "begin transaction", Err: err}
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{db: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &inventory.StorageError{Op: "commit transaction", Err: err}
	}
	return nil
}

// txStore runs every statement on the open *sql.Tx. It must not take the
// store mutex: WithTx already holds it.
type txStore struct {
	db *sql.Tx
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (s *Store) CreateProduct(ctx context.Context, p *inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createProduct(ctx, s.db, p)
}

func (ts *txStore) CreateProduct(ctx context.Context, p *inventory.Product) error {
	return createProduct(ctx, ts.db, p)
}

func createProduct(ctx context.Context, db dbtx, p *inventory.Product) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO products (name, category, buy_price, sell_price, stock, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Category, p.BuyPrice.String(), p.SellPrice.String(),
		p.Stock, p.LastUpdated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err, "products.name") {
			return inventory.ErrDuplicateName
		}
		return &inventory.StorageError{Op: "create product", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &inventory.StorageError{Op: "create product", Err: err}
	}
	p.ID = inventory.ProductID(id)
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p inventory.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateProduct(ctx, s.db, p)
}

func (ts *txStore) UpdateProduct(ctx context.Context, p inventory.Product) error {
	return updateProduct(ctx, ts.db, p)
}

func updateProduct(ctx context.Context, db dbtx, p inventory.Product) error {
	res, err := db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, category = ?, buy_price = ?, sell_price = ?, stock = ?, last_updated = ?
		WHERE id = ?`,
		p.Name, p.Category, p.BuyPrice.String(), p.SellPrice.String(),
		p.Stock, p.LastUpdated.UTC().Format(time.RFC3339), p.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err, "products.name") {
			return inventory.ErrDuplicateName
		}
		return &inventory.StorageError{Op: "update product", Err: err}
	}
	return requireRow(res, "update product", inventory.ErrProductNotFound)
}

func (s *Store) DeleteProduct(ctx context.Context, id inventory.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteProduct(ctx, s.db, id)
}

func (ts *txStore) DeleteProduct(ctx context.Context, id inventory.ProductID) error {
	return deleteProduct(ctx, ts.db, id)
}

func deleteProduct(ctx context.Context, db dbtx, id inventory.ProductID) error {
	res, err := db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return &inventory.StorageError{Op: "delete product", Err: err}
	}
	if err := requireRow(res, "delete product", inventory.ErrProductNotFound); err != nil {
		return err
	}
	// Cascade the product's ledger history.
	if _, err := db.ExecContext(ctx, "DELETE FROM stock_ledger WHERE product_id = ?", id); err != nil {
		return &inventory.StorageError{Op: "delete product ledger", Err: err}
	}
	return nil
}

const productColumns = "id, name, category, buy_price, sell_price, stock, last_updated"

func (s *Store) GetProduct(ctx context.Context, id inventory.ProductID) (*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProduct(ctx, s.db, id)
}

func (ts *txStore) GetProduct(ctx context.Context, id inventory.ProductID) (*inventory.Product, error) {
	return getProduct(ctx, ts.db, id)
}

func getProduct(ctx context.Context, db dbtx, id inventory.ProductID) (*inventory.Product, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)
	return scanProduct(row)
}

func (s *Store) GetProductByName(ctx context.Context, name string) (*inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getProductByName(ctx, s.db, name)
}

func (ts *txStore) GetProductByName(ctx context.Context, name string) (*inventory.Product, error) {
	return getProductByName(ctx, ts.db, name)
}

func getProductByName(ctx context.Context, db dbtx, name string) (*inventory.Product, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE name = ?", name)
	return scanProduct(row)
}

func scanProduct(row *sql.Row) (*inventory.Product, error) {
	var p inventory.Product
	var buy, sell, updated string
	err := row.Scan(&p.ID, &p.Name, &p.Category, &buy, &sell, &p.Stock, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrProductNotFound
	}
	if err != nil {
		return nil, &inventory.StorageError{Op: "scan product", Err: err}
	}
	p.BuyPrice = mustDecimal(buy)
	p.SellPrice = mustDecimal(sell)
	p.LastUpdated, _ = time.Parse(time.RFC3339, updated)
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listProducts(ctx, s.db)
}

func (ts *txStore) ListProducts(ctx context.Context) ([]inventory.Product, error) {
	return listProducts(ctx, ts.db)
}

func listProducts(ctx context.Context, db dbtx) ([]inventory.Product, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY id ASC")
	if err != nil {
		return nil, &inventory.StorageError{Op: "list products", Err: err}
	}
	defer rows.Close()

	var products []inventory.Product
	for rows.Next() {
		var p inventory.Product
		var buy, sell, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &buy, &sell, &p.Stock, &updated); err != nil {
			return nil, &inventory.StorageError{Op: "scan product", Err: err}
		}
		p.BuyPrice = mustDecimal(buy)
		p.SellPrice = mustDecimal(sell)
		p.LastUpdated, _ = time.Parse(time.RFC3339, updated)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &inventory.StorageError{Op: "list products", Err: err}
	}
	return products, nil
}

func (s *Store) SetStock(ctx context.Context, id inventory.ProductID, stock int, updated time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setStock(ctx, s.db, id, stock, updated)
}

func (ts *txStore) SetStock(ctx context.Context, id inventory.ProductID, stock int, updated time.Time) error {
	return setStock(ctx, ts.db, id, stock, updated)
}

func setStock(ctx context.Context, db dbtx, id inventory.ProductID, stock int, updated time.Time) error {
	res, err := db.ExecContext(ctx,
		"UPDATE products SET stock = ?, last_updated = ? WHERE id = ?",
		stock, updated.UTC().Format(time.RFC3339), id)
	if err != nil {
		return &inventory.StorageError{Op: "set stock", Err: err}
	}
	return requireRow(res, "set stock", inventory.ErrProductNotFound)
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, e *inventory.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendEntry(ctx, s.db, e)
}

func (ts *txStore) AppendEntry(ctx context.Context, e *inventory.LedgerEntry) error {
	return appendEntry(ctx, ts.db, e)
}

func appendEntry(ctx context.Context, db dbtx, e *inventory.LedgerEntry) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO stock_ledger (product_id, date, delta, reason)
		VALUES (?, ?, ?, ?)`,
		e.ProductID, e.Date.UTC().Format(time.RFC3339), e.Delta, e.Reason,
	)
	if err != nil {
		return &inventory.StorageError{Op: "append ledger entry", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &inventory.StorageError{Op: "append ledger entry", Err: err}
	}
	e.ID = id
	return nil
}

func (s *Store) Entries(ctx context.Context, id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ledgerEntries(ctx, s.db, id)
}

func (ts *txStore) Entries(ctx context.Context, id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	return ledgerEntries(ctx, ts.db, id)
}

func ledgerEntries(ctx context.Context, db dbtx, id inventory.ProductID) ([]inventory.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, product_id, date, delta, reason
		FROM stock_ledger
		WHERE product_id = ?
		ORDER BY date DESC, id DESC`, id)
	if err != nil {
		return nil, &inventory.StorageError{Op: "load ledger entries", Err: err}
	}
	defer rows.Close()

	var entries []inventory.LedgerEntry
	for rows.Next() {
		var e inventory.LedgerEntry
		var date string
		if err := rows.Scan(&e.ID, &e.ProductID, &date, &e.Delta, &e.Reason); err != nil {
			return nil, &inventory.StorageError{Op: "scan ledger entry", Err: err}
		}
		e.Date, _ = time.Parse(time.RFC3339, date)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &inventory.StorageError{Op: "load ledger entries", Err: err}
	}
	return entries, nil
}

func (s *Store) SumDeltas(ctx context.Context, id inventory.ProductID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumDeltas(ctx, s.db, id)
}

func (ts *txStore) SumDeltas(ctx context.Context, id inventory.ProductID) (int, error) {
	return sumDeltas(ctx, ts.db, id)
}

func sumDeltas(ctx context.Context, db dbtx, id inventory.ProductID) (int, error) {
	var sum int
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(delta), 0) FROM stock_ledger WHERE product_id = ?", id,
	).Scan(&sum)
	if err != nil {
		return 0, &inventory.StorageError{Op: "sum ledger deltas", Err: err}
	}
	return sum, nil
}

// =============================================================================
// SALES
// =============================================================================

const saleColumns = "id, date, item, quantity, unit_price, discount, total, product_id"

func (s *Store) CreateSale(ctx context.Context, rec *inventory.SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createSale(ctx, s.db, rec)
}

func (ts *txStore) CreateSale(ctx context.Context, rec *inventory.SaleRecord) error {
	return createSale(ctx, ts.db, rec)
}

func createSale(ctx context.Context, db dbtx, rec *inventory.SaleRecord) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO sales (date, item, quantity, unit_price, discount, total, product_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Date.Format(dayFormat), rec.Item, rec.Quantity,
		rec.UnitPrice.String(), rec.Discount.String(), rec.Total.String(), rec.ProductID,
	)
	if err != nil {
		return &inventory.StorageError{Op: "create sale", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &inventory.StorageError{Op: "create sale", Err: err}
	}
	rec.ID = id
	return nil
}

func (s *Store) UpdateSale(ctx context.Context, rec inventory.SaleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateSale(ctx, s.db, rec)
}

func (ts *txStore) UpdateSale(ctx context.Context, rec inventory.SaleRecord) error {
	return updateSale(ctx, ts.db, rec)
}

func updateSale(ctx context.Context, db dbtx, rec inventory.SaleRecord) error {
	res, err := db.ExecContext(ctx, `
		UPDATE sales
		SET date = ?, item = ?, quantity = ?, unit_price = ?, discount = ?, total = ?, product_id = ?
		WHERE id = ?`,
		rec.Date.Format(dayFormat), rec.Item, rec.Quantity,
		rec.UnitPrice.String(), rec.Discount.String(), rec.Total.String(), rec.ProductID, rec.ID,
	)
	if err != nil {
		return &inventory.StorageError{Op: "update sale", Err: err}
	}
	return requireRow(res, "update sale", inventory.ErrSaleNotFound)
}

func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteSale(ctx, s.db, id)
}

func (ts *txStore) DeleteSale(ctx context.Context, id int64) error {
	return deleteSale(ctx, ts.db, id)
}

func deleteSale(ctx context.Context, db dbtx, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM sales WHERE id = ?", id)
	if err != nil {
		return &inventory.StorageError{Op: "delete sale", Err: err}
	}
	return requireRow(res, "delete sale", inventory.ErrSaleNotFound)
}

func (s *Store) GetSale(ctx context.Context, id int64) (*inventory.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getSale(ctx, s.db, id)
}

func (ts *txStore) GetSale(ctx context.Context, id int64) (*inventory.SaleRecord, error) {
	return getSale(ctx, ts.db, id)
}

func getSale(ctx context.Context, db dbtx, id int64) (*inventory.SaleRecord, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE id = ?", id)

	var rec inventory.SaleRecord
	var date, price, discount, total string
	err := row.Scan(&rec.ID, &date, &rec.Item, &rec.Quantity, &price, &discount, &total, &rec.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrSaleNotFound
	}
	if err != nil {
		return nil, &inventory.StorageError{Op: "scan sale", Err: err}
	}
	rec.Date, _ = time.Parse(dayFormat, date)
	rec.UnitPrice = mustDecimal(price)
	rec.Discount = mustDecimal(discount)
	rec.Total = mustDecimal(total)
	return &rec, nil
}

func (s *Store) ListSales(ctx context.Context) ([]inventory.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listSales(ctx, s.db)
}

func (ts *txStore) ListSales(ctx context.Context) ([]inventory.SaleRecord, error) {
	return listSales(ctx, ts.db)
}

func listSales(ctx context.Context, db dbtx) ([]inventory.SaleRecord, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+saleColumns+" FROM sales ORDER BY id ASC")
	if err != nil {
		return nil, &inventory.StorageError{Op: "list sales", Err: err}
	}
	defer rows.Close()

	var sales []inventory.SaleRecord
	for rows.Next() {
		var rec inventory.SaleRecord
		var date, price, discount, total string
		if err := rows.Scan(&rec.ID, &date, &rec.Item, &rec.Quantity, &price, &discount, &total, &rec.ProductID); err != nil {
			return nil, &inventory.StorageError{Op: "scan sale", Err: err}
		}
		rec.Date, _ = time.Parse(dayFormat, date)
		rec.UnitPrice = mustDecimal(price)
		rec.Discount = mustDecimal(discount)
		rec.Total = mustDecimal(total)
		sales = append(sales, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &inventory.StorageError{Op: "list sales", Err: err}
	}
	return sales, nil
}

// =============================================================================
// DAMAGE
// =============================================================================

const damageColumns = "id, date, product_name, quantity, product_id, replaced"

func (s *Store) CreateDamage(ctx context.Context, d *inventory.DamageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createDamage(ctx, s.db, d)
}

func (ts *txStore) CreateDamage(ctx context.Context, d *inventory.DamageRecord) error {
	return createDamage(ctx, ts.db, d)
}

func createDamage(ctx context.Context, db dbtx, d *inventory.DamageRecord) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO damaged_products (date, product_name, quantity, product_id, replaced)
		VALUES (?, ?, ?, ?, ?)`,
		d.Date.Format(dayFormat), d.ProductName, d.Quantity, d.ProductID, boolToInt(d.Replaced),
	)
	if err != nil {
		return &inventory.StorageError{Op: "create damage record", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &inventory.StorageError{Op: "create damage record", Err: err}
	}
	d.ID = id
	return nil
}

func (s *Store) MarkDamageReplaced(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return markDamageReplaced(ctx, s.db, id)
}

func (ts *txStore) MarkDamageReplaced(ctx context.Context, id int64) error {
	return markDamageReplaced(ctx, ts.db, id)
}

func markDamageReplaced(ctx context.Context, db dbtx, id int64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE damaged_products SET replaced = 1 WHERE id = ?", id)
	if err != nil {
		return &inventory.StorageError{Op: "mark damage replaced", Err: err}
	}
	return requireRow(res, "mark damage replaced", inventory.ErrDamageNotFound)
}

func (s *Store) DeleteDamage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteDamage(ctx, s.db, id)
}

func (ts *txStore) DeleteDamage(ctx context.Context, id int64) error {
	return deleteDamage(ctx, ts.db, id)
}

func deleteDamage(ctx context.Context, db dbtx, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM damaged_products WHERE id = ?", id)
	if err != nil {
		return &inventory.StorageError{Op: "delete damage record", Err: err}
	}
	return requireRow(res, "delete damage record", inventory.ErrDamageNotFound)
}

func (s *Store) GetDamage(ctx context.Context, id int64) (*inventory.DamageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDamage(ctx, s.db, id)
}

func (ts *txStore) GetDamage(ctx context.Context, id int64) (*inventory.DamageRecord, error) {
	return getDamage(ctx, ts.db, id)
}

func getDamage(ctx context.Context, db dbtx, id int64) (*inventory.DamageRecord, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+damageColumns+" FROM damaged_products WHERE id = ?", id)

	var d inventory.DamageRecord
	var date string
	var replaced int
	err := row.Scan(&d.ID, &date, &d.ProductName, &d.Quantity, &d.ProductID, &replaced)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrDamageNotFound
	}
	if err != nil {
		return nil, &inventory.StorageError{Op: "scan damage record", Err: err}
	}
	d.Date, _ = time.Parse(dayFormat, date)
	d.Replaced = replaced != 0
	return &d, nil
}

func (s *Store) ListDamage(ctx context.Context) ([]inventory.DamageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDamage(ctx, s.db)
}

func (ts *txStore) ListDamage(ctx context.Context) ([]inventory.DamageRecord, error) {
	return listDamage(ctx, ts.db)
}

func listDamage(ctx context.Context, db dbtx) ([]inventory.DamageRecord, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+damageColumns+" FROM damaged_products ORDER BY id ASC")
	if err != nil {
		return nil, &inventory.StorageError{Op: "list damage records", Err: err}
	}
	defer rows.Close()

	var records []inventory.DamageRecord
	for rows.Next() {
		var d inventory.DamageRecord
		var date string
		var replaced int
		if err := rows.Scan(&d.ID, &date, &d.ProductName, &d.Quantity, &d.ProductID, &replaced); err != nil {
			return nil, &inventory.StorageError{Op: "scan damage record", Err: err}
		}
		d.Date, _ = time.Parse(dayFormat, date)
		d.Replaced = replaced != 0
		records = append(records, d)
	}
	if err := rows.Err(); err != nil {
		return nil, &inventory.StorageError{Op: "list damage records", Err: err}
	}
	return records, nil
}

// =============================================================================
// INVOICES
// =============================================================================

const invoiceColumns = "id, invoice_number, date, customer_name, subtotal, vat, grand_total, created_at, sale_id"

func (s *Store) CreateInvoice(ctx context.Context, inv *inventory.Invoice, items []inventory.InvoiceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createInvoice(ctx, s.db, inv, items)
}

func (ts *txStore) CreateInvoice(ctx context.Context, inv *inventory.Invoice, items []inventory.InvoiceItem) error {
	return createInvoice(ctx, ts.db, inv, items)
}

func createInvoice(ctx context.Context, db dbtx, inv *inventory.Invoice, items []inventory.InvoiceItem) error {
	var saleID any
	if inv.SaleID != nil {
		saleID = *inv.SaleID
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO invoices (invoice_number, date, customer_name, subtotal, vat, grand_total, created_at, sale_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.Number, inv.Date.Format(dayFormat), inv.Customer,
		inv.Subtotal.String(), inv.VAT.String(), inv.GrandTotal.String(),
		inv.CreatedAt.UTC().Format(time.RFC3339), saleID,
	)
	if err != nil {
		if isUniqueConstraintError(err, "invoices.invoice_number") {
			return inventory.ErrDuplicateInvoiceNumber
		}
		return &inventory.StorageError{Op: "create invoice", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return &inventory.StorageError{Op: "create invoice", Err: err}
	}
	inv.ID = id

	for _, item := range items {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO invoice_items (invoice_id, product_id, quantity, unit_price, discount, total)
			VALUES (?, ?, ?, ?, ?, ?)`,
			inv.ID, item.ProductID, item.Quantity,
			item.UnitPrice.String(), item.Discount.String(), item.Total.String(),
		); err != nil {
			return &inventory.StorageError{Op: "create invoice item", Err: err}
		}
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteInvoice(ctx, s.db, id)
}

func (ts *txStore) DeleteInvoice(ctx context.Context, id int64) error {
	return deleteInvoice(ctx, ts.db, id)
}

func deleteInvoice(ctx context.Context, db dbtx, id int64) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM invoice_items WHERE invoice_id = ?", id); err != nil {
		return &inventory.StorageError{Op: "delete invoice items", Err: err}
	}
	res, err := db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id)
	if err != nil {
		return &inventory.StorageError{Op: "delete invoice", Err: err}
	}
	return requireRow(res, "delete invoice", inventory.ErrInvoiceNotFound)
}

func (s *Store) GetInvoice(ctx context.Context, id int64) (*inventory.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getInvoice(ctx, s.db, id)
}

func (ts *txStore) GetInvoice(ctx context.Context, id int64) (*inventory.Invoice, error) {
	return getInvoice(ctx, ts.db, id)
}

func getInvoice(ctx context.Context, db dbtx, id int64) (*inventory.Invoice, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = ?", id)

	inv, err := scanInvoice(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, &inventory.StorageError{Op: "scan invoice", Err: err}
	}
	return inv, nil
}

func scanInvoice(scan func(dest ...any) error) (*inventory.Invoice, error) {
	var inv inventory.Invoice
	var date, subtotal, vat, grand, createdAt string
	var customer sql.NullString
	var saleID sql.NullInt64
	err := scan(&inv.ID, &inv.Number, &date, &customer, &subtotal, &vat, &grand, &createdAt, &saleID)
	if err != nil {
		return nil, err
	}
	inv.Date, _ = time.Parse(dayFormat, date)
	inv.Customer = customer.String
	inv.Subtotal = mustDecimal(subtotal)
	inv.VAT = mustDecimal(vat)
	inv.GrandTotal = mustDecimal(grand)
	inv.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if saleID.Valid {
		v := saleID.Int64
		inv.SaleID = &v
	}
	return &inv, nil
}

func (s *Store) GetInvoiceItems(ctx context.Context, invoiceID int64) ([]inventory.InvoiceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getInvoiceItems(ctx, s.db, invoiceID)
}

func (ts *txStore) GetInvoiceItems(ctx context.Context, invoiceID int64) ([]inventory.InvoiceItem, error) {
	return getInvoiceItems(ctx, ts.db, invoiceID)
}

func getInvoiceItems(ctx context.Context, db dbtx, invoiceID int64) ([]inventory.InvoiceItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, invoice_id, product_id, quantity, unit_price, discount, total
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY id ASC`, invoiceID)
	if err != nil {
		return nil, &inventory.StorageError{Op: "load invoice items", Err: err}
	}
	defer rows.Close()

	var items []inventory.InvoiceItem
	for rows.Next() {
		var item inventory.InvoiceItem
		var price, discount, total string
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.ProductID, &item.Quantity, &price, &discount, &total); err != nil {
			return nil, &inventory.StorageError{Op: "scan invoice item", Err: err}
		}
		item.UnitPrice = mustDecimal(price)
		item.Discount = mustDecimal(discount)
		item.Total = mustDecimal(total)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &inventory.StorageError{Op: "load invoice items", Err: err}
	}
	return items, nil
}

func (s *Store) ListInvoices(ctx context.Context) ([]inventory.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listInvoices(ctx, s.db)
}

func (ts *txStore) ListInvoices(ctx context.Context) ([]inventory.Invoice, error) {
	return listInvoices(ctx, ts.db)
}

func listInvoices(ctx context.Context, db dbtx) ([]inventory.Invoice, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices ORDER BY id ASC")
	if err != nil {
		return nil, &inventory.StorageError{Op: "list invoices", Err: err}
	}
	defer rows.Close()

	var invoices []inventory.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, &inventory.StorageError{Op: "scan invoice", Err: err}
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, &inventory.StorageError{Op: "list invoices", Err: err}
	}
	return invoices, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func requireRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return &inventory.StorageError{Op: op, Err: err}
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error, index string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, index)
}
