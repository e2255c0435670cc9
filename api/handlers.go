/*
handlers.go - HTTP API handlers for the stock engine

PURPOSE:
  Exposes the stock ledger engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the coordinators.

ENDPOINTS:
  Products:
    GET    /api/products               List products (filter via query params)
    POST   /api/products               Create product
    GET    /api/products/{id}          Get product
    PUT    /api/products/{id}          Update product
    DELETE /api/products/{id}          Delete product
    GET    /api/products/{id}/history  Ledger movements, newest first

  Sales:
    GET    /api/sales                  List sales
    POST   /api/sales                  Record a sale (deducts stock)
    PUT    /api/sales/{id}             Edit a sale (compensating delta)
    DELETE /api/sales/{id}             Delete a sale (restocks)

  Damage:
    GET    /api/damage                 List damage records
    POST   /api/damage                 Report damage (deducts stock)
    POST   /api/damage/{id}/replace    Supplier replacement (restocks once)
    DELETE /api/damage/{id}            Delete a damage record

  Invoices:
    GET    /api/invoices               List invoices
    POST   /api/invoices               Issue invoice (from stock or sale)
    GET    /api/invoices/{id}          Invoice with items
    DELETE /api/invoices/{id}          Delete invoice

  Admin:
    POST   /api/import                 Bulk import (one atomic batch)
    POST   /api/reconcile              Run drift reconciliation
    GET    /api/categories             Product taxonomy

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient stock, sale mismatch
  - 404: Record not found
  - 409: Duplicate name/number, already replaced
  - 500: Storage errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/stock-engine/inventory"
	"github.com/warp/stock-engine/pos"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Stock      *inventory.Service
	Catalog    *pos.CatalogService
	Sales      *pos.SaleService
	Damage     *pos.DamageService
	Invoices   *pos.InvoiceService
	Importer   *pos.Importer
	Reconciler *inventory.Reconciler

	validate *validator.Validate
	log      *logrus.Logger
}

// NewHandler wires the handlers around one stock service.
func NewHandler(stock *inventory.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Stock:      stock,
		Catalog:    pos.NewCatalogService(stock),
		Sales:      pos.NewSaleService(stock),
		Damage:     pos.NewDamageService(stock),
		Invoices:   pos.NewInvoiceService(stock),
		Importer:   pos.NewImporter(stock),
		Reconciler: inventory.NewReconciler(stock.Store(), log),
		validate:   validator.New(),
		log:        log,
	}
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

// ListProducts returns the catalog, filtered by any criteria in the query.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	products, err := h.Stock.Store().ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list products", err)
		return
	}

	filtered := inventory.Filter(products, criteria)
	dtos := make([]ProductDTO, len(filtered))
	for i, p := range filtered {
		dtos[i] = toProductDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.Catalog.Create(r.Context(), pos.ProductInput{
		Name:      req.Name,
		Category:  req.Category,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
		Stock:     req.Stock,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(*p))
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Stock.Store().GetProduct(r.Context(), inventory.ProductID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// UpdateProduct replaces a product's fields.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.Catalog.Update(r.Context(), inventory.ProductID(id), pos.ProductInput{
		Name:      req.Name,
		Category:  req.Category,
		BuyPrice:  req.BuyPrice,
		SellPrice: req.SellPrice,
		Stock:     req.Stock,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update product", err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(*p))
}

// DeleteProduct removes a product and its ledger history.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.Delete(r.Context(), inventory.ProductID(id)); err != nil {
		h.writeDomainError(w, "Failed to delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory returns a product's ledger movements, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entries, err := h.Catalog.History(r.Context(), inventory.ProductID(id))
	if err != nil {
		h.writeDomainError(w, "Failed to get history", err)
		return
	}
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListCategories returns the fixed taxonomy.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inventory.Categories)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns all sale records.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Sales.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}
	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSale records a sale and deducts stock.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := saleInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale", err)
		return
	}

	rec, err := h.Sales.Create(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, "Failed to create sale", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSaleDTO(*rec))
}

// EditSale updates a sale, applying the compensating stock delta.
func (h *Handler) EditSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	in, err := saleInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sale", err)
		return
	}

	rec, err := h.Sales.Edit(r.Context(), id, in)
	if err != nil {
		h.writeDomainError(w, "Failed to edit sale", err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(*rec))
}

// DeleteSale removes a sale and restocks its quantity.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Sales.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete sale", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func saleInput(req SaleRequest) (pos.SaleInput, error) {
	date, err := time.Parse(dayFormat, req.Date)
	if err != nil {
		return pos.SaleInput{}, &inventory.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}
	return pos.SaleInput{
		Date:      date,
		Item:      req.Item,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Discount:  req.Discount,
	}, nil
}

// =============================================================================
// DAMAGE HANDLERS
// =============================================================================

// ListDamage returns all damage records.
func (h *Handler) ListDamage(w http.ResponseWriter, r *http.Request) {
	records, err := h.Damage.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list damage records", err)
		return
	}
	dtos := make([]DamageDTO, len(records))
	for i, d := range records {
		dtos[i] = toDamageDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDamage reports damaged units and deducts stock.
func (h *Handler) CreateDamage(w http.ResponseWriter, r *http.Request) {
	var req DamageRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse(dayFormat, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid damage report",
			&inventory.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"})
		return
	}

	rec, err := h.Damage.Create(r.Context(), pos.DamageInput{
		Date:     date,
		Item:     req.Item,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create damage record", err)
		return
	}
	writeJSON(w, http.StatusCreated, toDamageDTO(*rec))
}

// ReplaceDamage restocks a damaged batch exactly once.
func (h *Handler) ReplaceDamage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Damage.Replace(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to replace damage record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDamage removes a damage record, restoring unreplaced units.
func (h *Handler) DeleteDamage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Damage.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete damage record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INVOICE HANDLERS
// =============================================================================

// ListInvoices returns all invoice headers.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Invoices.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invoices", err)
		return
	}
	dtos := make([]InvoiceDTO, len(invoices))
	for i, inv := range invoices {
		dtos[i] = toInvoiceDTO(inv, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateInvoice issues an invoice from stock or from a sale.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req InvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := time.Parse(dayFormat, req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invoice",
			&inventory.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"})
		return
	}

	inv, err := h.Invoices.Create(r.Context(), pos.InvoiceInput{
		Date:     date,
		Customer: req.Customer,
		Item:     req.Item,
		Quantity: req.Quantity,
		Discount: req.Discount,
		SaleID:   req.SaleID,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceDTO(*inv, nil))
}

// GetInvoice returns an invoice with its items.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, items, err := h.Invoices.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to get invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*inv, items))
}

// DeleteInvoice removes an invoice, restoring from-stock quantities.
func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Invoices.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// IMPORT / RECONCILE HANDLERS
// =============================================================================

// Import applies a bulk batch atomically.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}

	rows := make([]pos.ImportRow, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = pos.ImportRow{
			Name:      row.Name,
			Category:  row.Category,
			BuyPrice:  row.BuyPrice,
			SellPrice: row.SellPrice,
			Quantity:  row.Quantity,
		}
	}

	imported, err := h.Importer.Import(r.Context(), rows)
	if err != nil {
		h.writeDomainError(w, "Import failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: imported})
}

// Reconcile sweeps the catalog for drift and returns the corrections.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	corrections, err := h.Reconciler.Reconcile(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reconciliation failed", err)
		return
	}
	resp := ReconcileResponse{Corrections: make([]CorrectionDTO, len(corrections))}
	for i, c := range corrections {
		resp.Corrections[i] = CorrectionDTO{
			ProductID: int64(c.ProductID),
			Name:      c.Name,
			LedgerSum: c.LedgerSum,
			Stock:     c.Stock,
			Delta:     c.Delta,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode parses and validates a JSON request body. Writes the error
// response itself and returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case inventory.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, inventory.ErrDuplicateName),
		errors.Is(err, inventory.ErrDuplicateInvoiceNumber),
		errors.Is(err, inventory.ErrAlreadyReplaced):
		writeError(w, http.StatusConflict, message, err)
	case inventory.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

// criteriaFromQuery builds filter criteria from URL query parameters:
// q, category, min_buy, max_buy, min_sell, max_sell, min_stock, max_stock,
// updated_after.
func criteriaFromQuery(r *http.Request) (inventory.Criteria, error) {
	q := r.URL.Query()
	c := inventory.Criteria{
		Name:     q.Get("q"),
		Category: q.Get("category"),
	}

	dec := func(key string) (*decimal.Decimal, error) {
		v := q.Get(key)
		if v == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, &inventory.ValidationError{Field: key, Message: "expected a number"}
		}
		return &d, nil
	}
	num := func(key string) (*int, error) {
		v := q.Get(key)
		if v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &inventory.ValidationError{Field: key, Message: "expected an integer"}
		}
		return &n, nil
	}

	var err error
	if c.MinBuy, err = dec("min_buy"); err != nil {
		return c, err
	}
	if c.MaxBuy, err = dec("max_buy"); err != nil {
		return c, err
	}
	if c.MinSell, err = dec("min_sell"); err != nil {
		return c, err
	}
	if c.MaxSell, err = dec("max_sell"); err != nil {
		return c, err
	}
	if c.MinStock, err = num("min_stock"); err != nil {
		return c, err
	}
	if c.MaxStock, err = num("max_stock"); err != nil {
		return c, err
	}
	if v := q.Get("updated_after"); v != "" {
		t, err := time.Parse(dayFormat, v)
		if err != nil {
			return c, &inventory.ValidationError{Field: "updated_after", Message: "expected YYYY-MM-DD"}
		}
		c.UpdatedAfter = &t
	}
	return c, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
