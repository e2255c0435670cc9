/*
demo.go - Demo scenario loaders

PURPOSE:
  Populates the database with realistic shop data for demos and manual
  testing. Each scenario clears existing data first.

AVAILABLE SCENARIOS:
  fresh-shop: a stocked catalog, no activity yet
  busy-day:   catalog plus sales, a damage report and an invoice
  drifted:    a catalog whose cached stock disagrees with the ledger,
              ready for a reconciliation demo

USAGE VIA API:
  GET  /api/scenarios
  POST /api/scenarios/load
  {"scenario_id": "busy-day"}

NOTE:
  Scenarios wipe the database. Only expose in development environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/stock-engine/pos"
)

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

var scenarios = []ScenarioDTO{
	{"fresh-shop", "Fresh shop", "A stocked catalog with no activity"},
	{"busy-day", "Busy day", "Sales, damage and an invoice against the catalog"},
	{"drifted", "Drifted stock", "Cached stock out of step with the ledger"},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario wipes the database and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.wipe(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset data", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-shop":
		err = h.loadFreshShop(ctx)
	case "busy-day":
		err = h.loadBusyDay(ctx)
	case "drifted":
		err = h.loadDrifted(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// wipe deletes all records. Products go first so their ledger history
// cascades; the remaining record deletions then skip restocking.
func (h *Handler) wipe(ctx context.Context) error {
	st := h.Stock.Store()

	products, err := st.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := h.Catalog.Delete(ctx, p.ID); err != nil {
			return err
		}
	}

	invoices, err := st.ListInvoices(ctx)
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		if err := h.Invoices.Delete(ctx, inv.ID); err != nil {
			return err
		}
	}

	damage, err := st.ListDamage(ctx)
	if err != nil {
		return err
	}
	for _, d := range damage {
		if err := h.Damage.Delete(ctx, d.ID); err != nil {
			return err
		}
	}

	sales, err := st.ListSales(ctx)
	if err != nil {
		return err
	}
	for _, s := range sales {
		if err := h.Sales.Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func demoRows() []pos.ImportRow {
	row := func(name, category string, buy, sell float64, qty int) pos.ImportRow {
		return pos.ImportRow{
			Name:      name,
			Category:  category,
			BuyPrice:  decimal.NewFromFloat(buy),
			SellPrice: decimal.NewFromFloat(sell),
			Quantity:  qty,
		}
	}
	return []pos.ImportRow{
		row("USB-C Fast Charger", "Chargers", 6, 12, 20),
		row("Wireless Charger Pad", "Chargers", 9, 18, 8),
		row("HDMI Cable 2m", "Cables & Connectors", 2, 5, 50),
		row("Bluetooth Earbuds", "Audio Devices", 15, 30, 12),
		row("Gaming Mouse", "Peripherals", 10, 25, 10),
		row("Phone Case Clear", "Mobile Accessories", 3, 8, 35),
	}
}

func (h *Handler) loadFreshShop(ctx context.Context) error {
	_, err := h.Importer.Import(ctx, demoRows())
	return err
}

func (h *Handler) loadBusyDay(ctx context.Context) error {
	if err := h.loadFreshShop(ctx); err != nil {
		return err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)

	if _, err := h.Sales.Create(ctx, pos.SaleInput{
		Date: today, Item: "Gaming Mouse", Quantity: 3,
		UnitPrice: decimal.NewFromInt(25), Discount: decimal.NewFromInt(10),
	}); err != nil {
		return err
	}
	if _, err := h.Sales.Create(ctx, pos.SaleInput{
		Date: today, Item: "Bluetooth Earbuds", Quantity: 2,
		UnitPrice: decimal.NewFromInt(30),
	}); err != nil {
		return err
	}
	if _, err := h.Damage.Create(ctx, pos.DamageInput{
		Date: today, Item: "Wireless Charger Pad", Quantity: 2,
	}); err != nil {
		return err
	}
	_, err := h.Invoices.Create(ctx, pos.InvoiceInput{
		Date: today, Customer: "Corner Cafe", Item: "HDMI Cable 2m", Quantity: 10,
	})
	return err
}

func (h *Handler) loadDrifted(ctx context.Context) error {
	if err := h.loadFreshShop(ctx); err != nil {
		return err
	}

	// Nudge two cached quantities behind the ledger's back.
	st := h.Stock.Store()
	p, err := st.GetProductByName(ctx, "USB-C Fast Charger")
	if err != nil {
		return err
	}
	if err := st.SetStock(ctx, p.ID, p.Stock+4, time.Now().UTC()); err != nil {
		return err
	}
	p, err = st.GetProductByName(ctx, "Phone Case Clear")
	if err != nil {
		return err
	}
	return st.SetStock(ctx, p.ID, p.Stock-5, time.Now().UTC())
}
