/*
filter.go - Conjunctive product filtering

PURPOSE:
  Narrows a product list by any combination of optional criteria. Unset
  criteria match everything; set criteria are ANDed together. Input order
  is preserved, so callers can keep their own sort.

NAME MATCHING:
  A name term matches by case-insensitive substring OR by regular
  expression. An invalid pattern silently degrades to substring-only; a
  half-typed "(" in a search box must never error or hide results that the
  literal text would find.
*/
package inventory

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Criteria holds optional filter dimensions. Zero values (empty strings,
// nil pointers) disable the dimension. All bounds are inclusive.
type Criteria struct {
	// Name matches case-insensitively as substring or regex.
	Name string

	// Category must equal the product category exactly. Empty or
	// CategoryAll disables the check.
	Category string

	MinBuy  *decimal.Decimal
	MaxBuy  *decimal.Decimal
	MinSell *decimal.Decimal
	MaxSell *decimal.Decimal

	MinStock *int
	MaxStock *int

	// UpdatedAfter keeps products whose LastUpdated is at or after it.
	UpdatedAfter *time.Time
}

// Matches reports whether a single product satisfies the criteria.
func (c Criteria) Matches(p Product) bool {
	return c.matcher()(p)
}

// Filter returns the products satisfying the criteria, preserving order.
func Filter(products []Product, c Criteria) []Product {
	match := c.matcher()
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}

// matcher compiles the criteria once so Filter doesn't recompile the name
// pattern per product.
func (c Criteria) matcher() func(Product) bool {
	term := strings.ToLower(strings.TrimSpace(c.Name))
	var rx *regexp.Regexp
	if term != "" {
		// Invalid patterns leave rx nil: substring matching still applies.
		rx, _ = regexp.Compile("(?i)" + strings.TrimSpace(c.Name))
	}
	category := c.Category

	return func(p Product) bool {
		if term != "" {
			name := strings.ToLower(p.Name)
			if !strings.Contains(name, term) && (rx == nil || !rx.MatchString(p.Name)) {
				return false
			}
		}
		if category != "" && category != CategoryAll && p.Category != category {
			return false
		}
		if c.MinBuy != nil && p.BuyPrice.LessThan(*c.MinBuy) {
			return false
		}
		if c.MaxBuy != nil && p.BuyPrice.GreaterThan(*c.MaxBuy) {
			return false
		}
		if c.MinSell != nil && p.SellPrice.LessThan(*c.MinSell) {
			return false
		}
		if c.MaxSell != nil && p.SellPrice.GreaterThan(*c.MaxSell) {
			return false
		}
		if c.MinStock != nil && p.Stock < *c.MinStock {
			return false
		}
		if c.MaxStock != nil && p.Stock > *c.MaxStock {
			return false
		}
		if c.UpdatedAfter != nil && p.LastUpdated.Before(*c.UpdatedAfter) {
			return false
		}
		return true
	}
}
