package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"bellgas/pkg/platform/sentinel"
)

// Product is a sellable item with its packed shipping weight.
type Product struct {
	SKU              string
	Name             string
	UnitPrice        decimal.Decimal
	ShippingWeightKg decimal.Decimal
}

// InMemoryCatalog serves a fixed product list.
type InMemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

// DefaultProducts is the storefront range. Shipping weight is the filled
// cylinder, not the gas.
var DefaultProducts = []Product{
	{SKU: "LPG-4KG-SWAP", Name: "4kg LPG cylinder swap", UnitPrice: decimal.RequireFromString("29.95"), ShippingWeightKg: decimal.RequireFromString("8.5")},
	{SKU: "LPG-9KG-SWAP", Name: "9kg LPG cylinder swap", UnitPrice: decimal.RequireFromString("34.95"), ShippingWeightKg: decimal.RequireFromString("18")},
	{SKU: "LPG-9KG-NEW", Name: "9kg LPG cylinder (new, filled)", UnitPrice: decimal.RequireFromString("79.00"), ShippingWeightKg: decimal.RequireFromString("18")},
	{SKU: "LPG-45KG-REFILL", Name: "45kg LPG cylinder refill", UnitPrice: decimal.RequireFromString("149.00"), ShippingWeightKg: decimal.RequireFromString("80")},
	{SKU: "REG-HOSE-KIT", Name: "Regulator and hose kit", UnitPrice: decimal.RequireFromString("39.95"), ShippingWeightKg: decimal.RequireFromString("1.2")},
}

func NewInMemoryCatalog(products []Product) *InMemoryCatalog {
	c := &InMemoryCatalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.products[strings.ToUpper(p.SKU)] = p
	}
	return c
}

// Product returns sentinel.ErrNotFound for unknown SKUs.
func (c *InMemoryCatalog) Product(_ context.Context, sku string) (*Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[strings.ToUpper(strings.TrimSpace(sku))]
	if !ok {
		return nil, fmt.Errorf("product %q: %w", sku, sentinel.ErrNotFound)
	}
	return &p, nil
}
