// Package cart holds the session-scoped product selection a customer builds
// before submitting it. A Cart is an explicit value owned by its caller; it is
// not safe for concurrent use and is never persisted on its own.
package cart

import (
	"context"
	"errors"

	"merchant-desk/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalog looks up the product a new cart line is snapshotted from
type Catalog interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

// CatalogFunc adapts a lookup function to Catalog
type CatalogFunc func(ctx context.Context, id uuid.UUID) (*domain.Product, error)

// GetProduct calls f
func (f CatalogFunc) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return f(ctx, id)
}

// Totals is the aggregate of the current cart lines
type Totals struct {
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Cart maps product IDs to quantities. Insertion order is kept for display only.
type Cart struct {
	catalog Catalog
	items   map[uuid.UUID]*domain.CartItem
	order   []uuid.UUID
}

// New creates an empty cart backed by the given catalog
func New(catalog Catalog) *Cart {
	return &Cart{
		catalog: catalog,
		items:   make(map[uuid.UUID]*domain.CartItem),
	}
}

// SetQuantity applies a quantity change for a product.
//
// A quantity <= 0 removes the line. A positive quantity on a new product
// snapshots its name and price from the catalog; a product the catalog does not
// know is ignored. A positive quantity on an existing line only replaces the
// quantity. Catalog errors other than not-found are returned unchanged.
func (c *Cart) SetQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	item, exists := c.items[productID]

	switch {
	case quantity <= 0:
		if exists {
			c.remove(productID)
		}
		return nil
	case exists:
		item.Quantity = quantity
		return nil
	}

	product, err := c.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil
		}
		return err
	}
	if product == nil {
		return nil
	}

	c.items[productID] = &domain.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  quantity,
	}
	c.order = append(c.order, productID)
	return nil
}

// Quantity returns the quantity held for a product, 0 if absent
func (c *Cart) Quantity(productID uuid.UUID) int {
	if item, ok := c.items[productID]; ok {
		return item.Quantity
	}
	return 0
}

// Len returns the number of distinct products in the cart
func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns copies of the cart lines in insertion order
func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.items[id])
	}
	return out
}

// Totals sums quantities and line prices over the current lines
func (c *Cart) Totals() Totals {
	totals := Totals{TotalPrice: decimal.Zero}
	for _, id := range c.order {
		item := c.items[id]
		totals.TotalItems += item.Quantity
		totals.TotalPrice = totals.TotalPrice.Add(item.LineTotal())
	}
	return totals
}

// Clear empties the cart. Callers clear only after a successful submission.
func (c *Cart) Clear() {
	c.items = make(map[uuid.UUID]*domain.CartItem)
	c.order = nil
}

func (c *Cart) remove(productID uuid.UUID) {
	delete(c.items, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
