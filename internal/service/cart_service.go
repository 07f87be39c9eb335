package service

import (
	"context"
	"fmt"

	"merchant-desk/internal/cart"
	"merchant-desk/internal/domain"

	"github.com/google/uuid"
)

// CartLine is one quantity update sent by the customer page, in the order it happened
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Quote is the server-side view of a cart
type Quote struct {
	Items  []domain.CartItem
	Totals cart.Totals
}

// CartService rebuilds carts from client-held quantity updates against the live catalog
type CartService interface {
	Build(ctx context.Context, lines []CartLine) (*cart.Cart, error)
	Quote(ctx context.Context, lines []CartLine) (*Quote, error)
}

type cartService struct {
	catalog CatalogService
}

// NewCartService creates a new instance of CartService
func NewCartService(catalog CatalogService) CartService {
	return &cartService{catalog: catalog}
}

// Build replays lines through a fresh cart. Unknown or hidden products are skipped.
func (s *cartService) Build(ctx context.Context, lines []CartLine) (*cart.Cart, error) {
	c := cart.New(cart.CatalogFunc(s.catalog.GetAvailableProduct))
	for _, line := range lines {
		if err := c.SetQuantity(ctx, line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to update cart: %w", err)
		}
	}
	return c, nil
}

func (s *cartService) Quote(ctx context.Context, lines []CartLine) (*Quote, error) {
	c, err := s.Build(ctx, lines)
	if err != nil {
		return nil, err
	}
	return &Quote{Items: c.Items(), Totals: c.Totals()}, nil
}
