package transport

import (
	"net/http"

	"merchant-desk/internal/cart"
	"merchant-desk/internal/domain"
	"merchant-desk/internal/middleware"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartLineRequest is one quantity update from the customer page.
// A quantity of zero or less removes the product.
type CartLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// CartRequest replays the customer's quantity updates in order
type CartRequest struct {
	Lines []CartLineRequest `json:"lines" validate:"dive"`
}

// QuoteResponse is the server's view of the cart
type QuoteResponse struct {
	Items  []domain.CartItem `json:"items"`
	Totals cart.Totals       `json:"totals"`
}

func cartLines(reqs []CartLineRequest) ([]service.CartLine, error) {
	lines := make([]service.CartLine, 0, len(reqs))
	for _, l := range reqs {
		id, err := bodyID("product_id", l.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, service.CartLine{ProductID: id, Quantity: l.Quantity})
	}
	return lines, nil
}

// CartHandler prices carts against the live catalog
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/cart/quote", h.Quote)
}

// Quote replays the lines and returns items with totals
func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	lines, err := cartLines(req.Lines)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	quote, err := h.carts.Quote(r.Context(), lines)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, QuoteResponse{Items: quote.Items, Totals: quote.Totals})
}
