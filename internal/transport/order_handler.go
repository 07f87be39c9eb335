package transport

import (
	"net/http"

	"merchant-desk/internal/middleware"
	"merchant-desk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLineRequest is one invoice line entered by the merchant
type OrderLineRequest struct {
	ProductID string          `json:"product_id" validate:"omitempty,uuid"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
}

// CreateOrderRequest is a direct invoice entry. total_price is optional;
// when present it must equal the sum of the lines.
type CreateOrderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Items         []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	TotalPrice    decimal.Decimal    `json:"total_price"`
}

func (req CreateOrderRequest) input() (service.CreateOrderInput, error) {
	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, l := range req.Items {
		var productID uuid.UUID
		if l.ProductID != "" {
			id, err := bodyID("product_id", l.ProductID)
			if err != nil {
				return service.CreateOrderInput{}, err
			}
			productID = id
		}
		lines = append(lines, service.OrderLine{
			ProductID: productID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}
	return service.CreateOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Items:         lines,
		TotalPrice:    req.TotalPrice,
	}, nil
}

// OrderHandler serves invoice entry and lookup for staff
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router, staff ...func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(staff...)
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
	})
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	input, err := req.input()
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), input)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("total_price", order.TotalPrice.StringFixed(2)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
