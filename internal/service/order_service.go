package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/events"
	"merchant-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderLine is an invoice line as entered by the merchant or copied from a selection
type OrderLine struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// CreateOrderInput describes a new invoice. A zero TotalPrice is filled in from the lines;
// a non-zero one must match them.
type CreateOrderInput struct {
	SelectionID   *uuid.UUID
	CustomerName  string
	CustomerPhone string
	Items         []OrderLine
	TotalPrice    decimal.Decimal
}

// OrderService records invoices. Orders are immutable once created.
type OrderService interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	CreateFromSelection(ctx context.Context, selection *domain.CustomerSelection) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
}

type orderService struct {
	repo      repository.OrderRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(repo repository.OrderRepository, publisher events.Publisher, logger *zap.Logger) OrderService {
	return &orderService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Items) == 0 {
		return nil, domain.NewValidationError("items", domain.MsgItemsRequired)
	}

	order := &domain.Order{
		ID:            uuid.New(),
		SelectionID:   input.SelectionID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		Items:         make([]domain.OrderItem, 0, len(input.Items)),
		TotalPrice:    decimal.Zero,
		CreatedAt:     s.now(),
	}

	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, domain.NewValidationError("items", domain.MsgQuantityPositive)
		}
		if line.Price.IsNegative() {
			return nil, domain.NewValidationError("items", domain.MsgPriceNonNegative)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
		order.TotalPrice = order.TotalPrice.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if !input.TotalPrice.IsZero() && !input.TotalPrice.Equal(order.TotalPrice) {
		return nil, domain.NewValidationError("total_price", "total does not match the line items")
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	payload := events.OrderCreatedPayload{
		OrderID:    order.ID.String(),
		TotalPrice: order.TotalPrice,
		ItemCount:  len(order.Items),
	}
	if order.SelectionID != nil {
		payload.SelectionID = order.SelectionID.String()
	}
	events.Emit(ctx, s.publisher, s.logger, events.TopicOrderCreated, events.EventOrderCreated, order.ID.String(), payload)

	return order, nil
}

// CreateFromSelection invoices a processed selection with its snapshotted lines and contact details
func (s *orderService) CreateFromSelection(ctx context.Context, selection *domain.CustomerSelection) (*domain.Order, error) {
	lines := make([]OrderLine, 0, len(selection.Items))
	for _, item := range selection.Items {
		lines = append(lines, OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	id := selection.ID
	return s.CreateOrder(ctx, CreateOrderInput{
		SelectionID:   &id,
		CustomerName:  selection.CustomerName,
		CustomerPhone: selection.CustomerPhone,
		Items:         lines,
		TotalPrice:    selection.Total(),
	})
}

func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
