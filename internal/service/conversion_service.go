package service

import (
	"context"

	"merchant-desk/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversionService turns a pending selection into an order
type ConversionService interface {
	// Convert claims the selection, then invoices it. If invoicing fails the
	// selection stays processed without an order; the error is returned and logged.
	Convert(ctx context.Context, selectionID uuid.UUID) (*domain.Order, error)
}

type conversionService struct {
	selections SelectionService
	orders     OrderService
	logger     *zap.Logger
}

// NewConversionService creates a new instance of ConversionService
func NewConversionService(selections SelectionService, orders OrderService, logger *zap.Logger) ConversionService {
	return &conversionService{selections: selections, orders: orders, logger: logger}
}

func (s *conversionService) Convert(ctx context.Context, selectionID uuid.UUID) (*domain.Order, error) {
	selection, err := s.selections.ClaimAndProcess(ctx, selectionID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.CreateFromSelection(ctx, selection)
	if err != nil {
		s.logger.Error("Selection processed but order creation failed",
			zap.String("selection_id", selectionID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Selection converted",
		zap.String("selection_id", selectionID.String()),
		zap.String("order_id", order.ID.String()),
	)
	return order, nil
}
