package service

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/events"
	"merchant-desk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitSelectionInput is a customer's finished cart plus contact details
type SubmitSelectionInput struct {
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Items         []domain.CartItem
}

// SelectionService owns the pending → processed lifecycle of customer selections
type SelectionService interface {
	Submit(ctx context.Context, input SubmitSelectionInput) (*domain.CustomerSelection, error)
	// ListPending yields pending selections newest first. Each range re-reads the store.
	ListPending(ctx context.Context) iter.Seq2[*domain.CustomerSelection, error]
	// ClaimAndProcess marks a pending selection processed exactly once and returns it.
	// It does not create an order.
	ClaimAndProcess(ctx context.Context, id uuid.UUID) (*domain.CustomerSelection, error)
	GetSelection(ctx context.Context, id uuid.UUID) (*domain.CustomerSelection, error)
}

type selectionService struct {
	repo      repository.SelectionRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewSelectionService creates a new instance of SelectionService
func NewSelectionService(repo repository.SelectionRepository, publisher events.Publisher, logger *zap.Logger) SelectionService {
	return &selectionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func validateSelection(input SubmitSelectionInput) error {
	if input.CustomerName == "" {
		return domain.NewValidationError("customer_name", domain.MsgCustomerNameRequired)
	}
	if input.CustomerPhone == "" {
		return domain.NewValidationError("customer_phone", domain.MsgCustomerPhoneRequired)
	}
	if len(input.Items) == 0 {
		return domain.NewValidationError("items", domain.MsgItemsRequired)
	}
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return domain.NewValidationError("items", domain.MsgQuantityPositive)
		}
		if item.Price.IsNegative() {
			return domain.NewValidationError("items", domain.MsgPriceNonNegative)
		}
		if seen[item.ProductID] {
			return domain.NewValidationError("items", "each product may appear only once")
		}
		seen[item.ProductID] = true
	}
	return nil
}

func (s *selectionService) Submit(ctx context.Context, input SubmitSelectionInput) (*domain.CustomerSelection, error) {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.CustomerPhone = strings.TrimSpace(input.CustomerPhone)
	input.CustomerEmail = strings.TrimSpace(input.CustomerEmail)

	if err := validateSelection(input); err != nil {
		return nil, err
	}

	items := make([]domain.CartItem, len(input.Items))
	copy(items, input.Items)

	selection := &domain.CustomerSelection{
		ID:            uuid.New(),
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		CustomerEmail: input.CustomerEmail,
		Items:         items,
		Status:        domain.SelectionPending,
		CreatedAt:     s.now(),
	}

	if err := s.repo.Create(ctx, selection); err != nil {
		return nil, fmt.Errorf("failed to submit selection: %w", err)
	}

	s.logger.Info("Selection submitted",
		zap.String("selection_id", selection.ID.String()),
		zap.Int("items", len(selection.Items)),
	)
	events.Emit(ctx, s.publisher, s.logger, events.TopicSelectionSubmitted, events.EventSelectionSubmitted,
		selection.ID.String(), events.SelectionSubmittedPayload{
			SelectionID:   selection.ID.String(),
			CustomerName:  selection.CustomerName,
			CustomerPhone: selection.CustomerPhone,
			ItemCount:     len(selection.Items),
			Total:         selection.Total(),
		})

	return selection, nil
}

func (s *selectionService) ListPending(ctx context.Context) iter.Seq2[*domain.CustomerSelection, error] {
	return func(yield func(*domain.CustomerSelection, error) bool) {
		pending, err := s.repo.ListPending(ctx)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list pending selections: %w", err))
			return
		}
		for _, selection := range pending {
			if !yield(selection, nil) {
				return
			}
		}
	}
}

func (s *selectionService) ClaimAndProcess(ctx context.Context, id uuid.UUID) (*domain.CustomerSelection, error) {
	selection, err := s.repo.Claim(ctx, id, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Selection processed", zap.String("selection_id", id.String()))
	events.Emit(ctx, s.publisher, s.logger, events.TopicSelectionProcessed, events.EventSelectionProcessed,
		id.String(), events.SelectionProcessedPayload{
			SelectionID: id.String(),
			ProcessedAt: *selection.ProcessedAt,
		})

	return selection, nil
}

func (s *selectionService) GetSelection(ctx context.Context, id uuid.UUID) (*domain.CustomerSelection, error) {
	return s.repo.FindByID(ctx, id)
}
