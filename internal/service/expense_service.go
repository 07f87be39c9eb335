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

type RecordExpenseInput struct {
	Amount   decimal.Decimal
	Date     time.Time
	Category string
	Note     string
}

// ExpenseService records business costs for reporting
type ExpenseService interface {
	RecordExpense(ctx context.Context, input RecordExpenseInput) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from, to time.Time) ([]*domain.Expense, error)
}

type expenseService struct {
	repo      repository.ExpenseRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewExpenseService creates a new instance of ExpenseService
func NewExpenseService(repo repository.ExpenseRepository, publisher events.Publisher, logger *zap.Logger) ExpenseService {
	return &expenseService{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

func (s *expenseService) RecordExpense(ctx context.Context, input RecordExpenseInput) (*domain.Expense, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", domain.MsgAmountPositive)
	}
	if input.Date.IsZero() {
		return nil, domain.NewValidationError("date", domain.MsgDateRequired)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = "general"
	}

	expense := &domain.Expense{
		ID:        uuid.New(),
		Amount:    input.Amount,
		Date:      input.Date,
		Category:  category,
		Note:      strings.TrimSpace(input.Note),
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to record expense: %w", err)
	}

	events.Emit(ctx, s.publisher, s.logger, events.TopicExpenseRecorded, events.EventExpenseRecorded,
		expense.ID.String(), events.ExpenseRecordedPayload{
			ExpenseID: expense.ID.String(),
			Amount:    expense.Amount,
			Category:  expense.Category,
			Date:      expense.Date,
		})

	return expense, nil
}

func (s *expenseService) ListExpenses(ctx context.Context, from, to time.Time) ([]*domain.Expense, error) {
	expenses, err := s.repo.List(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}
