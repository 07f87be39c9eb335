package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/events"
	"merchant-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateOrderComputesTotal(t *testing.T) {
	repo := repository.NewMemoryOrderRepository()
	pub := &recordingPublisher{}
	svc := NewOrderService(repo, pub, zap.NewNop())
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: " Walk-in ",
		Items: []OrderLine{
			{ProductID: uuid.New(), Name: "Tea", Price: money("0.10"), Quantity: 3},
			{ProductID: uuid.New(), Name: "Cake", Price: money("4.50"), Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.True(t, order.TotalPrice.Equal(money("9.30")), order.TotalPrice.String())
	assert.Equal(t, "Walk-in", order.CustomerName)
	assert.Nil(t, order.SelectionID)
	assert.Equal(t, []string{events.TopicOrderCreated}, pub.topics())

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestCreateOrderValidation(t *testing.T) {
	svc := NewOrderService(repository.NewMemoryOrderRepository(), events.NopPublisher{}, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateOrderInput
		field string
	}{
		{"no lines", CreateOrderInput{}, "items"},
		{"zero quantity", CreateOrderInput{Items: []OrderLine{{Name: "A", Price: money("1"), Quantity: 0}}}, "items"},
		{"negative price", CreateOrderInput{Items: []OrderLine{{Name: "A", Price: money("-1"), Quantity: 1}}}, "items"},
		{"total mismatch", CreateOrderInput{Items: []OrderLine{{Name: "A", Price: money("2"), Quantity: 2}}, TotalPrice: money("5")}, "total_price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(ctx, tt.input)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	orders, err := svc.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateFromSelectionCopiesSnapshot(t *testing.T) {
	svc := NewOrderService(repository.NewMemoryOrderRepository(), events.NopPublisher{}, zap.NewNop())

	selection := &domain.CustomerSelection{
		ID:            uuid.New(),
		CustomerName:  "Ana",
		CustomerPhone: "555",
		Items:         []domain.CartItem{cartItem("A", "10.00", 2), cartItem("B", "5.00", 1)},
		Status:        domain.SelectionProcessed,
	}

	order, err := svc.CreateFromSelection(context.Background(), selection)
	require.NoError(t, err)

	require.NotNil(t, order.SelectionID)
	assert.Equal(t, selection.ID, *order.SelectionID)
	assert.Equal(t, "Ana", order.CustomerName)
	assert.True(t, order.TotalPrice.Equal(money("25.00")))
	require.Len(t, order.Items, 2)
	assert.Equal(t, selection.Items[1].ProductID, order.Items[1].ProductID)
}

func TestConvertSelection(t *testing.T) {
	selections, _, _ := newTestSelectionService(time.Now())
	orders := NewOrderService(repository.NewMemoryOrderRepository(), events.NopPublisher{}, zap.NewNop())
	conversion := NewConversionService(selections, orders, zap.NewNop())
	ctx := context.Background()

	selection, err := selections.Submit(ctx, SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{cartItem("A", "10.00", 2)}})
	require.NoError(t, err)

	order, err := conversion.Convert(ctx, selection.ID)
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(money("20")))

	_, err = conversion.Convert(ctx, selection.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	all, err := orders.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConvertLeavesSelectionProcessedWhenOrderFails(t *testing.T) {
	selections, repo, _ := newTestSelectionService(time.Now())
	boom := errors.New("disk full")
	orders := NewOrderService(failingOrderRepository{err: boom}, events.NopPublisher{}, zap.NewNop())
	core, logs := observer.New(zap.ErrorLevel)
	conversion := NewConversionService(selections, orders, zap.New(core))
	ctx := context.Background()

	selection, err := selections.Submit(ctx, SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{cartItem("A", "1", 1)}})
	require.NoError(t, err)

	_, err = conversion.Convert(ctx, selection.ID)
	assert.ErrorIs(t, err, boom)

	stored, err := repo.FindByID(ctx, selection.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionProcessed, stored.Status)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, selection.ID.String(), entries[0].ContextMap()["selection_id"])
}

func TestRecordExpense(t *testing.T) {
	repo := repository.NewMemoryExpenseRepository()
	pub := &recordingPublisher{}
	svc := NewExpenseService(repo, pub, zap.NewNop())
	ctx := context.Background()
	day := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	_, err := svc.RecordExpense(ctx, RecordExpenseInput{Amount: money("0"), Date: day})
	assert.True(t, domain.IsValidationError(err))
	_, err = svc.RecordExpense(ctx, RecordExpenseInput{Amount: money("10")})
	assert.True(t, domain.IsValidationError(err))

	expense, err := svc.RecordExpense(ctx, RecordExpenseInput{Amount: money("30.00"), Date: day, Note: " flour "})
	require.NoError(t, err)
	assert.Equal(t, "general", expense.Category)
	assert.Equal(t, "flour", expense.Note)

	listed, err := svc.ListExpenses(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, []string{events.TopicExpenseRecorded}, pub.topics())
}
