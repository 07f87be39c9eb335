package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/events"
	"merchant-desk/internal/repository"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSelectionService(now time.Time) (*selectionService, *repository.MemorySelectionRepository, *recordingPublisher) {
	repo := repository.NewMemorySelectionRepository()
	pub := &recordingPublisher{}
	svc := NewSelectionService(repo, pub, zap.NewNop()).(*selectionService)
	svc.now = fixedClock(now)
	return svc, repo, pub
}

func TestSubmitValidation(t *testing.T) {
	items := []domain.CartItem{cartItem("A", "10.00", 2)}
	dup := cartItem("A", "10.00", 1)

	tests := []struct {
		name  string
		input SubmitSelectionInput
		field string
		msg   string
	}{
		{"blank name", SubmitSelectionInput{CustomerName: "   ", CustomerPhone: "555", Items: items}, "customer_name", domain.MsgCustomerNameRequired},
		{"blank phone", SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "\t", Items: items}, "customer_phone", domain.MsgCustomerPhoneRequired},
		{"no items", SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555"}, "items", domain.MsgItemsRequired},
		{"zero quantity", SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{cartItem("A", "1.00", 0)}}, "items", domain.MsgQuantityPositive},
		{"negative price", SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{cartItem("A", "-1.00", 1)}}, "items", domain.MsgPriceNonNegative},
		{"duplicate product", SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{dup, dup}}, "items", "each product may appear only once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestSelectionService(time.Now())
			ctx := context.Background()

			_, err := svc.Submit(ctx, tt.input)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.msg, ve.Message)

			pending, err := repo.ListPending(ctx)
			require.NoError(t, err)
			assert.Empty(t, pending)
			assert.Empty(t, pub.topics())
		})
	}
}

func TestSubmitPersistsPendingSelection(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	svc, repo, pub := newTestSelectionService(now)
	ctx := context.Background()

	items := []domain.CartItem{cartItem("A", "10.00", 2), cartItem("B", "5.00", 1)}
	selection, err := svc.Submit(ctx, SubmitSelectionInput{
		CustomerName:  "  Ana Souza ",
		CustomerPhone: " 555-0100",
		Items:         items,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Souza", selection.CustomerName)
	assert.Equal(t, "555-0100", selection.CustomerPhone)
	assert.Equal(t, domain.SelectionPending, selection.Status)
	assert.Equal(t, now, selection.CreatedAt)
	assert.Nil(t, selection.ProcessedAt)
	assert.True(t, selection.Total().Equal(money("25.00")))

	items[0].Quantity = 99
	stored, err := repo.FindByID(ctx, selection.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Items[0].Quantity, spew.Sdump(stored))

	require.Equal(t, []string{events.TopicSelectionSubmitted}, pub.topics())
	payload, err := events.UnwrapPayload[events.SelectionSubmittedPayload](pub.events[0].env)
	require.NoError(t, err)
	assert.Equal(t, 2, payload.ItemCount)
	assert.True(t, payload.Total.Equal(money("25")))
}

func collectPending(t *testing.T, svc SelectionService) []*domain.CustomerSelection {
	t.Helper()
	var out []*domain.CustomerSelection
	for selection, err := range svc.ListPending(context.Background()) {
		require.NoError(t, err)
		out = append(out, selection)
	}
	return out
}

func TestListPendingNewestFirstAndFresh(t *testing.T) {
	base := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	svc, _, _ := newTestSelectionService(base)
	ctx := context.Background()

	var ids []uuid.UUID
	for i, name := range []string{"first", "second", "third"} {
		svc.now = fixedClock(base.Add(time.Duration(i) * time.Minute))
		s, err := svc.Submit(ctx, SubmitSelectionInput{CustomerName: name, CustomerPhone: "1", Items: []domain.CartItem{cartItem("A", "1", 1)}})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	pending := svc.ListPending(ctx)

	var names []string
	for s, err := range pending {
		require.NoError(t, err)
		names = append(names, s.CustomerName)
	}
	assert.Equal(t, []string{"third", "second", "first"}, names)

	_, err := svc.ClaimAndProcess(ctx, ids[2])
	require.NoError(t, err)

	names = names[:0]
	for s, err := range pending {
		require.NoError(t, err)
		names = append(names, s.CustomerName)
	}
	assert.Equal(t, []string{"second", "first"}, names)
}

func TestListPendingStopsEarly(t *testing.T) {
	svc, _, _ := newTestSelectionService(time.Now())
	ctx := context.Background()
	for range 3 {
		_, err := svc.Submit(ctx, SubmitSelectionInput{CustomerName: "n", CustomerPhone: "p", Items: []domain.CartItem{cartItem("A", "1", 1)}})
		require.NoError(t, err)
	}

	seen := 0
	for range svc.ListPending(ctx) {
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestClaimAndProcessExactlyOnce(t *testing.T) {
	claimedAt := time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC)
	svc, _, pub := newTestSelectionService(claimedAt)
	ctx := context.Background()

	selection, err := svc.Submit(ctx, SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{cartItem("A", "10.00", 2)}})
	require.NoError(t, err)

	processed, err := svc.ClaimAndProcess(ctx, selection.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SelectionProcessed, processed.Status)
	require.NotNil(t, processed.ProcessedAt)
	assert.Equal(t, claimedAt, *processed.ProcessedAt)
	assert.Equal(t, selection.Items, processed.Items)

	_, err = svc.ClaimAndProcess(ctx, selection.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)

	_, err = svc.ClaimAndProcess(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSelectionNotFound)

	assert.Empty(t, collectPending(t, svc))
	assert.Equal(t, []string{events.TopicSelectionSubmitted, events.TopicSelectionProcessed}, pub.topics())
}

func TestConcurrentClaimsHaveSingleWinner(t *testing.T) {
	svc, _, _ := newTestSelectionService(time.Now())
	ctx := context.Background()

	selection, err := svc.Submit(ctx, SubmitSelectionInput{CustomerName: "Ana", CustomerPhone: "555", Items: []domain.CartItem{cartItem("A", "1", 1)}})
	require.NoError(t, err)

	const merchants = 32
	var (
		wg       sync.WaitGroup
		winners  atomic.Int32
		rejected atomic.Int32
	)
	for range merchants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ClaimAndProcess(ctx, selection.ID)
			if err == nil {
				winners.Add(1)
			} else if errors.Is(err, domain.ErrAlreadyProcessed) {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, int32(merchants-1), rejected.Load())
}
