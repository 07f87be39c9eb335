package service

import (
	"context"
	"sync"
	"time"

	"merchant-desk/internal/domain"
	"merchant-desk/internal/events"
	"merchant-desk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type publishedEvent struct {
	topic string
	env   events.Envelope
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, env: env})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

// fixedClock returns a clock that always reads t
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func cartItem(name, price string, qty int) domain.CartItem {
	return domain.CartItem{ProductID: uuid.New(), Name: name, Price: money(price), Quantity: qty}
}

type failingOrderRepository struct {
	repository.OrderRepository
	err error
}

func (r failingOrderRepository) Create(context.Context, *domain.Order) error {
	return r.err
}
