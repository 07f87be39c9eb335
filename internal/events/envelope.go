package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TopicSelectionSubmitted = "selection.submitted"
	TopicSelectionProcessed = "selection.processed"
	TopicOrderCreated       = "order.created"
	TopicExpenseRecorded    = "expense.recorded"
)

// AllTopics lists every topic the service writes
var AllTopics = []string{
	TopicSelectionSubmitted,
	TopicSelectionProcessed,
	TopicOrderCreated,
	TopicExpenseRecorded,
}

const (
	EventSelectionSubmitted = "SelectionSubmitted"
	EventSelectionProcessed = "SelectionProcessed"
	EventOrderCreated       = "OrderCreated"
	EventExpenseRecorded    = "ExpenseRecorded"
)

// Producer name stamped on every envelope
const producerName = "merchant-desk"

// Envelope wraps every message written to Kafka
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type SelectionSubmittedPayload struct {
	SelectionID   string          `json:"selection_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	ItemCount     int             `json:"item_count"`
	Total         decimal.Decimal `json:"total"`
}

type SelectionProcessedPayload struct {
	SelectionID string    `json:"selection_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

type OrderCreatedPayload struct {
	OrderID     string          `json:"order_id"`
	SelectionID string          `json:"selection_id,omitempty"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ItemCount   int             `json:"item_count"`
}

type ExpenseRecordedPayload struct {
	ExpenseID string          `json:"expense_id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      time.Time       `json:"date"`
}

// NewEnvelope marshals payload into a version 1 envelope keyed by correlationID
func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes the envelope payload into T
func UnwrapPayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
