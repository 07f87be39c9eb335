package events

import (
	"context"

	"go.uber.org/zap"
)

// Notifier turns events into log lines on the merchant's notification stream.
// Undecodable payloads are logged and acknowledged so they are not redelivered.
type Notifier struct {
	logger *zap.Logger
}

func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Handle satisfies Handler
func (n *Notifier) Handle(_ context.Context, topic string, env Envelope) error {
	log := n.logger.With(zap.String("event_id", env.EventID), zap.String("topic", topic))

	switch topic {
	case TopicSelectionSubmitted:
		p, err := UnwrapPayload[SelectionSubmittedPayload](env)
		if err != nil {
			log.Warn("Dropping event", zap.Error(err))
			return nil
		}
		log.Info("New customer selection",
			zap.String("selection_id", p.SelectionID),
			zap.String("customer_name", p.CustomerName),
			zap.String("customer_phone", p.CustomerPhone),
			zap.Int("items", p.ItemCount),
			zap.String("total", p.Total.StringFixed(2)),
		)
	case TopicSelectionProcessed:
		p, err := UnwrapPayload[SelectionProcessedPayload](env)
		if err != nil {
			log.Warn("Dropping event", zap.Error(err))
			return nil
		}
		log.Info("Selection processed",
			zap.String("selection_id", p.SelectionID),
			zap.Time("processed_at", p.ProcessedAt),
		)
	case TopicOrderCreated:
		p, err := UnwrapPayload[OrderCreatedPayload](env)
		if err != nil {
			log.Warn("Dropping event", zap.Error(err))
			return nil
		}
		log.Info("Order recorded",
			zap.String("order_id", p.OrderID),
			zap.String("selection_id", p.SelectionID),
			zap.String("total_price", p.TotalPrice.StringFixed(2)),
		)
	case TopicExpenseRecorded:
		p, err := UnwrapPayload[ExpenseRecordedPayload](env)
		if err != nil {
			log.Warn("Dropping event", zap.Error(err))
			return nil
		}
		log.Info("Expense recorded",
			zap.String("expense_id", p.ExpenseID),
			zap.String("category", p.Category),
			zap.String("amount", p.Amount.StringFixed(2)),
		)
	default:
		log.Debug("Ignoring event")
	}
	return nil
}
