package events

import (
	"context"

	"go.uber.org/zap"
)

// Emit publishes a best-effort event. Failures are logged and never returned,
// so a broker outage cannot fail the business operation that raised the event.
func Emit(ctx context.Context, pub Publisher, logger *zap.Logger, topic, eventType, correlationID string, payload any) {
	env, err := NewEnvelope(eventType, correlationID, payload)
	if err == nil {
		err = pub.Publish(ctx, topic, env)
	}
	if err != nil {
		logger.Warn("Failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.String("correlation_id", correlationID),
			zap.Error(err),
		)
	}
}
