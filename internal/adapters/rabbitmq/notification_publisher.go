package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessagePublisher - то, что адаптеру нужно от rabbitmq_producer.Publisher
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

type NotificationPublisherAdapter struct {
	producer   MessagePublisher
	routingKey string
}

func NewNotificationPublisherAdapter(producer MessagePublisher, routingKey string) (*NotificationPublisherAdapter, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if routingKey == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routingKey cannot be empty")
	}
	return &NotificationPublisherAdapter{producer: producer, routingKey: routingKey}, nil
}

func (a *NotificationPublisherAdapter) PublishNotificationChanged(ctx context.Context, n domain.Notification) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component":       "NotificationPublisherAdapter",
		"routing_key":     a.routingKey,
		"notification_id": n.ID.String(),
	})

	body, err := json.Marshal(fromDomainNotification(n))
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         body,
		Headers: amqp.Table{
			headerEventType:    constants.EventNotificationChanged,
			headerEventVersion: constants.EventVersionV1,
		},
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers[headerTraceID] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.producer.Publish(publishCtx, a.routingKey, msg); err != nil {
		logger.Error("Failed to publish notification event", err, nil)
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	logger.Debug("Notification event published", nil)
	return nil
}
