package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_consumer"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// NotificationEventsConsumerAdapter - push-путь уведомлений:
// очередь notification_events -> ApplyNotificationUpdate
type NotificationEventsConsumerAdapter struct {
	consumer rabbitmq_consumer.Consumer
	applyUC  usecases_port.ApplyNotificationUpdateUseCase
	logger   port.LoggerPort
}

func NewNotificationEventsConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	applyUC usecases_port.ApplyNotificationUpdateUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*NotificationEventsConsumerAdapter, error) {
	adapter := &NotificationEventsConsumerAdapter{
		applyUC: applyUC,
		logger:  logger.WithFields(port.Fields{"adapter_name": "NotificationEventsConsumerAdapter"}),
	}

	consumerCfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{
		"component":    "rabbitmq_distributing_consumer",
		"consumer_tag": consumerCfg.ConsumerTag,
	}))

	consumer, err := rabbitmq_consumer.NewDistributingConsumer(consumerCfg, adapter.handleDelivery, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for notification events: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

// handleDelivery: ошибка отправляет сообщение в цикл повторов/DLX
func (a *NotificationEventsConsumerAdapter) handleDelivery(d amqp.Delivery) error {
	traceID, _ := d.Headers[headerTraceID].(string)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	msgLogger := a.logger.WithFields(port.Fields{
		"trace_id":   traceID,
		"message_id": d.MessageId,
	})
	ctx := contextkeys.ContextWithLogger(context.Background(), msgLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	eventType, _ := d.Headers[headerEventType].(string)
	eventVersion, _ := d.Headers[headerEventVersion].(string)
	if eventType == "" {
		eventType, eventVersion = constants.EventNotificationChanged, constants.EventVersionV1
	}
	if err := contracts.ValidateEvent(eventType, eventVersion, d.Body); err != nil {
		msgLogger.Error("Message failed schema validation. Rejecting.", err, nil)
		return err
	}

	var dto NotificationChangedDTO
	if err := json.Unmarshal(d.Body, &dto); err != nil {
		msgLogger.Error("Failed to unmarshal notification event", err, nil)
		return err
	}

	changed, err := a.applyUC.Execute(ctx, dto.toDomain())
	if err != nil {
		msgLogger.Error("Failed to apply notification update", err, nil)
		return err
	}
	msgLogger.Debug("Notification event processed", port.Fields{
		"notification_id": dto.ID.String(),
		"changed":         changed,
	})
	return nil
}

func (a *NotificationEventsConsumerAdapter) Start(ctx context.Context) error {
	a.logger.Info("Starting consumer", nil)
	return a.consumer.StartConsuming(ctx)
}

func (a *NotificationEventsConsumerAdapter) Close() error {
	a.logger.Info("Stopping consumer", nil)
	return a.consumer.Close()
}
