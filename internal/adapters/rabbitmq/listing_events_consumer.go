package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

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

const (
	listingEventsBatchSize    = 50
	listingEventsBatchTimeout = 5 * time.Second
)

// ListingEventsConsumerAdapter собирает изменения объявлений пачками
// и на каждую пачку делает одно принудительное обновление коллекции
type ListingEventsConsumerAdapter struct {
	consumer  rabbitmq_consumer.Consumer
	refreshUC usecases_port.RefreshListingsUseCase
	logger    port.LoggerPort
}

func NewListingEventsConsumerAdapter(
	consumerCfg rabbitmq_consumer.ConsumerConfig,
	refreshUC usecases_port.RefreshListingsUseCase,
	logger port.LoggerPort,
	connManager *rabbitmq_common.ConnectionManager,
) (*ListingEventsConsumerAdapter, error) {
	adapter := &ListingEventsConsumerAdapter{
		refreshUC: refreshUC,
		logger:    logger.WithFields(port.Fields{"adapter_name": "ListingEventsConsumerAdapter"}),
	}

	consumerCfg.Logger = NewPkgLoggerBridge(logger.WithFields(port.Fields{
		"component":    "rabbitmq_batch_consumer",
		"consumer_tag": consumerCfg.ConsumerTag,
	}))

	consumer, err := rabbitmq_consumer.NewBatchConsumer(consumerCfg, adapter.handleBatch, listingEventsBatchSize, listingEventsBatchTimeout, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ consumer for listing events: %w", err)
	}
	adapter.consumer = consumer
	return adapter, nil
}

// handleBatch: невалидные сообщения пропускаются, чтобы не блокировать пачку.
// Ошибка обновления возвращается, и вся пачка уходит на повтор.
func (a *ListingEventsConsumerAdapter) handleBatch(deliveries []amqp.Delivery) error {
	if len(deliveries) == 0 {
		return nil
	}

	traceID, _ := deliveries[0].Headers[headerTraceID].(string)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	batchLogger := a.logger.WithFields(port.Fields{
		"trace_id":   traceID,
		"batch_id":   uuid.NewString(),
		"batch_size": len(deliveries),
	})
	ctx := contextkeys.ContextWithLogger(context.Background(), batchLogger)
	ctx = contextkeys.ContextWithTraceID(ctx, traceID)

	valid := 0
	for _, d := range deliveries {
		if err := contracts.ValidateEvent(constants.EventListingChanged, constants.EventVersionV1, d.Body); err != nil {
			batchLogger.Warn("Skipping invalid listing event", port.Fields{"message_id": d.MessageId, "error": err.Error()})
			continue
		}
		var dto ListingChangedDTO
		if err := json.Unmarshal(d.Body, &dto); err != nil {
			batchLogger.Warn("Skipping undecodable listing event", port.Fields{"message_id": d.MessageId, "error": err.Error()})
			continue
		}
		valid++
	}

	if valid == 0 {
		batchLogger.Warn("Batch has no valid listing events, refresh skipped", nil)
		return nil
	}

	count, err := a.refreshUC.Execute(ctx, true)
	if err != nil {
		batchLogger.Error("Refresh after listing events failed", err, nil)
		return err
	}
	batchLogger.Info("Listings refreshed after events", port.Fields{"events": valid, "listings": count})
	return nil
}

func (a *ListingEventsConsumerAdapter) Start(ctx context.Context) error {
	a.logger.Info("Starting consumer", nil)
	return a.consumer.StartConsuming(ctx)
}

func (a *ListingEventsConsumerAdapter) Close() error {
	a.logger.Info("Stopping consumer", nil)
	return a.consumer.Close()
}
