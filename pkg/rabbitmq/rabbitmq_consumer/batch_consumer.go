package rabbitmq_consumer

import (
	"context"
	"fmt"
	"time"

	"listing-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// BatchMessageHandler обрабатывает пачку сообщений.
// Ошибка означает, что пачку нужно вернуть в цикл ретраев.
type BatchMessageHandler func(deliveries []amqp.Delivery) error

// BatchConsumer копит сообщения до batchSize или batchTimeout
type BatchConsumer struct {
	baseConsumer *baseConsumer
	handler      BatchMessageHandler
	batchSize    int
	batchTimeout time.Duration
}

// NewBatchConsumer создает нового пакетного потребителя.
func NewBatchConsumer(cfg ConsumerConfig, handler BatchMessageHandler, batchSize int, batchTimeout time.Duration, connManager *rabbitmq_common.ConnectionManager) (*BatchConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("batch Consumer: message handler is required")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch Consumer: batch size must be positive")
	}
	if batchTimeout <= 0 {
		return nil, fmt.Errorf("batch Consumer: batch timeout must be positive")
	}

	// брокер должен успевать выдать целую пачку без ack
	if cfg.PrefetchCount < batchSize {
		cfg.PrefetchCount = batchSize
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("batch Consumer: %w", err)
	}

	return &BatchConsumer{
		baseConsumer: bc,
		handler:      handler,
		batchSize:    batchSize,
		batchTimeout: batchTimeout,
	}, nil
}

// StartConsuming начинает потребление и накопление сообщений.
func (c *BatchConsumer) StartConsuming(ctx context.Context) error {
	bc := c.baseConsumer

	msgs, err := bc.consume()
	if err != nil {
		return fmt.Errorf("batch Consumer: failed to register a consumer: %w", err)
	}

	bc.Logger.Info("[*] Waiting for messages on queue",
		"queue_name", bc.actualQueueName,
		"batch_size", c.batchSize,
		"batch_timeout", c.batchTimeout)

	bc.wg.Add(1)
	go func() {
		defer bc.wg.Done()

		batch := make([]amqp.Delivery, 0, c.batchSize)
		// с Go 1.23 Stop/Reset не оставляют устаревших значений в канале таймера
		timer := time.NewTimer(c.batchTimeout)
		timer.Stop()
		defer timer.Stop()

		flush := func() {
			c.processBatch(batch)
			batch = make([]amqp.Delivery, 0, c.batchSize)
		}

		for {
			select {
			case <-ctx.Done():
				bc.Logger.Info("Context cancelled. Processing final batch...")
				flush()
				return

			case msg, ok := <-msgs:
				if !ok {
					bc.Logger.Info("Deliveries channel closed. Processing final batch...")
					flush()
					return
				}

				// таймер стартует с первым сообщением пачки
				if len(batch) == 0 {
					timer.Reset(c.batchTimeout)
				}
				batch = append(batch, msg)

				if len(batch) >= c.batchSize {
					timer.Stop()
					flush()
				}

			case <-timer.C:
				if len(batch) > 0 {
					bc.Logger.Debug("Timeout reached. Processing batch of messages", "batch_size", len(batch))
					flush()
				}
			}
		}
	}()

	return bc.waitForShutdown(ctx)
}

// processBatch вызывает обработчик и отправляет Ack/Nack.
func (c *BatchConsumer) processBatch(batch []amqp.Delivery) {
	if len(batch) == 0 {
		return
	}
	bc := c.baseConsumer

	err := c.handler(batch)
	if err == nil {
		// подтверждаем всю пачку одним ack с multiple=true
		lastTag := batch[len(batch)-1].DeliveryTag
		_ = bc.channel.Ack(lastTag, true)
		bc.Logger.Debug("Successfully Ack'd batch of messages", "batch_size", len(batch))
		return
	}

	bc.Logger.Error(err, "Handler returned error for batch", "batch_size", len(batch))
	for _, d := range batch {
		bc.settleFailed(d)
	}
}

// Close дожидается последней пачки и закрывает канал.
func (c *BatchConsumer) Close() error {
	c.baseConsumer.Logger.Info("Closing consumer")
	return c.baseConsumer.Close()
}
