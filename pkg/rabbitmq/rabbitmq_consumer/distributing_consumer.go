package rabbitmq_consumer

import (
	"context"
	"fmt"

	"listing-service/pkg/rabbitmq/rabbitmq_common"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageHandler обрабатывает одно сообщение.
// Ack/Nack/ретраи выполняет пакет по возвращенной ошибке.
type MessageHandler func(delivery amqp.Delivery) error

// DistributingConsumer запускает обработчик для каждого сообщения в отдельной горутине
type DistributingConsumer struct {
	baseConsumer *baseConsumer
	handler      MessageHandler
}

// NewDistributingConsumer создает нового потребителя
func NewDistributingConsumer(cfg ConsumerConfig, handler MessageHandler, connManager *rabbitmq_common.ConnectionManager) (*DistributingConsumer, error) {
	if handler == nil {
		return nil, fmt.Errorf("distributing Consumer: message handler is required")
	}

	bc, err := newBaseConsumer(cfg, connManager)
	if err != nil {
		return nil, fmt.Errorf("distributing Consumer: %w", err)
	}

	return &DistributingConsumer{
		baseConsumer: bc,
		handler:      handler,
	}, nil
}

// StartConsuming блокируется до отмены ctx или потери соединения
func (c *DistributingConsumer) StartConsuming(ctx context.Context) error {
	bc := c.baseConsumer

	msgs, err := bc.consume()
	if err != nil {
		return fmt.Errorf("distributing Consumer %s: failed to register a consumer on queue '%s': %w", bc.config.ConsumerTag, bc.actualQueueName, err)
	}

	bc.Logger.Info("[*] Waiting for messages on queue", "queue_name", bc.actualQueueName)

	go func() {
		for {
			// отмена проверяется первой, чтобы не стартовать новых обработчиков после остановки
			select {
			case <-ctx.Done():
				return
			default:
			}

			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					bc.Logger.Info("Deliveries channel closed by RabbitMQ. Exiting loop.", "consumer_tag", bc.config.ConsumerTag)
					return
				}

				bc.wg.Add(1)
				go func(delivery amqp.Delivery) {
					defer bc.wg.Done()

					if err := c.handler(delivery); err != nil {
						bc.Logger.Error(err, "Handler error for message",
							"consumer_tag", bc.config.ConsumerTag,
							"delivery_tag", delivery.DeliveryTag)
						bc.settleFailed(delivery)
						return
					}

					_ = delivery.Ack(false)
					bc.Logger.Debug("[+] Message Ack'd", "delivery_tag", delivery.DeliveryTag)
				}(d)
			}
		}
	}()

	return bc.waitForShutdown(ctx)
}

// Close закрывает потребителя
func (c *DistributingConsumer) Close() error {
	c.baseConsumer.Logger.Info("Closing consumer")
	return c.baseConsumer.Close()
}
