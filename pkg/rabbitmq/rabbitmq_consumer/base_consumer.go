package rabbitmq_consumer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_producer"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer - общий контракт потребителей пакета
type Consumer interface {
	StartConsuming(ctx context.Context) error
	Close() error
}

// ConsumerConfig конфигурация для потребителя
type ConsumerConfig struct {
	rabbitmq_common.Config
	// Очередь (пустое имя - сгенерирует сервер)
	QueueName       string
	DeclareQueue    bool
	DurableQueue    bool
	ExclusiveQueue  bool
	AutoDeleteQueue bool
	QueueArgs       amqp.Table
	// Обменник для привязки (пустое имя - без привязки)
	ExchangeNameForBind    string
	DeclareExchangeForBind bool
	ExchangeTypeForBind    string
	DurableExchangeForBind bool
	ExchangeArgsForBind    amqp.Table
	RoutingKeyForBind      string
	BindingArgs            amqp.Table
	// QoS
	PrefetchCount int
	PrefetchSize  int
	QosGlobal     bool
	// Потребитель
	ConsumerTag       string
	ExclusiveConsumer bool

	// Ретраи: основная очередь -> retry exchange -> wait-очередь с TTL -> основной обменник.
	// После MaxRetries сообщение уходит в финальный DLX.
	EnableRetryMechanism bool
	RetryExchange        string
	RetryQueue           string
	RetryTTL             int // миллисекунды
	FinalDLXExchange     string
	FinalDLQ             string
	FinalDLQRoutingKey   string
	MaxRetries           int

	Logger rabbitmq_common.Logger
}

func (cfg ConsumerConfig) validate() error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid base config: %w", err)
	}
	if !cfg.DeclareQueue && cfg.QueueName == "" {
		return fmt.Errorf("queue name is required if DeclareQueue is false")
	}
	if cfg.DeclareExchangeForBind && cfg.ExchangeTypeForBind == "" {
		return fmt.Errorf("exchange type is required if declaring an exchange for binding")
	}
	if cfg.EnableRetryMechanism {
		if cfg.RetryExchange == "" || cfg.RetryQueue == "" || cfg.FinalDLXExchange == "" || cfg.FinalDLQ == "" {
			return fmt.Errorf("retry mechanism requires retry exchange/queue and final DLX/DLQ names")
		}
		if cfg.RetryTTL <= 0 {
			return fmt.Errorf("retry TTL must be positive")
		}
	}
	return nil
}

// baseConsumer содержит общую логику канала, QoS, топологии и ретраев
type baseConsumer struct {
	config            ConsumerConfig
	connection        *amqp.Connection
	channel           *amqp.Channel
	actualQueueName   string
	finalDlxPublisher *rabbitmq_producer.Publisher
	wg                sync.WaitGroup

	Logger rabbitmq_common.Logger
}

func newBaseConsumer(cfg ConsumerConfig, connManager *rabbitmq_common.ConnectionManager) (*baseConsumer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = rabbitmq_common.NewNoopLogger()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("base Consumer: %w", err)
	}

	conn, ch, err := connManager.GetChannel()
	if err != nil {
		return nil, fmt.Errorf("base Consumer: failed to get channel from manager: %w", err)
	}

	c := &baseConsumer{
		config:     cfg,
		connection: conn,
		channel:    ch,
		Logger:     logger,
	}

	if err := c.setupTopology(); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("base Consumer: setup failed: %w", err)
	}

	if cfg.EnableRetryMechanism {
		dlxPublisher, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:       cfg.Config,
			ExchangeName: cfg.FinalDLXExchange,
			Logger:       logger,
		}, connManager)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("base Consumer: failed to create final DLX publisher: %w", err)
		}
		c.finalDlxPublisher = dlxPublisher
	}

	return c, nil
}

// setupTopology настраивает QoS, очередь, привязку и инфраструктуру ретраев
func (c *baseConsumer) setupTopology() error {
	cfg := &c.config

	if cfg.PrefetchCount > 0 || cfg.PrefetchSize > 0 {
		c.Logger.Debug("Setting QoS", "prefetch_count", cfg.PrefetchCount, "prefetch_size", cfg.PrefetchSize)
		if err := c.channel.Qos(cfg.PrefetchCount, cfg.PrefetchSize, cfg.QosGlobal); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	if cfg.EnableRetryMechanism {
		if cfg.QueueArgs == nil {
			cfg.QueueArgs = amqp.Table{}
		}
		// отклоненные сообщения основной очереди идут в retry exchange
		cfg.QueueArgs["x-dead-letter-exchange"] = cfg.RetryExchange
	}

	c.actualQueueName = cfg.QueueName
	if cfg.DeclareQueue {
		c.Logger.Debug("Declaring queue", "name", cfg.QueueName, "durable", cfg.DurableQueue)
		q, err := c.channel.QueueDeclare(
			cfg.QueueName,
			cfg.DurableQueue,
			cfg.AutoDeleteQueue,
			cfg.ExclusiveQueue,
			false, // no-wait
			cfg.QueueArgs,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue '%s': %w", cfg.QueueName, err)
		}
		c.actualQueueName = q.Name
	}

	if cfg.DeclareExchangeForBind {
		c.Logger.Debug("Declaring exchange", "name", cfg.ExchangeNameForBind, "type", cfg.ExchangeTypeForBind)
		err := c.channel.ExchangeDeclare(
			cfg.ExchangeNameForBind,
			cfg.ExchangeTypeForBind,
			cfg.DurableExchangeForBind,
			false, // auto-deleted
			false, // internal
			false, // no-wait
			cfg.ExchangeArgsForBind,
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange '%s' for binding: %w", cfg.ExchangeNameForBind, err)
		}
	}

	if cfg.ExchangeNameForBind != "" {
		c.Logger.Debug("Binding queue to exchange",
			"queue_name", c.actualQueueName,
			"exchange_name", cfg.ExchangeNameForBind,
			"routing_key", cfg.RoutingKeyForBind,
		)
		err := c.channel.QueueBind(c.actualQueueName, cfg.RoutingKeyForBind, cfg.ExchangeNameForBind, false, cfg.BindingArgs)
		if err != nil {
			return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", c.actualQueueName, cfg.ExchangeNameForBind, err)
		}
	}

	if cfg.EnableRetryMechanism {
		if err := c.setupRetryTopology(); err != nil {
			return err
		}
	}

	c.Logger.Debug("Setup complete", "queue", c.actualQueueName)
	return nil
}

func (c *baseConsumer) setupRetryTopology() error {
	cfg := c.config

	if err := c.channel.ExchangeDeclare(cfg.FinalDLXExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare final DLX: %w", err)
	}
	if _, err := c.channel.QueueDeclare(cfg.FinalDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare final DLQ: %w", err)
	}
	if err := c.channel.QueueBind(cfg.FinalDLQ, cfg.FinalDLQRoutingKey, cfg.FinalDLXExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind final DLQ: %w", err)
	}

	if err := c.channel.ExchangeDeclare(cfg.RetryExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare retry exchange: %w", err)
	}

	// wait-очередь возвращает сообщения в основной обменник по истечении TTL
	_, err := c.channel.QueueDeclare(cfg.RetryQueue, true, false, false, false, amqp.Table{
		"x-message-ttl":          int32(cfg.RetryTTL),
		"x-dead-letter-exchange": cfg.ExchangeNameForBind,
	})
	if err != nil {
		return fmt.Errorf("failed to declare retry-wait queue: %w", err)
	}
	if err := c.channel.QueueBind(cfg.RetryQueue, "", cfg.RetryExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind retry-wait queue: %w", err)
	}
	return nil
}

// consume регистрирует потребителя на актуальной очереди
func (c *baseConsumer) consume() (<-chan amqp.Delivery, error) {
	if c.channel == nil || c.connection == nil || c.connection.IsClosed() {
		return nil, fmt.Errorf("not connected")
	}
	return c.channel.Consume(
		c.actualQueueName,
		c.config.ConsumerTag,
		false, // auto-ack
		c.config.ExclusiveConsumer,
		false, // no-local
		false, // no-wait
		nil,
	)
}

// waitForShutdown блокируется до отмены контекста или закрытия соединения брокером
func (c *baseConsumer) waitForShutdown(ctx context.Context) error {
	notifyClose := c.connection.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-ctx.Done():
		c.Logger.Info("Context cancelled. Shutting down consumer.", "consumer_tag", c.config.ConsumerTag)
		return nil
	case err := <-notifyClose:
		c.Logger.Error(err, "Connection closed for consumer.", "consumer_tag", c.config.ConsumerTag)
		if err == nil {
			return fmt.Errorf("connection closed")
		}
		return err
	}
}

// settleFailed решает судьбу сообщения после ошибки обработчика:
// без ретраев - nack без requeue, иначе retry-цикл или финальный DLX.
func (c *baseConsumer) settleFailed(d amqp.Delivery) {
	if !c.config.EnableRetryMechanism {
		_ = d.Nack(false, false)
		return
	}

	deathCount := c.getDeathCount(d, c.actualQueueName)
	if deathCount < int64(c.config.MaxRetries) {
		c.Logger.Info("Retrying message", "delivery_tag", d.DeliveryTag, "death_count", deathCount)
		_ = d.Nack(false, false)
		return
	}

	c.Logger.Warn("Max retries reached for message. Publishing to final DLX.", "delivery_tag", d.DeliveryTag)
	err := c.finalDlxPublisher.Publish(context.Background(), c.config.FinalDLQRoutingKey, amqp.Publishing{
		ContentType:  d.ContentType,
		Body:         d.Body,
		Headers:      d.Headers,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		c.Logger.Error(err, "Failed to publish to final DLX. Nacking to trigger retry loop again.", "delivery_tag", d.DeliveryTag)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

// getDeathCount считает, сколько раз сообщение умирало в основной очереди (заголовок x-death)
func (c *baseConsumer) getDeathCount(d amqp.Delivery, queueName string) int64 {
	deaths, ok := d.Headers["x-death"].([]interface{})
	if !ok {
		return 0
	}

	for _, death := range deaths {
		tbl, ok := death.(amqp.Table)
		if !ok {
			continue
		}
		if queue, ok := tbl["queue"].(string); ok && queue == queueName {
			if count, ok := tbl["count"].(int64); ok {
				return count
			}
		}
	}
	return 0
}

// Close дожидается обработчиков и закрывает канал потребителя
func (c *baseConsumer) Close() error {
	c.Logger.Debug("Waiting for message handlers to finish...")
	c.wg.Wait()

	var firstErr error
	if c.finalDlxPublisher != nil {
		if err := c.finalDlxPublisher.Close(); err != nil {
			firstErr = err
		}
	}

	if c.channel != nil {
		if err := c.channel.Close(); err != nil && firstErr == nil {
			c.Logger.Error(err, "Error closing channel")
			firstErr = err
		}
		c.channel = nil
	}

	c.Logger.Info("Consumer closed")
	return firstErr
}
