package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	token_adapter "listing-service/internal/adapters/jwt"
	logger_adapter "listing-service/internal/adapters/logger"
	"listing-service/internal/adapters/notifier"
	postgres_adapter "listing-service/internal/adapters/postgres"
	rabbitmq_adapter "listing-service/internal/adapters/rabbitmq"
	redis_adapter "listing-service/internal/adapters/redis"
	"listing-service/internal/adapters/rest"
	"listing-service/internal/configs"
	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/feed"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/search"
	"listing-service/internal/core/session"
	"listing-service/internal/core/usecase"
	fluentlogger "listing-service/pkg/fluent_logger"
	"listing-service/pkg/postgres"
	"listing-service/pkg/rabbitmq/rabbitmq_common"
	"listing-service/pkg/rabbitmq/rabbitmq_consumer"
	"listing-service/pkg/rabbitmq/rabbitmq_producer"
	redisclient "listing-service/pkg/redis"

	"github.com/fluent/fluent-logger-golang/fluent"
	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App – структура приложения
type App struct {
	config       *configs.AppConfig
	dbPool       *pgxpool.Pool
	redisClient  *goredis.Client
	connManager  *rabbitmq_common.ConnectionManager
	apiServer    *rest.Server
	fluentClient *fluent.Fluent
	logger       port.LoggerPort

	notificationEventsListener port.EventListenerPort
	listingEventsListener      port.EventListenerPort
	notificationsProducer      *rabbitmq_producer.Publisher

	refreshUC usecases_port.RefreshListingsUseCase
	poller    *feed.Poller
	tracker   *session.Tracker
	notifier  *notifier.SSENotifier
}

// NewApp - composition root: здесь создаются и связываются все зависимости
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	// --- 1. ЛОГГЕРЫ ---
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    logger_adapter.ParseLevel(appConfig.StdoutLogger.Level),
		UseColor: appConfig.StdoutLogger.UseColor,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	var fluentClient *fluent.Fluent
	if appConfig.FluentBit.Enabled {
		fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName,
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(fluentClient, logger_adapter.ParseLevel(appConfig.FluentBit.Level))
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit adapter", err, nil)
			_ = fluentClient.Close()
			return nil, err
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiLoggerAdapter(activeLoggers...)
	if err != nil {
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{"service_name": appConfig.AppName})
	appLogger := baseLogger.WithFields(port.Fields{"component": "app"})
	appLogger.Info("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	app := &App{
		config:       appConfig,
		fluentClient: fluentClient,
		logger:       appLogger,
	}
	// fail закрывает уже созданные ресурсы, если сборка оборвалась на полпути
	fail := func(msg string, err error) (*App, error) {
		appLogger.Error(msg, err, nil)
		app.closeResources()
		if fluentClient != nil {
			_ = fluentClient.Close()
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	// --- 2. ХРАНИЛИЩА ---
	dbPool, err := postgres.NewClient(context.Background(), postgres.Config{
		DatabaseURL: appConfig.Postgres.URL,
		MaxConns:    int32(appConfig.Postgres.MaxConns),
	})
	if err != nil {
		return fail("failed to connect to PostgreSQL", err)
	}
	app.dbPool = dbPool
	appLogger.Info("Successfully connected to PostgreSQL pool!", nil)

	listingSource, err := postgres_adapter.NewPostgresListingSource(dbPool)
	if err != nil {
		return fail("failed to create postgres listing source", err)
	}
	notificationRepo, err := postgres_adapter.NewPostgresNotificationRepository(dbPool)
	if err != nil {
		return fail("failed to create postgres notification repository", err)
	}

	// кэш необязателен: без Redis коллекция грузится прямо из Postgres
	var listingCache port.ListingCachePort
	redisClient, err := redisclient.NewClient(context.Background(), redisclient.Config{
		Addr:     appConfig.Redis.Addr,
		Password: appConfig.Redis.Password,
		DB:       appConfig.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Redis is unavailable, listings cache disabled", port.Fields{"error": err.Error()})
	} else {
		app.redisClient = redisClient
		cacheAdapter, err := redis_adapter.NewListingCacheAdapter(redisClient, appConfig.Redis.TTL)
		if err != nil {
			return fail("failed to create listings cache adapter", err)
		}
		listingCache = cacheAdapter
		appLogger.Info("Listings cache initialized", port.Fields{"ttl": appConfig.Redis.TTL.String()})
	}

	// --- 3. RABBITMQ ---
	connManager, err := rabbitmq_common.NewConnectionManager(
		rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_conn_manager"})),
	)
	if err != nil {
		return fail("failed to create connection manager", err)
	}
	app.connManager = connManager
	appLogger.Info("RabbitMQ Connection Manager initialized.", nil)

	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   rabbitmq_common.Config{URL: appConfig.RabbitMQ.URL},
		ExchangeName:             constants.MarketplaceExchange,
		ExchangeType:             "direct",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq_producer"})),
	}, connManager)
	if err != nil {
		return fail("failed to create event producer", err)
	}
	app.notificationsProducer = producer

	notificationPublisher, err := rabbitmq_adapter.NewNotificationPublisherAdapter(producer, constants.RoutingKeyNotificationChanged)
	if err != nil {
		return fail("failed to create notification publisher", err)
	}

	// --- 4. ЯДРО ---
	store := search.NewStore()
	reducer := feed.NewReducer()
	tracker := session.NewTracker()
	sseNotifier := notifier.NewSSENotifier(baseLogger)
	app.tracker = tracker
	app.notifier = sseNotifier

	tokenService, err := token_adapter.NewTokenService(appConfig.Auth.JWTSigningKey)
	if err != nil {
		return fail("failed to create token service", err)
	}

	refreshUC := usecase.NewRefreshListingsUseCase(listingSource, listingCache, store)
	searchUC := usecase.NewSearchListingsUseCase(store, refreshUC)
	getListingUC := usecase.NewGetListingUseCase(store, refreshUC)
	filterOptionsUC := usecase.NewGetFilterOptionsUseCase(store, refreshUC)

	applyUC := usecase.NewApplyNotificationUpdateUseCase(reducer, sseNotifier, tracker)
	syncUC := usecase.NewSyncNotificationsUseCase(notificationRepo, applyUC)
	getNotificationsUC := usecase.NewGetNotificationsUseCase(syncUC, reducer)
	markReadUC := usecase.NewMarkNotificationReadUseCase(notificationRepo, applyUC, notificationPublisher)
	signOutUC := usecase.NewSignOutUseCase(tracker, reducer)
	app.refreshUC = refreshUC
	appLogger.Info("All use cases initialized.", nil)

	// --- 5. ВХОДЯЩИЕ АДАПТЕРЫ ---
	notificationListener, err := rabbitmq_adapter.NewNotificationEventsConsumerAdapter(
		consumerConfig(appConfig, constants.QueueNotificationEvents, constants.RoutingKeyNotificationChanged, "notification-feed-adapter", 10),
		applyUC, baseLogger, connManager,
	)
	if err != nil {
		return fail("failed to create notification events listener", err)
	}
	app.notificationEventsListener = notificationListener

	// пачка до 50 сообщений, поэтому prefetch не меньше размера пачки
	listingListener, err := rabbitmq_adapter.NewListingEventsConsumerAdapter(
		consumerConfig(appConfig, constants.QueueListingEvents, constants.RoutingKeyListingChanged, "listing-refresh-adapter", 50),
		refreshUC, baseLogger, connManager,
	)
	if err != nil {
		return fail("failed to create listing events listener", err)
	}
	app.listingEventsListener = listingListener
	appLogger.Info("RabbitMQ listeners initialized.", nil)

	app.poller = feed.NewPoller(appConfig.Notifications.PollInterval, tracker.ActiveUsers, syncUC.Execute, baseLogger)

	serverCfg := rest.ServerConfig{Port: appConfig.Rest.Port, AllowedOrigins: appConfig.Rest.CORSAllowedOrigins}
	listingsHandler := rest.NewListingsHandler(searchUC, getListingUC, filterOptionsUC, refreshUC, appConfig.Search.DefaultPageSize)
	notificationsHandler := rest.NewNotificationsHandler(getNotificationsUC, markReadUC, signOutUC, sseNotifier, tracker)
	router := rest.NewRouter(serverCfg, listingsHandler, notificationsHandler, tokenService, tracker, baseLogger)
	app.apiServer = rest.NewServer(serverCfg, router, baseLogger)
	appLogger.Info("REST API server configured.", nil)

	return app, nil
}

func consumerConfig(cfg *configs.AppConfig, queue, routingKey, tag string, prefetch int) rabbitmq_consumer.ConsumerConfig {
	return rabbitmq_consumer.ConsumerConfig{
		Config:                 rabbitmq_common.Config{URL: cfg.RabbitMQ.URL},
		QueueName:              queue,
		DeclareQueue:           true,
		DurableQueue:           true,
		ExchangeNameForBind:    constants.MarketplaceExchange,
		DeclareExchangeForBind: true,
		ExchangeTypeForBind:    "direct",
		DurableExchangeForBind: true,
		RoutingKeyForBind:      routingKey,
		PrefetchCount:          prefetch,
		ConsumerTag:            tag,

		EnableRetryMechanism: true,
		RetryExchange:        queue + "_retry_ex",
		RetryQueue:           queue + "_retry_wait_10s",
		RetryTTL:             10000, // мс

		FinalDLXExchange:   constants.FinalDLXExchange,
		FinalDLQ:           constants.FinalDLQ,
		FinalDLQRoutingKey: constants.FinalDLQRoutingKey,
		MaxRetries:         3,
	}
}

// Run запускает компоненты и держит их до сигнала ОС или отказа одного из них
func (a *App) Run() error {
	appCtx, cancelApp := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	defer func() {
		a.logger.Info("Shutdown sequence initiated...", nil)

		// SSE-потоки держат соединения открытыми, поэтому сначала выход всех сессий
		a.tracker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.apiServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("Error during API server shutdown", err, nil)
		}

		a.logger.Info("Waiting for background processes to finish...", nil)
		wg.Wait()
		a.logger.Info("All background processes finished.", nil)

		a.closeResources()
		a.logger.Info("Application shut down gracefully.", nil)

		if a.fluentClient != nil {
			if err := a.fluentClient.Close(); err != nil {
				// fluent может быть уже недоступен
				fmt.Printf("ERROR: Error closing fluent client: %v\n", err)
			}
		}
	}()

	a.logger.Info("Application is starting...", nil)

	errorsCh := make(chan error, 3)

	startListener := func(name string, listener port.EventListenerPort) {
		defer wg.Done()
		listenerLogger := a.logger.WithFields(port.Fields{"listener_name": name})
		listenerLogger.Info("Starting listener...", nil)

		if err := listener.Start(appCtx); err != nil {
			listenerLogger.Error("Listener stopped with an unexpected error", err, nil)
			errorsCh <- fmt.Errorf("%s error: %w", name, err)
		} else {
			listenerLogger.Info("Listener stopped gracefully due to context cancellation.", nil)
		}
	}

	wg.Add(2)
	go startListener("Notification Events Listener", a.notificationEventsListener)
	go startListener("Listing Events Listener", a.listingEventsListener)

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.poller.Run(appCtx)
	}()

	// прогрев коллекции; ошибка не фатальна, первый запрос попробует снова
	wg.Add(1)
	go func() {
		defer wg.Done()
		warmCtx := contextkeys.ContextWithLogger(appCtx, a.logger.WithFields(port.Fields{"task": "warm_up"}))
		count, err := a.refreshUC.Execute(warmCtx, false)
		if err != nil {
			a.logger.Warn("Initial listings load failed", port.Fields{"error": err.Error()})
			return
		}
		a.logger.Info("Listings loaded", port.Fields{"count": count})
	}()

	go func() {
		a.logger.Info("Starting HTTP server...", port.Fields{"port": a.config.Rest.Port})
		if err := a.apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorsCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	a.logger.Info("Application running. Waiting for signals or server error...", nil)
	var runErr error
	select {
	case receivedSignal := <-quit:
		a.logger.Warn("Received OS signal, shutting down...", port.Fields{"signal": receivedSignal.String()})
	case runErr = <-errorsCh:
		a.logger.Error("A critical component failed, shutting down", runErr, nil)
	case <-appCtx.Done():
		a.logger.Warn("Context was cancelled unexpectedly, shutting down...", nil)
	}

	cancelApp()
	return runErr
}

// closeResources закрывает то, что успело создаться; порядок обратный созданию
func (a *App) closeResources() {
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.listingEventsListener != nil {
		if err := a.listingEventsListener.Close(); err != nil {
			a.logger.Error("Error closing listing events listener", err, nil)
		}
	}
	if a.notificationEventsListener != nil {
		if err := a.notificationEventsListener.Close(); err != nil {
			a.logger.Error("Error closing notification events listener", err, nil)
		}
	}
	if a.notificationsProducer != nil {
		if err := a.notificationsProducer.Close(); err != nil {
			a.logger.Error("Error closing event producer", err, nil)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			a.logger.Error("Error closing RabbitMQ connection", err, nil)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("Error closing Redis client", err, nil)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.logger.Info("PostgreSQL pool closed.", nil)
	}
}
