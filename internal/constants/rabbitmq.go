package constants

// Обменник сервиса
const (
	MarketplaceExchange = "marketplace_exchange"
)

// Имена очередей
const (
	QueueNotificationEvents = "notification_events"
	QueueListingEvents      = "listing_events"
)

// Ключи маршрутизации
const (
	RoutingKeyNotificationChanged = "notification.changed"
	RoutingKeyListingChanged      = "listing.changed"
)

// Типы и версии событий, по ним выбирается JSON-схема
const (
	EventNotificationChanged = "NotificationChangedEvent"
	EventListingChanged      = "ListingChangedEvent"
	EventVersionV1           = "1.0.0"
)

const (
	FinalDLXExchange   = "marketplace_final_dlx"
	FinalDLQ           = "marketplace_final_dlq"
	FinalDLQRoutingKey = "marketplace.dlq.key"
)
