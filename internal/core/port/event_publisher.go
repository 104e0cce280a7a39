package port

import (
	"context"

	"listing-service/internal/core/domain"
)

type NotificationEventPublisherPort interface {
	PublishNotificationChanged(ctx context.Context, n domain.Notification) error
}
