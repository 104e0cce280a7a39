package port

import (
	"context"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

type NotificationRepositoryPort interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	// MarkRead возвращает обновленную запись или domain.ErrNotificationNotFound
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
}
