package usecases_port

import (
	"context"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

type ApplyNotificationUpdateUseCase interface {
	Execute(ctx context.Context, n domain.Notification) (bool, error)
}

type SyncNotificationsUseCase interface {
	Execute(ctx context.Context, userID uuid.UUID) error
}

type GetNotificationsUseCase interface {
	Execute(ctx context.Context, userID uuid.UUID) (*domain.NotificationsView, error)
}

type MarkNotificationReadUseCase interface {
	Execute(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error)
}
