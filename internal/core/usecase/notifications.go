package usecase

import (
	"context"
	"errors"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/feed"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/session"

	"github.com/google/uuid"
)

// NotificationEvent - имя SSE-события для клиента
const NotificationEvent = "notification"

// ApplyNotificationUpdateUseCase - единая точка входа для push и poll.
// Клиентам уходит только реально изменившая состояние запись.
// Лента хранится только для вошедших пользователей: остальные события
// пропускаются, их состояние подтянет опрос после входа.
type ApplyNotificationUpdateUseCase struct {
	reducer  *feed.Reducer
	notifier port.NotifierPort
	tracker  *session.Tracker
}

// tracker == nil - принимать обновления для всех пользователей
func NewApplyNotificationUpdateUseCase(reducer *feed.Reducer, notifier port.NotifierPort, tracker *session.Tracker) *ApplyNotificationUpdateUseCase {
	return &ApplyNotificationUpdateUseCase{reducer: reducer, notifier: notifier, tracker: tracker}
}

func (uc *ApplyNotificationUpdateUseCase) signedIn(userID uuid.UUID) bool {
	return uc.tracker == nil || uc.tracker.IsSignedIn(userID)
}

func (uc *ApplyNotificationUpdateUseCase) Execute(ctx context.Context, n domain.Notification) (bool, error) {
	if n.ID == uuid.Nil || n.UserID == uuid.Nil {
		return false, fmt.Errorf("notification and user ids are required")
	}
	if !uc.signedIn(n.UserID) {
		contextkeys.LoggerFromContext(ctx).Debug("User is not signed in, notification skipped", port.Fields{
			"notification_id": n.ID.String(),
		})
		return false, nil
	}
	if !uc.reducer.Apply(n) {
		contextkeys.LoggerFromContext(ctx).Debug("Stale or duplicate notification ignored", port.Fields{
			"notification_id": n.ID.String(),
		})
		return false, nil
	}
	// выход мог случиться между проверкой и Apply
	if !uc.signedIn(n.UserID) {
		uc.reducer.Forget(n.UserID)
		return false, nil
	}
	if uc.notifier != nil {
		uc.notifier.Notify(n.UserID, NotificationEvent, n)
	}
	return true, nil
}

type SyncNotificationsUseCase struct {
	repo  port.NotificationRepositoryPort
	apply usecases_port.ApplyNotificationUpdateUseCase
}

func NewSyncNotificationsUseCase(repo port.NotificationRepositoryPort, apply usecases_port.ApplyNotificationUpdateUseCase) *SyncNotificationsUseCase {
	return &SyncNotificationsUseCase{repo: repo, apply: apply}
}

// Execute - путь опроса: одна выборка из репозитория, каждая запись через редьюсер
func (uc *SyncNotificationsUseCase) Execute(ctx context.Context, userID uuid.UUID) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"use_case": "SyncNotifications",
		"user_id":  userID.String(),
	})

	items, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		logger.Error("Repository returned an error", err, nil)
		return fmt.Errorf("failed to list notifications: %w", err)
	}

	changed := 0
	for _, n := range items {
		ok, err := uc.apply.Execute(ctx, n)
		if err != nil {
			logger.Warn("Skipping malformed notification", port.Fields{"error": err.Error()})
			continue
		}
		if ok {
			changed++
		}
	}
	logger.Debug("Notifications synced", port.Fields{"fetched": len(items), "changed": changed})
	return nil
}

type GetNotificationsUseCase struct {
	sync    usecases_port.SyncNotificationsUseCase
	reducer *feed.Reducer
}

func NewGetNotificationsUseCase(sync usecases_port.SyncNotificationsUseCase, reducer *feed.Reducer) *GetNotificationsUseCase {
	return &GetNotificationsUseCase{sync: sync, reducer: reducer}
}

func (uc *GetNotificationsUseCase) Execute(ctx context.Context, userID uuid.UUID) (*domain.NotificationsView, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetNotifications",
		"user_id":  userID.String(),
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.sync.Execute(ctx, userID); err != nil {
		return nil, err
	}
	view := uc.reducer.View(userID)

	ucLogger.Info("Use case finished successfully", port.Fields{"count": len(view.Items), "unread": view.UnreadCount})
	return &view, nil
}

type MarkNotificationReadUseCase struct {
	repo      port.NotificationRepositoryPort
	apply     usecases_port.ApplyNotificationUpdateUseCase
	publisher port.NotificationEventPublisherPort
}

func NewMarkNotificationReadUseCase(
	repo port.NotificationRepositoryPort,
	apply usecases_port.ApplyNotificationUpdateUseCase,
	publisher port.NotificationEventPublisherPort,
) *MarkNotificationReadUseCase {
	return &MarkNotificationReadUseCase{repo: repo, apply: apply, publisher: publisher}
}

func (uc *MarkNotificationReadUseCase) Execute(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":        "MarkNotificationRead",
		"user_id":         userID.String(),
		"notification_id": notificationID.String(),
	})
	ucLogger.Info("Use case started", nil)

	n, err := uc.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			ucLogger.Warn("Notification not found", nil)
		} else {
			ucLogger.Error("Repository returned an error", err, nil)
		}
		return nil, err
	}

	if _, err := uc.apply.Execute(ctx, *n); err != nil {
		ucLogger.Warn("Failed to apply notification locally", port.Fields{"error": err.Error()})
	}

	// остальные экземпляры сервиса узнают об изменении через брокер
	if uc.publisher != nil {
		if err := uc.publisher.PublishNotificationChanged(ctx, *n); err != nil {
			ucLogger.Warn("Failed to publish notification change", port.Fields{"error": err.Error()})
		}
	}

	ucLogger.Info("Use case finished successfully", nil)
	return n, nil
}
