package postgres_adapter

import (
	"context"
	"errors"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepository(pool *pgxpool.Pool) (*PostgresNotificationRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresNotificationRepository{pool: pool}, nil
}

const notificationColumns = `id, user_id, type, title, message, link, is_read, created_at, updated_at`

func scanNotification(row pgx.CollectableRow) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component": "PostgresNotificationRepository",
		"method":    "ListByUser",
		"user_id":   userID.String(),
	})

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT 200`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		repoLogger.Error("Failed to query notifications", err, nil)
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		repoLogger.Error("Failed to scan notifications", err, nil)
		return nil, fmt.Errorf("failed to scan notifications: %w", err)
	}
	return items, nil
}

// MarkRead ставит is_read и обновляет updated_at.
// Чужое уведомление неотличимо от несуществующего.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*domain.Notification, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	repoLogger := logger.WithFields(port.Fields{
		"component":       "PostgresNotificationRepository",
		"method":          "MarkRead",
		"notification_id": notificationID.String(),
	})

	query := `
		UPDATE notifications
		SET is_read = TRUE, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + notificationColumns

	rows, err := r.pool.Query(ctx, query, notificationID, userID)
	if err != nil {
		repoLogger.Error("Failed to mark notification read", err, nil)
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		repoLogger.Error("Failed to scan updated notification", err, nil)
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}

	repoLogger.Debug("Notification marked read", nil)
	return &n, nil
}
