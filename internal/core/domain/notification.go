package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification - уведомление пользователя.
// UpdatedAt - время последней записи, по нему разрешаются конфликты обновлений.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationsView - состояние ленты пользователя
type NotificationsView struct {
	Items       []Notification
	UnreadCount int
}
