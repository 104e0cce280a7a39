package rabbitmq

import (
	"time"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// Заголовки сообщений
const (
	headerTraceID      = "x-trace-id"
	headerEventType    = "event-type"
	headerEventVersion = "event-version"
)

// NotificationChangedDTO - тело NotificationChangedEvent/1.0.0
type NotificationChangedDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d NotificationChangedDTO) toDomain() domain.Notification {
	return domain.Notification{
		ID:        d.ID,
		UserID:    d.UserID,
		Type:      d.Type,
		Title:     d.Title,
		Message:   d.Message,
		Link:      d.Link,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func fromDomainNotification(n domain.Notification) NotificationChangedDTO {
	return NotificationChangedDTO{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC(),
		UpdatedAt: n.UpdatedAt.UTC(),
	}
}

// ListingChangedDTO - тело ListingChangedEvent/1.0.0
type ListingChangedDTO struct {
	ListingID  string    `json:"listing_id"`
	Change     string    `json:"change"`
	OccurredAt time.Time `json:"occurred_at"`
}
