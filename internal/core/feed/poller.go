package feed

import (
	"context"
	"time"

	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

// SyncFunc загружает уведомления пользователя и применяет их к редьюсеру
type SyncFunc func(ctx context.Context, userID uuid.UUID) error

// UsersFunc возвращает пользователей, для которых нужен опрос
type UsersFunc func() []uuid.UUID

// Poller - резервный путь доставки: опрос с фиксированным интервалом.
// Без джиттера и backpressure. Каждый тик запускает синхронизацию каждого
// пользователя в своей горутине, и запросы разных тиков могут пересекаться.
type Poller struct {
	interval time.Duration
	users    UsersFunc
	sync     SyncFunc
	logger   port.LoggerPort
}

func NewPoller(interval time.Duration, users UsersFunc, sync SyncFunc, logger port.LoggerPort) *Poller {
	return &Poller{
		interval: interval,
		users:    users,
		sync:     sync,
		logger:   logger.WithFields(port.Fields{"component": "NotificationsPoller"}),
	}
}

// Run блокируется до отмены контекста
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("Notifications poller started", port.Fields{"interval": p.interval.String()})
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Notifications poller stopped", nil)
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	for _, userID := range p.users() {
		go func(id uuid.UUID) {
			if err := p.sync(ctx, id); err != nil && ctx.Err() == nil {
				p.logger.Warn("Notifications sync failed", port.Fields{"user_id": id.String(), "error": err.Error()})
			}
		}(userID)
	}
}
