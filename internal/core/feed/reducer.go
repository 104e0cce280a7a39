package feed

import (
	"slices"
	"sync"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// Reducer - "последнее известное состояние" уведомлений по пользователям.
//
// Запись принимается, только если ее еще нет или ее UpdatedAt строго новее
// сохраненной. Поэтому дубликаты и опоздавшие обновления из push и poll
// ничего не меняют, и порядок их прихода не важен.
type Reducer struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[uuid.UUID]domain.Notification
}

func NewReducer() *Reducer {
	return &Reducer{users: make(map[uuid.UUID]map[uuid.UUID]domain.Notification)}
}

// Apply возвращает true, если состояние изменилось
func (r *Reducer) Apply(n domain.Notification) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.users[n.UserID]
	if !ok {
		byID = make(map[uuid.UUID]domain.Notification)
		r.users[n.UserID] = byID
	}
	if cur, ok := byID[n.ID]; ok && !n.UpdatedAt.After(cur.UpdatedAt) {
		return false
	}
	byID[n.ID] = n
	return true
}

// View - уведомления пользователя, новые первыми
func (r *Reducer) View(userID uuid.UUID) domain.NotificationsView {
	r.mu.RLock()
	byID := r.users[userID]
	items := make([]domain.Notification, 0, len(byID))
	for _, n := range byID {
		items = append(items, n)
	}
	r.mu.RUnlock()

	slices.SortFunc(items, func(a, b domain.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		// порядок для одинакового времени не должен зависеть от обхода map
		return compareUUID(a.ID, b.ID)
	})

	view := domain.NotificationsView{Items: items}
	for _, n := range items {
		if !n.Read {
			view.UnreadCount++
		}
	}
	return view
}

// Forget удаляет состояние пользователя после выхода
func (r *Reducer) Forget(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.users, userID)
	r.mu.Unlock()
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
