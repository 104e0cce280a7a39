package session

import (
	"sync"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// Tracker хранит наблюдаемое состояние авторизации каждого пользователя.
// Заменяет глобальное хранилище сессии и шину событий: потребители
// подписываются на значение и сами реагируют на его смену.
type Tracker struct {
	mu    sync.Mutex
	users map[uuid.UUID]*Observable[domain.AuthState]
	// transition сериализует смены состояния; подписчики не должны
	// вызывать SignIn/SignOut из обработчика
	transition sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{users: make(map[uuid.UUID]*Observable[domain.AuthState])}
}

// State возвращает наблюдаемое значение пользователя, создавая его при необходимости
func (t *Tracker) State(userID uuid.UUID) *Observable[domain.AuthState] {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.users[userID]
	if !ok {
		o = NewObservable(domain.AuthState{UserID: userID})
		t.users[userID] = o
	}
	return o
}

// SignIn отмечает пользователя активным. Повторный вход ничего не меняет.
func (t *Tracker) SignIn(userID uuid.UUID) domain.AuthState {
	t.transition.Lock()
	defer t.transition.Unlock()
	o := t.State(userID)
	cur := o.Get()
	if cur.SignedIn {
		return cur
	}
	next := domain.AuthState{UserID: userID, SignedIn: true, Version: cur.Version + 1}
	o.Set(next)
	return next
}

// SignOut отмечает пользователя вышедшим и уведомляет подписчиков
func (t *Tracker) SignOut(userID uuid.UUID) domain.AuthState {
	t.transition.Lock()
	defer t.transition.Unlock()
	o := t.State(userID)
	cur := o.Get()
	if !cur.SignedIn {
		return cur
	}
	next := domain.AuthState{UserID: userID, SignedIn: false, Version: cur.Version + 1}
	o.Set(next)
	return next
}

// IsSignedIn не создает состояние для незнакомого пользователя
func (t *Tracker) IsSignedIn(userID uuid.UUID) bool {
	t.mu.Lock()
	o, ok := t.users[userID]
	t.mu.Unlock()
	return ok && o.Get().SignedIn
}

// ActiveUsers - пользователи с активной сессией
func (t *Tracker) ActiveUsers() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]uuid.UUID, 0, len(t.users))
	for id, o := range t.users {
		if o.Get().SignedIn {
			out = append(out, id)
		}
	}
	return out
}

// Close переводит всех пользователей в состояние "вышел".
// Вызывается при остановке приложения, чтобы закрылись SSE-потоки.
func (t *Tracker) Close() {
	t.mu.Lock()
	ids := make([]uuid.UUID, 0, len(t.users))
	for id := range t.users {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		t.SignOut(id)
	}
}
