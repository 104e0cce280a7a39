package domain

import "github.com/google/uuid"

const (
	RoleTenant     = "tenant"
	RoleAdvertiser = "advertiser"
	RoleAdmin      = "admin"
)

// Session - данные пользователя из проверенного токена.
// Передается явно через context, глобального хранилища нет.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }

// AuthState - наблюдаемое состояние авторизации пользователя.
// Version растет при каждом изменении.
type AuthState struct {
	UserID   uuid.UUID
	SignedIn bool
	Version  uint64
}
