package port

import "listing-service/internal/core/domain"

// TokenValidatorPort проверяет access-токен и возвращает сессию
type TokenValidatorPort interface {
	ValidateToken(token string) (*domain.Session, error)
}
