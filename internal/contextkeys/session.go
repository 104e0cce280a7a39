package contextkeys

import (
	"context"

	"listing-service/internal/core/domain"
)

type sessionKeyType struct{}

var sessionKey = sessionKeyType{}

// ContextWithSession кладет сессию проверенного пользователя в контекст
func ContextWithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext: ok=false для анонимного запроса
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey).(domain.Session)
	return s, ok
}
