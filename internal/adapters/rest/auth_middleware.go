package rest

import (
	"net/http"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

// SessionTracker - то, что middleware и SSE знают о состоянии авторизации
type SessionTracker interface {
	SignIn(userID uuid.UUID) domain.AuthState
}

// AuthMiddleware проверяет bearer-токен и кладет domain.Session в контекст.
// Каждый успешный запрос отмечает пользователя активным для опроса уведомлений.
func AuthMiddleware(validator port.TokenValidatorPort, tracker SessionTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := contextkeys.LoggerFromContext(r.Context())

			token := bearerToken(r)
			if token == "" {
				WriteJSONError(w, http.StatusUnauthorized, "Authorization token is missing")
				return
			}

			sess, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Token validation failed", port.Fields{"error": err.Error()})
				WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if tracker != nil {
				tracker.SignIn(sess.UserID)
			}

			ctx := contextkeys.ContextWithSession(r.Context(), *sess)
			ctx = contextkeys.ContextWithLogger(ctx, logger.WithFields(port.Fields{"user_id": sess.UserID.String()}))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только сессии с указанной ролью.
// Должен стоять после AuthMiddleware.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := contextkeys.SessionFromContext(r.Context())
			if !ok {
				WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if sess.Role != role {
				WriteJSONError(w, http.StatusForbidden, domain.ErrForbidden.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
