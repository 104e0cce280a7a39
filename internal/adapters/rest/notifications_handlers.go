package rest

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"listing-service/internal/adapters/notifier"
	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"
	"listing-service/internal/core/session"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ClientRegistry - регистрация SSE-соединений
type ClientRegistry interface {
	AddClient(userID uuid.UUID) notifier.ClientChannel
	RemoveClient(userID uuid.UUID, ch notifier.ClientChannel)
}

// AuthStates отдает наблюдаемое состояние авторизации пользователя
type AuthStates interface {
	State(userID uuid.UUID) *session.Observable[domain.AuthState]
}

type NotificationsHandler struct {
	getUC      usecases_port.GetNotificationsUseCase
	markReadUC usecases_port.MarkNotificationReadUseCase
	signOutUC  usecases_port.SignOutUseCase
	clients    ClientRegistry
	states     AuthStates
	keepAlive  time.Duration
}

func NewNotificationsHandler(
	getUC usecases_port.GetNotificationsUseCase,
	markReadUC usecases_port.MarkNotificationReadUseCase,
	signOutUC usecases_port.SignOutUseCase,
	clients ClientRegistry,
	states AuthStates,
) *NotificationsHandler {
	return &NotificationsHandler{
		getUC:      getUC,
		markReadUC: markReadUC,
		signOutUC:  signOutUC,
		clients:    clients,
		states:     states,
		keepAlive:  constants.SSEKeepAliveInterval,
	}
}

func sessionOrUnauthorized(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, ok := contextkeys.SessionFromContext(r.Context())
	if !ok {
		WriteJSONError(w, http.StatusUnauthorized, "Not authenticated")
	}
	return sess, ok
}

// GetNotifications - GET /api/v1/notifications
func (h *NotificationsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrUnauthorized(w, r)
	if !ok {
		return
	}

	view, err := h.getUC.Execute(r.Context(), sess.UserID)
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	items := view.Items
	if items == nil {
		items = []domain.Notification{}
	}
	RespondWithJSON(w, http.StatusOK, NotificationsResponse{Items: items, UnreadCount: view.UnreadCount})
}

// MarkRead - PUT /api/v1/notifications/{notificationID}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrUnauthorized(w, r)
	if !ok {
		return
	}

	notificationID, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	n, err := h.markReadUC.Execute(r.Context(), sess.UserID, notificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			WriteJSONError(w, http.StatusNotFound, "Notification not found")
			return
		}
		WriteJSONError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	RespondWithJSON(w, http.StatusOK, n)
}

// SignOut - POST /api/v1/session/logout
func (h *NotificationsHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := h.signOutUC.Execute(r.Context(), sess.UserID); err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscribe - GET /api/v1/notifications/subscribe (SSE).
// Поток закрывается при отключении клиента или выходе пользователя.
func (h *NotificationsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionOrUnauthorized(w, r)
	if !ok {
		return
	}
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SubscribeNotifications"})

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	signedOut := make(chan struct{})
	var once sync.Once
	unsubscribe := h.states.State(sess.UserID).Subscribe(func(st domain.AuthState) {
		if !st.SignedIn {
			once.Do(func() { close(signedOut) })
		}
	})
	defer unsubscribe()

	clientChan := h.clients.AddClient(sess.UserID)
	defer h.clients.RemoveClient(sess.UserID, clientChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()
	logger.Info("SSE client subscribed", nil)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case frame := <-clientChan:
			if _, err := w.Write(frame); err != nil {
				logger.Warn("Error writing to client, closing SSE connection", port.Fields{"error": err.Error()})
				return
			}
			flusher.Flush()
		case <-ticker.C:
			// строка-комментарий держит соединение, браузер ее игнорирует
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-signedOut:
			fmt.Fprint(w, "event: signed_out\ndata: {}\n\n")
			flusher.Flush()
			logger.Info("User signed out, SSE stream closed", nil)
			return
		case <-r.Context().Done():
			logger.Info("SSE client disconnected", nil)
			return
		}
	}
}
