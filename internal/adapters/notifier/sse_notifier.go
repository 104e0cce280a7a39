package notifier

import (
	"encoding/json"
	"fmt"
	"sync"

	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

// ClientChannel - поток готовых SSE-кадров для одного соединения
type ClientChannel chan []byte

type outgoing struct {
	userID  uuid.UUID
	event   string
	payload interface{}
}

// SSENotifier раздает события всем открытым соединениям пользователя.
// Один пользователь может держать несколько вкладок.
type SSENotifier struct {
	mu      sync.RWMutex
	clients map[uuid.UUID][]ClientChannel

	events    chan outgoing
	done      chan struct{}
	closeOnce sync.Once
	logger    port.LoggerPort
}

// NewSSENotifier запускает горутину-диспетчер; остановить ее - Close
func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients: make(map[uuid.UUID][]ClientChannel),
		events:  make(chan outgoing, 256),
		done:    make(chan struct{}),
		logger:  baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}
	go n.dispatch()
	return n
}

// Notify не блокирует вызывающего: при переполненной очереди событие теряется,
// клиент догонит состояние следующим опросом
func (n *SSENotifier) Notify(userID uuid.UUID, event string, payload interface{}) {
	select {
	case n.events <- outgoing{userID: userID, event: event, payload: payload}:
	case <-n.done:
	default:
		n.logger.Warn("Notifier queue is full, event dropped", port.Fields{"user_id": userID.String(), "event": event})
	}
}

func (n *SSENotifier) dispatch() {
	for {
		select {
		case <-n.done:
			return
		case ev := <-n.events:
			n.deliver(ev)
		}
	}
}

func (n *SSENotifier) deliver(ev outgoing) {
	frame, err := FormatEvent(ev.event, ev.payload)
	if err != nil {
		n.logger.Error("Failed to marshal event", err, port.Fields{"event": ev.event})
		return
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.clients[ev.userID] {
		select {
		case ch <- frame:
		default:
			n.logger.Warn("Client channel is full, skipping", port.Fields{"user_id": ev.userID.String()})
		}
	}
}

// FormatEvent собирает SSE-кадр "event: ...\ndata: ...\n\n"
func FormatEvent(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)), nil
}

// AddClient регистрирует новое соединение пользователя
func (n *SSENotifier) AddClient(userID uuid.UUID) ClientChannel {
	ch := make(ClientChannel, 64)
	n.mu.Lock()
	n.clients[userID] = append(n.clients[userID], ch)
	total := len(n.clients[userID])
	n.mu.Unlock()

	n.logger.Info("Client connected", port.Fields{"user_id": userID.String(), "connections": total})
	return ch
}

func (n *SSENotifier) RemoveClient(userID uuid.UUID, ch ClientChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	channels := n.clients[userID]
	kept := channels[:0]
	for _, c := range channels {
		if c != ch {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(n.clients, userID)
	} else {
		n.clients[userID] = kept
	}
	n.logger.Info("Client disconnected", port.Fields{"user_id": userID.String(), "connections": len(kept)})
}

func (n *SSENotifier) Connections(userID uuid.UUID) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients[userID])
}

func (n *SSENotifier) Close() {
	n.closeOnce.Do(func() { close(n.done) })
}
