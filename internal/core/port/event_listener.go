package port

import "context"

// EventListenerPort - входящий адаптер брокера
type EventListenerPort interface {
	Start(ctx context.Context) error
	Close() error
}
