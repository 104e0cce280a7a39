package usecase

import (
	"context"
	"sync"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

type fakeSource struct {
	mu       sync.Mutex
	listings []domain.Listing
	err      error
	calls    int
	// gate, если задан, держит FetchAll до закрытия канала
	gate chan struct{}
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]domain.Listing, error) {
	f.mu.Lock()
	f.calls++
	gate, listings, err := f.gate, f.listings, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return listings, err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	listings []domain.Listing
	getErr   error
	setErr   error
	sets     int
	cleared  int
}

func (c *fakeCache) Get(context.Context) ([]domain.Listing, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.listings == nil {
		return nil, domain.ErrCacheMiss
	}
	return c.listings, nil
}

func (c *fakeCache) Set(_ context.Context, listings []domain.Listing) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.listings = listings
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.cleared++
	c.listings = nil
	return nil
}

type fakeRepo struct {
	items   []domain.Notification
	listErr error
	marked  *domain.Notification
	markErr error
}

func (r *fakeRepo) ListByUser(context.Context, uuid.UUID) ([]domain.Notification, error) {
	return r.items, r.listErr
}

func (r *fakeRepo) MarkRead(context.Context, uuid.UUID, uuid.UUID) (*domain.Notification, error) {
	return r.marked, r.markErr
}

type sentEvent struct {
	userID  uuid.UUID
	event   string
	payload interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *fakeNotifier) Notify(userID uuid.UUID, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{userID: userID, event: event, payload: payload})
}

func (n *fakeNotifier) Sent() []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEvent(nil), n.sent...)
}

type fakePublisher struct {
	published []domain.Notification
	err       error
}

func (p *fakePublisher) PublishNotificationChanged(_ context.Context, n domain.Notification) error {
	p.published = append(p.published, n)
	return p.err
}

func intPtr(v int) *int { return &v }

func listing(id string, price float64) domain.Listing {
	return domain.Listing{
		ID:       id,
		Title:    "Flat " + id,
		Price:    price,
		Status:   domain.StatusAvailable,
		Category: domain.CategoryApartment,
	}
}
