package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, port.Fields)        {}
func (nopLogger) Info(string, port.Fields)         {}
func (nopLogger) Warn(string, port.Fields)         {}
func (nopLogger) Error(string, error, port.Fields) {}
func (l nopLogger) WithFields(port.Fields) port.LoggerPort {
	return l
}

var t0 = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func notification(user uuid.UUID, created time.Time, read bool) domain.Notification {
	return domain.Notification{
		ID:        uuid.New(),
		UserID:    user,
		Type:      "message",
		Title:     "hello",
		Read:      read,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestReducer_NewerUpdateWins(t *testing.T) {
	r := NewReducer()
	user := uuid.New()
	n := notification(user, t0, false)

	assert.True(t, r.Apply(n))

	read := n
	read.Read = true
	read.UpdatedAt = t0.Add(time.Minute)
	assert.True(t, r.Apply(read))

	// опоздавшая старая версия из опроса
	assert.False(t, r.Apply(n))

	view := r.View(user)
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].Read)
	assert.Equal(t, 0, view.UnreadCount)
}

func TestReducer_DuplicateIsIgnored(t *testing.T) {
	r := NewReducer()
	n := notification(uuid.New(), t0, false)

	assert.True(t, r.Apply(n))
	dup := n
	dup.Title = "other"
	assert.False(t, r.Apply(dup), "equal timestamp keeps the first value")
	assert.Equal(t, "hello", r.View(n.UserID).Items[0].Title)
}

func TestReducer_OrderOfArrivalDoesNotMatter(t *testing.T) {
	user := uuid.New()
	v1 := notification(user, t0, false)
	v2 := v1
	v2.Read = true
	v2.UpdatedAt = t0.Add(time.Second)

	a := NewReducer()
	a.Apply(v1)
	a.Apply(v2)

	b := NewReducer()
	b.Apply(v2)
	b.Apply(v1)

	assert.Equal(t, a.View(user), b.View(user))
}

func TestReducer_ViewNewestFirstAndUnreadCount(t *testing.T) {
	r := NewReducer()
	user := uuid.New()
	old := notification(user, t0, true)
	mid := notification(user, t0.Add(time.Hour), false)
	recent := notification(user, t0.Add(2*time.Hour), false)
	other := notification(uuid.New(), t0, false)

	for _, n := range []domain.Notification{mid, old, other, recent} {
		r.Apply(n)
	}

	view := r.View(user)
	require.Len(t, view.Items, 3)
	assert.Equal(t, []uuid.UUID{recent.ID, mid.ID, old.ID}, []uuid.UUID{view.Items[0].ID, view.Items[1].ID, view.Items[2].ID})
	assert.Equal(t, 2, view.UnreadCount)
}

func TestReducer_Forget(t *testing.T) {
	r := NewReducer()
	n := notification(uuid.New(), t0, false)
	r.Apply(n)

	r.Forget(n.UserID)

	view := r.View(n.UserID)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.UnreadCount)
}

func TestReducer_ConcurrentApply(t *testing.T) {
	r := NewReducer()
	user := uuid.New()
	base := notification(user, t0, false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := base
			n.UpdatedAt = t0.Add(time.Duration(i) * time.Second)
			r.Apply(n)
		}(i)
	}
	wg.Wait()

	view := r.View(user)
	require.Len(t, view.Items, 1)
	assert.Equal(t, t0.Add(49*time.Second), view.Items[0].UpdatedAt)
}

func TestPoller_SyncsEveryActiveUser(t *testing.T) {
	users := []uuid.UUID{uuid.New(), uuid.New()}

	var mu sync.Mutex
	seen := make(map[uuid.UUID]int)
	syncFn := func(_ context.Context, id uuid.UUID) error {
		mu.Lock()
		seen[id]++
		mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPoller(10*time.Millisecond, func() []uuid.UUID { return users }, syncFn, nopLogger{})
	go p.Run(ctx)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[users[0]] >= 2 && seen[users[1]] >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestPoller_ErrorDoesNotStopPolling(t *testing.T) {
	var calls atomic.Int32
	syncFn := func(context.Context, uuid.UUID) error {
		calls.Add(1)
		return errors.New("db down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPoller(5*time.Millisecond, func() []uuid.UUID { return []uuid.UUID{uuid.New()} }, syncFn, nopLogger{})
	go p.Run(ctx)

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPoller_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(time.Hour, func() []uuid.UUID { return nil }, func(context.Context, uuid.UUID) error { return nil }, nopLogger{})

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
