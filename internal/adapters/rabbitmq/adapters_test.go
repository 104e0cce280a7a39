package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"listing-service/internal/constants"
	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
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

type fakeApplyUC struct {
	mu      sync.Mutex
	applied []domain.Notification
	traceID string
	err     error
}

func (f *fakeApplyUC) Execute(ctx context.Context, n domain.Notification) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traceID = contextkeys.TraceIDFromContext(ctx)
	if f.err != nil {
		return false, f.err
	}
	f.applied = append(f.applied, n)
	return true, nil
}

type fakeRefreshUC struct {
	calls  int
	forced bool
	err    error
}

func (f *fakeRefreshUC) Execute(_ context.Context, force bool) (int, error) {
	f.calls++
	f.forced = force
	return 3, f.err
}

type fakeProducer struct {
	routingKey string
	msg        amqp.Publishing
	err        error
}

func (f *fakeProducer) Publish(_ context.Context, routingKey string, msg amqp.Publishing) error {
	f.routingKey = routingKey
	f.msg = msg
	return f.err
}

func notificationBody(t *testing.T, id, user uuid.UUID, read bool) []byte {
	t.Helper()
	ts := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	body, err := json.Marshal(NotificationChangedDTO{
		ID: id, UserID: user, Type: "booking", Title: "Booking confirmed",
		Read: read, CreatedAt: ts, UpdatedAt: ts.Add(time.Minute),
	})
	require.NoError(t, err)
	return body
}

func TestNotificationConsumer_HandleDelivery(t *testing.T) {
	uc := &fakeApplyUC{}
	adapter := &NotificationEventsConsumerAdapter{applyUC: uc, logger: nopLogger{}}
	id, user := uuid.New(), uuid.New()

	err := adapter.handleDelivery(amqp.Delivery{
		Headers: amqp.Table{
			headerTraceID:      "trace-1",
			headerEventType:    constants.EventNotificationChanged,
			headerEventVersion: constants.EventVersionV1,
		},
		Body: notificationBody(t, id, user, true),
	})
	require.NoError(t, err)

	require.Len(t, uc.applied, 1)
	got := uc.applied[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, user, got.UserID)
	assert.True(t, got.Read)
	assert.Equal(t, time.Date(2025, 1, 10, 12, 1, 0, 0, time.UTC), got.UpdatedAt)
	assert.Equal(t, "trace-1", uc.traceID)
}

func TestNotificationConsumer_MissingHeadersUseDefaultContract(t *testing.T) {
	uc := &fakeApplyUC{}
	adapter := &NotificationEventsConsumerAdapter{applyUC: uc, logger: nopLogger{}}

	require.NoError(t, adapter.handleDelivery(amqp.Delivery{Body: notificationBody(t, uuid.New(), uuid.New(), false)}))
	require.Len(t, uc.applied, 1)
	assert.NotEmpty(t, uc.traceID)
}

func TestNotificationConsumer_Rejects(t *testing.T) {
	uc := &fakeApplyUC{}
	adapter := &NotificationEventsConsumerAdapter{applyUC: uc, logger: nopLogger{}}

	assert.Error(t, adapter.handleDelivery(amqp.Delivery{Body: []byte(`{"id": "42"}`)}))
	assert.Error(t, adapter.handleDelivery(amqp.Delivery{
		Headers: amqp.Table{headerEventType: "UnknownEvent", headerEventVersion: "9.9.9"},
		Body:    notificationBody(t, uuid.New(), uuid.New(), false),
	}))
	assert.Empty(t, uc.applied)

	uc.err = errors.New("db down")
	assert.Error(t, adapter.handleDelivery(amqp.Delivery{Body: notificationBody(t, uuid.New(), uuid.New(), false)}))
}

func listingEvent(change string) amqp.Delivery {
	return amqp.Delivery{Body: []byte(`{"listing_id":"abc","change":"` + change + `","occurred_at":"2025-01-10T12:00:00Z"}`)}
}

func TestListingConsumer_HandleBatch(t *testing.T) {
	uc := &fakeRefreshUC{}
	adapter := &ListingEventsConsumerAdapter{refreshUC: uc, logger: nopLogger{}}

	err := adapter.handleBatch([]amqp.Delivery{listingEvent("created"), listingEvent("archived"), listingEvent("deleted")})
	require.NoError(t, err)
	assert.Equal(t, 1, uc.calls)
	assert.True(t, uc.forced)
}

func TestListingConsumer_NoValidEventsSkipsRefresh(t *testing.T) {
	uc := &fakeRefreshUC{}
	adapter := &ListingEventsConsumerAdapter{refreshUC: uc, logger: nopLogger{}}

	require.NoError(t, adapter.handleBatch(nil))
	require.NoError(t, adapter.handleBatch([]amqp.Delivery{listingEvent("archived"), {Body: []byte("{")}}))
	assert.Zero(t, uc.calls)
}

func TestListingConsumer_RefreshErrorRetriesBatch(t *testing.T) {
	uc := &fakeRefreshUC{err: domain.ErrListingsUnavailable}
	adapter := &ListingEventsConsumerAdapter{refreshUC: uc, logger: nopLogger{}}

	err := adapter.handleBatch([]amqp.Delivery{listingEvent("updated")})
	assert.ErrorIs(t, err, domain.ErrListingsUnavailable)
}

func TestNotificationPublisher_Publish(t *testing.T) {
	producer := &fakeProducer{}
	pub, err := NewNotificationPublisherAdapter(producer, constants.RoutingKeyNotificationChanged)
	require.NoError(t, err)

	n := domain.Notification{
		ID: uuid.New(), UserID: uuid.New(), Type: "message", Title: "New message",
		Read: true, CreatedAt: time.Now().Add(-time.Hour), UpdatedAt: time.Now(),
	}
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-42")
	require.NoError(t, pub.PublishNotificationChanged(ctx, n))

	assert.Equal(t, constants.RoutingKeyNotificationChanged, producer.routingKey)
	assert.Equal(t, amqp.Persistent, producer.msg.DeliveryMode)
	assert.Equal(t, "application/json", producer.msg.ContentType)
	assert.Equal(t, constants.EventNotificationChanged, producer.msg.Headers[headerEventType])
	assert.Equal(t, constants.EventVersionV1, producer.msg.Headers[headerEventVersion])
	assert.Equal(t, "trace-42", producer.msg.Headers[headerTraceID])

	// сервис сам потребляет эти события
	assert.NoError(t, contracts.ValidateEvent(constants.EventNotificationChanged, constants.EventVersionV1, producer.msg.Body))
}

func TestNotificationPublisher_Errors(t *testing.T) {
	_, err := NewNotificationPublisherAdapter(nil, "key")
	assert.Error(t, err)
	_, err = NewNotificationPublisherAdapter(&fakeProducer{}, "")
	assert.Error(t, err)

	pub, err := NewNotificationPublisherAdapter(&fakeProducer{err: errors.New("channel closed")}, "key")
	require.NoError(t, err)
	err = pub.PublishNotificationChanged(context.Background(), domain.Notification{ID: uuid.New(), UserID: uuid.New()})
	assert.ErrorContains(t, err, "channel closed")
}

func TestPkgLoggerBridge_ToFields(t *testing.T) {
	fields := toFields([]interface{}{"queue", "q1", 42, "skipped", "attempt", 2, "dangling"})
	assert.Equal(t, port.Fields{"queue": "q1", "attempt": 2}, fields)
}
