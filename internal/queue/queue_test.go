package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcker struct {
	acks, nacks int
	requeued    bool
}

func (a *fakeAcker) Ack(uint64, bool) error { a.acks++; return nil }
func (a *fakeAcker) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacks++
	a.requeued = requeue
	return nil
}
func (a *fakeAcker) Reject(uint64, bool) error { return nil }

type published struct {
	key string
	msg amqp091.Publishing
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{key: exchange + "/" + key, msg: msg})
	return nil
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) ClearAllCaches(context.Context) error {
	f.calls++
	return f.err
}

var shared = Queue{Name: DefaultQueue, Retry: true}

func delivery(body string, headers amqp091.Table) (amqp091.Delivery, *fakeAcker) {
	acker := &fakeAcker{}
	return amqp091.Delivery{Acknowledger: acker, Body: []byte(body), Headers: headers}, acker
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Event
		wantErr bool
	}{
		{"plain", `{"type":"entity.updated","entityIds":["c-aria"]}`, Event{Type: EventEntityUpdated, EntityIDs: []string{"c-aria"}}, false},
		{"wrapped in a string", `"{\"type\":\"entity.deleted\"}"`, Event{Type: EventEntityDeleted}, false},
		{"trailing commas", `{"type": "edge.changed", "entityIds": ["p-a", "p-b",],}`, Event{Type: EventEdgeChanged, EntityIDs: []string{"p-a", "p-b"}}, false},
		{"padded type", `{"type":"  entity.created "}`, Event{Type: EventEntityCreated}, false},
		{"missing type", `{"entityIds":["x"]}`, Event{}, true},
		{"empty body", ``, Event{}, true},
		{"array", `[1, 2]`, Event{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventEncode(t *testing.T) {
	body, err := Event{Type: EventCacheCleared}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"cache.cleared"}`, string(body))
	assert.Equal(t, "canon.cache.cleared", Event{Type: EventCacheCleared}.RoutingKey())

	_, err = Event{}.Encode()
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestPublishEvent(t *testing.T) {
	pub := &fakePublisher{}
	require.NoError(t, PublishEvent(pub, Event{Type: EventEntityUpdated, EntityIDs: []string{"c-aria"}}))
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "canon/canon.entity.updated", pub.sent[0].key)
	assert.Equal(t, amqp091.Persistent, pub.sent[0].msg.DeliveryMode)
}

func TestProcessInvalidatesAndAcks(t *testing.T) {
	inv := &fakeInvalidator{}
	pub := &fakePublisher{}
	msg, acker := delivery(`{"type":"entity.updated"}`, nil)

	Process(context.Background(), pub, inv, msg, shared)
	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 1, acker.acks)
	assert.Empty(t, pub.sent)
}

func TestProcessAcksMalformed(t *testing.T) {
	inv := &fakeInvalidator{}
	msg, acker := delivery(`{"entityIds":[]}`, nil)

	Process(context.Background(), &fakePublisher{}, inv, msg, shared)
	assert.Zero(t, inv.calls)
	assert.Equal(t, 1, acker.acks)
}

func TestProcessRetriesFailedInvalidation(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("redis down")}
	pub := &fakePublisher{}
	msg, acker := delivery(`{"type":"entity.updated"}`, amqp091.Table{"x-retries": int32(2)})

	Process(context.Background(), pub, inv, msg, shared)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "/canon_events_retry", pub.sent[0].key)
	assert.Equal(t, int32(3), pub.sent[0].msg.Headers["x-retries"])
	assert.Equal(t, int32(2), msg.Headers["x-retries"])
	assert.Equal(t, 1, acker.acks)
}

func TestProcessDeadLettersAfterMaxRetries(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("redis down")}
	pub := &fakePublisher{}
	msg, acker := delivery(`{"type":"entity.updated"}`, amqp091.Table{"x-retries": int32(maxRetries)})

	Process(context.Background(), pub, inv, msg, shared)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "/canon_events_dlq", pub.sent[0].key)
	assert.Equal(t, 1, acker.acks)
}

func TestProcessRequeuesWhenPublishFails(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("redis down")}
	pub := &fakePublisher{err: errors.New("channel closed")}
	msg, acker := delivery(`{"type":"entity.updated"}`, nil)

	Process(context.Background(), pub, inv, msg, shared)
	assert.Zero(t, acker.acks)
	assert.Equal(t, 1, acker.nacks)
	assert.True(t, acker.requeued)
}

func TestProcessInstanceQueueRequeuesOnce(t *testing.T) {
	inv := &fakeInvalidator{err: errors.New("boom")}
	pub := &fakePublisher{}
	instance := Queue{Name: "amq.gen-1"}

	msg, acker := delivery(`{"type":"entity.updated"}`, nil)
	Process(context.Background(), pub, inv, msg, instance)
	assert.Equal(t, 1, acker.nacks)
	assert.True(t, acker.requeued)

	msg, acker = delivery(`{"type":"entity.updated"}`, nil)
	msg.Redelivered = true
	Process(context.Background(), pub, inv, msg, instance)
	assert.Equal(t, 1, acker.nacks)
	assert.False(t, acker.requeued)
	assert.Empty(t, pub.sent)
}

func TestQueueNameFromEnv(t *testing.T) {
	t.Setenv("CANON_EVENTS_QUEUE", "")
	assert.Equal(t, DefaultQueue, QueueName())
	t.Setenv("CANON_EVENTS_QUEUE", "studio_events")
	assert.Equal(t, "studio_events", QueueName())
}
