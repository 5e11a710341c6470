package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu      sync.Mutex
	pending []*EventDocument
	sent    []string
	failed  map[string]time.Time
}

func (q *fakeQueue) Claim(_ context.Context, _ string, _ time.Duration) (*EventDocument, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	doc := q.pending[0]
	q.pending = q.pending[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, next time.Time, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	err  error
	sent []published
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	queue := &fakeQueue{pending: []*EventDocument{
		{ID: "evt-1", Name: "rental.created", Aggregate: "r-1", Payload: []byte(`{"rental_id":"r-1"}`), OccurredAt: occurred},
		{ID: "evt-2", Name: "calendar.dates_blocked", Aggregate: "car-1", Payload: []byte(`{"car_id":"car-1"}`), OccurredAt: occurred},
	}}
	producer := &fakeProducer{}
	w := &Worker{Queue: queue, Producer: producer, TopicPrefix: "dev.", ID: "w-1"}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"evt-1", "evt-2"}, queue.sent)

	require.Len(t, producer.sent, 2)
	assert.Equal(t, "dev.rental.events.v1", producer.sent[0].topic)
	assert.Equal(t, "r-1", producer.sent[0].key)
	assert.Equal(t, "dev.calendar.events.v1", producer.sent[1].topic)
	assert.Equal(t, "application/cloudevents+json", producer.sent[0].headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(producer.sent[0].payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "rental.created.v1", evt["type"])
	assert.Equal(t, "app://rentacar", evt["source"])
	assert.Equal(t, map[string]any{"rental_id": "r-1"}, evt["data"])
}

func TestWorkerReschedulesFailedPublish(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	queue := &fakeQueue{pending: []*EventDocument{
		{ID: "evt-1", Name: "rental.cancelled", Aggregate: "r-1", Payload: []byte(`{}`), Attempts: 1},
	}}
	w := &Worker{
		Queue:    queue,
		Producer: &fakeProducer{err: errors.New("broker down")},
		Backoff:  []time.Duration{time.Second, 5 * time.Second},
		Now:      func() time.Time { return now },
	}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, queue.sent)
	assert.Equal(t, now.Add(5*time.Second), queue.failed["evt-1"])
}

func TestWorkerRejectsInvalidPayload(t *testing.T) {
	queue := &fakeQueue{pending: []*EventDocument{{ID: "evt-1", Name: "rental.created", Payload: []byte("not json")}}}
	producer := &fakeProducer{}
	w := &Worker{Queue: queue, Producer: producer}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, producer.sent)
	assert.Contains(t, queue.failed, "evt-1")
}

func TestNextRetryUsesLastBackoffStep(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	w := &Worker{Backoff: []time.Duration{time.Second, 30 * time.Second}, Now: func() time.Time { return now }}
	assert.Equal(t, now.Add(time.Second), w.nextRetry(0))
	assert.Equal(t, now.Add(30*time.Second), w.nextRetry(7))

	w.Backoff = nil
	assert.Equal(t, now.Add(5*time.Second), w.nextRetry(0))
}

func TestRunRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}
