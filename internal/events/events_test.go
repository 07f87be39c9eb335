package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	fail     error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return w.fail
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(EventOrderCreated, "order-1", OrderCreatedPayload{
		OrderID:    "order-1",
		TotalPrice: decimal.RequireFromString("25.00"),
		ItemCount:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "merchant-desk", env.Producer)
	assert.NotEmpty(t, env.EventID)

	payload, err := UnwrapPayload[OrderCreatedPayload](env)
	require.NoError(t, err)
	assert.True(t, payload.TotalPrice.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 2, payload.ItemCount)
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, zap.NewNop())
	p.Start()

	for _, id := range []string{"a", "b", "c"} {
		env, err := NewEnvelope(EventSelectionSubmitted, id, SelectionSubmittedPayload{SelectionID: id})
		require.NoError(t, err)
		require.NoError(t, p.Publish(context.Background(), TopicSelectionSubmitted, env))
	}
	p.Close()

	require.Len(t, w.messages, 3)
	assert.True(t, w.closed)
	assert.Equal(t, TopicSelectionSubmitted, w.messages[0].Topic)
	assert.Equal(t, []byte("a"), w.messages[0].Key)

	var env Envelope
	require.NoError(t, json.Unmarshal(w.messages[2].Value, &env))
	assert.Equal(t, "c", env.CorrelationID)

	err := p.Publish(context.Background(), TopicSelectionSubmitted, env)
	assert.ErrorIs(t, err, ErrProducerClosed)
}

func TestProducerLogsWriteFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := &fakeWriter{fail: errors.New("broker down")}
	p := newProducer(w, 1, zap.New(core))
	p.Start()

	env, err := NewEnvelope(EventExpenseRecorded, "exp-1", ExpenseRecordedPayload{ExpenseID: "exp-1"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), TopicExpenseRecorded, env))
	p.Close()

	assert.Equal(t, 1, logs.FilterMessage("Failed to write event").Len())
}

func TestPublishRespectsContext(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, TopicOrderCreated, Envelope{CorrelationID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublishDropsWhenInboxFull(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, zap.NewNop())
	core, logs := observer.New(zap.WarnLevel)

	require.NoError(t, p.Publish(context.Background(), TopicOrderCreated, Envelope{CorrelationID: "o-1"}))

	done := make(chan error, 1)
	go func() { done <- p.Publish(context.Background(), TopicOrderCreated, Envelope{CorrelationID: "o-2"}) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrInboxFull)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full inbox")
	}

	Emit(context.Background(), p, zap.New(core), TopicOrderCreated, EventOrderCreated, "o-3", OrderCreatedPayload{})
	entries := logs.FilterMessage("Failed to publish event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "o-3", entries[0].ContextMap()["correlation_id"])
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, Envelope) error {
	return errors.New("unavailable")
}

func TestEmitSwallowsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	Emit(context.Background(), failingPublisher{}, zap.New(core), TopicOrderCreated, EventOrderCreated, "o-1", OrderCreatedPayload{})
	Emit(context.Background(), NopPublisher{}, zap.New(core), TopicOrderCreated, EventOrderCreated, "o-2", OrderCreatedPayload{})

	entries := logs.FilterMessage("Failed to publish event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "o-1", entries[0].ContextMap()["correlation_id"])
}

type fakeReader struct {
	messages  []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.messages) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.messages[0]
	r.messages = r.messages[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumerCommitsHandledAndMalformed(t *testing.T) {
	env, err := NewEnvelope(EventSelectionProcessed, "sel-1", SelectionProcessedPayload{SelectionID: "sel-1"})
	require.NoError(t, err)
	value, err := json.Marshal(env)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{
		cancel: cancel,
		messages: []kafka.Message{
			{Topic: TopicSelectionProcessed, Offset: 1, Value: value},
			{Topic: TopicSelectionProcessed, Offset: 2, Value: []byte("not json")},
		},
	}
	c := &Consumer{r: reader, logger: zap.NewNop(), backoff: time.Millisecond}

	var handled []string
	err = c.Run(ctx, func(_ context.Context, topic string, env Envelope) error {
		handled = append(handled, topic+"/"+env.CorrelationID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"selection.processed/sel-1"}, handled)
	assert.Equal(t, []int64{1, 2}, reader.committed)
}
