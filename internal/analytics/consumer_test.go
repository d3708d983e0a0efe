package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/quotagate/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	topics       []string
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	m.mu.Lock()
	m.topics = append(m.topics, topic)
	m.mu.Unlock()

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

type mockStore struct {
	events  []*analytics.LimitEvent
	saveErr error
	mu      sync.Mutex
}

func (m *mockStore) SaveLimitEvent(_ context.Context, event *analytics.LimitEvent) error {
	if m.saveErr != nil {
		return m.saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	return nil
}

func TestNewHandler(t *testing.T) {
	t.Run("saves event", func(t *testing.T) {
		store := &mockStore{}
		handler := analytics.NewHandler(store)

		err := handler(context.Background(), &analytics.LimitEvent{ClientID: "acme"})

		require.NoError(t, err)
		assert.Len(t, store.events, 1)
	})

	t.Run("wraps store error", func(t *testing.T) {
		storeErr := errors.New("store error")
		handler := analytics.NewHandler(&mockStore{saveErr: storeErr})

		err := handler(context.Background(), &analytics.LimitEvent{ClientID: "acme"})

		require.ErrorIs(t, err, storeErr)
		assert.Contains(t, err.Error(), "acme")
	})
}

func TestConsumer_ProcessLimitEvent(t *testing.T) {
	t.Run("subscribes to the outcome topic", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := analytics.NewConsumer(sub, &mockStore{}, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		assert.Equal(t, analytics.TopicLimitOutcome, consumer.Topic())
		assert.Equal(t, []string{analytics.TopicLimitOutcome}, sub.topics)

		_ = consumer.Shutdown()
	})

	t.Run("processes limit event successfully", func(t *testing.T) {
		sub := newMockSubscriber()
		store := &mockStore{}
		consumer := analytics.NewConsumer(sub, store, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		event := &analytics.LimitEvent{
			ClientID:   "acme",
			Outcome:    "block",
			Count:      6,
			Limit:      5,
			RetryAfter: 30,
			OccurredAt: time.Now(),
		}

		payload, _ := json.Marshal(event)
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
			// Success
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		store.mu.Lock()
		defer store.mu.Unlock()

		require.Len(t, store.events, 1)
		assert.Equal(t, "acme", store.events[0].ClientID)
		assert.Equal(t, uint64(6), store.events[0].Count)

		_ = consumer.Shutdown()
	})

	t.Run("nacks on store error", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := analytics.NewConsumer(sub, &mockStore{saveErr: errors.New("store error")}, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		payload, _ := json.Marshal(&analytics.LimitEvent{ClientID: "acme"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Nacked():
			// Success - message was nacked
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = consumer.Shutdown()
	})
}
