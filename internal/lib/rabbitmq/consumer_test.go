package rabbitmq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumeChannel struct {
	deliveries chan amqp.Delivery
	err        error
}

func (f *fakeConsumeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, f.err
}

type fakeAcknowledger struct {
	mu     sync.Mutex
	acked  []uint64
	nacked []uint64
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestConsumerMessage_AckAndNack(t *testing.T) {
	ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery, 3)}
	ack := &fakeAcknowledger{}
	for i, body := range []string{"ok-1", "bad", "ok-2"} {
		ch.deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: uint64(i + 1), Body: []byte(body)}
	}
	close(ch.deliveries)

	var (
		mu   sync.Mutex
		seen []string
	)
	handler := func(body []byte) error {
		mu.Lock()
		seen = append(seen, string(body))
		mu.Unlock()
		if string(body) == "bad" {
			return errors.New("smtp down")
		}
		return nil
	}

	wait, err := ConsumerMessage(context.Background(), ch, QueueSubscribers, 2, newNoopLogger(), handler)
	require.NoError(t, err)
	wait()

	assert.ElementsMatch(t, []string{"ok-1", "bad", "ok-2"}, seen)
	assert.ElementsMatch(t, []uint64{1, 3}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
}

func TestConsumerMessage_StopsOnContextCancel(t *testing.T) {
	ch := &fakeConsumeChannel{deliveries: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	wait, err := ConsumerMessage(ctx, ch, QueueSubscribers, 1, newNoopLogger(), func([]byte) error { return nil })
	require.NoError(t, err)
	cancel()

	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}

func TestConsumerMessage_ConsumeError(t *testing.T) {
	ch := &fakeConsumeChannel{err: errors.New("channel closed")}
	_, err := ConsumerMessage(context.Background(), ch, QueueSubscribers, 1, newNoopLogger(), func([]byte) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq.ConsumerMessage")
}
