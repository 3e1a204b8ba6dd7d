package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil)
	var called bool
	bus.Subscribe(EventTypeCarCreated, func(ctx context.Context, event Event) error {
		called = true
		assert.Equal(t, EventTypeCarCreated, event.Type())
		assert.Equal(t, "payload", event.Data())
		return nil
	})

	err := bus.Publish(context.Background(), NewBasicEventWithSource(EventTypeCarCreated, "payload", "test"))
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	assert.NoError(t, bus.Publish(context.Background(), NewBasicEventWithSource("nobody", nil, "test")))
}

func TestEventBus_UnsubscribeRemovesOnlyThatHandler(t *testing.T) {
	bus := NewEventBus(nil)
	var first, second int32

	unsubFirst := bus.Subscribe(EventTypeCarUpdated, func(ctx context.Context, e Event) error {
		atomic.AddInt32(&first, 1)
		return nil
	})
	bus.Subscribe(EventTypeCarUpdated, func(ctx context.Context, e Event) error {
		atomic.AddInt32(&second, 1)
		return nil
	})
	assert.Equal(t, 2, bus.GetSubscriberCount(EventTypeCarUpdated))

	unsubFirst()
	unsubFirst()
	assert.Equal(t, 1, bus.GetSubscriberCount(EventTypeCarUpdated))

	require.NoError(t, bus.Publish(context.Background(), NewBasicEventWithSource(EventTypeCarUpdated, nil, "test")))
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))
}

func TestEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus(nil)
	var delivered bool
	bus.Subscribe("x", func(ctx context.Context, e Event) error { return errors.New("boom") })
	bus.Subscribe("x", func(ctx context.Context, e Event) error { delivered = true; return nil })

	err := bus.Publish(context.Background(), NewBasicEventWithSource("x", nil, "test"))
	assert.Error(t, err)
	assert.True(t, delivered)
}

func TestEventBus_PanickingHandlerIsRecovered(t *testing.T) {
	bus := NewEventBus(nil)
	bus.Subscribe("x", func(ctx context.Context, e Event) error { panic("bad handler") })

	err := bus.Publish(context.Background(), NewBasicEventWithSource("x", nil, "test"))
	assert.ErrorContains(t, err, "bad handler")
}

func TestEventBus_Retries(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	var calls int32
	bus.Subscribe("retry", func(ctx context.Context, e Event) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, bus.Publish(context.Background(), NewBasicEventWithSource("retry", nil, "test")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEventBus_AsyncPublish(t *testing.T) {
	bus := NewEventBusWithConfig(&noopLogger{}, BusConfig{AsyncProcessing: true})
	ch := make(chan struct{}, 1)
	bus.Subscribe("async", func(ctx context.Context, event Event) error {
		ch <- struct{}{}
		return nil
	})
	_ = bus.Publish(context.Background(), NewBasicEventWithSource("async", nil, "test"))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
}

func TestEventBus_PublishAndForget(t *testing.T) {
	bus := NewEventBus(nil)
	ch := make(chan struct{}, 1)
	bus.Subscribe(EventTypeCarDeleted, func(ctx context.Context, e Event) error {
		ch <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.PublishAndForget(ctx, NewBasicEventWithSource(EventTypeCarDeleted, nil, "test"))
	cancel()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}
