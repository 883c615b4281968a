package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToSubscriber(t *testing.T) {
	b := New(16)
	defer b.Close()

	sub := b.Subscribe(8, Block)
	evt := OrderCreated("order-1", "ORD-AAAAAAAA", "cust-1", time.Unix(0, 0))

	require.NoError(t, b.Publish(context.Background(), evt))

	select {
	case got := <-sub.Events:
		assert.Equal(t, evt.Type, got.Type)
		assert.Equal(t, evt.AggregateID, got.AggregateID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_PreservesPerAggregateOrder(t *testing.T) {
	b := New(64)
	defer b.Close()

	sub := b.Subscribe(64, Block)
	now := time.Unix(0, 0)

	states := []string{"pending", "confirmed", "processing", "shipped"}
	for i := 1; i < len(states); i++ {
		require.NoError(t, b.Publish(context.Background(), OrderStatusChanged("order-1", states[i-1], states[i], now)))
	}

	for i := 1; i < len(states); i++ {
		select {
		case got := <-sub.Events:
			payload, ok := got.Payload.(OrderStatusChangedPayload)
			require.True(t, ok)
			assert.Equal(t, states[i-1], payload.FromState)
			assert.Equal(t, states[i], payload.ToState)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for transition %d", i)
		}
	}
}

func TestBus_DropOldestDoesNotBlockProducer(t *testing.T) {
	b := New(64)
	defer b.Close()

	sub := b.Subscribe(1, DropOldest)
	now := time.Unix(0, 0)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(context.Background(), OrderCreated("order-1", "ORD-X", "cust-1", now)))
	}

	// Give the dispatch loop a moment to process; with DropOldest the
	// subscriber's single slot should hold only the most recent event.
	time.Sleep(50 * time.Millisecond)
	select {
	case _, ok := <-sub.Events:
		assert.True(t, ok)
	default:
		t.Fatal("expected at least one buffered event")
	}
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	b := New(8)
	defer b.Close()

	sub := b.Subscribe(8, Block)
	assert.Equal(t, 1, b.SubscriberCount())

	sub.Unsubscribe()
	assert.Equal(t, 0, b.SubscriberCount())

	_, ok := <-sub.Events
	assert.False(t, ok)
}

func TestBus_PublishAfterCloseReturnsError(t *testing.T) {
	b := New(8)
	b.Close()

	err := b.Publish(context.Background(), OrderCreated("order-1", "ORD-X", "cust-1", time.Unix(0, 0)))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNoOpPublisher_NeverErrors(t *testing.T) {
	p := NoOpPublisher{}
	err := p.Publish(context.Background(), OrderCreated("order-1", "ORD-X", "cust-1", time.Unix(0, 0)))
	assert.NoError(t, err)
}
