package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_PublishSubscribe(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := broker.Subscribe(ctx)
	broker.Publish("hello")

	select {
	case got := <-events:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBroker_UnsubscribeOnCancel(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := broker.Subscribe(ctx)
	assert.Equal(t, 1, broker.Subscribers())

	cancel()

	require.Eventually(t, func() bool {
		return broker.Subscribers() == 0
	}, time.Second, 5*time.Millisecond)

	_, ok := <-events
	assert.False(t, ok)
}

func TestBroker_PublishDoesNotBlock(t *testing.T) {
	broker := NewBrokerWithBuffer[int](2)
	defer broker.Close()

	events := broker.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			broker.Publish(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	assert.Equal(t, 0, <-events)
	assert.Equal(t, 1, <-events)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[int]()
	events := broker.Subscribe(context.Background())

	broker.Close()
	broker.Close()

	_, ok := <-events
	assert.False(t, ok)

	late := broker.Subscribe(context.Background())
	_, ok = <-late
	assert.False(t, ok)

	broker.Publish(1)
}
