package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_DeliversInOrder(t *testing.T) {
	b := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := b.Subscribe(ctx)

	for i := 0; i < 3; i++ {
		b.Publish(CreatedEvent, i)
	}

	for i := 0; i < 3; i++ {
		select {
		case ev := <-events:
			assert.Equal(t, CreatedEvent, ev.Type)
			assert.Equal(t, i, ev.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d never arrived", i)
		}
	}
}

func TestBroker_CancelClosesChannelAndDropsQueued(t *testing.T) {
	b := NewBroker[string]()
	ctx, cancel := context.WithCancel(context.Background())

	events := b.Subscribe(ctx)

	// Queue events nobody is reading, then walk away. The pump must not
	// wedge; the channel must close.
	b.Publish(CreatedEvent, "queued-1")
	b.Publish(CreatedEvent, "queued-2")
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed after cancel")
		}
	}
}

func TestBroker_ShutdownClosesSubscribersAndRejectsPublish(t *testing.T) {
	b := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := b.Subscribe(ctx)
	b.Shutdown()

	select {
	case _, ok := <-events:
		require.False(t, ok, "channel must be closed, not delivering")
	case <-time.After(2 * time.Second):
		t.Fatal("channel never closed after shutdown")
	}

	b.Publish(CreatedEvent, 1) // must not panic

	late := b.Subscribe(context.Background())
	_, ok := <-late
	assert.False(t, ok, "subscribing to a shut-down broker yields a closed channel")
}
