package bus_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postfeed/bus"
	"postfeed/domain"
)

func event(id string) domain.ChangeEvent {
	return domain.ChangeEvent{
		Action:    domain.ActionCreate,
		PostID:    id,
		EmittedAt: time.Now().UTC(),
	}
}

func recv(t *testing.T, sub *bus.Subscription) domain.ChangeEvent {
	t.Helper()

	select {
	case evt, ok := <-sub.Events():
		require.True(t, ok, "subscription closed while waiting for event")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return domain.ChangeEvent{}
	}
}

func TestPublishFansOutToConnectedSubscribers(t *testing.T) {
	b := bus.New(4, nil)
	first := b.Subscribe()
	second := b.Subscribe()

	b.Publish(event("post-1"))

	assert.Equal(t, "post-1", recv(t, first).PostID)
	assert.Equal(t, "post-1", recv(t, second).PostID)
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	b := bus.New(4, nil)

	b.Publish(event("post-1"))
	late := b.Subscribe()

	select {
	case evt := <-late.Events():
		t.Fatalf("late subscriber received replayed event %q", evt.PostID)
	default:
	}
}

func TestUnsubscribeClosesAndIsIdempotent(t *testing.T) {
	b := bus.New(4, nil)
	sub := b.Subscribe()

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)

	_, ok := <-sub.Events()
	assert.False(t, ok)

	// publishing after unsubscribe must not reach the closed channel
	b.Publish(event("post-1"))
}

func TestStalledSubscriberLosesOldestEvents(t *testing.T) {
	b := bus.New(2, nil)
	sub := b.Subscribe()

	for _, id := range []string{"post-1", "post-2", "post-3", "post-4"} {
		b.Publish(event(id))
	}

	// buffer of two: the newest events survive, the oldest are gone
	assert.Equal(t, "post-3", recv(t, sub).PostID)
	assert.Equal(t, "post-4", recv(t, sub).PostID)

	select {
	case evt := <-sub.Events():
		t.Fatalf("unexpected extra event %q", evt.PostID)
	default:
	}
}

func TestPublishNeverBlocksOnStalledSubscriber(t *testing.T) {
	b := bus.New(1, nil)
	b.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(event("post"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled subscriber")
	}
}

func TestCloseDisconnectsEverySubscriber(t *testing.T) {
	b := bus.New(4, nil)
	first := b.Subscribe()
	second := b.Subscribe()

	b.Close()

	_, ok := <-first.Events()
	assert.False(t, ok)
	_, ok = <-second.Events()
	assert.False(t, ok)
}
