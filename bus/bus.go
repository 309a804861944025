package bus

import (
	"sync"

	"postfeed/domain"
)

// DefaultBuffer is the per-subscriber event buffer size.
const DefaultBuffer = 16

// Bus is the in-process broadcaster for feed change events. Publish is
// fire-and-forget: an event reaches every subscriber connected at the
// moment of the call and nobody else. There is no backlog, no replay,
// and no reconnection state.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
	logger domain.Logger
}

// Subscription is one connected observer. Its lifecycle is
// connected -> draining (unsubscribed, channel closed) -> gone; a closed
// subscription cannot be resumed, only replaced by subscribing again.
type Subscription struct {
	ch     chan domain.ChangeEvent
	closed bool
}

// Events returns the lazy event stream for this subscription. The channel
// is closed on unsubscribe.
func (s *Subscription) Events() <-chan domain.ChangeEvent {
	return s.ch
}

func New(buffer int, logger domain.Logger) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = domain.DefaultLogger{}
	}
	return &Bus{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe connects a new observer.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan domain.ChangeEvent, b.buffer)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe disconnects a subscription and closes its channel. Safe to
// call any number of times.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true
	delete(b.subs, sub)
	close(sub.ch)
}

// Publish delivers evt to every currently connected subscriber without
// blocking. A subscriber that stalls past its buffer loses the oldest
// undelivered events, never the newest.
func (b *Bus) Publish(evt domain.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.ch <- evt:
			continue
		default:
		}

		// Full buffer: evict the oldest entry, then retry once.
		// Publishers are serialized on b.mu, so the freed slot stays
		// free; the default arm is a safety net only.
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- evt:
		default:
			b.logger.Info("dropping %s event for stalled subscriber", evt.Action)
		}
	}
}

// Close disconnects every remaining subscriber.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		sub.closed = true
		delete(b.subs, sub)
		close(sub.ch)
	}
}
