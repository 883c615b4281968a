// Package eventbus implements the in-process domain event bus: one producer
// (the service layer, after a transaction commits), many independent
// consumers, bounded memory, best-effort at-least-once delivery, and
// monotonic ordering of events that share an aggregate.
package eventbus

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// DeliveryPolicy controls what a Bus does when a subscriber's queue is full.
type DeliveryPolicy int

const (
	// DropOldest discards the subscriber's oldest buffered event to make
	// room for the new one. Appropriate for consumers that only care about
	// the latest state (cache invalidation, websocket push to a UI).
	DropOldest DeliveryPolicy = iota
	// Block makes the dispatch loop wait until the subscriber has room,
	// which holds up delivery to every subscriber and, once the ingress
	// queue fills, makes Publish wait too. Appropriate for consumers that
	// must not miss an event (outbox relay, audit log).
	Block
)

// DefaultQueueDepth bounds a subscription's buffered event count when the
// caller doesn't specify one.
const DefaultQueueDepth = 256

// subscription is one consumer's bounded mailbox.
type subscription struct {
	id     int
	ch     chan Event
	policy DeliveryPolicy
}

// Bus is a bounded, ordered, at-least-once local event bus. The zero value
// is not usable; construct with New. Safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	subs      []*subscription
	nextSubID int

	ingress chan Event
	done    chan struct{}
	wg      sync.WaitGroup
}

// New starts a Bus with an ingress queue of the given depth. A depth of 0
// uses DefaultQueueDepth.
func New(ingressDepth int) *Bus {
	if ingressDepth <= 0 {
		ingressDepth = DefaultQueueDepth
	}
	b := &Bus{
		ingress: make(chan Event, ingressDepth),
		done:    make(chan struct{}),
	}
	b.wg.Add(1)
	go b.dispatchLoop()
	return b
}

// dispatchLoop is the bus's single writer: it drains the ingress queue
// strictly in publish order and, for each event, delivers to every
// subscription in registration order before moving on to the next event.
// Because delivery is single-threaded here, two events published for the
// same aggregate are always offered to every subscriber in publish order,
// regardless of how many subscribers exist or how fast they drain.
func (b *Bus) dispatchLoop() {
	defer b.wg.Done()
	for {
		select {
		case evt, ok := <-b.ingress:
			if !ok {
				return
			}
			b.deliver(evt)
		case <-b.done:
			// Drain whatever is already queued before exiting so a Close
			// during shutdown doesn't silently drop committed events.
			for {
				select {
				case evt, ok := <-b.ingress:
					if !ok {
						return
					}
					b.deliver(evt)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) deliver(evt Event) {
	b.mu.RLock()
	subs := make([]*subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		switch s.policy {
		case Block:
			select {
			case s.ch <- evt:
			case <-b.done:
				return
			}
		default: // DropOldest
			for {
				select {
				case s.ch <- evt:
				default:
					select {
					case <-s.ch:
					default:
					}
					continue
				}
				break
			}
		}
	}

	log.Debug().
		Str("event_type", string(evt.Type)).
		Str("aggregate", string(evt.Aggregate)).
		Str("aggregate_id", evt.AggregateID).
		Int("subscriber_count", len(subs)).
		Msg("event dispatched")
}

// Publish enqueues an event for delivery. It blocks only while the bus's
// own bounded ingress queue is full (backpressure on the producer); that
// queue fills when the dispatch loop falls behind, for instance while it
// waits on a full Block subscriber, and a DropOldest subscriber never holds
// it up. Returns ctx.Err() if the context is cancelled before the
// event is accepted, or ErrClosed if the bus has been shut down.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	select {
	case b.ingress <- evt:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscription is a handle returned by Subscribe. Callers range over Events
// until it is closed by Unsubscribe or Bus.Close.
type Subscription struct {
	Events <-chan Event
	bus    *Bus
	id     int
}

// Subscribe registers a new consumer with the given queue depth and overflow
// policy. A depth of 0 uses DefaultQueueDepth.
func (b *Bus) Subscribe(depth int, policy DeliveryPolicy) *Subscription {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	b.mu.Lock()
	id := b.nextSubID
	b.nextSubID++
	sub := &subscription{id: id, ch: make(chan Event, depth), policy: policy}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return &Subscription{Events: sub.ch, bus: b, id: id}
}

// Unsubscribe removes the subscription. The channel is closed; any
// in-flight deliver() call holding a stale snapshot will simply find the
// channel full or closed and move on.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	for i, sub := range s.bus.subs {
		if sub.id == s.id {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// SubscriberCount reports the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops the dispatch loop after draining whatever is already in the
// ingress queue, then closes every subscriber channel. Close does not wait
// for subscribers to finish consuming; it only guarantees the dispatch
// loop has exited.
func (b *Bus) Close() {
	close(b.done)
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}
