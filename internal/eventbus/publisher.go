package eventbus

import (
	"context"
	"errors"
)

// ErrClosed is returned by Publish once the bus has been shut down.
var ErrClosed = errors.New("eventbus: closed")

// Publisher is the seam services depend on to emit domain events. Bus
// implements it directly; NoOpPublisher satisfies it for unit tests that
// don't care about event side effects.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

var _ Publisher = (*Bus)(nil)

// NoOpPublisher discards every event. Used in service-layer unit tests and
// anywhere the event bus is not wired up.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(ctx context.Context, evt Event) error { return nil }

var _ Publisher = NoOpPublisher{}
