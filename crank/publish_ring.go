package crank

import (
	"context"

	events "github.com/0x5487/orderbook-events"
)

// RingPublisher decouples crank turns from a slow downstream publisher:
// Publish drops each event into the MPSC ring and returns, and the ring's
// consumer goroutine forwards to the wrapped publisher at its own pace.
// Several crankers can share one RingPublisher; the downstream sees a single
// ordered stream.
type RingPublisher struct {
	ring *RingBuffer[events.Event]
}

type forwardHandler struct {
	downstream events.PublishEvents
}

func (h *forwardHandler) OnEvent(ev events.Event) {
	h.downstream.Publish(ev)
}

// NewRingPublisher starts the forwarding consumer. capacity must be a power
// of 2.
func NewRingPublisher(capacity int64, downstream events.PublishEvents) *RingPublisher {
	p := &RingPublisher{
		ring: NewRingBuffer[events.Event](capacity, &forwardHandler{downstream: downstream}),
	}
	p.ring.Start()
	return p
}

// Publish hands the batch to the ring. Implements PublishEvents.
func (p *RingPublisher) Publish(evs ...events.Event) {
	for _, ev := range evs {
		p.ring.Publish(ev)
	}
}

// Pending returns how many events sit in the ring awaiting forwarding.
func (p *RingPublisher) Pending() int64 {
	return p.ring.Pending()
}

// Shutdown stops accepting events and waits until everything already
// accepted has been forwarded. Returns ErrTimeout when ctx expires first.
func (p *RingPublisher) Shutdown(ctx context.Context) error {
	return p.ring.Shutdown(ctx)
}
