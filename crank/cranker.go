package crank

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	events "github.com/0x5487/orderbook-events"
)

const (
	// DefaultBatchSize caps how many events one crank turn delivers.
	DefaultBatchSize = 64

	// DefaultIdleInterval is the pause between polls of an empty queue.
	DefaultIdleInterval = time.Millisecond
)

// CrankerOptions configures a Cranker. The zero value picks the defaults.
type CrankerOptions struct {
	// BatchSize caps how many events one turn pops and publishes.
	// 0 means DefaultBatchSize.
	BatchSize uint64

	// IdleInterval is how long Start sleeps when the queue is empty.
	// 0 means DefaultIdleInterval.
	IdleInterval time.Duration

	// MarketID annotates log lines. Optional.
	MarketID string

	// Flush is called after each committed batch, typically the backing
	// account's flush. Optional.
	Flush func() error

	// Logger overrides the package logger. Optional.
	Logger *slog.Logger
}

// Cranker drains one market's event queue and hands the events to a
// publisher. It is the owner of its queue: nothing else may touch the queue
// while the cranker runs.
//
// Delivery is at-least-once. A turn publishes before committing the header,
// so a crash between the two replays the batch on the next attach rather
// than losing it.
type Cranker struct {
	queue     *events.Queue
	publisher events.PublishEvents
	batchSize uint64
	idle      time.Duration
	marketID  string
	flush     func() error
	log       *slog.Logger

	drained          atomic.Uint64
	isShutdown       atomic.Bool
	done             chan struct{}
	shutdownComplete chan struct{}
}

// NewCranker creates a cranker with default options.
func NewCranker(queue *events.Queue, publisher events.PublishEvents) *Cranker {
	return NewCrankerWithOptions(queue, publisher, CrankerOptions{})
}

// NewCrankerWithOptions creates a cranker with custom options.
func NewCrankerWithOptions(queue *events.Queue, publisher events.PublishEvents, opts CrankerOptions) *Cranker {
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.IdleInterval == 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Cranker{
		queue:            queue,
		publisher:        publisher,
		batchSize:        opts.BatchSize,
		idle:             opts.IdleInterval,
		marketID:         opts.MarketID,
		flush:            opts.Flush,
		log:              opts.Logger,
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// Crank performs one drain turn: pop up to BatchSize events, publish them,
// commit the header, flush. It returns how many events were delivered.
//
// A corrupted record stops the turn at the bad slot: everything popped
// before it is still delivered and committed, the corrupt record stays at
// the front of the queue, and the error reports what was hit.
func (c *Cranker) Crank() (uint64, error) {
	n := min(c.batchSize, c.queue.Count())
	if n == 0 {
		return 0, nil
	}

	batch := make([]events.Event, 0, n)
	var popErr error
	for i := uint64(0); i < n; i++ {
		ev, err := c.queue.PopFront()
		if err != nil {
			popErr = err
			break
		}
		batch = append(batch, ev)
	}

	delivered := uint64(len(batch))
	if delivered > 0 {
		c.publisher.Publish(batch...)
		if err := c.queue.CommitHeader(); err != nil {
			return delivered, fmt.Errorf("commit header: %w", err)
		}
		if c.flush != nil {
			if err := c.flush(); err != nil {
				return delivered, fmt.Errorf("flush backing store: %w", err)
			}
		}
		c.drained.Add(delivered)
	}

	if popErr != nil {
		return delivered, fmt.Errorf("drain queue: %w", popErr)
	}
	return delivered, nil
}

// Start runs the drain loop until Shutdown. On a clean shutdown it drains
// whatever is still queued before returning. A corrupted queue stops the
// loop and returns the error; the queue is left pointing at the bad record.
func (c *Cranker) Start() error {
	defer close(c.shutdownComplete)

	for {
		select {
		case <-c.done:
			return c.drainRemaining()
		default:
		}

		n, err := c.Crank()
		if err != nil {
			c.log.Error("crank turn failed", "market", c.marketID, "error", err)
			return err
		}
		if n > 0 {
			continue
		}

		select {
		case <-c.done:
			return c.drainRemaining()
		case <-time.After(c.idle):
		}
	}
}

func (c *Cranker) drainRemaining() error {
	for {
		n, err := c.Crank()
		if err != nil {
			c.log.Error("final drain failed", "market", c.marketID, "error", err)
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// Shutdown stops the drain loop and waits for the final drain to finish.
// Returns ErrTimeout when ctx expires first.
func (c *Cranker) Shutdown(ctx context.Context) error {
	if c.isShutdown.CompareAndSwap(false, true) {
		close(c.done)
	}

	select {
	case <-c.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ErrTimeout
	}
}

// Drained returns the total number of events delivered so far.
func (c *Cranker) Drained() uint64 {
	return c.drained.Load()
}
