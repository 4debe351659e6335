package crank

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
)

// ErrTimeout is returned when a shutdown deadline expires before the pending
// work is drained.
var ErrTimeout = errors.New("crank: shutdown timeout")

// EventHandler consumes entries on the ring's single consumer goroutine.
type EventHandler[T any] interface {
	OnEvent(event T)
}

// RingBuffer is an MPSC hand-off between crank turns and the shipping
// goroutine: any number of crankers publish drained events, one consumer
// forwards them downstream. Producers claim slots with a CAS and announce
// them through a published-sequence array, so the consumer never sees a
// half-written slot.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence whose write to buffer[i] is complete
	published []int64

	handler EventHandler[T]

	isShutdown atomic.Bool
}

// NewRingBuffer creates the ring. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("capacity must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		atomic.StoreInt64(&rb.published[i], -1)
	}

	return rb
}

// Publish hands one entry to the consumer. Safe for concurrent producers.
// When the ring is full it spins until the consumer frees a slot; after
// Shutdown it drops the entry.
func (rb *RingBuffer[T]) Publish(event T) {
	if rb.isShutdown.Load() {
		return
	}

	var nextSeq int64
	for {
		// 步驟 1: 原子性地申請一個序號 (claim a sequence)
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		// the producer may not lap the consumer
		wrapPoint := nextSeq - rb.capacity
		consumerSeq := rb.consumerSequence.Load()

		if wrapPoint > consumerSeq {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	// 步驟 2: 寫入資料並發布，讓 consumer 可見
	index := nextSeq & rb.bufferMask
	rb.buffer[index] = event
	atomic.StoreInt64(&rb.published[index], nextSeq)
}

// Start launches the consumer goroutine.
func (rb *RingBuffer[T]) Start() {
	go rb.consumerLoop()
}

// Shutdown stops accepting entries and waits until the consumer has handled
// everything already claimed. Returns ErrTimeout when ctx expires first.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	for {
		select {
		case <-ctx.Done():
			return ErrTimeout
		default:
			if rb.ConsumerSequence() >= rb.ProducerSequence() {
				return nil
			}
			runtime.Gosched()
		}
	}
}

func (rb *RingBuffer[T]) consumerLoop() {
	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if rb.isShutdown.Load() {
			rb.drainTo(nextConsumerSeq, rb.producerSequence.Load())
			return
		}

		if nextConsumerSeq > availableSeq {
			runtime.Gosched()
			continue
		}

		nextConsumerSeq = rb.drainTo(nextConsumerSeq, availableSeq)
	}
}

// drainTo handles every entry in [nextSeq, availableSeq] and returns the
// sequence after the last one handled.
func (rb *RingBuffer[T]) drainTo(nextSeq, availableSeq int64) int64 {
	for nextSeq <= availableSeq {
		index := nextSeq & rb.bufferMask

		// spin until the claimed slot is actually published
		for atomic.LoadInt64(&rb.published[index]) != nextSeq {
			runtime.Gosched()
		}

		rb.handler.OnEvent(rb.buffer[index])

		rb.consumerSequence.Store(nextSeq)
		nextSeq++
	}
	return nextSeq
}

// ConsumerSequence returns the last handled sequence, for monitoring.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the last claimed sequence, for monitoring.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// Pending returns the number of claimed but unhandled entries.
func (rb *RingBuffer[T]) Pending() int64 {
	producerSeq := rb.producerSequence.Load()
	consumerSeq := rb.consumerSequence.Load()
	return producerSeq - consumerSeq
}
