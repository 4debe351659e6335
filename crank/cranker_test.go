package crank

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	events "github.com/0x5487/orderbook-events"
	"github.com/0x5487/orderbook-events/protocol"
)

const testCallbackLen = 4

func newTestQueue(t *testing.T, capacity uint64) *events.Queue {
	t.Helper()

	header := events.NewHeader(protocol.SlotSize(testCallbackLen))
	buf := make([]byte, uint64(events.HeaderLen)+uint64(header.RegisterSize)+capacity*header.EventSize)
	require.NoError(t, events.EncodeHeader(buf, header))

	q, err := events.NewQueue(buf, header, testCallbackLen)
	require.NoError(t, err)
	return q
}

func pushOuts(t *testing.T, q *events.Queue, n uint64) {
	t.Helper()
	for i := uint64(0); i < n; i++ {
		require.NoError(t, q.PushBack(&events.Out{
			Side:         events.Ask,
			OrderID:      events.OrderID{Hi: 100, Lo: i},
			AssetSize:    i + 1,
			CallbackInfo: []byte{byte(i), 0, 0, 0},
		}))
	}
}

func TestCrankDeliversInOrder(t *testing.T) {
	q := newTestQueue(t, 16)
	pushOuts(t, q, 10)

	publisher := events.NewMemoryPublishEvents()
	cranker := NewCranker(q, publisher)

	n, err := cranker.Crank()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), n)
	assert.Equal(t, uint64(0), q.Count())

	require.Equal(t, 10, publisher.Count())
	for i := 0; i < 10; i++ {
		out := publisher.Get(i).(*events.Out)
		assert.Equal(t, uint64(i), out.OrderID.Lo, "event %d out of order", i)
	}
}

func TestCrankRespectsBatchSize(t *testing.T) {
	q := newTestQueue(t, 16)
	pushOuts(t, q, 10)

	publisher := events.NewMemoryPublishEvents()
	cranker := NewCrankerWithOptions(q, publisher, CrankerOptions{BatchSize: 4})

	n, err := cranker.Crank()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	assert.Equal(t, uint64(6), q.Count())
	assert.Equal(t, uint64(4), cranker.Drained())
}

func TestCrankEmptyQueueIsNoop(t *testing.T) {
	q := newTestQueue(t, 4)
	publisher := events.NewMemoryPublishEvents()
	cranker := NewCranker(q, publisher)

	n, err := cranker.Crank()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n)
	assert.Equal(t, 0, publisher.Count())
}

func TestCrankCommitsHeader(t *testing.T) {
	header := events.NewHeader(protocol.SlotSize(testCallbackLen))
	buf := make([]byte, uint64(events.HeaderLen)+uint64(header.RegisterSize)+8*header.EventSize)
	require.NoError(t, events.EncodeHeader(buf, header))
	q, err := events.NewQueue(buf, header, testCallbackLen)
	require.NoError(t, err)

	pushOuts(t, q, 3)
	require.NoError(t, q.CommitHeader())

	flushed := 0
	cranker := NewCrankerWithOptions(q, events.NewDiscardPublishEvents(), CrankerOptions{
		Flush: func() error {
			flushed++
			return nil
		},
	})

	n, err := cranker.Crank()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Equal(t, 1, flushed)

	// the persisted header reflects the drained state, so a fresh attach
	// over the same bytes sees an empty queue
	persisted, err := events.DecodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), persisted.Count)
	assert.Equal(t, uint64(3), persisted.Head)

	reopened, err := events.OpenQueue(buf, persisted, testCallbackLen)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), reopened.Count())
}

func TestCrankerStartAndShutdown(t *testing.T) {
	q := newTestQueue(t, 64)
	pushOuts(t, q, 50)

	publisher := events.NewMemoryPublishEvents()
	cranker := NewCrankerWithOptions(q, publisher, CrankerOptions{
		BatchSize:    8,
		IdleInterval: 100 * time.Microsecond,
	})

	done := make(chan error, 1)
	go func() {
		done <- cranker.Start()
	}()

	// wait until the loop has drained everything
	require.Eventually(t, func() bool {
		return cranker.Drained() == 50
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cranker.Shutdown(ctx))
	require.NoError(t, <-done)

	assert.Equal(t, 50, publisher.Count())
	assert.Equal(t, uint64(0), q.Count())
}

func TestCrankerShutdownDrainsRemaining(t *testing.T) {
	q := newTestQueue(t, 32)
	pushOuts(t, q, 20)

	publisher := events.NewMemoryPublishEvents()
	cranker := NewCrankerWithOptions(q, publisher, CrankerOptions{
		BatchSize:    4,
		IdleInterval: time.Hour, // never wake from idle on its own
	})

	done := make(chan error, 1)
	go func() {
		done <- cranker.Start()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, cranker.Shutdown(ctx))
	require.NoError(t, <-done)

	assert.Equal(t, 20, publisher.Count(), "shutdown must drain what is still queued")
}
