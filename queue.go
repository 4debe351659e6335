package events

import (
	"encoding"
	"fmt"

	"github.com/0x5487/orderbook-events/protocol"
)

// Queue is an event queue laid over a borrowed byte buffer. The buffer is
// owned by the hosting environment; the queue never allocates, grows or frees
// it. Layout, front to back: the header (HeaderLen bytes), the register
// window (Header.RegisterSize bytes), then a circular region of fixed-width
// event slots. Whatever does not fit a whole slot at the tail is dead space.
//
// All bookkeeping happens on a detached header copy. Callers that need the
// counters persisted call CommitHeader once their batch of operations is
// done, so a half-applied sequence is never visible in storage.
//
// A Queue is not safe for concurrent use. Confine it to one goroutine at a
// time, the same way an order book owns its books.
type Queue struct {
	buf             []byte
	header          Header
	callbackInfoLen uint32
	capacity        uint64
}

// NewQueue attaches to buf for writing and clears the register, so a stale
// summary from a previous crash cannot be mistaken for the outcome of an
// operation that has not happened yet. The header is the caller's decoded
// copy; callbackInfoLen is the market's fixed per-order callback width.
func NewQueue(buf []byte, header Header, callbackInfoLen uint32) (*Queue, error) {
	q, err := attach(buf, header, callbackInfoLen)
	if err != nil {
		return nil, err
	}
	q.ClearRegister()
	return q, nil
}

// OpenQueue attaches to buf without touching the register. Reader-side
// callers use it so draining events cannot destroy a summary the writer has
// not picked up yet.
func OpenQueue(buf []byte, header Header, callbackInfoLen uint32) (*Queue, error) {
	return attach(buf, header, callbackInfoLen)
}

func attach(buf []byte, header Header, callbackInfoLen uint32) (*Queue, error) {
	if header.Tag != AccountEventQueue {
		return nil, fmt.Errorf("%w: tag is %s, want %s", ErrCorruptedHeader, header.Tag, AccountEventQueue)
	}
	if header.RegisterSize < 1 {
		return nil, fmt.Errorf("%w: register window has no tag byte", ErrCorruptedHeader)
	}
	if want := protocol.SlotSize(callbackInfoLen); header.EventSize != want {
		return nil, fmt.Errorf("%w: event size %d does not match slot size %d for callback info length %d",
			ErrInvalidParam, header.EventSize, want, callbackInfoLen)
	}
	minLen := uint64(HeaderLen) + uint64(header.RegisterSize)
	if uint64(len(buf)) < minLen+header.EventSize {
		return nil, fmt.Errorf("%w: %d bytes cannot hold the header, the register and one slot", ErrBufferTooSmall, len(buf))
	}
	capacity := (uint64(len(buf)) - minLen) / header.EventSize
	if header.Count > capacity {
		return nil, fmt.Errorf("%w: count %d exceeds capacity %d", ErrCorruptedHeader, header.Count, capacity)
	}
	if header.Head >= capacity {
		return nil, fmt.Errorf("%w: head %d is outside capacity %d", ErrCorruptedHeader, header.Head, capacity)
	}
	return &Queue{
		buf:             buf,
		header:          header,
		callbackInfoLen: callbackInfoLen,
		capacity:        capacity,
	}, nil
}

// Header returns a copy of the in-memory header. The copy reflects every
// operation since attach, whether or not it has been committed.
func (q *Queue) Header() Header {
	return q.header
}

// Capacity is the number of event slots the buffer holds.
func (q *Queue) Capacity() uint64 {
	return q.capacity
}

// Count is the number of events currently queued.
func (q *Queue) Count() uint64 {
	return q.header.Count
}

// SeqNum is the next sequence number to be handed out.
func (q *Queue) SeqNum() uint64 {
	return q.header.SeqNum
}

// CallbackInfoLen is the market's fixed per-order callback width.
func (q *Queue) CallbackInfoLen() uint32 {
	return q.callbackInfoLen
}

// Full reports whether every slot is occupied.
func (q *Queue) Full() bool {
	return q.header.Count == q.capacity
}

// GenOrderID mints the identifier for a new order resting at limitPrice.
// It consumes one sequence number, so ids issued by one queue never repeat
// and later orders always sort after earlier ones at the same price.
func (q *Queue) GenOrderID(limitPrice uint64, side Side) OrderID {
	seq := q.header.SeqNum
	q.header.SeqNum++
	return protocol.NewOrderID(limitPrice, seq, side)
}

// PushBack appends ev to the tail of the queue. A full queue returns
// ErrEventQueueFull and leaves everything untouched; the caller keeps its
// event and must hold off until a consumer frees slots. A successful push
// consumes one sequence number.
func (q *Queue) PushBack(ev Event) error {
	if q.Full() {
		return ErrEventQueueFull
	}
	slot := (q.header.Head + q.header.Count) % q.capacity
	if err := protocol.EncodeEvent(q.slotWindow(slot), ev, q.callbackInfoLen); err != nil {
		return err
	}
	q.header.Count++
	q.header.SeqNum++
	return nil
}

// PeekFront decodes the oldest event without consuming it. An empty queue
// returns (nil, nil); only a corrupted record returns an error.
func (q *Queue) PeekFront() (Event, error) {
	if q.header.Count == 0 {
		return nil, nil
	}
	return protocol.DecodeEvent(q.slotWindow(q.header.Head), q.callbackInfoLen)
}

// PopFront decodes and consumes the oldest event. An empty queue returns
// ErrEventQueueEmpty, the consumer's normal idle signal. On a corrupted
// record the queue does not advance, so the evidence stays in place.
func (q *Queue) PopFront() (Event, error) {
	if q.header.Count == 0 {
		return nil, ErrEventQueueEmpty
	}
	ev, err := protocol.DecodeEvent(q.slotWindow(q.header.Head), q.callbackInfoLen)
	if err != nil {
		return nil, err
	}
	q.header.Count--
	q.header.Head = (q.header.Head + 1) % q.capacity
	return ev, nil
}

// PopN consumes up to n events without decoding them. Asking for more than
// are queued consumes what is there; popping an empty queue is a no-op.
// Consumers use it to acknowledge a batch they already read via PeekFront
// or Snapshot.
func (q *Queue) PopN(n uint64) {
	popped := min(n, q.header.Count)
	q.header.Head = (q.header.Head + popped) % q.capacity
	q.header.Count -= popped
}

// WriteRegister serializes rec into the register window, replacing whatever
// was there. The record must fit the window minus its one-byte tag.
func (q *Queue) WriteRegister(rec encoding.BinaryMarshaler) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	win := q.registerWindow()
	if len(data) > len(win)-1 {
		return fmt.Errorf("%w: record is %d bytes, window holds %d", ErrRegisterOverflow, len(data), len(win)-1)
	}
	win[0] = registerInitialized
	n := copy(win[1:], data)
	clear(win[1+n:])
	return nil
}

// ClearRegister marks the register window empty.
func (q *Queue) ClearRegister() {
	q.registerWindow()[0] = registerUninitialized
}

// CommitHeader writes the in-memory header back to the front of the buffer.
// Call it at the end of an operation sequence; until then the persisted
// header still describes the state before the sequence started.
func (q *Queue) CommitHeader() error {
	return EncodeHeader(q.buf, q.header)
}

func (q *Queue) registerWindow() []byte {
	return q.buf[HeaderLen : HeaderLen+int(q.header.RegisterSize)]
}

func (q *Queue) slotWindow(slot uint64) []byte {
	off := uint64(HeaderLen) + uint64(q.header.RegisterSize) + slot*q.header.EventSize
	return q.buf[off : off+q.header.EventSize]
}
