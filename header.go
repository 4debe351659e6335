package events

import (
	"encoding/binary"
	"fmt"

	"github.com/0x5487/orderbook-events/protocol"
)

const (
	// HeaderLen is the size of the persisted queue header:
	// tag, head, count, event size, sequence number, register size.
	HeaderLen = 1 + 8 + 8 + 8 + 8 + 4

	// DefaultRegisterSize is the register window reserved by NewHeader: one
	// presence tag byte plus the largest record the window carries, an
	// OrderSummary.
	DefaultRegisterSize = protocol.OrderSummarySize + 1
)

// Header is the in-memory copy of the bookkeeping block at the front of a
// queue's backing buffer. All integer fields are persisted little-endian with
// no padding, so the layout is identical on every platform.
type Header struct {
	// Tag marks the buffer as an event queue. Any other value on attach
	// means the caller handed over the wrong account.
	Tag AccountTag

	// Head is the slot index of the oldest undelivered event.
	Head uint64

	// Count is the number of events currently stored.
	Count uint64

	// EventSize is the fixed slot width in bytes. It is a pure function of
	// the market's callback-info length but persisted anyway, so a reader
	// can walk the buffer without out-of-band knowledge.
	EventSize uint64

	// SeqNum counts every order id handed out and every event pushed.
	SeqNum uint64

	// RegisterSize is the width of the register window between the header
	// and the first slot.
	RegisterSize uint32
}

// NewHeader returns the header of a fresh queue with the given slot width:
// empty, sequence at zero, register window at the default width.
func NewHeader(eventSize uint64) Header {
	return Header{
		Tag:          AccountEventQueue,
		EventSize:    eventSize,
		RegisterSize: DefaultRegisterSize,
	}
}

// DecodeHeader reads a header from the front of buf. A tag other than the
// event-queue tag means buf is not an event queue and decoding fails.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, fmt.Errorf("%w: need %d bytes for the header, have %d", ErrBufferTooSmall, HeaderLen, len(buf))
	}
	h := Header{
		Tag:          AccountTag(buf[0]),
		Head:         binary.LittleEndian.Uint64(buf[1:9]),
		Count:        binary.LittleEndian.Uint64(buf[9:17]),
		EventSize:    binary.LittleEndian.Uint64(buf[17:25]),
		SeqNum:       binary.LittleEndian.Uint64(buf[25:33]),
		RegisterSize: binary.LittleEndian.Uint32(buf[33:37]),
	}
	if h.Tag != AccountEventQueue {
		return Header{}, fmt.Errorf("%w: tag is %s, want %s", ErrCorruptedHeader, h.Tag, AccountEventQueue)
	}
	return h, nil
}

// EncodeHeader writes h to the front of buf.
func EncodeHeader(buf []byte, h Header) error {
	if len(buf) < HeaderLen {
		return fmt.Errorf("%w: need %d bytes for the header, have %d", ErrBufferTooSmall, HeaderLen, len(buf))
	}
	buf[0] = byte(h.Tag)
	binary.LittleEndian.PutUint64(buf[1:9], h.Head)
	binary.LittleEndian.PutUint64(buf[9:17], h.Count)
	binary.LittleEndian.PutUint64(buf[17:25], h.EventSize)
	binary.LittleEndian.PutUint64(buf[25:33], h.SeqNum)
	binary.LittleEndian.PutUint32(buf[33:37], h.RegisterSize)
	return nil
}
