package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// EventType is the one-byte discriminant that opens every event record.
type EventType uint8

const (
	EventTypeFill EventType = 0x00
	EventTypeOut  EventType = 0x01
)

func (t EventType) String() string {
	switch t {
	case EventTypeFill:
		return "fill"
	case EventTypeOut:
		return "out"
	default:
		return "unknown"
	}
}

var (
	// ErrCorruptedEvent reports an event record that cannot be decoded.
	// Hitting it means the backing storage no longer holds what this module
	// wrote; there is no recovery path.
	ErrCorruptedEvent = errors.New("protocol: corrupted event record")

	// ErrCallbackInfoLen reports a callback-info slice whose length differs
	// from the fixed per-market length every record must carry.
	ErrCallbackInfoLen = errors.New("protocol: callback info length mismatch")

	// ErrShortBuffer reports a destination or source window smaller than the
	// record layout requires.
	ErrShortBuffer = errors.New("protocol: buffer too short for event record")
)

// Event is a single entry of the event stream. Concrete types are *Fill and
// *Out; the discriminant returned by Type matches the first byte of the wire
// encoding.
type Event interface {
	Type() EventType
}

// Fill records a match between an incoming taker order and a resting maker
// order. Both parties' callback windows ride along so downstream consumers
// can credit the right owners without consulting the book.
type Fill struct {
	TakerSide         Side
	MakerOrderID      OrderID
	QuoteSize         uint64
	AssetSize         uint64
	MakerCallbackInfo []byte
	TakerCallbackInfo []byte
}

// Type implements Event.
func (f *Fill) Type() EventType { return EventTypeFill }

// Out records the removal of a resting order from the book, whether from a
// cancel or from being fully consumed. AssetSize is the unfilled remainder
// being released.
type Out struct {
	Side         Side
	OrderID      OrderID
	AssetSize    uint64
	CallbackInfo []byte
}

// Type implements Event.
func (o *Out) Type() EventType { return EventTypeOut }

// Fixed portions of the two record layouts, excluding callback windows.
const (
	fillFixedLen = 1 + 1 + OrderIDLen + 8 + 8
	outFixedLen  = 1 + 1 + OrderIDLen + 8
)

// FillLen returns the encoded size of a fill record for a market whose
// callback info is callbackInfoLen bytes per order.
func FillLen(callbackInfoLen uint32) uint64 {
	return fillFixedLen + 2*uint64(callbackInfoLen)
}

// OutLen returns the encoded size of an out record.
func OutLen(callbackInfoLen uint32) uint64 {
	return outFixedLen + uint64(callbackInfoLen)
}

// SlotSize returns the event slot size for a market: the size of the larger
// record (a fill), so every slot can hold either kind.
func SlotSize(callbackInfoLen uint32) uint64 {
	return FillLen(callbackInfoLen)
}

// EncodeEvent serializes ev into dst using the market's fixed callback-info
// length. dst is expected to be one slot window; any bytes past the record
// are zeroed so a slot's content is a pure function of the event. All integer
// fields are little-endian.
func EncodeEvent(dst []byte, ev Event, callbackInfoLen uint32) error {
	switch e := ev.(type) {
	case *Fill:
		need := FillLen(callbackInfoLen)
		if uint64(len(dst)) < need {
			return fmt.Errorf("%w: need %d, have %d", ErrShortBuffer, need, len(dst))
		}
		if uint64(len(e.MakerCallbackInfo)) != uint64(callbackInfoLen) ||
			uint64(len(e.TakerCallbackInfo)) != uint64(callbackInfoLen) {
			return fmt.Errorf("%w: want %d, maker %d, taker %d",
				ErrCallbackInfoLen, callbackInfoLen, len(e.MakerCallbackInfo), len(e.TakerCallbackInfo))
		}
		dst[0] = byte(EventTypeFill)
		dst[1] = byte(e.TakerSide)
		PutOrderID(dst[2:18], e.MakerOrderID)
		binary.LittleEndian.PutUint64(dst[18:26], e.QuoteSize)
		binary.LittleEndian.PutUint64(dst[26:34], e.AssetSize)
		l := int(callbackInfoLen)
		copy(dst[34:34+l], e.MakerCallbackInfo)
		copy(dst[34+l:34+2*l], e.TakerCallbackInfo)
		clear(dst[need:])
		return nil

	case *Out:
		need := OutLen(callbackInfoLen)
		if uint64(len(dst)) < need {
			return fmt.Errorf("%w: need %d, have %d", ErrShortBuffer, need, len(dst))
		}
		if uint64(len(e.CallbackInfo)) != uint64(callbackInfoLen) {
			return fmt.Errorf("%w: want %d, have %d",
				ErrCallbackInfoLen, callbackInfoLen, len(e.CallbackInfo))
		}
		dst[0] = byte(EventTypeOut)
		dst[1] = byte(e.Side)
		PutOrderID(dst[2:18], e.OrderID)
		binary.LittleEndian.PutUint64(dst[18:26], e.AssetSize)
		copy(dst[26:26+int(callbackInfoLen)], e.CallbackInfo)
		clear(dst[need:])
		return nil

	default:
		return fmt.Errorf("%w: unknown event %T", ErrCorruptedEvent, ev)
	}
}

// DecodeEvent deserializes one event record from src. The returned event owns
// copies of its callback windows, so it stays valid after the slot is reused.
// An unknown discriminant or short window yields an error wrapping
// ErrCorruptedEvent or ErrShortBuffer; decode never panics on bad input.
func DecodeEvent(src []byte, callbackInfoLen uint32) (Event, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrShortBuffer)
	}
	switch EventType(src[0]) {
	case EventTypeFill:
		need := FillLen(callbackInfoLen)
		if uint64(len(src)) < need {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrShortBuffer, need, len(src))
		}
		l := int(callbackInfoLen)
		return &Fill{
			TakerSide:         Side(src[1]),
			MakerOrderID:      GetOrderID(src[2:18]),
			QuoteSize:         binary.LittleEndian.Uint64(src[18:26]),
			AssetSize:         binary.LittleEndian.Uint64(src[26:34]),
			MakerCallbackInfo: bytes.Clone(src[34 : 34+l]),
			TakerCallbackInfo: bytes.Clone(src[34+l : 34+2*l]),
		}, nil

	case EventTypeOut:
		need := OutLen(callbackInfoLen)
		if uint64(len(src)) < need {
			return nil, fmt.Errorf("%w: need %d, have %d", ErrShortBuffer, need, len(src))
		}
		return &Out{
			Side:         Side(src[1]),
			OrderID:      GetOrderID(src[2:18]),
			AssetSize:    binary.LittleEndian.Uint64(src[18:26]),
			CallbackInfo: bytes.Clone(src[26 : 26+int(callbackInfoLen)]),
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown discriminant 0x%02x", ErrCorruptedEvent, src[0])
	}
}

