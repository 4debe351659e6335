package events

import (
	"errors"

	"github.com/0x5487/orderbook-events/protocol"
)

var (
	// ErrEventQueueEmpty is returned by PopFront on an empty queue. It is the
	// normal idle signal for consumers, not a failure.
	ErrEventQueueEmpty = errors.New("the event queue is empty")

	// ErrEventQueueFull is returned by PushBack when every slot is occupied.
	// The caller keeps its event and must apply backpressure upstream.
	ErrEventQueueFull = errors.New("the event queue is full")

	// ErrRegisterUninitialized is returned when reading a value from a
	// register that holds none. It signals a broken calling contract, not
	// corrupted storage.
	ErrRegisterUninitialized = errors.New("the register holds no value")

	// ErrRegisterOverflow is returned when a record does not fit the
	// register window reserved at queue creation.
	ErrRegisterOverflow = errors.New("the record does not fit the register window")

	ErrCorruptedHeader   = errors.New("the event queue header is corrupted")
	ErrCorruptedRegister = errors.New("the register is corrupted")
	ErrCorruptedMarket   = errors.New("the market state is corrupted")

	// ErrBufferTooSmall is returned when a backing buffer cannot hold the
	// header, the register window and at least zero event slots.
	ErrBufferTooSmall = errors.New("the backing buffer is too small for the queue layout")

	ErrInvalidParam = errors.New("the param is invalid")
)

// Codec errors re-exported so callers can check them without importing
// protocol directly.
var (
	ErrCorruptedEvent  = protocol.ErrCorruptedEvent
	ErrCallbackInfoLen = protocol.ErrCallbackInfoLen
)
