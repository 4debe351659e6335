package protocol

import (
	"encoding/binary"
	"fmt"
)

// OrderIDLen is the size of an order id on the wire.
const OrderIDLen = 16

// OrderID is a 128-bit order identifier that encodes price-time priority.
// The upper 64 bits carry the limit price in ticks. The lower 64 bits carry
// a sequence discriminator: the raw sequence number for asks, its bitwise
// complement for bids. With that encoding a plain numeric comparison yields
// priority order on both sides: among asks the smallest id has priority
// (lowest price, then earliest), among bids the largest id has priority
// (highest price, then earliest).
type OrderID struct {
	Hi uint64
	Lo uint64
}

// NewOrderID builds the identifier for an order at limitPrice with the given
// sequence number and side.
func NewOrderID(limitPrice, seqNum uint64, side Side) OrderID {
	lo := seqNum
	if side == SideBid {
		lo = ^seqNum
	}
	return OrderID{Hi: limitPrice, Lo: lo}
}

// Price extracts the limit price in ticks.
func (id OrderID) Price() uint64 {
	return id.Hi
}

// SeqNum recovers the raw sequence number the id was generated from.
// The side must match the side the order was placed on.
func (id OrderID) SeqNum(side Side) uint64 {
	if side == SideBid {
		return ^id.Lo
	}
	return id.Lo
}

// Cmp compares two ids as unsigned 128-bit integers.
// It returns -1 if id < other, 0 if equal, +1 if id > other.
func (id OrderID) Cmp(other OrderID) int {
	switch {
	case id.Hi < other.Hi:
		return -1
	case id.Hi > other.Hi:
		return 1
	case id.Lo < other.Lo:
		return -1
	case id.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether the id is the zero value.
func (id OrderID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

// PutOrderID writes the id into dst as a 128-bit little-endian integer
// (low word first). dst must be at least OrderIDLen bytes.
func PutOrderID(dst []byte, id OrderID) {
	binary.LittleEndian.PutUint64(dst[0:8], id.Lo)
	binary.LittleEndian.PutUint64(dst[8:16], id.Hi)
}

// GetOrderID reads an id previously written by PutOrderID.
// src must be at least OrderIDLen bytes.
func GetOrderID(src []byte) OrderID {
	return OrderID{
		Lo: binary.LittleEndian.Uint64(src[0:8]),
		Hi: binary.LittleEndian.Uint64(src[8:16]),
	}
}

// Bytes returns the wire encoding of the id.
func (id OrderID) Bytes() [OrderIDLen]byte {
	var b [OrderIDLen]byte
	PutOrderID(b[:], id)
	return b
}

// String renders the id as a fixed-width hexadecimal 128-bit value.
func (id OrderID) String() string {
	return fmt.Sprintf("0x%016x%016x", id.Hi, id.Lo)
}
