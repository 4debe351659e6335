package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// OrderSummarySize is the maximum encoded size of an OrderSummary: one byte
// for the posted-id presence tag, sixteen for the id, eight each for the two
// totals. The summary shrinks by the id width when nothing was posted.
const OrderSummarySize = 1 + OrderIDLen + 8 + 8

// ErrCorruptedSummary reports an order-summary record that cannot be decoded.
var ErrCorruptedSummary = errors.New("protocol: corrupted order summary")

// OrderSummary is the outcome a matching engine hands back through the
// register after processing one order: how much traded in both currencies
// and, when a remainder was posted to the book, the id it rests under.
type OrderSummary struct {
	// PostedOrderID is the id of the resting remainder, or nil when the
	// order did not post (fully filled, or an order kind that never rests).
	PostedOrderID *OrderID
	// TotalAssetQty is the traded quantity in the asset currency.
	TotalAssetQty uint64
	// TotalQuoteQty is the traded quantity in the quote currency.
	TotalQuoteQty uint64
}

// MarshalBinary implements encoding.BinaryMarshaler. The layout is a one-byte
// presence tag, the order id when present, then the two totals, all
// little-endian.
func (s OrderSummary) MarshalBinary() ([]byte, error) {
	if s.PostedOrderID != nil {
		b := make([]byte, OrderSummarySize)
		b[0] = 1
		PutOrderID(b[1:17], *s.PostedOrderID)
		binary.LittleEndian.PutUint64(b[17:25], s.TotalAssetQty)
		binary.LittleEndian.PutUint64(b[25:33], s.TotalQuoteQty)
		return b, nil
	}
	b := make([]byte, OrderSummarySize-OrderIDLen)
	b[0] = 0
	binary.LittleEndian.PutUint64(b[1:9], s.TotalAssetQty)
	binary.LittleEndian.PutUint64(b[9:17], s.TotalQuoteQty)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *OrderSummary) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("%w: empty record", ErrCorruptedSummary)
	}
	switch data[0] {
	case 1:
		if len(data) < OrderSummarySize {
			return fmt.Errorf("%w: need %d bytes, have %d", ErrCorruptedSummary, OrderSummarySize, len(data))
		}
		id := GetOrderID(data[1:17])
		s.PostedOrderID = &id
		s.TotalAssetQty = binary.LittleEndian.Uint64(data[17:25])
		s.TotalQuoteQty = binary.LittleEndian.Uint64(data[25:33])
		return nil
	case 0:
		if len(data) < OrderSummarySize-OrderIDLen {
			return fmt.Errorf("%w: need %d bytes, have %d", ErrCorruptedSummary, OrderSummarySize-OrderIDLen, len(data))
		}
		s.PostedOrderID = nil
		s.TotalAssetQty = binary.LittleEndian.Uint64(data[1:9])
		s.TotalQuoteQty = binary.LittleEndian.Uint64(data[9:17])
		return nil
	default:
		return fmt.Errorf("%w: bad presence tag 0x%02x", ErrCorruptedSummary, data[0])
	}
}
