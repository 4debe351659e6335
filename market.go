package events

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/xid"
)

// MarketStateLen is the persisted size of a MarketState record.
const MarketStateLen = 1 + 3*12 + 8

// MarketState is the root record of a market: the keys of its event queue
// and of the two ordered index accounts, plus the market's fixed
// callback-info width. The index accounts belong to an external collaborator;
// this module only records which accounts they are.
type MarketState struct {
	Tag             AccountTag
	EventQueue      xid.ID
	Bids            xid.ID
	Asks            xid.ID
	CallbackInfoLen uint64
}

// NewMarketState builds the record for a fresh market.
func NewMarketState(eventQueue, bids, asks xid.ID, callbackInfoLen uint64) MarketState {
	return MarketState{
		Tag:             AccountMarket,
		EventQueue:      eventQueue,
		Bids:            bids,
		Asks:            asks,
		CallbackInfoLen: callbackInfoLen,
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m MarketState) MarshalBinary() ([]byte, error) {
	b := make([]byte, MarketStateLen)
	b[0] = byte(m.Tag)
	copy(b[1:13], m.EventQueue.Bytes())
	copy(b[13:25], m.Bids.Bytes())
	copy(b[25:37], m.Asks.Bytes())
	binary.LittleEndian.PutUint64(b[37:45], m.CallbackInfoLen)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. A tag other than the
// market tag means the caller handed over the wrong account.
func (m *MarketState) UnmarshalBinary(data []byte) error {
	if len(data) < MarketStateLen {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrCorruptedMarket, MarketStateLen, len(data))
	}
	if AccountTag(data[0]) != AccountMarket {
		return fmt.Errorf("%w: tag is %s, want %s", ErrCorruptedMarket, AccountTag(data[0]), AccountMarket)
	}
	eq, err := xid.FromBytes(data[1:13])
	if err != nil {
		return fmt.Errorf("%w: event queue key: %v", ErrCorruptedMarket, err)
	}
	bids, err := xid.FromBytes(data[13:25])
	if err != nil {
		return fmt.Errorf("%w: bids key: %v", ErrCorruptedMarket, err)
	}
	asks, err := xid.FromBytes(data[25:37])
	if err != nil {
		return fmt.Errorf("%w: asks key: %v", ErrCorruptedMarket, err)
	}
	m.Tag = AccountMarket
	m.EventQueue = eq
	m.Bids = bids
	m.Asks = asks
	m.CallbackInfoLen = binary.LittleEndian.Uint64(data[37:45])
	return nil
}
