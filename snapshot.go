package events

import (
	"fmt"

	"github.com/0x5487/orderbook-events/protocol"
)

// QueueSnapshot is a read-only export of a queue's live window, decoded in
// delivery order. It exists for operators and tests; taking one never moves
// the queue. Serialize it with a protocol.Serializer.
type QueueSnapshot struct {
	SchemaVersion int           `json:"schema_version"`
	MarketID      string        `json:"market_id,omitempty"` // filled by callers that know it
	SeqNum        uint64        `json:"seq_num"`
	Count         uint64        `json:"count"`
	Capacity      uint64        `json:"capacity"`
	Events        []EventRecord `json:"events"`
}

// EventRecord is the JSON-friendly rendering of one queued event. Fill-only
// fields are omitted for outs and vice versa.
type EventRecord struct {
	Type              string `json:"type"`
	Side              string `json:"side"` // taker side for fills, order side for outs
	OrderID           string `json:"order_id"`
	QuoteSize         uint64 `json:"quote_size,omitempty"`
	AssetSize         uint64 `json:"asset_size"`
	MakerCallbackInfo []byte `json:"maker_callback_info,omitempty"`
	TakerCallbackInfo []byte `json:"taker_callback_info,omitempty"`
	CallbackInfo      []byte `json:"callback_info,omitempty"`
}

// NewEventRecord flattens a decoded event for serialization.
func NewEventRecord(ev Event) EventRecord {
	switch e := ev.(type) {
	case *Fill:
		return EventRecord{
			Type:              e.Type().String(),
			Side:              e.TakerSide.String(),
			OrderID:           e.MakerOrderID.String(),
			QuoteSize:         e.QuoteSize,
			AssetSize:         e.AssetSize,
			MakerCallbackInfo: e.MakerCallbackInfo,
			TakerCallbackInfo: e.TakerCallbackInfo,
		}
	case *Out:
		return EventRecord{
			Type:         e.Type().String(),
			Side:         e.Side.String(),
			OrderID:      e.OrderID.String(),
			AssetSize:    e.AssetSize,
			CallbackInfo: e.CallbackInfo,
		}
	default:
		return EventRecord{Type: "unknown"}
	}
}

// Snapshot decodes every queued event without consuming any of them.
func (q *Queue) Snapshot() (*QueueSnapshot, error) {
	snap := &QueueSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		SeqNum:        q.header.SeqNum,
		Count:         q.header.Count,
		Capacity:      q.capacity,
		Events:        make([]EventRecord, 0, q.header.Count),
	}
	for i := uint64(0); i < q.header.Count; i++ {
		slot := (q.header.Head + i) % q.capacity
		ev, err := protocol.DecodeEvent(q.slotWindow(slot), q.callbackInfoLen)
		if err != nil {
			return nil, fmt.Errorf("snapshot slot %d: %w", slot, err)
		}
		snap.Events = append(snap.Events, NewEventRecord(ev))
	}
	return snap, nil
}
