package events

import (
	"testing"

	"github.com/0x5487/orderbook-events/protocol"
)

func newBenchQueue(b *testing.B, capacity uint64) *Queue {
	b.Helper()

	header := NewHeader(protocol.SlotSize(testCallbackLen))
	buf := make([]byte, uint64(HeaderLen)+uint64(header.RegisterSize)+capacity*header.EventSize)
	if err := EncodeHeader(buf, header); err != nil {
		b.Fatal(err)
	}
	q, err := NewQueue(buf, header, testCallbackLen)
	if err != nil {
		b.Fatal(err)
	}
	return q
}

func BenchmarkPushPop(b *testing.B) {
	q := newBenchQueue(b, 1024)
	ev := &Out{
		Side:         Ask,
		OrderID:      OrderID{Hi: 100, Lo: 1},
		AssetSize:    5,
		CallbackInfo: []byte{1, 2, 3, 4},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := q.PushBack(ev); err != nil {
			b.Fatal(err)
		}
		if _, err := q.PopFront(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPushPopN(b *testing.B) {
	const batch = 64
	q := newBenchQueue(b, 1024)
	ev := &Out{
		Side:         Ask,
		OrderID:      OrderID{Hi: 100, Lo: 1},
		AssetSize:    5,
		CallbackInfo: []byte{1, 2, 3, 4},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < batch; j++ {
			if err := q.PushBack(ev); err != nil {
				b.Fatal(err)
			}
		}
		q.PopN(batch)
	}
}

func BenchmarkGenOrderID(b *testing.B) {
	q := newBenchQueue(b, 8)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.GenOrderID(uint64(i), Bid)
	}
}
