package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderIDPriceTimePriority(t *testing.T) {
	t.Run("asks: lowest price wins, then earliest", func(t *testing.T) {
		early := NewOrderID(100, 1, SideAsk)
		late := NewOrderID(100, 2, SideAsk)
		cheaper := NewOrderID(99, 50, SideAsk)

		// smaller id = higher priority on the ask side
		assert.Equal(t, -1, early.Cmp(late))
		assert.Equal(t, -1, cheaper.Cmp(early))
	})

	t.Run("bids: highest price wins, then earliest", func(t *testing.T) {
		early := NewOrderID(100, 1, SideBid)
		late := NewOrderID(100, 2, SideBid)
		higher := NewOrderID(101, 50, SideBid)

		// larger id = higher priority on the bid side
		assert.Equal(t, 1, early.Cmp(late))
		assert.Equal(t, 1, higher.Cmp(early))
	})

	t.Run("price always dominates the sequence number", func(t *testing.T) {
		// an ask placed much later at a lower price still ranks ahead
		lateCheap := NewOrderID(10, 1<<40, SideAsk)
		earlyRich := NewOrderID(11, 0, SideAsk)
		assert.Equal(t, -1, lateCheap.Cmp(earlyRich))
	})
}

func TestOrderIDFields(t *testing.T) {
	bid := NewOrderID(1234, 77, SideBid)
	ask := NewOrderID(1234, 77, SideAsk)

	assert.Equal(t, uint64(1234), bid.Price())
	assert.Equal(t, uint64(1234), ask.Price())
	assert.Equal(t, uint64(77), bid.SeqNum(SideBid))
	assert.Equal(t, uint64(77), ask.SeqNum(SideAsk))

	// the two sides land on different ids for the same price and sequence
	assert.NotEqual(t, 0, bid.Cmp(ask))
	assert.False(t, bid.IsZero())
	assert.True(t, OrderID{}.IsZero())
}

func TestOrderIDWire(t *testing.T) {
	id := OrderID{Hi: 0x1122334455667788, Lo: 0x99AABBCCDDEEFF00}

	var buf [OrderIDLen]byte
	PutOrderID(buf[:], id)

	// 128-bit little-endian: low word first, each word little-endian
	want := [OrderIDLen]byte{
		0x00, 0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA, 0x99,
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
	}
	assert.Equal(t, want, buf)
	assert.Equal(t, id, GetOrderID(buf[:]))
	assert.Equal(t, buf, id.Bytes())

	assert.Equal(t, "0x112233445566778899aabbccddeeff00", id.String())
}
