package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	events "github.com/0x5487/orderbook-events"
	"github.com/0x5487/orderbook-events/protocol"
)

func testParams() MarketParams {
	return MarketParams{
		CallbackInfoLen: 8,
		EventCapacity:   16,
		BidsSize:        1024,
		AsksSize:        1024,
	}
}

func TestCreateMarket(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	market, err := CreateMarket(s, testParams())
	require.NoError(t, err)
	defer market.Close()

	state := market.State()
	assert.Equal(t, events.AccountMarket, state.Tag)
	assert.Equal(t, uint64(8), state.CallbackInfoLen)

	q, err := market.AttachQueue()
	require.NoError(t, err)
	assert.Equal(t, uint64(16), q.Capacity())
	assert.Equal(t, uint64(0), q.Count())

	// the index accounts exist and carry their tags
	bids, err := s.Get(state.Bids)
	require.NoError(t, err)
	assert.Equal(t, byte(events.AccountBids), bids.Data()[0])
	require.NoError(t, bids.Close())

	asks, err := s.Get(state.Asks)
	require.NoError(t, err)
	assert.Equal(t, byte(events.AccountAsks), asks.Data()[0])
	require.NoError(t, asks.Close())
}

func TestCreateMarketValidation(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	params := testParams()
	params.EventCapacity = 0
	_, err = CreateMarket(s, params)
	assert.ErrorIs(t, err, events.ErrInvalidParam)

	params = testParams()
	params.BidsSize = 0
	_, err = CreateMarket(s, params)
	assert.ErrorIs(t, err, events.ErrInvalidParam)
}

func TestMarketQueueSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	market, err := CreateMarket(s, testParams())
	require.NoError(t, err)
	key := market.Key()

	q, err := market.AttachQueue()
	require.NoError(t, err)

	out := &events.Out{
		Side:         events.Ask,
		OrderID:      q.GenOrderID(100, events.Ask),
		AssetSize:    5,
		CallbackInfo: []byte("owner123"),
	}
	require.NoError(t, q.PushBack(out))
	require.NoError(t, q.CommitHeader())
	require.NoError(t, market.Flush())
	require.NoError(t, market.Close())

	// a reader attached after reopen sees the committed event
	reopened, err := OpenMarket(s, key)
	require.NoError(t, err)
	defer reopened.Close()

	reader, err := reopened.OpenQueue()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reader.Count())

	ev, err := reader.PopFront()
	require.NoError(t, err)
	assert.Equal(t, out, ev)
}

func TestMarketRegisterAcrossAttaches(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	market, err := CreateMarket(s, testParams())
	require.NoError(t, err)
	defer market.Close()

	writer, err := market.AttachQueue()
	require.NoError(t, err)

	posted := writer.GenOrderID(100, events.Bid)
	require.NoError(t, writer.WriteRegister(protocol.OrderSummary{
		PostedOrderID: &posted,
		TotalAssetQty: 2,
		TotalQuoteQty: 200,
	}))

	// a reader attach must see the summary untouched
	reader, err := market.OpenQueue()
	require.NoError(t, err)
	reg, err := events.ReadRegister[protocol.OrderSummary](reader)
	require.NoError(t, err)
	require.True(t, reg.Initialized())
	summary := reg.Must()
	require.NotNil(t, summary.PostedOrderID)
	assert.Equal(t, posted, *summary.PostedOrderID)

	// a writer attach clears it for the next operation
	writer2, err := market.AttachQueue()
	require.NoError(t, err)
	reg, err = events.ReadRegister[protocol.OrderSummary](writer2)
	require.NoError(t, err)
	assert.False(t, reg.Initialized())
}

func TestOpenMarketMissingKey(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)

	market, err := CreateMarket(s, testParams())
	require.NoError(t, err)

	queueKey := market.State().EventQueue
	require.NoError(t, market.Close())

	// a non-market account key decodes as the wrong tag
	_, err = OpenMarket(s, queueKey)
	assert.ErrorIs(t, err, events.ErrCorruptedMarket)
}
