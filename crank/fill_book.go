package crank

import (
	"sync"

	"github.com/huandu/skiplist"

	events "github.com/0x5487/orderbook-events"
)

// FillTotal aggregates every fill delivered against one resting order.
type FillTotal struct {
	OrderID      events.OrderID
	Side         events.Side // the maker's side
	AssetQty     uint64
	QuoteQty     uint64
	Fills        int64
	CallbackInfo []byte // the maker's callback window
}

// FillBook folds a stream of drained events into per-maker totals, keeping
// each side in priority order so settlement can credit makers best-first.
// Out events carry no traded quantity and are ignored.
//
// It implements PublishEvents, so it can sit directly behind a Cranker.
type FillBook struct {
	mu   sync.RWMutex
	bids *skiplist.SkipList
	asks *skiplist.SkipList
}

// NewFillBook creates an empty fill book. Bids iterate highest-priority
// (largest id) first, asks lowest id first, matching the priority encoding
// of the order ids themselves.
func NewFillBook() *FillBook {
	return &FillBook{
		bids: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			a, _ := lhs.(events.OrderID)
			b, _ := rhs.(events.OrderID)

			return b.Cmp(a)
		})),
		asks: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			a, _ := lhs.(events.OrderID)
			b, _ := rhs.(events.OrderID)

			return a.Cmp(b)
		})),
	}
}

// Publish folds events into the book. Implements PublishEvents.
func (b *FillBook) Publish(evs ...events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range evs {
		if fill, ok := ev.(*events.Fill); ok {
			b.add(fill)
		}
	}
}

func (b *FillBook) add(f *events.Fill) {
	makerSide := f.TakerSide.Opposite()
	list := b.list(makerSide)

	if el := list.Get(f.MakerOrderID); el != nil {
		total := el.Value.(*FillTotal)
		total.AssetQty += f.AssetSize
		total.QuoteQty += f.QuoteSize
		total.Fills++
		return
	}

	list.Set(f.MakerOrderID, &FillTotal{
		OrderID:      f.MakerOrderID,
		Side:         makerSide,
		AssetQty:     f.AssetSize,
		QuoteQty:     f.QuoteSize,
		Fills:        1,
		CallbackInfo: f.MakerCallbackInfo,
	})
}

// Totals returns one side's aggregated fills in priority order.
func (b *FillBook) Totals(side events.Side) []*FillTotal {
	b.mu.RLock()
	defer b.mu.RUnlock()

	list := b.list(side)
	totals := make([]*FillTotal, 0, list.Len())
	for el := list.Front(); el != nil; el = el.Next() {
		totals = append(totals, el.Value.(*FillTotal))
	}
	return totals
}

// Len returns the number of distinct maker orders on one side.
func (b *FillBook) Len(side events.Side) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.list(side).Len()
}

// Reset empties both sides.
func (b *FillBook) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids.Init()
	b.asks.Init()
}

func (b *FillBook) list(side events.Side) *skiplist.SkipList {
	if side == events.Bid {
		return b.bids
	}
	return b.asks
}
