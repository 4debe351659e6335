package events

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Instrument maps a market's human-facing decimal prices and quantities onto
// the integer ticks and lots the queue records. The queue itself never sees
// decimals; conversion happens at the edges, where orders come in and where
// drained events are rendered for downstream consumers.
type Instrument struct {
	MarketID string
	TickSize decimal.Decimal // price increment, e.g. 0.01
	LotSize  decimal.Decimal // quantity increment, e.g. 0.0001
}

// NewInstrument validates the increments. Both must be positive.
func NewInstrument(marketID string, tickSize, lotSize decimal.Decimal) (Instrument, error) {
	if tickSize.Sign() <= 0 {
		return Instrument{}, fmt.Errorf("%w: tick size %s must be positive", ErrInvalidParam, tickSize)
	}
	if lotSize.Sign() <= 0 {
		return Instrument{}, fmt.Errorf("%w: lot size %s must be positive", ErrInvalidParam, lotSize)
	}
	return Instrument{MarketID: marketID, TickSize: tickSize, LotSize: lotSize}, nil
}

// PriceToTicks converts a decimal price to ticks. The price must be an exact
// non-negative multiple of the tick size that fits 64 bits; order ids carry
// the tick count verbatim, so silent rounding here would corrupt priority.
func (i Instrument) PriceToTicks(price decimal.Decimal) (uint64, error) {
	return toUnits(price, i.TickSize, "price", "tick size")
}

// TicksToPrice renders a tick count as a decimal price.
func (i Instrument) TicksToPrice(ticks uint64) decimal.Decimal {
	return fromUnits(ticks, i.TickSize)
}

// QtyToLots converts a decimal quantity to lots.
func (i Instrument) QtyToLots(qty decimal.Decimal) (uint64, error) {
	return toUnits(qty, i.LotSize, "quantity", "lot size")
}

// LotsToQty renders a lot count as a decimal quantity.
func (i Instrument) LotsToQty(lots uint64) decimal.Decimal {
	return fromUnits(lots, i.LotSize)
}

func toUnits(value, unit decimal.Decimal, valueName, unitName string) (uint64, error) {
	q, r := value.QuoRem(unit, 0)
	if !r.IsZero() {
		return 0, fmt.Errorf("%w: %s %s is not a multiple of %s %s", ErrInvalidParam, valueName, value, unitName, unit)
	}
	bi := q.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%w: %s %s does not fit 64 bits at %s %s", ErrInvalidParam, valueName, value, unitName, unit)
	}
	return bi.Uint64(), nil
}

func fromUnits(units uint64, unit decimal.Decimal) decimal.Decimal {
	n := new(big.Int).SetUint64(units)
	return decimal.NewFromBigInt(n, 0).Mul(unit)
}
