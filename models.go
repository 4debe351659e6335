package events

import (
	"github.com/0x5487/orderbook-events/protocol"
)

type Side = protocol.Side

const (
	Bid Side = protocol.SideBid
	Ask Side = protocol.SideAsk
)

type AccountTag = protocol.AccountTag

const (
	AccountUninitialized AccountTag = protocol.AccountUninitialized
	AccountMarket        AccountTag = protocol.AccountMarket
	AccountEventQueue    AccountTag = protocol.AccountEventQueue
	AccountBids          AccountTag = protocol.AccountBids
	AccountAsks          AccountTag = protocol.AccountAsks
)

type SelfTradeBehavior = protocol.SelfTradeBehavior

const (
	DecrementTake    SelfTradeBehavior = protocol.SelfTradeDecrementTake
	CancelProvide    SelfTradeBehavior = protocol.SelfTradeCancelProvide
	AbortTransaction SelfTradeBehavior = protocol.SelfTradeAbortTransaction
)

// Event aliases let hot-path callers stay inside this package.
type (
	Event        = protocol.Event
	EventType    = protocol.EventType
	Fill         = protocol.Fill
	Out          = protocol.Out
	OrderID      = protocol.OrderID
	OrderSummary = protocol.OrderSummary
)

const (
	EventTypeFill EventType = protocol.EventTypeFill
	EventTypeOut  EventType = protocol.EventTypeOut
)
