package protocol

// Side represents the order side (Bid/Ask).
// The numeric values are part of the persisted wire format and must not change.
type Side uint8

const (
	SideBid Side = 0
	SideAsk Side = 1
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the two wire values.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// SelfTradeBehavior describes what a matching engine should do when an order
// would cross with another order of the same owner. It is carried through the
// event stream as opaque vocabulary; this module never interprets it.
type SelfTradeBehavior uint8

const (
	// SelfTradeDecrementTake removes matching size from both orders.
	SelfTradeDecrementTake SelfTradeBehavior = 0
	// SelfTradeCancelProvide cancels the resting (providing) order.
	SelfTradeCancelProvide SelfTradeBehavior = 1
	// SelfTradeAbortTransaction rejects the incoming order outright.
	SelfTradeAbortTransaction SelfTradeBehavior = 2
)

func (b SelfTradeBehavior) String() string {
	switch b {
	case SelfTradeDecrementTake:
		return "decrement_take"
	case SelfTradeCancelProvide:
		return "cancel_provide"
	case SelfTradeAbortTransaction:
		return "abort_transaction"
	default:
		return "unknown"
	}
}

// AccountTag identifies the role of a backing storage region. It is the first
// byte of every persisted account and is checked on attach so a reader cannot
// interpret an asks index as an event queue.
type AccountTag uint8

const (
	AccountUninitialized AccountTag = 0
	AccountMarket        AccountTag = 1
	AccountEventQueue    AccountTag = 2
	AccountBids          AccountTag = 3
	AccountAsks          AccountTag = 4
)

func (t AccountTag) String() string {
	switch t {
	case AccountUninitialized:
		return "uninitialized"
	case AccountMarket:
		return "market"
	case AccountEventQueue:
		return "event_queue"
	case AccountBids:
		return "bids"
	case AccountAsks:
		return "asks"
	default:
		return "unknown"
	}
}
