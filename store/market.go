package store

import (
	"fmt"

	"github.com/rs/xid"

	events "github.com/0x5487/orderbook-events"
	"github.com/0x5487/orderbook-events/protocol"
)

// MarketParams sizes the accounts CreateMarket allocates.
type MarketParams struct {
	// CallbackInfoLen is the fixed per-order callback width. It decides the
	// event slot size and is frozen into the market state.
	CallbackInfoLen uint32

	// EventCapacity is the number of event slots the queue account holds.
	EventCapacity uint64

	// BidsSize and AsksSize are the byte sizes of the two ordered index
	// accounts. Their internal format belongs to the matching collaborator;
	// this package only allocates them and stamps their tags.
	BidsSize int64
	AsksSize int64
}

// Market is the set of accounts behind one market, reached through its
// market-state account.
type Market struct {
	store *Store
	key   xid.ID
	state events.MarketState

	stateAcct *Account
	queueAcct *Account
}

// CreateMarket allocates a market: an event queue account with a fresh
// header and cleared register, two index accounts for the collaborator, and
// the market-state account tying them together.
func CreateMarket(s *Store, params MarketParams) (*Market, error) {
	if params.EventCapacity < 1 {
		return nil, fmt.Errorf("%w: event capacity %d", events.ErrInvalidParam, params.EventCapacity)
	}
	if params.BidsSize < 1 || params.AsksSize < 1 {
		return nil, fmt.Errorf("%w: index account sizes %d/%d", events.ErrInvalidParam, params.BidsSize, params.AsksSize)
	}

	slotSize := protocol.SlotSize(params.CallbackInfoLen)
	header := events.NewHeader(slotSize)
	queueSize := int64(events.HeaderLen) + int64(header.RegisterSize) + int64(params.EventCapacity*slotSize)

	queueAcct, err := s.Create(queueSize)
	if err != nil {
		return nil, fmt.Errorf("create event queue account: %w", err)
	}
	if err := events.EncodeHeader(queueAcct.Data(), header); err != nil {
		queueAcct.Close()
		return nil, err
	}
	// attach once so the register is cleared before anyone can read it
	if _, err := events.NewQueue(queueAcct.Data(), header, params.CallbackInfoLen); err != nil {
		queueAcct.Close()
		return nil, err
	}
	if err := queueAcct.Flush(); err != nil {
		queueAcct.Close()
		return nil, fmt.Errorf("flush event queue account: %w", err)
	}

	bidsAcct, err := s.Create(params.BidsSize)
	if err != nil {
		queueAcct.Close()
		return nil, fmt.Errorf("create bids account: %w", err)
	}
	asksAcct, err := s.Create(params.AsksSize)
	if err != nil {
		queueAcct.Close()
		bidsAcct.Close()
		return nil, fmt.Errorf("create asks account: %w", err)
	}
	bidsAcct.Data()[0] = byte(events.AccountBids)
	asksAcct.Data()[0] = byte(events.AccountAsks)
	if err := bidsAcct.Close(); err != nil {
		queueAcct.Close()
		asksAcct.Close()
		return nil, err
	}
	if err := asksAcct.Close(); err != nil {
		queueAcct.Close()
		return nil, err
	}

	state := events.NewMarketState(queueAcct.Key(), bidsAcct.Key(), asksAcct.Key(), uint64(params.CallbackInfoLen))
	stateData, err := state.MarshalBinary()
	if err != nil {
		queueAcct.Close()
		return nil, err
	}
	stateAcct, err := s.Create(int64(len(stateData)))
	if err != nil {
		queueAcct.Close()
		return nil, fmt.Errorf("create market state account: %w", err)
	}
	copy(stateAcct.Data(), stateData)
	if err := stateAcct.Flush(); err != nil {
		queueAcct.Close()
		stateAcct.Close()
		return nil, fmt.Errorf("flush market state account: %w", err)
	}

	logger.Info("market created",
		"market", stateAcct.Key().String(),
		"event_queue", queueAcct.Key().String(),
		"capacity", params.EventCapacity,
		"callback_info_len", params.CallbackInfoLen)

	return &Market{
		store:     s,
		key:       stateAcct.Key(),
		state:     state,
		stateAcct: stateAcct,
		queueAcct: queueAcct,
	}, nil
}

// OpenMarket loads an existing market by its market-state key.
func OpenMarket(s *Store, key xid.ID) (*Market, error) {
	stateAcct, err := s.Get(key)
	if err != nil {
		return nil, err
	}
	var state events.MarketState
	if err := state.UnmarshalBinary(stateAcct.Data()); err != nil {
		stateAcct.Close()
		return nil, err
	}
	return &Market{
		store:     s,
		key:       key,
		state:     state,
		stateAcct: stateAcct,
	}, nil
}

// Key returns the market-state account key, the market's public identifier.
func (m *Market) Key() xid.ID {
	return m.key
}

// State returns the decoded market state.
func (m *Market) State() events.MarketState {
	return m.state
}

// AttachQueue attaches the privileged writer to the event queue. The
// register is cleared as part of attaching.
func (m *Market) AttachQueue() (*events.Queue, error) {
	return m.attachQueue(true)
}

// OpenQueue attaches a reader to the event queue, leaving the register
// alone so draining cannot destroy a pending summary.
func (m *Market) OpenQueue() (*events.Queue, error) {
	return m.attachQueue(false)
}

func (m *Market) attachQueue(clearRegister bool) (*events.Queue, error) {
	if m.queueAcct == nil {
		acct, err := m.store.Get(m.state.EventQueue)
		if err != nil {
			return nil, fmt.Errorf("open event queue account: %w", err)
		}
		m.queueAcct = acct
	}
	header, err := events.DecodeHeader(m.queueAcct.Data())
	if err != nil {
		return nil, err
	}
	cbLen := uint32(m.state.CallbackInfoLen)
	if clearRegister {
		return events.NewQueue(m.queueAcct.Data(), header, cbLen)
	}
	return events.OpenQueue(m.queueAcct.Data(), header, cbLen)
}

// Flush pushes the mapped market accounts back to their files.
func (m *Market) Flush() error {
	if m.queueAcct != nil {
		if err := m.queueAcct.Flush(); err != nil {
			return err
		}
	}
	if m.stateAcct != nil {
		return m.stateAcct.Flush()
	}
	return nil
}

// Close unmaps every account handle the market holds. Queues attached
// through this market must not be used afterwards.
func (m *Market) Close() error {
	var firstErr error
	if m.queueAcct != nil {
		if err := m.queueAcct.Close(); err != nil {
			firstErr = err
		}
		m.queueAcct = nil
	}
	if m.stateAcct != nil {
		if err := m.stateAcct.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.stateAcct = nil
	}
	return firstErr
}
