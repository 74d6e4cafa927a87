package auction

import (
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/errors"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// Options configures engine-wide bidding behavior.
type Options struct {
	// AntiSnipeWindow extends an auction's end time to now + window when a
	// bid lands inside the window. Zero disables anti-sniping.
	AntiSnipeWindow time.Duration
	// MaxExtensions caps anti-snipe extensions per auction. Zero means
	// unbounded.
	MaxExtensions int
}

// Engine is the facade the outside world talks to. It owns every auction's
// state behind one mutex per auction id, so operations on one auction are
// serialized while independent auctions proceed concurrently.
//
// Event hooks fire after the state transition commits and outside the
// auction lock; subscribers must not call back into the engine from them
// synchronously if they need strict ordering.
type Engine struct {
	clock Clock
	opts  Options

	mu       sync.RWMutex
	auctions map[string]*auctionState

	onBidAccepted  []func(types.Snapshot, types.Bid)
	onOutbid       []func(types.Snapshot, string)
	onAuctionEnded []func(types.Snapshot)
}

// New creates an engine using the given clock.
func New(clock Clock, opts Options) *Engine {
	return &Engine{
		clock:    clock,
		opts:     opts,
		auctions: make(map[string]*auctionState),
	}
}

// OnBidAccepted registers a hook invoked once per accepted bid, direct or
// proxy-generated, with the snapshot taken after the full cascade settled.
// Hooks accumulate; every registered hook fires. Register before serving
// traffic, registration is not synchronized with event emission.
func (e *Engine) OnBidAccepted(fn func(types.Snapshot, types.Bid)) {
	e.onBidAccepted = append(e.onBidAccepted, fn)
}

// OnOutbid registers a hook invoked with the bidder each accepted bid
// displaced from the high position.
func (e *Engine) OnOutbid(fn func(types.Snapshot, string)) {
	e.onOutbid = append(e.onOutbid, fn)
}

// OnAuctionEnded registers a hook invoked when a tick finalizes an auction.
func (e *Engine) OnAuctionEnded(fn func(types.Snapshot)) {
	e.onAuctionEnded = append(e.onAuctionEnded, fn)
}

// CreateAuction registers a new auction. An empty ID is assigned a fresh
// UUID. The returned snapshot reflects the auction at creation time.
func (e *Engine) CreateAuction(cfg types.AuctionConfig) (types.Snapshot, error) {
	if cfg.StartingPrice < 0 {
		return types.Snapshot{}, errors.New(errors.ErrInvalidAuction, "starting price must not be negative")
	}
	if cfg.BidIncrement <= 0 {
		return types.Snapshot{}, errors.New(errors.ErrInvalidAuction, "bid increment must be positive")
	}
	if !cfg.EndTime.After(cfg.StartTime) {
		return types.Snapshot{}, errors.New(errors.ErrInvalidAuction, "end time must be after start time")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	now := e.clock.Now()
	state := newAuctionState(cfg, e.opts.AntiSnipeWindow, e.opts.MaxExtensions, now)

	e.mu.Lock()
	if _, exists := e.auctions[cfg.ID]; exists {
		e.mu.Unlock()
		return types.Snapshot{}, errors.New(errors.ErrInvalidAuction, "auction id already exists")
	}
	e.auctions[cfg.ID] = state
	e.mu.Unlock()

	log.Debugf("Auction %s created, starting at %d", cfg.ID, cfg.StartingPrice)
	return state.snapshot(now), nil
}

func (e *Engine) state(auctionID string) (*auctionState, error) {
	e.mu.RLock()
	state, ok := e.auctions[auctionID]
	e.mu.RUnlock()
	if !ok {
		return nil, &errors.NotFoundError{AuctionID: auctionID}
	}
	return state, nil
}

// PlaceBid applies a direct bid and runs the proxy cascade it triggers. On
// success it returns the snapshot after the cascade settled; on rejection it
// returns the typed domain error, with the current snapshot so the caller
// can still render the auction.
func (e *Engine) PlaceBid(auctionID, bidderID string, amount int64) (types.Snapshot, error) {
	state, err := e.state(auctionID)
	if err != nil {
		return types.Snapshot{}, err
	}
	now := e.clock.Now()

	state.mu.Lock()
	previousHigh := state.highBidderID
	bid, err := state.applyBid(bidderID, amount, now, nil)
	if err != nil {
		snap := state.snapshot(now)
		state.mu.Unlock()
		return snap, err
	}
	accepted := append([]types.Bid{bid}, state.runCascade(now)...)
	snap := state.snapshot(now)
	state.mu.Unlock()

	log.Debugf("Auction %s: bid %d by %s accepted, %d proxy bids fired", auctionID, amount, bidderID, len(accepted)-1)
	e.emitBids(snap, accepted, previousHigh)
	return snap, nil
}

// SetProxyCeiling creates or updates the bidder's proxy agent. Registering a
// ceiling may itself fire bids immediately.
func (e *Engine) SetProxyCeiling(auctionID, bidderID string, ceiling int64) (types.Snapshot, error) {
	state, err := e.state(auctionID)
	if err != nil {
		return types.Snapshot{}, err
	}
	now := e.clock.Now()

	state.mu.Lock()
	previousHigh := state.highBidderID
	fired, err := state.setProxyCeiling(bidderID, ceiling, now)
	snap := state.snapshot(now)
	state.mu.Unlock()
	if err != nil {
		return snap, err
	}

	log.Debugf("Auction %s: proxy ceiling %d set by %s, %d bids fired", auctionID, ceiling, bidderID, len(fired))
	e.emitBids(snap, fired, previousHigh)
	return snap, nil
}

// CancelProxy deactivates the bidder's agent. Bids it already fired stand;
// the bid history is untouched.
func (e *Engine) CancelProxy(auctionID, bidderID string) (types.Snapshot, error) {
	state, err := e.state(auctionID)
	if err != nil {
		return types.Snapshot{}, err
	}
	now := e.clock.Now()

	state.mu.Lock()
	state.cancelProxy(bidderID)
	snap := state.snapshot(now)
	state.mu.Unlock()
	return snap, nil
}

// GetSnapshot returns the read-only projection of one auction.
func (e *Engine) GetSnapshot(auctionID string) (types.Snapshot, error) {
	state, err := e.state(auctionID)
	if err != nil {
		return types.Snapshot{}, err
	}
	now := e.clock.Now()

	state.mu.Lock()
	snap := state.snapshot(now)
	state.mu.Unlock()
	return snap, nil
}

// Snapshots returns the projections of all auctions, ordered by id.
func (e *Engine) Snapshots() []types.Snapshot {
	now := e.clock.Now()

	e.mu.RLock()
	states := make([]*auctionState, 0, len(e.auctions))
	for _, state := range e.auctions {
		states = append(states, state)
	}
	e.mu.RUnlock()

	snaps := make([]types.Snapshot, 0, len(states))
	for _, state := range states {
		state.mu.Lock()
		snaps = append(snaps, state.snapshot(now))
		state.mu.Unlock()
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].AuctionID < snaps[j].AuctionID })
	return snaps
}

// History returns a copy of the auction's append-only bid ledger.
func (e *Engine) History(auctionID string) ([]types.Bid, error) {
	state, err := e.state(auctionID)
	if err != nil {
		return nil, err
	}
	state.mu.Lock()
	bids := state.history()
	state.mu.Unlock()
	return bids, nil
}

// Tick finalizes every auction whose end time has passed and returns the
// transitions it caused, ordered by auction id. It is idempotent: a second
// tick with the same now produces no further transitions.
func (e *Engine) Tick(now time.Time) []types.Transition {
	e.mu.RLock()
	states := make([]*auctionState, 0, len(e.auctions))
	for _, state := range e.auctions {
		states = append(states, state)
	}
	e.mu.RUnlock()

	var transitions []types.Transition
	var ended []types.Snapshot
	for _, state := range states {
		state.mu.Lock()
		status, changed := state.finalize(now)
		snap := state.snapshot(now)
		state.mu.Unlock()
		if changed {
			transitions = append(transitions, types.Transition{AuctionID: snap.AuctionID, Status: status})
			ended = append(ended, snap)
		}
	}
	sort.Slice(transitions, func(i, j int) bool { return transitions[i].AuctionID < transitions[j].AuctionID })

	for _, snap := range ended {
		log.Infof("Auction %s ended with status %s at %d", snap.AuctionID, snap.Status, snap.CurrentPrice)
		for _, fn := range e.onAuctionEnded {
			fn(snap)
		}
	}
	return transitions
}

// emitBids fires the accepted and outbid hooks for a settled cascade. Each
// accepted bid displaced the bidder who held the high bid before it.
func (e *Engine) emitBids(snap types.Snapshot, accepted []types.Bid, previousHigh string) {
	for i, bid := range accepted {
		for _, fn := range e.onBidAccepted {
			fn(snap, bid)
		}
		displaced := previousHigh
		if i > 0 {
			displaced = accepted[i-1].BidderID
		}
		if displaced == "" {
			continue
		}
		for _, fn := range e.onOutbid {
			fn(snap, displaced)
		}
	}
}
