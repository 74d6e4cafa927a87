package auction

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// auctionState is the canonical mutable record of one auction: price, status,
// high bidder, bid history and the proxy agent registry. It is the single
// source of truth for its auction id and is never shared across auctions.
//
// All access goes through the per-auction mutex held by the Engine; methods
// on auctionState assume the lock is held.
type auctionState struct {
	mu  sync.Mutex
	cfg types.AuctionConfig

	status       types.Status
	currentPrice int64
	highBidderID string
	reserveMet   bool

	// endTime starts at cfg.EndTime and only moves forward, via anti-snipe
	// extensions.
	endTime    time.Time
	extensions int

	antiSnipeWindow time.Duration
	maxExtensions   int // 0 = unbounded

	bids    []types.Bid
	bidders map[string]struct{}
	agents  []*proxyAgent
}

func newAuctionState(cfg types.AuctionConfig, antiSnipeWindow time.Duration, maxExtensions int, now time.Time) *auctionState {
	status := types.StatusScheduled
	if !now.Before(cfg.StartTime) {
		status = types.StatusActive
	}
	return &auctionState{
		cfg:             cfg,
		status:          status,
		currentPrice:    cfg.StartingPrice,
		endTime:         cfg.EndTime,
		antiSnipeWindow: antiSnipeWindow,
		maxExtensions:   maxExtensions,
		bidders:         make(map[string]struct{}),
	}
}

// minimumNextBid is the smallest amount the next bid may carry.
func (a *auctionState) minimumNextBid() int64 {
	return a.currentPrice + a.cfg.BidIncrement
}

// refresh promotes a scheduled auction to active once its start time passes.
// Expiry is not applied here; only finalize moves an auction to an ended state.
func (a *auctionState) refresh(now time.Time) {
	if a.status == types.StatusScheduled && !now.Before(a.cfg.StartTime) {
		a.status = types.StatusActive
	}
}

// applyBid validates and records a single bid, updating the current price,
// high bidder, reserve flag and end time. The agent argument is non-nil for
// proxy-generated bids; they run through the same validation as direct bids.
func (a *auctionState) applyBid(bidderID string, amount int64, now time.Time, agent *proxyAgent) (types.Bid, error) {
	a.refresh(now)
	if err := a.validateBid(bidderID, amount, now); err != nil {
		return types.Bid{}, err
	}

	bid := types.Bid{
		ID:             uuid.NewString(),
		AuctionID:      a.cfg.ID,
		BidderID:       bidderID,
		Amount:         amount,
		PlacedAt:       now,
		ProxyGenerated: agent != nil,
	}
	if agent != nil {
		bid.ProxyCeiling = agent.ceiling
	}

	a.bids = append(a.bids, bid)
	a.bidders[bidderID] = struct{}{}
	a.currentPrice = amount
	a.highBidderID = bidderID
	if a.cfg.ReservePrice > 0 && a.currentPrice >= a.cfg.ReservePrice {
		a.reserveMet = true
	}
	a.extendForSnipe(now)

	return bid, nil
}

// extendForSnipe pushes the end time out when a bid lands inside the
// anti-snipe window, up to maxExtensions times (0 = unbounded).
func (a *auctionState) extendForSnipe(now time.Time) {
	if a.antiSnipeWindow <= 0 {
		return
	}
	if !now.Add(a.antiSnipeWindow).After(a.endTime) {
		return
	}
	if a.maxExtensions > 0 && a.extensions >= a.maxExtensions {
		return
	}
	a.endTime = now.Add(a.antiSnipeWindow)
	a.extensions++
}

// finalize transitions an expired auction to its terminal status. It is
// idempotent: calling it again on a finalized auction reports no change.
func (a *auctionState) finalize(now time.Time) (types.Status, bool) {
	if a.status.Terminal() {
		return a.status, false
	}
	a.refresh(now)
	if now.Before(a.endTime) {
		return a.status, false
	}

	switch {
	case len(a.bids) == 0:
		a.status = types.StatusUnsold
	case a.cfg.ReservePrice > 0 && !a.reserveMet:
		a.status = types.StatusReserveNotMet
	default:
		a.status = types.StatusSold
	}
	for _, ag := range a.agents {
		ag.active = false
	}
	return a.status, true
}

// snapshot builds the read-only projection for this auction. It never
// mutates state: an expired but not yet finalized auction reports zero time
// remaining with its pre-finalization status.
func (a *auctionState) snapshot(now time.Time) types.Snapshot {
	remaining := a.endTime.Sub(now)
	if remaining < 0 || a.status.Terminal() {
		remaining = 0
	}
	return types.Snapshot{
		AuctionID:            a.cfg.ID,
		CurrentPrice:         a.currentPrice,
		HighBidderID:         a.highBidderID,
		ReserveMet:           a.reserveMet,
		BidCount:             len(a.bids),
		UniqueBidderCount:    len(a.bidders),
		Status:               a.status,
		TimeRemainingSeconds: int64(remaining / time.Second),
		MinimumNextBid:       a.minimumNextBid(),
		EndTime:              a.endTime,
	}
}

// history returns a copy of the bid ledger so callers can iterate safely
// while new bids are appended.
func (a *auctionState) history() []types.Bid {
	return append([]types.Bid(nil), a.bids...)
}
