package auction

import (
	"time"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/errors"
)

// validateBid enforces bid legality. It is pure with respect to the state it
// reads and is the single validation path for both direct and proxy bids, so
// proxy-generated bids can never skip a rule a human bid is held to.
//
// Rules, in order:
//  1. the auction must be accepting bids (started, not expired, not finalized)
//  2. the amount must reach currentPrice + bidIncrement
//  3. the bidder must not already hold the high bid
func (a *auctionState) validateBid(bidderID string, amount int64, now time.Time) error {
	if a.status.Terminal() || now.Before(a.cfg.StartTime) || !now.Before(a.endTime) {
		return &errors.AuctionNotActiveError{AuctionID: a.cfg.ID, Status: a.status}
	}
	if min := a.minimumNextBid(); amount < min {
		return &errors.BidTooLowError{AuctionID: a.cfg.ID, Amount: amount, Minimum: min}
	}
	if bidderID == a.highBidderID {
		return &errors.SelfOutbidError{AuctionID: a.cfg.ID, BidderID: bidderID}
	}
	return nil
}
