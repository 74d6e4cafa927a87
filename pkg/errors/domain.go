package errors

import (
	"fmt"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// Domain errors are the expected, recoverable outcomes of auction operations.
// They are returned as values, never panicked, and callers match them with
// errors.As to build user-facing responses.

// NotFoundError reports an unknown auction id.
type NotFoundError struct {
	AuctionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("auction %s not found", e.AuctionID)
}

// AuctionNotActiveError reports a bid placed on an auction that is not
// currently accepting bids (scheduled, expired or already finalized).
type AuctionNotActiveError struct {
	AuctionID string
	Status    types.Status
}

func (e *AuctionNotActiveError) Error() string {
	return fmt.Sprintf("auction %s is not active (status %s)", e.AuctionID, e.Status)
}

// BidTooLowError reports a bid below the legal minimum. Minimum is the
// smallest amount the bidder could submit instead, so the caller can show
// the next valid bid.
type BidTooLowError struct {
	AuctionID string
	Amount    int64
	Minimum   int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid of %d on auction %s is below the minimum of %d", e.Amount, e.AuctionID, e.Minimum)
}

// SelfOutbidError reports a direct bid from the bidder already holding the
// high bid. They must raise their proxy ceiling instead.
type SelfOutbidError struct {
	AuctionID string
	BidderID  string
}

func (e *SelfOutbidError) Error() string {
	return fmt.Sprintf("bidder %s already holds the high bid on auction %s", e.BidderID, e.AuctionID)
}

// CeilingTooLowError reports a proxy ceiling too low to place even the next
// legal bid. Minimum is the smallest acceptable ceiling.
type CeilingTooLowError struct {
	AuctionID string
	Ceiling   int64
	Minimum   int64
}

func (e *CeilingTooLowError) Error() string {
	return fmt.Sprintf("proxy ceiling of %d on auction %s is below the minimum of %d", e.Ceiling, e.AuctionID, e.Minimum)
}
