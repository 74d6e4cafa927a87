package types

import (
	"time"
)

// Status is the lifecycle state of an auction. The three ended states are
// terminal: once reached, no further bids or transitions are possible.
type Status string

const (
	StatusScheduled     Status = "scheduled"
	StatusActive        Status = "active"
	StatusSold          Status = "sold"
	StatusUnsold        Status = "unsold"
	StatusReserveNotMet Status = "reserve_not_met"
)

// Terminal reports whether the status is one of the ended states.
func (s Status) Terminal() bool {
	switch s {
	case StatusSold, StatusUnsold, StatusReserveNotMet:
		return true
	}
	return false
}

// AuctionConfig holds the immutable parameters an auction is created with.
// Monetary amounts are integer cents. A ReservePrice of 0 means no reserve.
type AuctionConfig struct {
	ID            string    `json:"id"`
	StartingPrice int64     `json:"startingPrice"`
	ReservePrice  int64     `json:"reservePrice,omitempty"`
	BidIncrement  int64     `json:"bidIncrement"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
}

// Bid is one entry of an auction's append-only bid history. Bids are never
// edited or removed once recorded.
type Bid struct {
	ID             string    `json:"id"`
	AuctionID      string    `json:"auctionId"`
	BidderID       string    `json:"bidderId"`
	Amount         int64     `json:"amount"`
	PlacedAt       time.Time `json:"placedAt"`
	ProxyGenerated bool      `json:"proxyGenerated"`
	// ProxyCeiling is the ceiling of the agent that fired this bid.
	// Only set when ProxyGenerated is true; never exposed to other bidders.
	ProxyCeiling int64 `json:"-"`
}

// Snapshot is the read-only projection of one auction handed to callers for
// rendering. It never exposes the reserve price or any proxy ceiling.
type Snapshot struct {
	AuctionID            string    `json:"auctionId"`
	CurrentPrice         int64     `json:"currentPrice"`
	HighBidderID         string    `json:"highBidderId,omitempty"`
	ReserveMet           bool      `json:"reserveMet"`
	BidCount             int       `json:"bidCount"`
	UniqueBidderCount    int       `json:"uniqueBidderCount"`
	Status               Status    `json:"status"`
	TimeRemainingSeconds int64     `json:"timeRemainingSeconds"`
	MinimumNextBid       int64     `json:"minimumNextBid"`
	EndTime              time.Time `json:"endTime"`
}

// Transition records a status change produced by a tick.
type Transition struct {
	AuctionID string `json:"auctionId"`
	Status    Status `json:"status"`
}
