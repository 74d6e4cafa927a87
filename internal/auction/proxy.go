package auction

import (
	"time"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/errors"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// proxyAgent automatically raises its bidder's standing bid up to a ceiling
// whenever the bidder is outbid. At most one agent exists per bidder per
// auction; updating the ceiling reuses the agent and keeps its registration
// order, so the earliest-registered agent wins ceiling ties.
type proxyAgent struct {
	bidderID     string
	ceiling      int64
	active       bool
	seq          int // registration order, stable across ceiling updates
	registeredAt time.Time
}

func (a *auctionState) agentFor(bidderID string) *proxyAgent {
	for _, ag := range a.agents {
		if ag.bidderID == bidderID {
			return ag
		}
	}
	return nil
}

// setProxyCeiling creates or updates the bidder's agent, then re-evaluates
// the agents. The new agent stays silent until there is a high bid to beat;
// against an existing high bidder it may fire immediately.
//
// A ceiling that cannot cover the next legal bid is pointless, so it is
// rejected with CeilingTooLowError. The current high bidder is exempt: they
// may hold any ceiling at or above their standing bid.
func (a *auctionState) setProxyCeiling(bidderID string, ceiling int64, now time.Time) ([]types.Bid, error) {
	a.refresh(now)
	if a.status.Terminal() || now.Before(a.cfg.StartTime) || !now.Before(a.endTime) {
		return nil, &errors.AuctionNotActiveError{AuctionID: a.cfg.ID, Status: a.status}
	}

	if bidderID == a.highBidderID {
		if ceiling < a.currentPrice {
			return nil, &errors.CeilingTooLowError{AuctionID: a.cfg.ID, Ceiling: ceiling, Minimum: a.currentPrice}
		}
	} else if min := a.minimumNextBid(); ceiling < min {
		return nil, &errors.CeilingTooLowError{AuctionID: a.cfg.ID, Ceiling: ceiling, Minimum: min}
	}

	agent := a.agentFor(bidderID)
	if agent == nil {
		agent = &proxyAgent{bidderID: bidderID, seq: len(a.agents), registeredAt: now}
		a.agents = append(a.agents, agent)
	}
	agent.ceiling = ceiling
	agent.active = true

	return a.runCascade(now), nil
}

// cancelProxy deactivates the bidder's agent without touching the bid
// history. Bids the agent already fired stand.
func (a *auctionState) cancelProxy(bidderID string) {
	if agent := a.agentFor(bidderID); agent != nil {
		agent.active = false
	}
}

// runCascade re-evaluates the proxy agents until no agent can fire. Each
// round the strongest losing agent places the minimum legal bid, so a
// higher-ceiling agent walks the price up only as far as needed to beat the
// runner-up: it ends up paying at most the second-highest ceiling plus one
// increment. Termination is guaranteed because the current price strictly
// increases every round and all ceilings are finite.
func (a *auctionState) runCascade(now time.Time) []types.Bid {
	var fired []types.Bid
	for {
		agent := a.nextChallenger()
		if agent == nil {
			break
		}
		bid, err := a.applyBid(agent.bidderID, a.minimumNextBid(), now, agent)
		if err != nil {
			// The challenger was selected against the same state the bid is
			// validated on, so this only trips on a corrupted registry.
			break
		}
		fired = append(fired, bid)
	}

	// Losing agents that can no longer cover the next legal bid are out of
	// the auction until their bidder raises the ceiling.
	for _, ag := range a.agents {
		if ag.active && ag.bidderID != a.highBidderID && ag.ceiling < a.minimumNextBid() {
			ag.active = false
		}
	}
	return fired
}

// nextChallenger picks the agent that fires this round, or nil to end the
// cascade. Candidates are active agents that are not winning and can afford
// the next legal bid; the highest ceiling goes first, with the earliest
// registration winning ceiling ties.
//
// An agent never challenges while there is no high bid at all (there is
// nothing to outbid yet), and never challenges a defending agent it cannot
// beat: on equal ceilings the earlier registration holds the price, which is
// how "first bidder at a price wins" carries over to proxy bidding.
func (a *auctionState) nextChallenger() *proxyAgent {
	if a.highBidderID == "" {
		return nil
	}

	min := a.minimumNextBid()
	var best *proxyAgent
	for _, ag := range a.agents {
		if !ag.active || ag.bidderID == a.highBidderID || ag.ceiling < min {
			continue
		}
		if best == nil || ag.ceiling > best.ceiling {
			best = ag
		}
	}
	if best == nil {
		return nil
	}

	if defender := a.agentFor(a.highBidderID); defender != nil && defender.active {
		if best.ceiling < defender.ceiling {
			// A doomed challenger still pushes the price toward its own
			// ceiling, the way an outbid underbidder does at a live auction.
			return best
		}
		if best.ceiling == defender.ceiling && defender.seq < best.seq {
			return nil
		}
	}
	return best
}
