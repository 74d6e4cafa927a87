package websocket

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/errors"
)

type Message struct {
	Type string `json:"type"` // Type of the message (e.g., "bid", "proxy")
	Data string `json:"data"` // Payload of the message
}

// ParseMessage validates and parses incoming messages.
func ParseMessage(rawMessage []byte) (*Message, error) {
	var msg Message
	err := json.Unmarshal(rawMessage, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// HandleMessage routes the message based on its type.
func (h *AuctionHandler) HandleMessage(client *Client, rawMessage []byte) {
	if !client.RateLimiter.Allow() {
		log.Warnf("Rate limit exceeded for client %s", client.ID)
		client.Send <- []byte(errors.New(errors.ErrRateLimited, "Rate limit exceeded").ToJSON())
		return
	}

	msg, err := ParseMessage(rawMessage)
	if err != nil {
		log.Infof("Invalid message from client %s: %v", client.ID, err)
		client.Send <- []byte(errors.New(errors.ErrBadMessageFormat, "Invalid message format").ToJSON())
		return
	}

	switch msg.Type {
	case "join":
		log.Debugf("Client %s joined the auction feed", client.ID)
	case "bid":
		h.handleBidMessage(client, msg.Data)
	case "proxy":
		h.handleProxyMessage(client, msg.Data)
	case "cancel_proxy":
		h.handleCancelProxyMessage(client, msg.Data)
	case "snapshot":
		h.handleSnapshotMessage(client, msg.Data)
	default:
		log.Infof("Unknown message type: %s", msg.Type)
		client.Send <- []byte(errors.New(errors.ErrUnknownMessageType, "Unknown message type").ToJSON())
	}
}

// Handlers for specific message types
func (h *AuctionHandler) handleBidMessage(client *Client, data string) {
	type BidMessage struct {
		AuctionID string `json:"auction_id"`
		Amount    int64  `json:"amount"`
	}
	var bidMsg BidMessage

	err := json.Unmarshal([]byte(data), &bidMsg)
	if err != nil || bidMsg.Amount <= 0 {
		client.Send <- []byte(errors.New(errors.ErrBadMessageFormat, "Invalid bid message").ToJSON())
		return
	}

	_, err = h.engine.PlaceBid(bidMsg.AuctionID, client.ID, bidMsg.Amount)
	if err != nil {
		client.Send <- []byte(toAppError(err).ToJSON())
		return
	}
	// Accepted bids reach the client through the broadcast hook.
}

func (h *AuctionHandler) handleProxyMessage(client *Client, data string) {
	type ProxyMessage struct {
		AuctionID string `json:"auction_id"`
		Ceiling   int64  `json:"ceiling"`
	}
	var proxyMsg ProxyMessage

	err := json.Unmarshal([]byte(data), &proxyMsg)
	if err != nil || proxyMsg.Ceiling <= 0 {
		client.Send <- []byte(errors.New(errors.ErrBadMessageFormat, "Invalid proxy message").ToJSON())
		return
	}

	snap, err := h.engine.SetProxyCeiling(proxyMsg.AuctionID, client.ID, proxyMsg.Ceiling)
	if err != nil {
		client.Send <- []byte(toAppError(err).ToJSON())
		return
	}
	h.sendSnapshot(client, snap)
}

func (h *AuctionHandler) handleCancelProxyMessage(client *Client, data string) {
	type CancelMessage struct {
		AuctionID string `json:"auction_id"`
	}
	var cancelMsg CancelMessage

	if err := json.Unmarshal([]byte(data), &cancelMsg); err != nil {
		client.Send <- []byte(errors.New(errors.ErrBadMessageFormat, "Invalid cancel message").ToJSON())
		return
	}

	snap, err := h.engine.CancelProxy(cancelMsg.AuctionID, client.ID)
	if err != nil {
		client.Send <- []byte(toAppError(err).ToJSON())
		return
	}
	h.sendSnapshot(client, snap)
}

func (h *AuctionHandler) handleSnapshotMessage(client *Client, data string) {
	type SnapshotMessage struct {
		AuctionID string `json:"auction_id"`
	}
	var snapMsg SnapshotMessage

	if err := json.Unmarshal([]byte(data), &snapMsg); err != nil {
		client.Send <- []byte(errors.New(errors.ErrBadMessageFormat, "Invalid snapshot message").ToJSON())
		return
	}

	snap, err := h.engine.GetSnapshot(snapMsg.AuctionID)
	if err != nil {
		client.Send <- []byte(toAppError(err).ToJSON())
		return
	}
	h.sendSnapshot(client, snap)
}

func (h *AuctionHandler) sendSnapshot(client *Client, snap any) {
	raw, err := marshalMessage("snapshot", snap)
	if err != nil {
		log.Error("Error marshalling snapshot: ", err)
		return
	}
	client.Send <- raw
}

// toAppError converts the engine's typed domain errors into wire errors.
// Rejections that carry a legal minimum keep it in the message so the client
// can show the next valid amount.
func toAppError(err error) *errors.AppError {
	var (
		notFound   *errors.NotFoundError
		notActive  *errors.AuctionNotActiveError
		tooLow     *errors.BidTooLowError
		selfOutbid *errors.SelfOutbidError
		lowCeiling *errors.CeilingTooLowError
		appErr     *errors.AppError
	)
	switch {
	case stderrors.As(err, &notFound):
		return errors.New(errors.ErrAuctionNotFound, "Auction not found")
	case stderrors.As(err, &notActive):
		return errors.New(errors.ErrAuctionClosed, "Auction is not accepting bids")
	case stderrors.As(err, &tooLow):
		return errors.New(errors.ErrBidTooLow, fmt.Sprintf("Bid too low, minimum is %d", tooLow.Minimum))
	case stderrors.As(err, &selfOutbid):
		return errors.New(errors.ErrSelfOutbid, "You already hold the high bid, raise your proxy ceiling instead")
	case stderrors.As(err, &lowCeiling):
		return errors.New(errors.ErrCeilingTooLow, fmt.Sprintf("Ceiling too low, minimum is %d", lowCeiling.Minimum))
	case stderrors.As(err, &appErr):
		return appErr
	}
	return errors.New(errors.ErrInternalServer, "Internal server error")
}
