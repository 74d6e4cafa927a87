package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// AuctionHandler bridges the auction engine and connected websocket clients:
// it feeds client messages into the engine and pushes engine events back out
// as broadcasts and targeted notices.
type AuctionHandler struct {
	engine *auction.Engine

	clientLock       sync.Mutex
	connectedClients map[*Client]bool
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewAuctionWebSocketHandler(engine *auction.Engine) *AuctionHandler {
	h := &AuctionHandler{
		engine:           engine,
		connectedClients: make(map[*Client]bool),
	}

	engine.OnBidAccepted(func(snap types.Snapshot, bid types.Bid) {
		h.broadcastEvent("bid", bidEvent{Snapshot: snap, Bid: bid})
	})
	engine.OnOutbid(func(snap types.Snapshot, bidderID string) {
		h.sendToBidder(bidderID, "outbid", snap)
	})
	engine.OnAuctionEnded(func(snap types.Snapshot) {
		h.broadcastEvent("auction_end", snap)
	})

	return h
}

// HandleAuctions upgrades the HTTP request to a WebSocket connection.
// Clients identify themselves with the bidder_id query parameter.
func (h *AuctionHandler) HandleAuctions(w http.ResponseWriter, r *http.Request) {
	bidderID := r.URL.Query().Get("bidder_id")
	if bidderID == "" {
		http.Error(w, "Missing bidder_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Infof("Failed to upgrade connection: %v", err)
		return
	}

	client := &Client{
		ID:          bidderID,
		Conn:        conn,
		Send:        make(chan []byte, 16),
		RateLimiter: rate.NewLimiter(1, 3),
	}

	h.clientLock.Lock()
	h.connectedClients[client] = true
	h.clientLock.Unlock()

	// Start handling the client
	go client.ReadMessages(h, h.HandleMessage)
	go client.WriteMessages()
}

// Broadcast sends a message to all connected clients.
func (h *AuctionHandler) Broadcast(message []byte) {
	h.clientLock.Lock()
	defer h.clientLock.Unlock()

	for client := range h.connectedClients {
		select {
		case client.Send <- message:
		default:
			// Remove clients that stopped draining their send channel
			delete(h.connectedClients, client)
			client.Disconnect(nil)
		}
	}
}

func (h *AuctionHandler) removeClient(client *Client) {
	h.clientLock.Lock()
	delete(h.connectedClients, client)
	h.clientLock.Unlock()
}

type bidEvent struct {
	Snapshot types.Snapshot `json:"snapshot"`
	Bid      types.Bid      `json:"bid"`
}

func (h *AuctionHandler) broadcastEvent(msgType string, payload any) {
	raw, err := marshalMessage(msgType, payload)
	if err != nil {
		log.Error("Error marshalling event: ", err)
		return
	}
	h.Broadcast(raw)
}

// sendToBidder delivers a targeted message to every connection of a bidder.
func (h *AuctionHandler) sendToBidder(bidderID, msgType string, payload any) {
	raw, err := marshalMessage(msgType, payload)
	if err != nil {
		log.Error("Error marshalling event: ", err)
		return
	}

	h.clientLock.Lock()
	defer h.clientLock.Unlock()
	for client := range h.connectedClients {
		if client.ID != bidderID {
			continue
		}
		select {
		case client.Send <- raw:
		default:
			delete(h.connectedClients, client)
			client.Disconnect(nil)
		}
	}
}

func marshalMessage(msgType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Data: string(data)})
}
