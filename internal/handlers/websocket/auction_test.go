package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

func newTestGateway(t *testing.T) (*httptest.Server, *auction.Engine, string) {
	t.Helper()
	engine := auction.New(auction.SystemClock(), auction.Options{})
	handler := NewAuctionWebSocketHandler(engine)
	server := httptest.NewServer(http.HandlerFunc(handler.HandleAuctions))
	t.Cleanup(server.Close)

	snap, err := engine.CreateAuction(types.AuctionConfig{
		StartingPrice: 10000,
		BidIncrement:  1000,
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return server, engine, snap.AuctionID
}

func dialBidder(t *testing.T, server *httptest.Server, bidderID string) *websocket.Conn {
	t.Helper()
	url := "ws" + server.URL[len("http"):] + "?bidder_id=" + bidderID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendMessage(t *testing.T, ws *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(&Message{Type: msgType, Data: string(data)})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, raw))
}

func readMessage(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := ws.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestHandleAuctions_RequiresBidderID(t *testing.T) {
	server, _, _ := newTestGateway(t)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBidBroadcast(t *testing.T) {
	server, _, auctionID := newTestGateway(t)
	ws := dialBidder(t, server, "alice")

	sendMessage(t, ws, "bid", map[string]any{"auction_id": auctionID, "amount": 11000})

	msg := readMessage(t, ws)
	require.Equal(t, "bid", msg["type"])

	var event bidEvent
	require.NoError(t, json.Unmarshal([]byte(msg["data"].(string)), &event))
	require.Equal(t, "alice", event.Bid.BidderID)
	require.Equal(t, int64(11000), event.Bid.Amount)
	require.Equal(t, "alice", event.Snapshot.HighBidderID)
}

func TestOutbidNotice(t *testing.T) {
	server, _, auctionID := newTestGateway(t)
	alice := dialBidder(t, server, "alice")
	bob := dialBidder(t, server, "bob")

	sendMessage(t, alice, "bid", map[string]any{"auction_id": auctionID, "amount": 11000})
	msg := readMessage(t, alice)
	require.Equal(t, "bid", msg["type"])
	msg = readMessage(t, bob)
	require.Equal(t, "bid", msg["type"])

	sendMessage(t, bob, "bid", map[string]any{"auction_id": auctionID, "amount": 12000})

	// Alice sees the broadcast of Bob's bid, then her targeted notice.
	msg = readMessage(t, alice)
	require.Equal(t, "bid", msg["type"])
	msg = readMessage(t, alice)
	require.Equal(t, "outbid", msg["type"])

	var snap types.Snapshot
	require.NoError(t, json.Unmarshal([]byte(msg["data"].(string)), &snap))
	require.Equal(t, "bob", snap.HighBidderID)
	require.Equal(t, int64(12000), snap.CurrentPrice)
}

func TestBidRejectionError(t *testing.T) {
	server, _, auctionID := newTestGateway(t)
	ws := dialBidder(t, server, "alice")

	sendMessage(t, ws, "bid", map[string]any{"auction_id": auctionID, "amount": 500})

	msg := readMessage(t, ws)
	require.Equal(t, "error", msg["type"])
	require.Equal(t, float64(1003), msg["code"])
	require.Contains(t, msg["message"], "11000")
}

func TestSnapshotRequest(t *testing.T) {
	server, _, auctionID := newTestGateway(t)
	ws := dialBidder(t, server, "alice")

	sendMessage(t, ws, "snapshot", map[string]any{"auction_id": auctionID})

	msg := readMessage(t, ws)
	require.Equal(t, "snapshot", msg["type"])

	var snap types.Snapshot
	require.NoError(t, json.Unmarshal([]byte(msg["data"].(string)), &snap))
	require.Equal(t, auctionID, snap.AuctionID)
	require.Equal(t, int64(11000), snap.MinimumNextBid)
}

func TestUnknownMessageType(t *testing.T) {
	server, _, _ := newTestGateway(t)
	ws := dialBidder(t, server, "alice")

	raw := []byte(`{"type": "shout", "data": "{}"}`)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, raw))

	msg := readMessage(t, ws)
	require.Equal(t, "error", msg["type"])
	require.Equal(t, float64(1007), msg["code"])
}

func TestRateLimit(t *testing.T) {
	server, _, auctionID := newTestGateway(t)
	ws := dialBidder(t, server, "alice")

	// The limiter allows a burst of 3; the fourth message in quick
	// succession is refused.
	for i := 0; i < 4; i++ {
		sendMessage(t, ws, "snapshot", map[string]any{"auction_id": auctionID})
	}

	var limited bool
	for i := 0; i < 4; i++ {
		msg := readMessage(t, ws)
		if msg["type"] == "error" && msg["code"] == float64(1008) {
			limited = true
			break
		}
		require.Equal(t, "snapshot", msg["type"], fmt.Sprintf("message %d", i))
	}
	require.True(t, limited)
}
