package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

func newRecorderTestEngine(t *testing.T) (*auction.Engine, string) {
	t.Helper()
	engine := auction.New(auction.SystemClock(), auction.Options{})
	snap, err := engine.CreateAuction(types.AuctionConfig{
		StartingPrice: 10000,
		BidIncrement:  1000,
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return engine, snap.AuctionID
}

func TestRecorder_ArchivesAcceptedBids(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockService(ctrl)
	engine, auctionID := newRecorderTestEngine(t)

	var mu sync.Mutex
	var archived []types.Bid
	db.EXPECT().InsertBid(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, bid types.Bid) error {
			mu.Lock()
			archived = append(archived, bid)
			mu.Unlock()
			return nil
		},
	).Times(2)

	recorder := NewRecorder(db)
	recorder.Attach(engine)

	_, err := engine.PlaceBid(auctionID, "alice", 11000)
	require.NoError(t, err)
	_, err = engine.PlaceBid(auctionID, "bob", 12000)
	require.NoError(t, err)

	// Close flushes the queue, so both writes have landed afterwards.
	recorder.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, archived, 2)
	require.Equal(t, "alice", archived[0].BidderID)
	require.Equal(t, int64(11000), archived[0].Amount)
	require.Equal(t, "bob", archived[1].BidderID)
	require.Equal(t, auctionID, archived[1].AuctionID)
}

func TestRecorder_ArchivesAuctionResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockService(ctrl)
	engine, auctionID := newRecorderTestEngine(t)

	db.EXPECT().InsertBid(gomock.Any(), gomock.Any()).Return(nil)

	var mu sync.Mutex
	var results []types.Snapshot
	db.EXPECT().InsertResult(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, snap types.Snapshot) error {
			mu.Lock()
			results = append(results, snap)
			mu.Unlock()
			return nil
		},
	)

	recorder := NewRecorder(db)
	recorder.Attach(engine)

	_, err := engine.PlaceBid(auctionID, "alice", 11000)
	require.NoError(t, err)
	transitions := engine.Tick(time.Now().Add(2 * time.Hour))
	require.Len(t, transitions, 1)

	recorder.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	require.Equal(t, auctionID, results[0].AuctionID)
	require.Equal(t, types.StatusSold, results[0].Status)
	require.Equal(t, int64(11000), results[0].CurrentPrice)
}

func TestRecorder_CloseIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	db := NewMockService(ctrl)

	recorder := NewRecorder(db)
	recorder.Close()
	recorder.Close()
}
