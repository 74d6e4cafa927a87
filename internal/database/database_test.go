package database

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

var testDSN string

func mustStartPostgresContainer() (func(context.Context) error, error) {
	ctx := context.Background()

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:latest",
		postgres.WithDatabase("auction_archive"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	testDSN, err = dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}
	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	teardown, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func openTestService(t *testing.T) Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping archive integration test in short mode")
	}
	srv, err := Open(testDSN)
	require.NoError(t, err)
	require.NoError(t, srv.EnsureSchema(context.Background()))
	return srv
}

func TestHealth(t *testing.T) {
	srv := openTestService(t)

	stats := srv.Health()
	require.Equal(t, "up", stats["status"])
	require.NotContains(t, stats, "error")
	require.Equal(t, "It's healthy", stats["message"])
}

func TestArchiveRoundTrip(t *testing.T) {
	srv := openTestService(t)
	ctx := context.Background()
	auctionID := uuid.NewString()

	placedAt := time.Now().UTC().Truncate(time.Microsecond)
	bids := []types.Bid{
		{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			BidderID:  "alice",
			Amount:    11000,
			PlacedAt:  placedAt,
		},
		{
			ID:             uuid.NewString(),
			AuctionID:      auctionID,
			BidderID:       "bob",
			Amount:         12000,
			PlacedAt:       placedAt.Add(time.Second),
			ProxyGenerated: true,
		},
	}
	for _, bid := range bids {
		require.NoError(t, srv.InsertBid(ctx, bid))
	}

	stored, err := srv.ListBids(ctx, auctionID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, "alice", stored[0].BidderID)
	require.Equal(t, int64(11000), stored[0].Amount)
	require.False(t, stored[0].ProxyGenerated)
	require.Equal(t, "bob", stored[1].BidderID)
	require.True(t, stored[1].ProxyGenerated)

	// Bids from other auctions stay out of the listing.
	other, err := srv.ListBids(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestInsertResult(t *testing.T) {
	srv := openTestService(t)
	ctx := context.Background()

	snap := types.Snapshot{
		AuctionID:    uuid.NewString(),
		CurrentPrice: 15000,
		HighBidderID: "alice",
		ReserveMet:   true,
		BidCount:     5,
		Status:       types.StatusSold,
	}
	require.NoError(t, srv.InsertResult(ctx, snap))
}

func TestClose(t *testing.T) {
	srv := openTestService(t)
	require.NoError(t, srv.Close())
	// Drop the cached instance so a later New does not hand out a closed pool.
	dbInstance = nil
}
