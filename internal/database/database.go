package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"

	"github.com/ahmed-226/BidTreasure-sub000/configs"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/errors"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// Service is the asynchronous bid archive. The auction engine never touches
// it; the recorder feeds it from engine events after each state transition
// has already committed in memory.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error

	// EnsureSchema creates the archive tables when they do not exist yet.
	EnsureSchema(ctx context.Context) error

	// ARCHIVE METHODS
	InsertBid(ctx context.Context, bid types.Bid) error
	InsertResult(ctx context.Context, snap types.Snapshot) error
	ListBids(ctx context.Context, auctionID string) ([]types.Bid, error)
}

type service struct {
	db *sql.DB
}

var dbInstance *service

func New(cfg *configs.Config) (Service, error) {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance, nil
	}
	dbConfig := cfg.Database
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.Name,
		dbConfig.SSLMode,
	)
	return Open(connStr)
}

// Open connects to the archive database with a raw connection string. Tests
// use it directly with a container-provided DSN.
func Open(connStr string) (Service, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "error opening archive database")
	}

	dbInstance = &service{
		db: db,
	}
	return dbInstance, nil
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	// Ping the database
	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		log.Errorf("db down: %v", err)
		return stats
	}

	// Database is up, add more statistics
	stats["status"] = "up"
	stats["message"] = "It's healthy"

	// Get database stats (like open connections, in use, idle, etc.)
	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	// Evaluate stats to provide a health message
	if dbStats.OpenConnections > 40 { // Assuming 50 is the max for this example
		stats["message"] = "The database is experiencing heavy load."
	}

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the database connection.
// It logs a message indicating the disconnection from the specific database.
// If the connection is successfully closed, it returns nil.
// If an error occurs while closing the connection, it returns the error.
func (s *service) Close() error {
	log.Info("Disconnected from database")
	return s.db.Close()
}

func (s *service) EnsureSchema(ctx context.Context) error {
	schema := `
        CREATE TABLE IF NOT EXISTS "Bid" (
            "id" uuid PRIMARY KEY,
            "auctionId" text NOT NULL,
            "bidderId" text NOT NULL,
            "amount" bigint NOT NULL,
            "proxyGenerated" boolean NOT NULL DEFAULT false,
            "placedAt" timestamptz NOT NULL
        );
        CREATE INDEX IF NOT EXISTS "Bid_auctionId_idx" ON "Bid" ("auctionId");
        CREATE TABLE IF NOT EXISTS "AuctionResult" (
            "auctionId" text PRIMARY KEY,
            "status" text NOT NULL,
            "finalPrice" bigint NOT NULL,
            "winnerId" text,
            "endedAt" timestamptz NOT NULL DEFAULT now()
        );
    `
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "error creating archive schema")
	}
	return nil
}

func (s *service) InsertBid(ctx context.Context, bid types.Bid) error {
	query := `
        INSERT INTO "Bid" ("id", "auctionId", "bidderId", "amount", "proxyGenerated", "placedAt")
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := s.db.ExecContext(ctx, query, bid.ID, bid.AuctionID, bid.BidderID, bid.Amount, bid.ProxyGenerated, bid.PlacedAt)
	if err != nil {
		return errors.Wrap(err, "error inserting bid")
	}
	return nil
}

func (s *service) InsertResult(ctx context.Context, snap types.Snapshot) error {
	var winner *string
	if snap.Status == types.StatusSold && snap.HighBidderID != "" {
		winner = &snap.HighBidderID
	}
	query := `
        INSERT INTO "AuctionResult" ("auctionId", "status", "finalPrice", "winnerId")
        VALUES ($1, $2, $3, $4)
        ON CONFLICT ("auctionId") DO NOTHING
    `
	_, err := s.db.ExecContext(ctx, query, snap.AuctionID, string(snap.Status), snap.CurrentPrice, winner)
	if err != nil {
		return errors.Wrap(err, "error inserting auction result")
	}
	return nil
}

func (s *service) ListBids(ctx context.Context, auctionID string) ([]types.Bid, error) {
	query := `
        SELECT "id", "auctionId", "bidderId", "amount", "proxyGenerated", "placedAt"
        FROM "Bid"
        WHERE "auctionId" = $1
        ORDER BY "placedAt" ASC
    `
	rows, err := s.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("error listing bids: %w", err)
	}
	defer rows.Close()

	var bids []types.Bid
	for rows.Next() {
		var bid types.Bid
		err := rows.Scan(
			&bid.ID,
			&bid.AuctionID,
			&bid.BidderID,
			&bid.Amount,
			&bid.ProxyGenerated,
			&bid.PlacedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning bid: %w", err)
		}
		bids = append(bids, bid)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over bids: %w", err)
	}

	return bids, nil
}
