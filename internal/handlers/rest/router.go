package rest

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
)

// NewRouter configures the HTTP API over the auction engine.
func NewRouter(engine *auction.Engine) *gin.Engine {
	router := gin.New() // no default middleware, logging goes through our own

	router.Use(gin.Recovery())
	router.Use(requestLogger)

	handler := NewAuctionHandler(engine)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", handler.CreateAuction)
		auctions.GET("", handler.ListAuctions)
		auctions.GET("/:auction_id", handler.GetSnapshot)
		auctions.GET("/:auction_id/bids", handler.ListBids)
		auctions.POST("/:auction_id/bids", handler.PlaceBid)
		auctions.PUT("/:auction_id/proxy", handler.SetProxyCeiling)
		auctions.DELETE("/:auction_id/proxy", handler.CancelProxy)
	}

	return router
}

// requestLogger logs incoming requests with timing.
func requestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	log.Info("HTTP request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start).String(),
	)
}
