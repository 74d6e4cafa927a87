package rest

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/ahmed-226/BidTreasure-sub000/internal/auction"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/errors"
	"github.com/ahmed-226/BidTreasure-sub000/pkg/types"
)

// AuctionHandler exposes the engine's operations over HTTP. Every rejection
// a bidder can act on carries the next valid amount in the response body.
type AuctionHandler struct {
	engine *auction.Engine
}

func NewAuctionHandler(engine *auction.Engine) *AuctionHandler {
	return &AuctionHandler{engine: engine}
}

type createAuctionRequest struct {
	ID            string    `json:"id"`
	StartingPrice int64     `json:"startingPrice" binding:"min=0"`
	ReservePrice  int64     `json:"reservePrice" binding:"min=0"`
	BidIncrement  int64     `json:"bidIncrement" binding:"required,gt=0"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime" binding:"required"`
}

type placeBidRequest struct {
	BidderID string `json:"bidderId" binding:"required"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
}

type proxyRequest struct {
	BidderID string `json:"bidderId" binding:"required"`
	Ceiling  int64  `json:"ceiling" binding:"required,gt=0"`
}

type cancelProxyRequest struct {
	BidderID string `json:"bidderId" binding:"required"`
}

// CreateAuction handles POST /auctions
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, err := h.engine.CreateAuction(types.AuctionConfig{
		ID:            req.ID,
		StartingPrice: req.StartingPrice,
		ReservePrice:  req.ReservePrice,
		BidIncrement:  req.BidIncrement,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// ListAuctions handles GET /auctions
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Snapshots())
}

// GetSnapshot handles GET /auctions/:auction_id
func (h *AuctionHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.engine.GetSnapshot(c.Param("auction_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// ListBids handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) ListBids(c *gin.Context) {
	bids, err := h.engine.History(c.Param("auction_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if bids == nil {
		bids = []types.Bid{}
	}
	c.JSON(http.StatusOK, bids)
}

// PlaceBid handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	auctionID := c.Param("auction_id")
	snap, err := h.engine.PlaceBid(auctionID, req.BidderID, req.Amount)
	if err != nil {
		log.Debug("Bid rejected",
			"auction", auctionID,
			"bidder", req.BidderID,
			"amount", req.Amount,
			"error", err.Error(),
		)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// SetProxyCeiling handles PUT /auctions/:auction_id/proxy
func (h *AuctionHandler) SetProxyCeiling(c *gin.Context) {
	var req proxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, err := h.engine.SetProxyCeiling(c.Param("auction_id"), req.BidderID, req.Ceiling)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// CancelProxy handles DELETE /auctions/:auction_id/proxy
func (h *AuctionHandler) CancelProxy(c *gin.Context) {
	var req cancelProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	snap, err := h.engine.CancelProxy(c.Param("auction_id"), req.BidderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// respondError maps the engine's typed domain errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
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
		c.JSON(http.StatusNotFound, gin.H{"error": "auction not found"})
	case stderrors.As(err, &notActive):
		c.JSON(http.StatusConflict, gin.H{"error": "auction is not accepting bids", "status": notActive.Status})
	case stderrors.As(err, &tooLow):
		c.JSON(http.StatusConflict, gin.H{"error": "bid too low", "minimumNextBid": tooLow.Minimum})
	case stderrors.As(err, &selfOutbid):
		c.JSON(http.StatusConflict, gin.H{"error": "bidder already holds the high bid"})
	case stderrors.As(err, &lowCeiling):
		c.JSON(http.StatusConflict, gin.H{"error": "proxy ceiling too low", "minimumCeiling": lowCeiling.Minimum})
	case stderrors.As(err, &appErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message})
	default:
		log.Error("Unexpected engine error: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
