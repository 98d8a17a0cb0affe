package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AuctionHandler serves the auction and bid endpoints
type AuctionHandler struct {
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	logger         zerolog.Logger
}

type AuctionHandlerParams struct {
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	Logger         zerolog.Logger
}

func NewAuctionHandler(params AuctionHandlerParams) *AuctionHandler {
	return &AuctionHandler{
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		logger:         params.Logger.With().Str("component", "http_handler").Logger(),
	}
}

type placeBidBody struct {
	Amount decimal.Decimal `json:"amount"`
}

type createAuctionBody struct {
	CategoryID      *uuid.UUID       `json:"category_id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	StartingPrice   decimal.Decimal  `json:"starting_price"`
	MinBidIncrement decimal.Decimal  `json:"min_bid_increment"`
	BuyNowPrice     *decimal.Decimal `json:"buy_now_price"`
	StartTime       time.Time        `json:"start_time"`
	EndTime         time.Time        `json:"end_time"`
	Draft           bool             `json:"draft"`
}

type placeBidResponse struct {
	Bid             *bid.Bid        `json:"bid"`
	NewPrice        decimal.Decimal `json:"new_price"`
	NewBidCount     int             `json:"new_bid_count"`
	EndTime         time.Time       `json:"end_time"`
	EndTimeExtended bool            `json:"end_time_extended"`
}

func bindError(err error) error {
	return &shared.AppError{Code: shared.CodeInvalidRequest, Message: "invalid request payload", Cause: err}
}

func auctionIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, &shared.AppError{Code: shared.CodeInvalidRequest, Message: "invalid auction id", Cause: err}
	}
	return id, nil
}

// PlaceBid handles POST /api/auctions/:id/bids
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		JSONError(c, err)
		return
	}

	var body placeBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		JSONError(c, bindError(err))
		return
	}

	bidderID := currentUser(c)
	result, err := h.bidService.PlaceBid(c.Request.Context(), inbound.PlaceBidRequest{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    body.Amount,
	})
	if err != nil {
		h.logger.Info().Err(err).
			Str("auction_id", auctionID.String()).
			Str("bidder_id", bidderID.String()).
			Msg("Bid rejected")
		JSONError(c, err)
		return
	}

	JSONResponse(c, http.StatusCreated, placeBidResponse{
		Bid:             result.Bid,
		NewPrice:        result.NewPrice,
		NewBidCount:     result.NewBidCount,
		EndTime:         result.EndTime,
		EndTimeExtended: result.EndTimeExtended,
	}, "bid placed")
}

// GetBids handles GET /api/auctions/:id/bids
func (h *AuctionHandler) GetBids(c *gin.Context) {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		JSONError(c, err)
		return
	}

	bids, err := h.bidService.GetBids(c.Request.Context(), auctionID)
	if err != nil {
		JSONError(c, err)
		return
	}
	if bids == nil {
		bids = []*bid.Bid{}
	}

	JSONResponse(c, http.StatusOK, bids, "bids retrieved")
}

// CreateAuction handles POST /api/auctions
func (h *AuctionHandler) CreateAuction(c *gin.Context) {
	var body createAuctionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		JSONError(c, bindError(err))
		return
	}

	a, err := h.auctionService.CreateAuction(c.Request.Context(), inbound.CreateAuctionRequest{
		SellerID:        currentUser(c),
		CategoryID:      body.CategoryID,
		Title:           body.Title,
		Description:     body.Description,
		StartingPrice:   body.StartingPrice,
		MinBidIncrement: body.MinBidIncrement,
		BuyNowPrice:     body.BuyNowPrice,
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		Draft:           body.Draft,
	})
	if err != nil {
		JSONError(c, err)
		return
	}

	JSONResponse(c, http.StatusCreated, a, "auction created")
}

// GetAuction handles GET /api/auctions/:id
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		JSONError(c, err)
		return
	}

	a, err := h.auctionService.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		JSONError(c, err)
		return
	}

	JSONResponse(c, http.StatusOK, a, "auction retrieved")
}

// ListAuctions handles GET /api/auctions
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	req := inbound.ListAuctionsRequest{Page: 1, PageSize: 20}

	if raw := c.Query("status"); raw != "" {
		status := auction.Status(raw)
		req.Status = &status
	}
	if raw := c.Query("seller_id"); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			JSONError(c, &shared.AppError{Code: shared.CodeInvalidRequest, Message: "invalid seller_id", Cause: err})
			return
		}
		req.SellerID = &sellerID
	}
	for name, target := range map[string]*int{"page": &req.Page, "page_size": &req.PageSize} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			JSONError(c, &shared.AppError{Code: shared.CodeInvalidRequest, Message: fmt.Sprintf("invalid %s", name)})
			return
		}
		*target = n
	}

	auctions, err := h.auctionService.ListAuctions(c.Request.Context(), req)
	if err != nil {
		JSONError(c, err)
		return
	}
	if auctions == nil {
		auctions = []*auction.Auction{}
	}

	JSONResponse(c, http.StatusOK, auctions, "auctions retrieved")
}

// SubmitAuction handles POST /api/auctions/:id/submit
func (h *AuctionHandler) SubmitAuction(c *gin.Context) {
	h.lifecycle(c, "auction submitted", func(auctionID uuid.UUID) (*auction.Auction, error) {
		return h.auctionService.SubmitAuction(c.Request.Context(), auctionID, currentUser(c))
	})
}

// ApproveAuction handles POST /api/auctions/:id/approve
func (h *AuctionHandler) ApproveAuction(c *gin.Context) {
	h.lifecycle(c, "auction approved", func(auctionID uuid.UUID) (*auction.Auction, error) {
		return h.auctionService.ApproveAuction(c.Request.Context(), auctionID)
	})
}

// CancelAuction handles POST /api/auctions/:id/cancel
func (h *AuctionHandler) CancelAuction(c *gin.Context) {
	h.lifecycle(c, "auction cancelled", func(auctionID uuid.UUID) (*auction.Auction, error) {
		return h.auctionService.CancelAuction(c.Request.Context(), auctionID, currentUser(c))
	})
}

func (h *AuctionHandler) lifecycle(c *gin.Context, message string, action func(auctionID uuid.UUID) (*auction.Auction, error)) {
	auctionID, err := auctionIDParam(c)
	if err != nil {
		JSONError(c, err)
		return
	}

	a, err := action(auctionID)
	if err != nil {
		JSONError(c, err)
		return
	}

	JSONResponse(c, http.StatusOK, a, message)
}
