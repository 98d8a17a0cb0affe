package httpapi

import (
	"net/http"

	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RouterParams struct {
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	// WebSocket is mounted at /ws when set
	WebSocket http.HandlerFunc
	Logger    zerolog.Logger
}

// NewRouter configures all routes of the service
func NewRouter(params RouterParams) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(params.Logger.With().Str("component", "http").Logger()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "auction-service"})
	})

	if params.WebSocket != nil {
		router.GET("/ws", gin.WrapF(params.WebSocket))
	}

	handler := NewAuctionHandler(AuctionHandlerParams{
		AuctionService: params.AuctionService,
		BidService:     params.BidService,
		Logger:         params.Logger,
	})

	auctions := router.Group("/api/auctions")
	{
		auctions.GET("", handler.ListAuctions)
		auctions.GET("/:id", handler.GetAuction)
		auctions.GET("/:id/bids", handler.GetBids)
	}

	authed := router.Group("/api/auctions", RequireUser())
	{
		authed.POST("", handler.CreateAuction)
		authed.POST("/:id/bids", handler.PlaceBid)
		authed.POST("/:id/submit", handler.SubmitAuction)
		authed.POST("/:id/approve", handler.ApproveAuction)
		authed.POST("/:id/cancel", handler.CancelAuction)
	}

	return router
}
