package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/adapters/identity"
	"github.com/mwkdckd93-sudo/maz/internal/app"
	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const requestTimeout = 10 * time.Second

// WsHandler manages WebSocket connections and message routing
type WsHandler struct {
	clients        map[string]*WsClient // clientID -> Client
	clientsMu      sync.RWMutex
	upgrader       websocket.Upgrader
	auctionService inbound.AuctionService
	bidService     inbound.BidService
	broadcaster    outbound.Broadcaster
	viewers        outbound.ViewerCounter
	logger         zerolog.Logger
}

type WsHandlerParams struct {
	Upgrader       websocket.Upgrader
	AuctionService inbound.AuctionService
	BidService     inbound.BidService
	Broadcaster    outbound.Broadcaster
	Viewers        outbound.ViewerCounter
	Logger         zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(params WsHandlerParams) *WsHandler {
	return &WsHandler{
		clients:        make(map[string]*WsClient),
		upgrader:       params.Upgrader,
		auctionService: params.AuctionService,
		bidService:     params.BidService,
		broadcaster:    params.Broadcaster,
		viewers:        params.Viewers,
		logger:         params.Logger.With().Str("component", "ws_handler").Logger(),
	}
}

// HandleWebSocket handles WebSocket connection upgrades
func (handler *WsHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := identity.FromRequest(r, true)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := NewClient(WsClientParams{
		UserID:  userID,
		Conn:    conn,
		Handler: handler,
		Logger:  handler.logger,
	})

	handler.registerClient(client)

	// Every client hears global activity and its own inbox
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	for _, audience := range []outbound.Audience{outbound.GlobalAudience, outbound.UserAudience(userID)} {
		if err := handler.broadcaster.Subscribe(ctx, audience, client.id, client.events); err != nil {
			handler.logger.Error().Err(err).Str("client_id", client.id).Str("audience", string(audience)).Msg("Failed to subscribe client")
		}
	}

	client.Start()

	// Wait for client to disconnect
	go func() {
		<-client.ctx.Done()
		handler.unregisterClient(client)
	}()

	handler.logger.Info().Str("client_id", client.id).Str("user_id", userID.String()).Msg("WebSocket client connected")
}

func (handler *WsHandler) registerClient(client *WsClient) {
	handler.clientsMu.Lock()
	defer handler.clientsMu.Unlock()
	handler.clients[client.id] = client
	handler.logger.Debug().Str("client_id", client.id).Int("total_clients", len(handler.clients)).Msg("Client registered")
}

func (handler *WsHandler) unregisterClient(client *WsClient) {
	handler.clientsMu.Lock()
	delete(handler.clients, client.id)
	total := len(handler.clients)
	handler.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := handler.broadcaster.UnsubscribeAll(ctx, client.id); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Msg("Failed to unsubscribe client")
	}
	for _, auctionID := range client.drainRooms() {
		handler.leaveViewers(ctx, auctionID)
	}

	client.Stop()

	handler.logger.Info().Str("client_id", client.id).Str("user_id", client.userID.String()).Int("total_clients", total).Msg("WebSocket client disconnected")
}

// GetConnectedClients returns the number of connected clients
func (handler *WsHandler) GetConnectedClients() int {
	handler.clientsMu.RLock()
	defer handler.clientsMu.RUnlock()
	return len(handler.clients)
}

// Shutdown disconnects every client
func (handler *WsHandler) Shutdown() {
	handler.clientsMu.RLock()
	clients := make([]*WsClient, 0, len(handler.clients))
	for _, client := range handler.clients {
		clients = append(clients, client)
	}
	handler.clientsMu.RUnlock()

	for _, client := range clients {
		client.cancel()
	}
}

func (handler *WsHandler) HandleClientMessage(client *WsClient, msg *ClientMessage) error {
	ctx, cancel := context.WithTimeout(client.ctx, requestTimeout)
	defer cancel()

	var (
		reply *ServerMessage
		err   error
	)
	switch msg.Type {
	case MessageTypeJoinAuction:
		reply, err = handler.handleJoinAuction(ctx, client, msg)
	case MessageTypeLeaveAuction:
		reply, err = handler.handleLeaveAuction(ctx, client, msg)
	case MessageTypePlaceBid:
		reply, err = handler.handlePlaceBid(ctx, client, msg)
	case MessageTypeGetAuction:
		reply, err = handler.handleGetAuction(ctx, msg)
	case MessageTypeListAuctions:
		reply, err = handler.handleListAuctions(ctx, msg)
	default:
		handler.logger.Warn().Str("client_id", client.id).Str("message_type", string(msg.Type)).Msg("Unknown message type from client")
		err = shared.ErrUnknownMessageType
	}

	if err != nil {
		reply = NewErrorMessage(err, msg.AuctionID)
	}
	reply.RequestID = msg.RequestID
	return client.Send(reply)
}

func (handler *WsHandler) handleJoinAuction(ctx context.Context, client *WsClient, msg *ClientMessage) (*ServerMessage, error) {
	auctionID := *msg.AuctionID

	a, err := handler.auctionService.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	if err := handler.broadcaster.Subscribe(ctx, outbound.AuctionAudience(auctionID), client.id, client.events); err != nil {
		handler.logger.Error().Err(err).Str("client_id", client.id).Str("auction_id", auctionID.String()).Msg("Failed to subscribe to auction")
		return nil, err
	}

	response := NewServerMessage(MessageTypeJoined)
	response.AuctionID = &auctionID
	response.Data["auction"] = auctionData(a)

	if client.join(auctionID) {
		if count, ok := handler.joinViewers(ctx, auctionID); ok {
			response.Data["viewer_count"] = count
		}
	}

	handler.logger.Info().Str("client_id", client.id).Str("auction_id", auctionID.String()).Msg("Client joined auction")
	return response, nil
}

func (handler *WsHandler) handleLeaveAuction(ctx context.Context, client *WsClient, msg *ClientMessage) (*ServerMessage, error) {
	auctionID := *msg.AuctionID

	if err := handler.broadcaster.Unsubscribe(ctx, outbound.AuctionAudience(auctionID), client.id); err != nil {
		return nil, err
	}
	if client.leave(auctionID) {
		handler.leaveViewers(ctx, auctionID)
	}

	response := NewServerMessage(MessageTypeLeft)
	response.AuctionID = &auctionID

	handler.logger.Info().Str("client_id", client.id).Str("auction_id", auctionID.String()).Msg("Client left auction")
	return response, nil
}

func (handler *WsHandler) joinViewers(ctx context.Context, auctionID uuid.UUID) (int64, bool) {
	if handler.viewers == nil {
		return 0, false
	}
	count, err := handler.viewers.Join(ctx, auctionID)
	if err != nil {
		handler.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to update viewer count")
		return 0, false
	}
	handler.publishViewerCount(ctx, auctionID, count)
	return count, true
}

func (handler *WsHandler) leaveViewers(ctx context.Context, auctionID uuid.UUID) {
	if handler.viewers == nil {
		return
	}
	count, err := handler.viewers.Leave(ctx, auctionID)
	if err != nil {
		handler.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to update viewer count")
		return
	}
	handler.publishViewerCount(ctx, auctionID, count)
}

func (handler *WsHandler) publishViewerCount(ctx context.Context, auctionID uuid.UUID, count int64) {
	if err := handler.broadcaster.Publish(ctx, outbound.AuctionAudience(auctionID), app.ViewerCountEvent(auctionID, count)); err != nil {
		handler.logger.Warn().Err(err).Str("auction_id", auctionID.String()).Msg("Failed to publish viewer count")
	}
}

// handlePlaceBid handles bid placement
func (handler *WsHandler) handlePlaceBid(ctx context.Context, client *WsClient, msg *ClientMessage) (*ServerMessage, error) {
	amount, err := msg.Amount()
	if err != nil {
		return nil, err
	}

	result, err := handler.bidService.PlaceBid(ctx, inbound.PlaceBidRequest{
		AuctionID: *msg.AuctionID,
		BidderID:  client.userID,
		Amount:    amount,
	})
	if err != nil {
		handler.logger.Info().Err(err).
			Str("client_id", client.id).
			Str("auction_id", msg.AuctionID.String()).
			Msg("Bid rejected")
		return nil, err
	}

	response := NewServerMessage(MessageTypeBidAccepted)
	response.AuctionID = msg.AuctionID
	response.Data["bid"] = bidData(result.Bid)
	response.Data["new_price"] = result.NewPrice.String()
	response.Data["new_bid_count"] = result.NewBidCount
	response.Data["end_time"] = result.EndTime.Format(time.RFC3339Nano)
	response.Data["end_time_extended"] = result.EndTimeExtended

	handler.logger.Info().
		Str("bid_id", result.Bid.ID.String()).
		Str("auction_id", msg.AuctionID.String()).
		Str("user_id", client.userID.String()).
		Str("amount", amount.String()).
		Msg("Bid placed successfully")
	return response, nil
}

// handleGetAuction handles getting auction details
func (handler *WsHandler) handleGetAuction(ctx context.Context, msg *ClientMessage) (*ServerMessage, error) {
	a, err := handler.auctionService.GetAuction(ctx, *msg.AuctionID)
	if err != nil {
		return nil, err
	}

	response := NewServerMessage(MessageTypeAuction)
	response.AuctionID = msg.AuctionID
	response.Data["auction"] = auctionData(a)
	return response, nil
}

// handleListAuctions handles listing auctions
func (handler *WsHandler) handleListAuctions(ctx context.Context, msg *ClientMessage) (*ServerMessage, error) {
	req := inbound.ListAuctionsRequest{
		Page:     msg.intField("page", 1),
		PageSize: msg.intField("page_size", 20),
	}
	if raw := strings.TrimSpace(msg.stringField("status")); raw != "" {
		status := auction.Status(raw)
		req.Status = &status
	}

	auctions, err := handler.auctionService.ListAuctions(ctx, req)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(auctions))
	for _, a := range auctions {
		items = append(items, auctionData(a))
	}

	response := NewServerMessage(MessageTypeAuctions)
	response.Data["auctions"] = items
	response.Data["count"] = len(items)
	response.Data["page"] = req.Page
	return response, nil
}
