package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/config"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type WsClient struct {
	id         string
	userID     uuid.UUID
	conn       *websocket.Conn
	sendChan   chan *ServerMessage
	events     chan outbound.Event
	rooms      map[uuid.UUID]struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	handler    *WsHandler
	workerPool *pond.WorkerPool
	stopped    bool
	mu         sync.Mutex
	logger     zerolog.Logger
}

type WsClientParams struct {
	UserID  uuid.UUID
	Conn    *websocket.Conn
	Handler *WsHandler
	Logger  zerolog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(params WsClientParams) *WsClient {
	ctx, cancel := context.WithCancel(context.Background())

	pool := pond.New(
		config.WSMaxWorkers,
		config.WSMaxCapacity,
		pond.Context(ctx),
		pond.Strategy(pond.Balanced()),
	)
	id := uuid.New().String()
	client := &WsClient{
		id:         id,
		userID:     params.UserID,
		conn:       params.Conn,
		sendChan:   make(chan *ServerMessage, 100),
		events:     make(chan outbound.Event, 100),
		rooms:      make(map[uuid.UUID]struct{}),
		ctx:        ctx,
		cancel:     cancel,
		handler:    params.Handler,
		workerPool: pool,
		logger:     params.Logger.With().Str("client_id", id).Str("user_id", params.UserID.String()).Logger(),
	}

	return client
}

func (client *WsClient) Start() {
	go client.messageSender()
	go client.messageReceiver()
}

// Stop closes the connection. The send and event channels stay open: the hub may still
// hold the event channel until the unsubscribe lands, and the sender exits on ctx.
func (client *WsClient) Stop() {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.stopped {
		return
	}
	client.stopped = true

	client.cancel()
	client.conn.Close()

	if client.workerPool != nil {
		client.workerPool.Stop()
	}
}

// Send queues a message for the client
func (client *WsClient) Send(msg *ServerMessage) error {
	client.mu.Lock()
	if client.stopped {
		client.mu.Unlock()
		return fmt.Errorf("client is stopped")
	}
	client.mu.Unlock()

	select {
	case client.sendChan <- msg:
		return nil
	default:
		// Channel is full, try to send with a timeout
		select {
		case client.sendChan <- msg:
			return nil
		case <-client.ctx.Done():
			return fmt.Errorf("client is stopped")
		case <-time.After(100 * time.Millisecond):
			return fmt.Errorf("client send channel is full")
		}
	}
}

// join records room membership and reports whether it is new
func (client *WsClient) join(auctionID uuid.UUID) bool {
	client.mu.Lock()
	defer client.mu.Unlock()

	if _, ok := client.rooms[auctionID]; ok {
		return false
	}
	client.rooms[auctionID] = struct{}{}
	return true
}

// leave drops room membership and reports whether the client was a member
func (client *WsClient) leave(auctionID uuid.UUID) bool {
	client.mu.Lock()
	defer client.mu.Unlock()

	if _, ok := client.rooms[auctionID]; !ok {
		return false
	}
	delete(client.rooms, auctionID)
	return true
}

// drainRooms removes and returns every room the client is in
func (client *WsClient) drainRooms() []uuid.UUID {
	client.mu.Lock()
	defer client.mu.Unlock()

	rooms := make([]uuid.UUID, 0, len(client.rooms))
	for id := range client.rooms {
		rooms = append(rooms, id)
	}
	client.rooms = make(map[uuid.UUID]struct{})
	return rooms
}

func (client *WsClient) messageSender() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-client.sendChan:
			if err := client.sendMessage(msg); err != nil {
				client.logger.Error().Err(err).Msg("Failed to send message to client")
				client.cancel()
				return
			}
		case event := <-client.events:
			if err := client.sendMessage(NewEventMessage(event)); err != nil {
				client.logger.Error().Err(err).Msg("Failed to send event to client")
				client.cancel()
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.cancel()
				return
			}
		case <-client.ctx.Done():
			return
		}
	}
}

func (client *WsClient) messageReceiver() {
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				client.logger.Warn().Err(err).Msg("WebSocket read error for client")
			} else {
				client.logger.Info().Str("error", err.Error()).Msg("WebSocket connection closed for client")
			}
			// Cancel context to notify handler about disconnection
			client.cancel()
			return
		}
		client.logger.Debug().Str("message", string(message)).Msg("Message received from client")

		submitted := client.workerPool.TrySubmit(func() {
			if err := client.handleMessage(message); err != nil {
				client.logger.Warn().Err(err).Msg("Failed to handle message in worker pool")
				_ = client.Send(NewErrorMessage(err, nil))
			}
		})
		if !submitted {
			_ = client.Send(NewErrorMessage(fmt.Errorf("too many requests in flight"), nil))
		}
	}
}

func (client *WsClient) sendMessage(msg *ServerMessage) error {
	client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return client.conn.WriteJSON(msg)
}

func (client *WsClient) handleMessage(data []byte) error {
	msg, err := ParseClientMessage(data)
	if err != nil {
		return fmt.Errorf("invalid message format: %w", err)
	}

	// Validate the message
	if err := msg.Validate(); err != nil {
		reply := NewErrorMessage(err, msg.AuctionID)
		reply.RequestID = msg.RequestID
		return client.Send(reply)
	}

	if msg.Type == MessageTypePing {
		response := NewServerMessage(MessageTypePong)
		response.RequestID = msg.RequestID
		return client.Send(response)
	}

	if client.handler != nil {
		return client.handler.HandleClientMessage(client, msg)
	}
	return fmt.Errorf("handler not available")
}
