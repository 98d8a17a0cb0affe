package ws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MessageType string

const (
	// Client to Server message types
	MessageTypeJoinAuction  MessageType = "join_auction"
	MessageTypeLeaveAuction MessageType = "leave_auction"
	MessageTypePlaceBid     MessageType = "place_bid"
	MessageTypeGetAuction   MessageType = "get_auction"
	MessageTypeListAuctions MessageType = "list_auctions"
	MessageTypePing         MessageType = "ping"

	// Server to Client message types. Broadcast events keep their event type.
	MessageTypeJoined      MessageType = "joined"
	MessageTypeLeft        MessageType = "left"
	MessageTypeBidAccepted MessageType = "bid_accepted"
	MessageTypeAuction     MessageType = "auction"
	MessageTypeAuctions    MessageType = "auctions"
	MessageTypeError       MessageType = "error"
	MessageTypePong        MessageType = "pong"
)

type ClientMessage struct {
	Type      MessageType    `json:"type"`
	AuctionID *uuid.UUID     `json:"auction_id,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type       MessageType    `json:"type"`
	AuctionID  *uuid.UUID     `json:"auction_id,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	Error      *string        `json:"error,omitempty"`
	Code       string         `json:"code,omitempty"`
	MinimumBid *string        `json:"minimum_bid,omitempty"`
	Timestamp  int64          `json:"timestamp"`
}

func NewServerMessage(msgType MessageType) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Data:      make(map[string]any),
		Timestamp: time.Now().Unix(),
	}
}

// NewErrorMessage builds an error reply. Coded errors expose their code and, for a bid
// below the minimum, the minimum acceptable amount at rejection time.
func NewErrorMessage(err error, auctionID *uuid.UUID) *ServerMessage {
	text := err.Error()
	msg := &ServerMessage{
		Type:      MessageTypeError,
		AuctionID: auctionID,
		Error:     &text,
		Timestamp: time.Now().Unix(),
	}
	if code, ok := shared.CodeOf(err); ok {
		msg.Code = string(code)
	}
	if minimum, ok := shared.MinimumOf(err); ok {
		formatted := minimum.String()
		msg.MinimumBid = &formatted
	}
	return msg
}

// NewEventMessage wraps a broadcast event for delivery to a client
func NewEventMessage(event outbound.Event) *ServerMessage {
	msg := &ServerMessage{
		Type:      MessageType(event.Type),
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
	if event.AuctionID != uuid.Nil {
		auctionID := event.AuctionID
		msg.AuctionID = &auctionID
	}
	return msg
}

func auctionData(a *auction.Auction) map[string]any {
	data := map[string]any{
		"id":                a.ID.String(),
		"seller_id":         a.SellerID.String(),
		"title":             a.Title,
		"description":       a.Description,
		"starting_price":    a.StartingPrice.String(),
		"current_price":     a.CurrentPrice.String(),
		"min_bid_increment": a.MinBidIncrement.String(),
		"minimum_bid":       a.MinimumNextBid().String(),
		"start_time":        a.StartTime.Format(time.RFC3339),
		"end_time":          a.EndTime.Format(time.RFC3339),
		"status":            string(a.Status),
		"bid_count":         a.BidCount,
	}
	if a.WinnerID != nil {
		data["winner_id"] = a.WinnerID.String()
	}
	if a.LeadingBidderID != nil {
		data["leading_bidder_id"] = a.LeadingBidderID.String()
	}
	return data
}

func bidData(b *bid.Bid) map[string]any {
	return map[string]any{
		"id":         b.ID.String(),
		"auction_id": b.AuctionID.String(),
		"bidder_id":  b.BidderID.String(),
		"amount":     b.Amount.String(),
		"is_winning": b.IsWinning,
		"created_at": b.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (m *ClientMessage) validateAuctionID() error {
	if m.AuctionID == nil || *m.AuctionID == uuid.Nil {
		return shared.ErrAuctionIDRequired
	}
	return nil
}

// ParseClientMessage parses a JSON message from client. Numbers are kept as json.Number
// so money amounts never pass through float64.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&msg); err != nil {
		return nil, fmt.Errorf("failed to parse client message: %w", err)
	}

	// Validate required fields
	if msg.Type == "" {
		return nil, shared.ErrMessageTypeRequired
	}

	return &msg, nil
}

// Validate validates a client message
func (m *ClientMessage) Validate() error {
	switch m.Type {
	case MessageTypeJoinAuction, MessageTypeLeaveAuction, MessageTypeGetAuction:
		if err := m.validateAuctionID(); err != nil {
			return err
		}
	case MessageTypePlaceBid:
		if err := m.validateAuctionID(); err != nil {
			return err
		}
		if _, err := m.Amount(); err != nil {
			return err
		}
	case MessageTypeListAuctions:

	case MessageTypePing:

	default:
		return shared.ErrUnknownMessageType
	}

	return nil
}

// Amount reads data.amount, given either as a JSON number or a decimal string
func (m *ClientMessage) Amount() (decimal.Decimal, error) {
	var raw string
	switch v := m.Data["amount"].(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = strings.TrimSpace(v)
	default:
		return decimal.Decimal{}, shared.ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.Sign() <= 0 {
		return decimal.Decimal{}, shared.ErrInvalidAmount
	}
	return amount, nil
}

// intField reads an integer from data, falling back to def
func (m *ClientMessage) intField(name string, def int) int {
	switch v := m.Data[name].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}

func (m *ClientMessage) stringField(name string) string {
	if v, ok := m.Data[name].(string); ok {
		return v
	}
	return ""
}
