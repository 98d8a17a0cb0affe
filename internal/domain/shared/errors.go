package shared

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code identifies a class of failure independently of the message text
type Code string

const (
	CodeAuctionNotFound      Code = "AUCTION_NOT_FOUND"
	CodeAuctionNotActive     Code = "AUCTION_NOT_ACTIVE"
	CodeAuctionEnded         Code = "AUCTION_ENDED"
	CodeSelfBid              Code = "SELF_BID"
	CodeAlreadyHighestBidder Code = "ALREADY_HIGHEST_BIDDER"
	CodeBidTooLow            Code = "BID_TOO_LOW"
	CodeLockTimeout          Code = "LOCK_TIMEOUT"
	CodePersistenceFailure   Code = "PERSISTENCE_FAILURE"
	CodeInvalidRequest       Code = "INVALID_REQUEST"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeForbidden            Code = "FORBIDDEN"
	CodeUnauthenticated      Code = "UNAUTHENTICATED"
)

// AppError is a coded error. Two AppErrors match with errors.Is when their codes match,
// so callers compare against the sentinels below regardless of payload or cause.
type AppError struct {
	Code    Code             `json:"code"`
	Message string           `json:"message"`
	Minimum *decimal.Decimal `json:"minimum_bid,omitempty"`
	Cause   error            `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Message
	if e.Minimum != nil {
		msg = fmt.Sprintf("%s (minimum bid is %s)", msg, e.Minimum.StringFixed(2))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Cause }

func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Bid rejection errors
var (
	ErrAuctionNotFound      = newError(CodeAuctionNotFound, "auction not found")
	ErrAuctionNotActive     = newError(CodeAuctionNotActive, "auction is not accepting bids")
	ErrAuctionEnded         = newError(CodeAuctionEnded, "auction already ended")
	ErrSelfBid              = newError(CodeSelfBid, "seller cannot bid on own auction")
	ErrAlreadyHighestBidder = newError(CodeAlreadyHighestBidder, "bidder already holds the winning bid")
	ErrBidTooLow            = newError(CodeBidTooLow, "bid amount too low")
	ErrLockTimeout          = newError(CodeLockTimeout, "auction is busy, try again")
	ErrPersistenceFailure   = newError(CodePersistenceFailure, "failed to persist changes")
)

// Request and lifecycle errors
var (
	ErrInvalidRequest    = newError(CodeInvalidRequest, "invalid request")
	ErrInvalidTransition = newError(CodeInvalidTransition, "invalid auction status transition")
	ErrUserNotFound      = newError(CodeUserNotFound, "user not found")
	ErrNotSeller         = newError(CodeForbidden, "only the seller can change this auction")
	ErrUnauthenticated   = newError(CodeUnauthenticated, "user identity is required")

	ErrInvalidEndTime       = &AppError{Code: CodeInvalidRequest, Message: "end time must be after start time"}
	ErrInvalidStartingPrice = &AppError{Code: CodeInvalidRequest, Message: "starting price must be a positive amount with at most 2 decimals"}
	ErrInvalidIncrement     = &AppError{Code: CodeInvalidRequest, Message: "minimum bid increment must be a positive amount with at most 2 decimals"}
	ErrInvalidAmount        = &AppError{Code: CodeInvalidRequest, Message: "amount must be positive with at most 2 decimals"}
	ErrTitleRequired        = &AppError{Code: CodeInvalidRequest, Message: "title is required"}
)

// WebSocket message validation errors
var (
	ErrMessageTypeRequired = errors.New("message type is required")
	ErrAuctionIDRequired   = errors.New("auction_id is required")
	ErrUnknownMessageType  = errors.New("unknown message type")
)

// BidTooLow returns a rejection carrying the minimum acceptable amount at rejection time
func BidTooLow(minimum decimal.Decimal) error {
	return &AppError{Code: CodeBidTooLow, Message: ErrBidTooLow.Message, Minimum: &minimum}
}

// LockTimeout wraps a lock acquisition failure
func LockTimeout(cause error) error {
	return &AppError{Code: CodeLockTimeout, Message: ErrLockTimeout.Message, Cause: cause}
}

// PersistenceFailure wraps a storage failure that aborted a transaction
func PersistenceFailure(cause error) error {
	return &AppError{Code: CodePersistenceFailure, Message: ErrPersistenceFailure.Message, Cause: cause}
}

// InvalidTransition reports a lifecycle transition that the current status does not allow
func InvalidTransition(from, to string) error {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot move auction from %s to %s", from, to),
	}
}

// CodeOf extracts the code of an AppError anywhere in the chain
func CodeOf(err error) (Code, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// MinimumOf extracts the minimum bid carried by a BidTooLow rejection
func MinimumOf(err error) (decimal.Decimal, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Minimum != nil {
		return *appErr.Minimum, true
	}
	return decimal.Decimal{}, false
}
