package httpapi

import (
	"net/http"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/gin-gonic/gin"
)

// JSONResponse sends a structured JSON response
func JSONResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// JSONError sends a structured error response. Coded errors carry their code and,
// for a bid below the minimum, the minimum acceptable amount.
func JSONError(c *gin.Context, err error) {
	status := StatusFor(err)
	body := gin.H{
		"status":  status,
		"message": http.StatusText(status),
		"error":   err.Error(),
	}
	if code, ok := shared.CodeOf(err); ok {
		body["code"] = string(code)
	}
	if minimum, ok := shared.MinimumOf(err); ok {
		body["minimum_bid"] = minimum.String()
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, body)
}

// StatusFor maps domain errors to HTTP status codes
func StatusFor(err error) int {
	code, ok := shared.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch code {
	case shared.CodeAuctionNotFound, shared.CodeUserNotFound:
		return http.StatusNotFound
	case shared.CodeAuctionNotActive, shared.CodeAuctionEnded, shared.CodeAlreadyHighestBidder, shared.CodeInvalidTransition:
		return http.StatusConflict
	case shared.CodeBidTooLow, shared.CodeSelfBid:
		return http.StatusUnprocessableEntity
	case shared.CodeLockTimeout:
		return http.StatusServiceUnavailable
	case shared.CodeForbidden:
		return http.StatusForbidden
	case shared.CodeUnauthenticated:
		return http.StatusUnauthorized
	case shared.CodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
