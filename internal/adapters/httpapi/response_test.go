package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrAuctionNotFound, http.StatusNotFound},
		{shared.ErrUserNotFound, http.StatusNotFound},
		{shared.ErrAuctionNotActive, http.StatusConflict},
		{shared.ErrAuctionEnded, http.StatusConflict},
		{shared.ErrAlreadyHighestBidder, http.StatusConflict},
		{shared.InvalidTransition("sold", "active"), http.StatusConflict},
		{shared.BidTooLow(decimal.NewFromInt(5)), http.StatusUnprocessableEntity},
		{shared.ErrSelfBid, http.StatusUnprocessableEntity},
		{shared.LockTimeout(errors.New("timeout")), http.StatusServiceUnavailable},
		{shared.ErrNotSeller, http.StatusForbidden},
		{shared.ErrUnauthenticated, http.StatusUnauthorized},
		{shared.ErrInvalidAmount, http.StatusBadRequest},
		{fmt.Errorf("failed to place bid: %w", shared.ErrAuctionEnded), http.StatusConflict},
		{shared.PersistenceFailure(errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
