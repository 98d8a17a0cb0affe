package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/auction"
	"github.com/mwkdckd93-sudo/maz/internal/domain/bid"
	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound"
	"github.com/mwkdckd93-sudo/maz/internal/ports/inbound/mocks"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type testRouter struct {
	router   *gin.Engine
	auctions *mocks.MockAuctionService
	bids     *mocks.MockBidService
}

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	auctions := mocks.NewMockAuctionService(ctrl)
	bids := mocks.NewMockBidService(ctrl)

	return &testRouter{
		router: NewRouter(RouterParams{
			AuctionService: auctions,
			BidService:     bids,
			Logger:         zerolog.Nop(),
		}),
		auctions: auctions,
		bids:     bids,
	}
}

func (tr *testRouter) do(method, path string, body any, userID *uuid.UUID) *httptest.ResponseRecorder {
	var payload []byte
	switch v := body.(type) {
	case nil:
	case string:
		payload = []byte(v)
	default:
		payload, _ = json.Marshal(v)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != nil {
		req.Header.Set("X-User-ID", userID.String())
	}
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPlaceBidHandler(t *testing.T) {
	auctionID := uuid.New()
	bidderID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		path           string
		body           any
		userID         *uuid.UUID
		mockSetup      func(tr *testRouter)
		expectedStatus int
		validate       func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any)
	}{
		{
			name:   "accepted",
			path:   "/api/auctions/" + auctionID.String() + "/bids",
			body:   `{"amount": "105000.00"}`,
			userID: &bidderID,
			mockSetup: func(tr *testRouter) {
				tr.bids.EXPECT().
					PlaceBid(gomock.Any(), inbound.PlaceBidRequest{
						AuctionID: auctionID,
						BidderID:  bidderID,
						Amount:    decimal.RequireFromString("105000.00"),
					}).
					Return(&inbound.PlaceBidResult{
						Bid: &bid.Bid{
							ID:        uuid.New(),
							AuctionID: auctionID,
							BidderID:  bidderID,
							Amount:    decimal.NewFromInt(105000),
							IsWinning: true,
							CreatedAt: now,
						},
						NewPrice:    decimal.NewFromInt(105000),
						NewBidCount: 1,
						EndTime:     now.Add(time.Hour),
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			validate: func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any) {
				require.Equal(t, "bid placed", resp["message"])
				data := resp["data"].(map[string]any)
				require.Equal(t, "105000", data["new_price"])
				require.EqualValues(t, 1, data["new_bid_count"])
				require.Equal(t, false, data["end_time_extended"])
			},
		},
		{
			name:   "numeric amount is accepted",
			path:   "/api/auctions/" + auctionID.String() + "/bids",
			body:   `{"amount": 110000}`,
			userID: &bidderID,
			mockSetup: func(tr *testRouter) {
				tr.bids.EXPECT().
					PlaceBid(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, req inbound.PlaceBidRequest) (*inbound.PlaceBidResult, error) {
						require.True(t, req.Amount.Equal(decimal.NewFromInt(110000)))
						return &inbound.PlaceBidResult{
							Bid:      &bid.Bid{ID: uuid.New(), AuctionID: auctionID, BidderID: bidderID, Amount: req.Amount},
							NewPrice: req.Amount,
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:   "below minimum exposes minimum bid",
			path:   "/api/auctions/" + auctionID.String() + "/bids",
			body:   `{"amount": "108000"}`,
			userID: &bidderID,
			mockSetup: func(tr *testRouter) {
				tr.bids.EXPECT().
					PlaceBid(gomock.Any(), gomock.Any()).
					Return(nil, shared.BidTooLow(decimal.NewFromInt(110000)))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			validate: func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any) {
				require.Equal(t, "BID_TOO_LOW", resp["code"])
				require.Equal(t, "110000", resp["minimum_bid"])
			},
		},
		{
			name:   "lock timeout asks for retry",
			path:   "/api/auctions/" + auctionID.String() + "/bids",
			body:   `{"amount": "108000"}`,
			userID: &bidderID,
			mockSetup: func(tr *testRouter) {
				tr.bids.EXPECT().
					PlaceBid(gomock.Any(), gomock.Any()).
					Return(nil, shared.LockTimeout(context.DeadlineExceeded))
			},
			expectedStatus: http.StatusServiceUnavailable,
			validate: func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any) {
				require.Equal(t, "LOCK_TIMEOUT", resp["code"])
				require.Equal(t, "1", w.Header().Get("Retry-After"))
			},
		},
		{
			name:   "auction ended",
			path:   "/api/auctions/" + auctionID.String() + "/bids",
			body:   `{"amount": "108000"}`,
			userID: &bidderID,
			mockSetup: func(tr *testRouter) {
				tr.bids.EXPECT().
					PlaceBid(gomock.Any(), gomock.Any()).
					Return(nil, shared.ErrAuctionEnded)
			},
			expectedStatus: http.StatusConflict,
			validate: func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any) {
				require.Equal(t, "AUCTION_ENDED", resp["code"])
				require.NotContains(t, resp, "minimum_bid")
			},
		},
		{
			name:           "missing identity",
			path:           "/api/auctions/" + auctionID.String() + "/bids",
			body:           `{"amount": "108000"}`,
			mockSetup:      func(tr *testRouter) {},
			expectedStatus: http.StatusUnauthorized,
			validate: func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any) {
				require.Equal(t, "UNAUTHENTICATED", resp["code"])
			},
		},
		{
			name:           "invalid auction id",
			path:           "/api/auctions/not-a-uuid/bids",
			body:           `{"amount": "108000"}`,
			userID:         &bidderID,
			mockSetup:      func(tr *testRouter) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			path:           "/api/auctions/" + auctionID.String() + "/bids",
			body:           `{invalid json}`,
			userID:         &bidderID,
			mockSetup:      func(tr *testRouter) {},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, w *httptest.ResponseRecorder, resp map[string]any) {
				require.Equal(t, "INVALID_REQUEST", resp["code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)
			tt.mockSetup(tr)

			w := tr.do(http.MethodPost, tt.path, tt.body, tt.userID)
			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())

			resp := decodeBody(t, w)
			require.EqualValues(t, tt.expectedStatus, resp["status"])
			if tt.validate != nil {
				tt.validate(t, w, resp)
			}
		})
	}
}

func TestGetAuctionHandler(t *testing.T) {
	tr := newTestRouter(t)
	auctionID := uuid.New()

	tr.auctions.EXPECT().
		GetAuction(gomock.Any(), auctionID).
		Return(&auction.Auction{
			ID:           auctionID,
			Title:        "Vintage camera",
			CurrentPrice: decimal.NewFromInt(100000),
			Status:       auction.StatusActive,
		}, nil)

	w := tr.do(http.MethodGet, "/api/auctions/"+auctionID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	require.Equal(t, auctionID.String(), data["id"])
	require.Equal(t, "active", data["status"])
	require.Equal(t, "100000", data["current_price"])
}

func TestGetAuctionHandlerNotFound(t *testing.T) {
	tr := newTestRouter(t)
	tr.auctions.EXPECT().GetAuction(gomock.Any(), gomock.Any()).Return(nil, shared.ErrAuctionNotFound)

	w := tr.do(http.MethodGet, "/api/auctions/"+uuid.NewString(), nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "AUCTION_NOT_FOUND", decodeBody(t, w)["code"])
}

func TestListAuctionsHandler(t *testing.T) {
	sellerID := uuid.New()

	t.Run("passes filters", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.auctions.EXPECT().
			ListAuctions(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req inbound.ListAuctionsRequest) ([]*auction.Auction, error) {
				require.NotNil(t, req.Status)
				require.Equal(t, auction.StatusActive, *req.Status)
				require.NotNil(t, req.SellerID)
				require.Equal(t, sellerID, *req.SellerID)
				require.Equal(t, 2, req.Page)
				require.Equal(t, 5, req.PageSize)
				return nil, nil
			})

		w := tr.do(http.MethodGet, "/api/auctions?status=active&seller_id="+sellerID.String()+"&page=2&page_size=5", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []any{}, decodeBody(t, w)["data"])
	})

	t.Run("rejects bad paging", func(t *testing.T) {
		tr := newTestRouter(t)
		w := tr.do(http.MethodGet, "/api/auctions?page=0", nil, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects bad seller", func(t *testing.T) {
		tr := newTestRouter(t)
		w := tr.do(http.MethodGet, "/api/auctions?seller_id=nope", nil, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetBidsHandler(t *testing.T) {
	tr := newTestRouter(t)
	auctionID := uuid.New()

	tr.bids.EXPECT().
		GetBids(gomock.Any(), auctionID).
		Return([]*bid.Bid{
			{ID: uuid.New(), AuctionID: auctionID, Amount: decimal.NewFromInt(110000), IsWinning: true},
			{ID: uuid.New(), AuctionID: auctionID, Amount: decimal.NewFromInt(105000)},
		}, nil)

	w := tr.do(http.MethodGet, "/api/auctions/"+auctionID.String()+"/bids", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 2)
	require.Equal(t, true, data[0].(map[string]any)["is_winning"])
}

func TestCreateAuctionHandler(t *testing.T) {
	tr := newTestRouter(t)
	sellerID := uuid.New()
	end := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tr.auctions.EXPECT().
		CreateAuction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req inbound.CreateAuctionRequest) (*auction.Auction, error) {
			require.Equal(t, sellerID, req.SellerID)
			require.Equal(t, "Vintage camera", req.Title)
			require.True(t, req.StartingPrice.Equal(decimal.NewFromInt(100000)))
			require.True(t, req.EndTime.Equal(end))
			return &auction.Auction{ID: uuid.New(), SellerID: sellerID, Title: req.Title, Status: auction.StatusActive}, nil
		})

	w := tr.do(http.MethodPost, "/api/auctions", map[string]any{
		"title":             "Vintage camera",
		"starting_price":    "100000",
		"min_bid_increment": "5000",
		"end_time":          end.Format(time.RFC3339),
	}, &sellerID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, "auction created", decodeBody(t, w)["message"])
}

func TestLifecycleHandlers(t *testing.T) {
	sellerID := uuid.New()
	auctionID := uuid.New()

	t.Run("submit", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.auctions.EXPECT().
			SubmitAuction(gomock.Any(), auctionID, sellerID).
			Return(&auction.Auction{ID: auctionID, Status: auction.StatusPending}, nil)

		w := tr.do(http.MethodPost, "/api/auctions/"+auctionID.String()+"/submit", nil, &sellerID)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("approve", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.auctions.EXPECT().
			ApproveAuction(gomock.Any(), auctionID).
			Return(&auction.Auction{ID: auctionID, Status: auction.StatusActive}, nil)

		w := tr.do(http.MethodPost, "/api/auctions/"+auctionID.String()+"/approve", nil, &sellerID)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("cancel by non-seller", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.auctions.EXPECT().
			CancelAuction(gomock.Any(), auctionID, sellerID).
			Return(nil, shared.ErrNotSeller)

		w := tr.do(http.MethodPost, "/api/auctions/"+auctionID.String()+"/cancel", nil, &sellerID)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("cancel with bids", func(t *testing.T) {
		tr := newTestRouter(t)
		tr.auctions.EXPECT().
			CancelAuction(gomock.Any(), auctionID, sellerID).
			Return(nil, shared.InvalidTransition("active", "cancelled"))

		w := tr.do(http.MethodPost, "/api/auctions/"+auctionID.String()+"/cancel", nil, &sellerID)
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "INVALID_TRANSITION", decodeBody(t, w)["code"])
	})
}

func TestHealth(t *testing.T) {
	tr := newTestRouter(t)
	w := tr.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decodeBody(t, w)["status"])
}
