package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client asks the media service to drop the images of a finished auction
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

type ClientParams struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewClient creates a media client. With an empty BaseURL every call is a no-op.
func NewClient(params ClientParams) *Client {
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     params.Logger.With().Str("component", "media_client").Logger(),
	}
}

// DeleteMediaForAuction sends DELETE {base}/auctions/{id}/media
func (client *Client) DeleteMediaForAuction(ctx context.Context, auctionID uuid.UUID) error {
	if client.baseURL == "" {
		return nil
	}

	url := fmt.Sprintf("%s/auctions/%s/media", client.baseURL, auctionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// 404 means there was nothing to delete
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("failed to delete media: unexpected status %d", resp.StatusCode)
	}

	client.logger.Debug().
		Str("auction_id", auctionID.String()).
		Int("status", resp.StatusCode).
		Msg("Auction media deleted")
	return nil
}
