package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flipledger/backend/internal/domain/listing"
)

// ExchangeConfig holds configuration for the source exchange API
type ExchangeConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
	RetryMax       int
}

// Errors for exchange configuration
var (
	ErrExchangeConfigMissingBaseURL = errors.New("exchange: base URL is required")
	ErrExchangeConfigMissingToken   = errors.New("exchange: token is required")
)

// Validate validates the exchange configuration and fills in defaults
func (c *ExchangeConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrExchangeConfigMissingBaseURL
	}
	if c.Token == "" {
		return ErrExchangeConfigMissingToken
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 3
	}
	return nil
}

// ExchangeClient implements SourceMarketplace against the peer-to-peer
// resale exchange's REST API.
type ExchangeClient struct {
	config *ExchangeConfig
	client *retryablehttp.Client
	logger *zap.Logger
}

// NewExchangeClient creates a new ExchangeClient with the given configuration
func NewExchangeClient(config *ExchangeConfig, logger *zap.Logger) (*ExchangeClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	client.Logger = nil

	return &ExchangeClient{
		config: config,
		client: client,
		logger: logger,
	}, nil
}

// ListLiveListings returns the account's currently live listings,
// paging through the API.
func (c *ExchangeClient) ListLiveListings(ctx context.Context) ([]listing.SourceListing, error) {
	var result []listing.SourceListing

	for page := 1; ; page++ {
		path := fmt.Sprintf("/selling/listings?state=live&page=%d", page)
		status, body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return nil, err
		}
		if status >= 400 {
			return nil, c.classify("listLiveListings", status, body)
		}

		var resp exchangeListingsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("exchange: failed to parse listings response: %w", err)
		}

		for _, l := range resp.Listings {
			price, _ := decimal.NewFromString(l.Amount)
			result = append(result, listing.SourceListing{
				ListingID: l.ID,
				Identity: listing.ProductIdentity{
					BaseSku: l.StyleCode,
					Size:    l.Size,
				},
				Price:    price,
				Currency: l.Currency,
			})
		}

		if page >= resp.Pagination.PageCount || len(resp.Listings) == 0 {
			break
		}
	}
	return result, nil
}

// EndListing takes a live listing down after its unit sold elsewhere.
// A 404 means it is already gone; that is the desired end state.
func (c *ExchangeClient) EndListing(ctx context.Context, listingID string) error {
	status, body, err := c.doRequest(ctx, http.MethodDelete, "/selling/listings/"+url.PathEscape(listingID))
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 400 {
		return c.classify("endListing", status, body)
	}
	return nil
}

func (c *ExchangeClient) doRequest(ctx context.Context, method, path string) (int, []byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("exchange: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, listing.WrapMarketplaceError(listing.ErrorKindTransient, method+" "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, listing.WrapMarketplaceError(listing.ErrorKindTransient, method+" "+path, err)
	}
	return resp.StatusCode, body, nil
}

func (c *ExchangeClient) classify(op string, status int, body []byte) error {
	detail := fmt.Sprintf("HTTP %d", status)
	var resp exchangeErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		detail = fmt.Sprintf("HTTP %d: %s", status, resp.Message)
	}

	c.logger.Debug("exchange API error",
		zap.String("op", op),
		zap.Int("status", status),
	)

	var kind listing.ErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = listing.ErrorKindConfiguration
	case status == http.StatusTooManyRequests || status >= 500:
		kind = listing.ErrorKindTransient
	default:
		kind = listing.ErrorKindPermanent
	}
	return listing.NewMarketplaceError(kind, op, detail)
}

// Ensure ExchangeClient implements SourceMarketplace
var _ listing.SourceMarketplace = (*ExchangeClient)(nil)
