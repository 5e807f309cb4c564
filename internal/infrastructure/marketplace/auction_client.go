package marketplace

import (
	"context"
	"encoding/json"
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

const (
	// maxResponseSize limits response bodies to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	// offersPageLimit is the page size used when enumerating offers
	offersPageLimit = 200
)

// AuctionClient implements DestinationMarketplace against the auction
// marketplace's REST API. Transient failures (connection errors, 429,
// 5xx) are retried by the underlying client before an error surfaces.
type AuctionClient struct {
	config *AuctionConfig
	client *retryablehttp.Client
	logger *zap.Logger
}

// NewAuctionClient creates a new AuctionClient with the given configuration
func NewAuctionClient(config *AuctionConfig, logger *zap.Logger) (*AuctionClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.RetryMax = config.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 10 * time.Second
	client.HTTPClient.Timeout = time.Duration(config.TimeoutSeconds) * time.Second
	client.Logger = nil

	return &AuctionClient{
		config: config,
		client: client,
		logger: logger,
	}, nil
}

// ---------------------------------------------------------------------------
// Location operations
// ---------------------------------------------------------------------------

// ListLocations returns the seller account's fulfillment locations
func (c *AuctionClient) ListLocations(ctx context.Context) ([]listing.Location, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/location", nil)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, c.classify("listLocations", status, body)
	}

	var resp auctionLocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("auction: failed to parse locations response: %w", err)
	}

	locations := make([]listing.Location, len(resp.Locations))
	for i, loc := range resp.Locations {
		locations[i] = listing.Location{
			Key:    loc.MerchantLocationKey,
			Name:   loc.Name,
			Status: listing.LocationStatus(loc.MerchantLocationStatus),
		}
	}
	return locations, nil
}

// CreateLocation creates a fulfillment location under the given key
func (c *AuctionClient) CreateLocation(ctx context.Context, key string, payload listing.CreateLocationPayload) error {
	req := auctionCreateLocationRequest{
		Name: payload.Name,
		Location: auctionAddress{
			AddressLine1:    payload.AddressLine1,
			City:            payload.City,
			StateOrProvince: payload.StateOrProvince,
			PostalCode:      payload.PostalCode,
			Country:         payload.Country,
		},
		LocationTypes: []string{"WAREHOUSE"},
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/location/"+url.PathEscape(key), req)
	if err != nil {
		return err
	}
	if status >= 400 {
		return c.classify("createLocation", status, body)
	}
	return nil
}

// EnableLocation attempts to enable a disabled location
func (c *AuctionClient) EnableLocation(ctx context.Context, key string) error {
	status, body, err := c.doRequest(ctx, http.MethodPost, "/location/"+url.PathEscape(key)+"/enable", nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		return c.classify("enableLocation", status, body)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Inventory and offer operations
// ---------------------------------------------------------------------------

// UpsertInventoryItem writes the inventory record keyed by SKU.
// PUT semantics: the whole record is replaced, so retries are safe.
func (c *AuctionClient) UpsertInventoryItem(ctx context.Context, sku string, record listing.InventoryRecord) error {
	req := auctionInventoryItemRequest{
		Product: auctionInventoryProduct{
			Title:     record.Title,
			Aspects:   record.Aspects,
			ImageURLs: record.ImageURLs,
		},
		Condition:    record.Condition,
		Availability: auctionInventoryAvailability{Quantity: record.Quantity},
	}

	status, body, err := c.doRequest(ctx, http.MethodPut, "/inventory_item/"+url.PathEscape(sku), req)
	if err != nil {
		return err
	}
	if status >= 400 {
		return c.classify("upsertInventoryItem", status, body)
	}
	return nil
}

// CreateOffer creates an offer for an existing inventory record. A
// pre-existing offer for the SKU surfaces as a Conflict-kind error.
func (c *AuctionClient) CreateOffer(ctx context.Context, payload listing.CreateOfferPayload) (string, error) {
	req := auctionCreateOfferRequest{
		Sku:                 payload.Sku,
		MarketplaceFormat:   "FIXED_PRICE",
		MerchantLocationKey: payload.LocationKey,
		AvailableQuantity:   payload.Quantity,
		CategoryID:          payload.CategoryID,
		Price: auctionAmount{
			Value:    payload.Price.String(),
			Currency: payload.Currency,
		},
		ListingPolicies: auctionOfferPolicies{
			PaymentPolicyID:     payload.PaymentPolicyID,
			ReturnPolicyID:      payload.ReturnPolicyID,
			FulfillmentPolicyID: payload.FulfillmentPolicyID,
		},
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/offer", req)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", c.classify("createOffer", status, body)
	}

	var resp auctionCreateOfferResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("auction: failed to parse offer response: %w", err)
	}
	return resp.OfferID, nil
}

// FindOfferBySku returns the offer for a destination SKU, or
// ErrOfferNotFound when none exists.
func (c *AuctionClient) FindOfferBySku(ctx context.Context, sku string) (*listing.Offer, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/offer?sku="+url.QueryEscape(sku), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, listing.ErrOfferNotFound
	}
	if status >= 400 {
		return nil, c.classify("findOfferBySku", status, body)
	}

	var resp auctionOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("auction: failed to parse offers response: %w", err)
	}
	if len(resp.Offers) == 0 {
		return nil, listing.ErrOfferNotFound
	}

	offer := toDomainOffer(resp.Offers[0])
	return &offer, nil
}

// PublishOffer makes the offer live and returns its listing ID
func (c *AuctionClient) PublishOffer(ctx context.Context, offerID string) (string, error) {
	status, body, err := c.doRequest(ctx, http.MethodPost, "/offer/"+url.PathEscape(offerID)+"/publish", nil)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", c.classify("publishOffer", status, body)
	}

	var resp auctionPublishResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("auction: failed to parse publish response: %w", err)
	}
	return resp.ListingID, nil
}

// WithdrawOffer takes a published offer down. A 404 means the offer is
// already gone; that is the desired end state.
func (c *AuctionClient) WithdrawOffer(ctx context.Context, offerID string) error {
	status, body, err := c.doRequest(ctx, http.MethodPost, "/offer/"+url.PathEscape(offerID)+"/withdraw", nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status >= 400 {
		return c.classify("withdrawOffer", status, body)
	}
	return nil
}

// ListOffers returns every offer on the account, paging through the API
func (c *AuctionClient) ListOffers(ctx context.Context) ([]listing.Offer, error) {
	var offers []listing.Offer
	offset := 0

	for {
		path := fmt.Sprintf("/offer?limit=%d&offset=%d", offersPageLimit, offset)
		status, body, err := c.doRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if status >= 400 {
			return nil, c.classify("listOffers", status, body)
		}

		var resp auctionOffersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("auction: failed to parse offers response: %w", err)
		}

		for _, o := range resp.Offers {
			offers = append(offers, toDomainOffer(o))
		}

		offset += len(resp.Offers)
		if len(resp.Offers) < offersPageLimit || offset >= resp.Total {
			break
		}
	}
	return offers, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// doRequest performs one HTTP request and returns the status and body.
// Transport-level failures come back as Transient-kind errors.
func (c *AuctionClient) doRequest(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("auction: failed to marshal request: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyBytes)
	if err != nil {
		return 0, nil, fmt.Errorf("auction: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")
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

// classify maps an error response to the taxonomy callers dispatch on
func (c *AuctionClient) classify(op string, status int, body []byte) error {
	detail := fmt.Sprintf("HTTP %d", status)
	var errorID int
	var resp auctionErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Errors) > 0 {
		errorID = resp.Errors[0].ErrorID
		detail = fmt.Sprintf("HTTP %d: %d - %s", status, errorID, resp.Errors[0].Message)
	}

	c.logger.Debug("auction API error",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Int("error_id", errorID),
	)

	var kind listing.ErrorKind
	switch {
	case status == http.StatusConflict || errorID == auctionErrorOfferExists:
		kind = listing.ErrorKindConflict
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = listing.ErrorKindConfiguration
	case status == http.StatusTooManyRequests || status >= 500:
		kind = listing.ErrorKindTransient
	default:
		kind = listing.ErrorKindPermanent
	}
	return listing.NewMarketplaceError(kind, op, detail)
}

func toDomainOffer(o auctionOffer) listing.Offer {
	price, _ := decimal.NewFromString(o.Price.Value)
	return listing.Offer{
		OfferID:     o.OfferID,
		Sku:         o.Sku,
		LocationKey: o.MerchantLocationKey,
		Price:       price,
		Currency:    o.Price.Currency,
		Quantity:    o.AvailableQuantity,
		CategoryID:  o.CategoryID,
		Status:      listing.OfferStatus(o.Status),
		ListingID:   o.ListingID,
	}
}

// Ensure AuctionClient implements DestinationMarketplace
var _ listing.DestinationMarketplace = (*AuctionClient)(nil)
