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

	"go.uber.org/zap"

	"github.com/flipledger/backend/internal/domain/listing"
)

// CatalogConfig holds configuration for the product catalog API
type CatalogConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

// ErrCatalogConfigMissingBaseURL is returned when no catalog endpoint is configured
var ErrCatalogConfigMissingBaseURL = errors.New("catalog: base URL is required")

// Validate validates the catalog configuration and fills in defaults
func (c *CatalogConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrCatalogConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}

type catalogProductResponse struct {
	Title      string            `json:"title"`
	CategoryID string            `json:"categoryId"`
	ImageURLs  []string          `json:"imageUrls"`
	Attributes map[string]string `json:"attributes"`
}

// CatalogClient implements CatalogEnricher against the product catalog
// API. Enrichment is best effort: lookups use a plain client with no
// retries because the orchestrator treats failures as a miss anyway.
type CatalogClient struct {
	config *CatalogConfig
	client *http.Client
	logger *zap.Logger
}

// NewCatalogClient creates a new CatalogClient with the given configuration
func NewCatalogClient(config *CatalogConfig, logger *zap.Logger) (*CatalogClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CatalogClient{
		config: config,
		client: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// Lookup returns catalog data for a style code, or (nil, nil) when the
// catalog has no entry for it.
func (c *CatalogClient) Lookup(ctx context.Context, identityHint string) (*listing.CatalogInfo, error) {
	endpoint := c.config.BaseURL + "/products/" + url.PathEscape(identityHint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to create request: %w", err)
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("catalog: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read response: %w", err)
	}

	var product catalogProductResponse
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse response: %w", err)
	}

	c.logger.Debug("catalog lookup hit",
		zap.String("style_code", identityHint),
		zap.String("category_id", product.CategoryID),
	)

	return &listing.CatalogInfo{
		Title:      product.Title,
		CategoryID: product.CategoryID,
		ImageURLs:  product.ImageURLs,
		Attributes: product.Attributes,
	}, nil
}

// Ensure CatalogClient implements CatalogEnricher
var _ listing.CatalogEnricher = (*CatalogClient)(nil)
