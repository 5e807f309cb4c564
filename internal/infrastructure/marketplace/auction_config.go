package marketplace

import (
	"errors"
)

// AuctionConfig holds configuration for the auction marketplace API
type AuctionConfig struct {
	// BaseURL is the REST API root, e.g. https://api.auctionsite.com/sell
	BaseURL string
	// Token is the seller account's OAuth bearer token
	Token string
	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int
	// RetryMax bounds automatic retries of transient failures
	RetryMax int
}

// Errors for auction configuration
var (
	ErrAuctionConfigMissingBaseURL = errors.New("auction: base URL is required")
	ErrAuctionConfigMissingToken   = errors.New("auction: token is required")
)

// Validate validates the auction configuration and fills in defaults
func (c *AuctionConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrAuctionConfigMissingBaseURL
	}
	if c.Token == "" {
		return ErrAuctionConfigMissingToken
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 3
	}
	return nil
}
