package listing

import (
	"context"
)

// ---------------------------------------------------------------------------
// Port interfaces
//
// These follow the Ports & Adapters pattern: the interfaces live in the
// domain layer and the concrete HTTP adapters live in infrastructure.
// Every method takes a context and must honor its deadline; a timeout is
// a transient failure at that step, not a permanent one.
// ---------------------------------------------------------------------------

// DestinationMarketplace is the destination auction marketplace's
// inventory/offer/publish API surface the orchestrator drives.
type DestinationMarketplace interface {
	// ListLocations returns the seller account's fulfillment locations
	ListLocations(ctx context.Context) ([]Location, error)

	// CreateLocation creates a fulfillment location under the given key.
	// Returns a Conflict-kind error if the key already exists.
	CreateLocation(ctx context.Context, key string, payload CreateLocationPayload) error

	// EnableLocation attempts to enable a disabled location
	EnableLocation(ctx context.Context, key string) error

	// UpsertInventoryItem writes the inventory record keyed by SKU.
	// Full-replace PUT semantics: naturally idempotent.
	UpsertInventoryItem(ctx context.Context, sku string, record InventoryRecord) error

	// CreateOffer creates an offer for an existing inventory record.
	// NOT idempotent: a retried create for the same SKU fails with a
	// Conflict-kind error and callers must recover via FindOfferBySku.
	CreateOffer(ctx context.Context, payload CreateOfferPayload) (offerID string, err error)

	// FindOfferBySku returns the offer for a destination SKU, or
	// ErrOfferNotFound when none exists.
	FindOfferBySku(ctx context.Context, sku string) (*Offer, error)

	// PublishOffer makes the offer live and returns its listing ID
	PublishOffer(ctx context.Context, offerID string) (listingID string, err error)

	// WithdrawOffer takes a published offer down. Idempotent on the
	// marketplace side.
	WithdrawOffer(ctx context.Context, offerID string) error

	// ListOffers returns every offer on the account
	ListOffers(ctx context.Context) ([]Offer, error)
}

// SourceMarketplace is the peer-to-peer resale exchange the inventory
// originates from.
type SourceMarketplace interface {
	// ListLiveListings returns the account's currently live listings
	ListLiveListings(ctx context.Context) ([]SourceListing, error)

	// EndListing takes a live listing down after its unit sold elsewhere
	EndListing(ctx context.Context, listingID string) error
}

// CatalogEnricher is the black-box catalog enrichment collaborator:
// given a product identity hint it returns best-effort title, category,
// images and attributes. A (nil, nil) return means not found; callers
// proceed with whatever they already have.
type CatalogEnricher interface {
	Lookup(ctx context.Context, identityHint string) (*CatalogInfo, error)
}
