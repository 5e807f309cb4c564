package listing

import (
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductIdentity Value Object
// ---------------------------------------------------------------------------

// ProductIdentity is the marketplace-agnostic identity of one physical
// unit: the manufacturer style code plus a size token. It is supplied by
// the user or the source exchange and is not unique across marketplaces
// by itself (hyphenation, case and unit suffixes like "W"/"GS" vary by
// source); the codec output is the canonical form.
type ProductIdentity struct {
	// BaseSku is the style/model identifier (e.g. "CZ0775-133")
	BaseSku string
	// Size is the size token (e.g. "9W", "10.5", "4Y GS")
	Size string
}

// Normalized returns the identity with both tokens cleaned to [A-Z0-9].
func (p ProductIdentity) Normalized() ProductIdentity {
	return ProductIdentity{BaseSku: CleanToken(p.BaseSku), Size: CleanToken(p.Size)}
}

// Equal reports whether two identities refer to the same unit after
// normalization.
func (p ProductIdentity) Equal(other ProductIdentity) bool {
	return p.Normalized() == other.Normalized()
}

// ---------------------------------------------------------------------------
// Destination marketplace entities
// ---------------------------------------------------------------------------

// InventoryRecord is the destination marketplace's inventory entry,
// keyed by destination SKU. Writes are full replaces (PUT-by-key), so
// re-running an upsert with the same SKU repairs partial failures
// instead of duplicating anything.
type InventoryRecord struct {
	Sku       string
	Title     string
	Condition string
	Quantity  int
	ImageURLs []string
	// Aspects holds the marketplace-mandated item attributes
	// (color, size, brand, ...) by attribute name.
	Aspects map[string]string
}

// OfferStatus represents the lifecycle state of a destination offer
type OfferStatus string

const (
	// OfferStatusUnpublished indicates the offer exists as a draft
	OfferStatusUnpublished OfferStatus = "UNPUBLISHED"
	// OfferStatusPublished indicates the offer is live
	OfferStatusPublished OfferStatus = "PUBLISHED"
	// OfferStatusWithdrawn indicates the offer has been taken down
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
)

// IsValid returns true if the status is valid
func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusUnpublished, OfferStatusPublished, OfferStatusWithdrawn:
		return true
	default:
		return false
	}
}

// String returns the string representation of OfferStatus
func (s OfferStatus) String() string {
	return string(s)
}

// Offer is the destination marketplace's sellable wrapper around an
// inventory record, a fulfillment location and a price. It is the only
// entity with a marketplace-issued identity (OfferID) that is stable and
// queryable.
type Offer struct {
	OfferID     string
	Sku         string
	LocationKey string
	Price       decimal.Decimal
	Currency    string
	Quantity    int
	CategoryID  string
	Status      OfferStatus
	// ListingID is assigned by the marketplace when the offer is published
	ListingID string
}

// LocationStatus represents the state of a fulfillment location
type LocationStatus string

const (
	LocationStatusEnabled  LocationStatus = "ENABLED"
	LocationStatusDisabled LocationStatus = "DISABLED"
)

// Location is a seller fulfillment location. Offers can only reference a
// location, and the account needs exactly one usable location before any
// listing write.
type Location struct {
	Key    string
	Name   string
	Status LocationStatus
}

// Enabled reports whether the location can back offers without further work.
func (l Location) Enabled() bool {
	return l.Status == LocationStatusEnabled
}

// ---------------------------------------------------------------------------
// Request payloads
// ---------------------------------------------------------------------------

// CreateOfferPayload carries everything the destination marketplace needs
// to create an offer against an existing inventory record.
type CreateOfferPayload struct {
	Sku                 string
	LocationKey         string
	Price               decimal.Decimal
	Currency            string
	Quantity            int
	CategoryID          string
	PaymentPolicyID     string
	ReturnPolicyID      string
	FulfillmentPolicyID string
}

// CreateLocationPayload carries the address defaults used when a seller
// account has no fulfillment location yet.
type CreateLocationPayload struct {
	Name            string
	AddressLine1    string
	City            string
	StateOrProvince string
	PostalCode      string
	Country         string
}

// ---------------------------------------------------------------------------
// Source marketplace entities
// ---------------------------------------------------------------------------

// SourceListing is a live listing on the source exchange.
type SourceListing struct {
	ListingID string
	Identity  ProductIdentity
	Price     decimal.Decimal
	Currency  string
}

// ---------------------------------------------------------------------------
// Catalog enrichment
// ---------------------------------------------------------------------------

// CatalogInfo is the best-effort product data returned by the catalog
// enrichment collaborator. Any field may be empty.
type CatalogInfo struct {
	Title      string
	CategoryID string
	ImageURLs  []string
	Attributes map[string]string
}
