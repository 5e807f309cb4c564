package listing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// MappingStatus
// ---------------------------------------------------------------------------

// MappingStatus represents the lifecycle state of a cross-marketplace
// mapping.
type MappingStatus string

const (
	// MappingStatusActive means the unit is live on both marketplaces
	MappingStatusActive MappingStatus = "ACTIVE"
	// MappingStatusDelisted means the mapping was withdrawn manually
	MappingStatusDelisted MappingStatus = "DELISTED"
	// MappingStatusSoldSource means the unit sold on the source exchange
	MappingStatusSoldSource MappingStatus = "SOLD_SOURCE"
	// MappingStatusSoldDestination means the unit sold on the destination marketplace
	MappingStatusSoldDestination MappingStatus = "SOLD_DESTINATION"
	// MappingStatusSold means the unit is gone from both sides
	MappingStatusSold MappingStatus = "SOLD"
)

// IsValid returns true if the status is valid
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusActive, MappingStatusDelisted, MappingStatusSoldSource,
		MappingStatusSoldDestination, MappingStatusSold:
		return true
	default:
		return false
	}
}

// String returns the string representation of MappingStatus
func (s MappingStatus) String() string {
	return string(s)
}

// IsTerminal returns true for final states. Terminal mappings are kept
// forever as an audit trail; they are never hard-deleted.
func (s MappingStatus) IsTerminal() bool {
	return s.IsValid() && s != MappingStatusActive
}

// ---------------------------------------------------------------------------
// ListingMapping Entity
// ---------------------------------------------------------------------------

// ListingMapping is the durable correspondence between one source
// exchange listing and its destination marketplace offer. The mapping
// store is the single source of truth for "is this unit cross-listed":
// the marketplaces do not know about each other.
type ListingMapping struct {
	ID uuid.UUID
	// BaseSku and Size are the cleaned identity tokens
	BaseSku string
	Size    string
	// SourceListingID is the listing's native ID on the source exchange
	SourceListingID string
	// DestinationOfferID is the offer's marketplace-issued ID
	DestinationOfferID string
	// DestinationListingID is set once the offer has been published
	DestinationListingID string
	// DestinationSku is the codec output the inventory record is keyed by
	DestinationSku string
	Status         MappingStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewListingMapping creates an ACTIVE mapping for a freshly cross-listed
// unit. Identity tokens are normalized through the codec's cleaner so
// lookups by identity always compare like with like.
func NewListingMapping(identity ProductIdentity, sourceListingID, destinationOfferID, destinationSku string) (*ListingMapping, error) {
	if sourceListingID == "" {
		return nil, ErrMappingInvalidSource
	}
	if destinationSku == "" || destinationOfferID == "" {
		return nil, ErrMappingInvalidSku
	}

	norm := identity.Normalized()
	now := time.Now()
	return &ListingMapping{
		ID:                 uuid.New(),
		BaseSku:            norm.BaseSku,
		Size:               norm.Size,
		SourceListingID:    sourceListingID,
		DestinationOfferID: destinationOfferID,
		DestinationSku:     destinationSku,
		Status:             MappingStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// Identity returns the normalized product identity of this mapping.
func (m *ListingMapping) Identity() ProductIdentity {
	return ProductIdentity{BaseSku: m.BaseSku, Size: m.Size}
}

// Transition moves the mapping to a terminal status. Reconciliation is
// last-write-wins per mapping, so a transition from one terminal state
// to another is rejected but a repeated identical transition is a no-op.
func (m *ListingMapping) Transition(status MappingStatus) error {
	if !status.IsValid() {
		return ErrMappingInvalidStatus
	}
	if m.Status == status {
		return nil
	}
	if m.Status.IsTerminal() {
		return ErrMappingTerminalStatus
	}
	m.Status = status
	m.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// Repository interfaces
// ---------------------------------------------------------------------------

// MappingFilter defines filter criteria for listing mappings
type MappingFilter struct {
	// Status filters by mapping status (optional)
	Status *MappingStatus
	// BaseSku filters by normalized base SKU (optional)
	BaseSku string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// MappingStats summarizes the ledger for operators.
type MappingStats struct {
	Total           int64 `json:"total"`
	Active          int64 `json:"active"`
	SoldSource      int64 `json:"sold_source"`
	SoldDestination int64 `json:"sold_destination"`
	Sold            int64 `json:"sold"`
	Delisted        int64 `json:"delisted"`
}

// MappingReader defines the interface for reading listing mappings
type MappingReader interface {
	// FindByDestinationSku finds a mapping by its destination SKU
	FindByDestinationSku(ctx context.Context, sku string) (*ListingMapping, error)

	// FindBySourceListing finds a mapping by the source listing's native ID
	FindBySourceListing(ctx context.Context, sourceListingID string) (*ListingMapping, error)

	// ListActive returns all ACTIVE mappings
	ListActive(ctx context.Context) ([]ListingMapping, error)

	// ListAll returns mappings matching the filter
	ListAll(ctx context.Context, filter MappingFilter) ([]ListingMapping, error)

	// Count counts mappings matching the filter
	Count(ctx context.Context, filter MappingFilter) (int64, error)

	// Stats returns per-status counts for the whole ledger
	Stats(ctx context.Context) (*MappingStats, error)
}

// MappingWriter defines the interface for persisting listing mappings.
// There is deliberately no delete operation: the ledger is append-only,
// and terminal transitions are the only way a mapping leaves circulation.
type MappingWriter interface {
	// Insert creates a mapping. The store enforces uniqueness on the
	// natural key (source listing + size) and on the destination offer
	// ID; a duplicate insert returns ErrMappingAlreadyExists, which
	// callers treat as "already mapped, proceed".
	Insert(ctx context.Context, mapping *ListingMapping) error

	// UpdateStatus transitions the mapping that owns the given
	// destination offer ID
	UpdateStatus(ctx context.Context, destinationOfferID string, status MappingStatus) error
}

// MappingRepository defines the full interface for mapping persistence
type MappingRepository interface {
	MappingReader
	MappingWriter
}
