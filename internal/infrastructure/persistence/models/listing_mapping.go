package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/flipledger/backend/internal/domain/listing"
)

// ListingMappingModel is the persistence model for the ListingMapping
// domain entity. Unique indexes back the ledger's idempotency contract:
// a duplicate natural key or destination offer surfaces as
// gorm.ErrDuplicatedKey and the repository maps it to
// ErrMappingAlreadyExists.
type ListingMappingModel struct {
	ID                   uuid.UUID             `gorm:"type:uuid;primary_key"`
	BaseSku              string                `gorm:"type:varchar(100);not null;index:idx_listing_mapping_base_sku"`
	Size                 string                `gorm:"type:varchar(20);not null;uniqueIndex:idx_listing_mapping_natural_key,priority:2"`
	SourceListingID      string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_listing_mapping_natural_key,priority:1"`
	DestinationOfferID   string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_listing_mapping_offer"`
	DestinationListingID string                `gorm:"type:varchar(100)"`
	DestinationSku       string                `gorm:"type:varchar(50);not null;index:idx_listing_mapping_dest_sku"`
	Status               listing.MappingStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_listing_mapping_status"`
	CreatedAt            time.Time             `gorm:"not null"`
	UpdatedAt            time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ListingMappingModel) TableName() string {
	return "listing_mappings"
}

// ToDomain converts the persistence model to a domain ListingMapping entity.
func (m *ListingMappingModel) ToDomain() *listing.ListingMapping {
	return &listing.ListingMapping{
		ID:                   m.ID,
		BaseSku:              m.BaseSku,
		Size:                 m.Size,
		SourceListingID:      m.SourceListingID,
		DestinationOfferID:   m.DestinationOfferID,
		DestinationListingID: m.DestinationListingID,
		DestinationSku:       m.DestinationSku,
		Status:               m.Status,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ListingMapping entity.
func (m *ListingMappingModel) FromDomain(lm *listing.ListingMapping) {
	m.ID = lm.ID
	m.BaseSku = lm.BaseSku
	m.Size = lm.Size
	m.SourceListingID = lm.SourceListingID
	m.DestinationOfferID = lm.DestinationOfferID
	m.DestinationListingID = lm.DestinationListingID
	m.DestinationSku = lm.DestinationSku
	m.Status = lm.Status
	m.CreatedAt = lm.CreatedAt
	m.UpdatedAt = lm.UpdatedAt
}

// ListingMappingModelFromDomain creates a new persistence model from a domain entity.
func ListingMappingModelFromDomain(lm *listing.ListingMapping) *ListingMappingModel {
	m := &ListingMappingModel{}
	m.FromDomain(lm)
	return m
}
