package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	applisting "github.com/flipledger/backend/internal/application/listing"
	"github.com/flipledger/backend/internal/domain/listing"
)

// BatchItemRequest is one unit in a batch submission
type BatchItemRequest struct {
	BaseSku         string            `json:"base_sku" binding:"required,min=1,max=50" example:"CZ0775-133"`
	Size            string            `json:"size" binding:"required,min=1,max=20" example:"9W"`
	SourceListingID string            `json:"source_listing_id" binding:"required,min=1,max=100" example:"lst-1042"`
	Price           string            `json:"price" binding:"required" example:"220.00"`
	Quantity        int               `json:"quantity" binding:"omitempty,min=1,max=100" example:"1"`
	Condition       string            `json:"condition" binding:"omitempty,max=50" example:"NEW"`
	Attributes      map[string]string `json:"attributes" binding:"omitempty"`
}

// BatchSubmitRequest is the payload for the batch sync endpoint
type BatchSubmitRequest struct {
	Items              []BatchItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
	PublishImmediately bool               `json:"publish_immediately"`
}

// ToApplication converts the request into the application batch shape.
// Prices arrive as strings so money never round-trips through float64.
func (r *BatchSubmitRequest) ToApplication() (applisting.BatchRequest, error) {
	req := applisting.BatchRequest{
		Items:              make([]applisting.BatchItem, 0, len(r.Items)),
		PublishImmediately: r.PublishImmediately,
	}
	for i, item := range r.Items {
		price, err := decimal.NewFromString(item.Price)
		if err != nil {
			return applisting.BatchRequest{}, fmt.Errorf("items[%d]: invalid price %q", i, item.Price)
		}
		if price.IsNegative() || price.IsZero() {
			return applisting.BatchRequest{}, fmt.Errorf("items[%d]: price must be positive", i)
		}
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		req.Items = append(req.Items, applisting.BatchItem{
			Identity:        listing.ProductIdentity{BaseSku: item.BaseSku, Size: item.Size},
			SourceListingID: item.SourceListingID,
			Price:           price,
			Quantity:        quantity,
			Condition:       item.Condition,
			AttributesHint:  item.Attributes,
		})
	}
	return req, nil
}

// MappingResponse represents a listing mapping in API responses
type MappingResponse struct {
	ID                   string `json:"id"`
	BaseSku              string `json:"base_sku"`
	Size                 string `json:"size"`
	SourceListingID      string `json:"source_listing_id"`
	DestinationOfferID   string `json:"destination_offer_id"`
	DestinationListingID string `json:"destination_listing_id,omitempty"`
	DestinationSku       string `json:"destination_sku"`
	Status               string `json:"status"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

// MappingResponseFromDomain converts a domain mapping to its response shape
func MappingResponseFromDomain(m *listing.ListingMapping) MappingResponse {
	return MappingResponse{
		ID:                   m.ID.String(),
		BaseSku:              m.BaseSku,
		Size:                 m.Size,
		SourceListingID:      m.SourceListingID,
		DestinationOfferID:   m.DestinationOfferID,
		DestinationListingID: m.DestinationListingID,
		DestinationSku:       m.DestinationSku,
		Status:               string(m.Status),
		CreatedAt:            m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:            m.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ReconcileJobResponse represents a reconciliation job in API responses
type ReconcileJobResponse struct {
	ID          string                      `json:"id"`
	Trigger     string                      `json:"trigger"`
	Status      string                      `json:"status"`
	Error       string                      `json:"error,omitempty"`
	RetryCount  int                         `json:"retry_count"`
	StartedAt   string                      `json:"started_at,omitempty"`
	CompletedAt string                      `json:"completed_at,omitempty"`
	Report      *applisting.ReconcileReport `json:"report,omitempty"`
}
