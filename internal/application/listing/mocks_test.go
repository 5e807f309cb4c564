package listing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/flipledger/backend/internal/domain/listing"
)

// mockDestination is a testify mock for the destination marketplace port
type mockDestination struct {
	mock.Mock
}

func (m *mockDestination) ListLocations(ctx context.Context) ([]listing.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Location), args.Error(1)
}

func (m *mockDestination) CreateLocation(ctx context.Context, key string, payload listing.CreateLocationPayload) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

func (m *mockDestination) EnableLocation(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockDestination) UpsertInventoryItem(ctx context.Context, sku string, record listing.InventoryRecord) error {
	args := m.Called(ctx, sku, record)
	return args.Error(0)
}

func (m *mockDestination) CreateOffer(ctx context.Context, payload listing.CreateOfferPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *mockDestination) FindOfferBySku(ctx context.Context, sku string) (*listing.Offer, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.Offer), args.Error(1)
}

func (m *mockDestination) PublishOffer(ctx context.Context, offerID string) (string, error) {
	args := m.Called(ctx, offerID)
	return args.String(0), args.Error(1)
}

func (m *mockDestination) WithdrawOffer(ctx context.Context, offerID string) error {
	args := m.Called(ctx, offerID)
	return args.Error(0)
}

func (m *mockDestination) ListOffers(ctx context.Context) ([]listing.Offer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.Offer), args.Error(1)
}

// mockSource is a testify mock for the source exchange port
type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListLiveListings(ctx context.Context) ([]listing.SourceListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.SourceListing), args.Error(1)
}

func (m *mockSource) EndListing(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

// mockEnricher is a testify mock for the catalog enrichment port
type mockEnricher struct {
	mock.Mock
}

func (m *mockEnricher) Lookup(ctx context.Context, identityHint string) (*listing.CatalogInfo, error) {
	args := m.Called(ctx, identityHint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.CatalogInfo), args.Error(1)
}

// mockMappingRepo is a testify mock for the mapping repository
type mockMappingRepo struct {
	mock.Mock
}

func (m *mockMappingRepo) FindByDestinationSku(ctx context.Context, sku string) (*listing.ListingMapping, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ListingMapping), args.Error(1)
}

func (m *mockMappingRepo) FindBySourceListing(ctx context.Context, sourceListingID string) (*listing.ListingMapping, error) {
	args := m.Called(ctx, sourceListingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.ListingMapping), args.Error(1)
}

func (m *mockMappingRepo) ListActive(ctx context.Context) ([]listing.ListingMapping, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.ListingMapping), args.Error(1)
}

func (m *mockMappingRepo) ListAll(ctx context.Context, filter listing.MappingFilter) ([]listing.ListingMapping, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.ListingMapping), args.Error(1)
}

func (m *mockMappingRepo) Count(ctx context.Context, filter listing.MappingFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMappingRepo) Stats(ctx context.Context) (*listing.MappingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.MappingStats), args.Error(1)
}

func (m *mockMappingRepo) Insert(ctx context.Context, mapping *listing.ListingMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *mockMappingRepo) UpdateStatus(ctx context.Context, destinationOfferID string, status listing.MappingStatus) error {
	args := m.Called(ctx, destinationOfferID, status)
	return args.Error(0)
}

var (
	_ listing.DestinationMarketplace = (*mockDestination)(nil)
	_ listing.SourceMarketplace      = (*mockSource)(nil)
	_ listing.CatalogEnricher        = (*mockEnricher)(nil)
	_ listing.MappingRepository      = (*mockMappingRepo)(nil)
)
