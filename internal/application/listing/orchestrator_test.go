package listing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flipledger/backend/internal/domain/listing"
)

func testOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MerchantLocationKey: "WAREHOUSE-1",
		DefaultAddress: listing.CreateLocationPayload{
			Name:            "Main warehouse",
			AddressLine1:    "1 Depot St",
			City:            "Portland",
			StateOrProvince: "OR",
			PostalCode:      "97201",
			Country:         "US",
		},
		PaymentPolicyID:     "pay-1",
		ReturnPolicyID:      "ret-1",
		FulfillmentPolicyID: "ful-1",
		Currency:            "USD",
		DefaultCategoryID:   "15709",
		RequiredAspects:     []string{listing.AspectColor, listing.AspectSize, listing.AspectBrand},
		MaxInFlight:         1,
	}
}

func testItem(base, size, sourceID string) BatchItem {
	return BatchItem{
		Identity:        listing.ProductIdentity{BaseSku: base, Size: size},
		SourceListingID: sourceID,
		Price:           decimal.NewFromInt(220),
		Quantity:        1,
		Condition:       "NEW",
		AttributesHint: map[string]string{
			listing.AspectColor: "White",
			listing.AspectBrand: "Nike",
		},
	}
}

func enabledLocations() []listing.Location {
	return []listing.Location{
		{Key: "WAREHOUSE-1", Name: "Main warehouse", Status: listing.LocationStatusEnabled},
	}
}

func TestSubmitBatch_MissingConfigurationFailsFast(t *testing.T) {
	cfg := testOrchestratorConfig()
	cfg.PaymentPolicyID = ""
	cfg.Currency = ""

	dest := new(mockDestination)
	orch := NewOrchestrator(cfg, dest, new(mockEnricher), new(mockMappingRepo), zap.NewNop())

	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items: []BatchItem{testItem("CZ0775-133", "9W", "src-1")},
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, listing.ErrorKindConfiguration, listing.KindOf(err))
	assert.Contains(t, err.Error(), "payment_policy_id")
	assert.Contains(t, err.Error(), "currency")
	dest.AssertNotCalled(t, "ListLocations", mock.Anything)
}

func TestSubmitBatch_EmptyBatch(t *testing.T) {
	dest := new(mockDestination)
	orch := NewOrchestrator(testOrchestratorConfig(), dest, new(mockEnricher), new(mockMappingRepo), zap.NewNop())

	result, err := orch.SubmitBatch(context.Background(), BatchRequest{})

	require.NoError(t, err)
	assert.Empty(t, result.Results)
	dest.AssertNotCalled(t, "ListLocations", mock.Anything)
}

func TestSubmitBatch_CreateAndPublish(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	item := testItem("CZ0775-133", "9W", "src-1")
	sku := listing.EncodeIdentity(item.Identity)

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, "CZ0775-133").Return(&listing.CatalogInfo{
		Title:      "Air Jordan 1 Retro High OG",
		CategoryID: "93427",
		ImageURLs:  []string{"https://img.example/1.jpg"},
		Attributes: map[string]string{listing.AspectBrand: "Jordan"},
	}, nil)
	dest.On("UpsertInventoryItem", mock.Anything, sku, mock.MatchedBy(func(rec listing.InventoryRecord) bool {
		return rec.Title == "Air Jordan 1 Retro High OG" &&
			rec.Aspects[listing.AspectSize] == "9W" &&
			rec.Aspects[listing.AspectBrand] == "Nike" // hint wins over enrichment
	})).Return(nil)
	repo.On("FindByDestinationSku", mock.Anything, sku).Return(nil, listing.ErrMappingNotFound)
	dest.On("CreateOffer", mock.Anything, mock.MatchedBy(func(p listing.CreateOfferPayload) bool {
		return p.Sku == sku && p.CategoryID == "93427" && p.Currency == "USD" && p.LocationKey == "WAREHOUSE-1"
	})).Return("offer-1", nil)
	dest.On("PublishOffer", mock.Anything, "offer-1").Return("lst-1", nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(m *listing.ListingMapping) bool {
		return m.SourceListingID == "src-1" && m.DestinationOfferID == "offer-1" && m.DestinationSku == sku
	})).Return(nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items:              []BatchItem{item},
		PublishImmediately: true,
	})

	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	r := result.Results[0]
	assert.Equal(t, ItemStatusCreated, r.Status)
	assert.Equal(t, "offer-1", r.OfferID)
	assert.Equal(t, "lst-1", r.ListingID)
	assert.False(t, r.AlreadyExisted)
	assert.Equal(t, 1, result.CreatedCount)
	dest.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSubmitBatch_MissingAspectsStaysDraft(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	item := testItem("DD1391-100", "10", "src-2")
	delete(item.AttributesHint, listing.AspectColor)
	sku := listing.EncodeIdentity(item.Identity)

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, "DD1391-100").Return(nil, nil)
	dest.On("UpsertInventoryItem", mock.Anything, sku, mock.Anything).Return(nil)
	repo.On("FindByDestinationSku", mock.Anything, sku).Return(nil, listing.ErrMappingNotFound)
	dest.On("CreateOffer", mock.Anything, mock.Anything).Return("offer-2", nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items:              []BatchItem{item},
		PublishImmediately: true,
	})

	require.NoError(t, err)
	r := result.Results[0]
	assert.Equal(t, ItemStatusDraft, r.Status)
	assert.Equal(t, []string{listing.AspectColor}, r.MissingAspects)
	assert.Equal(t, 1, result.DraftCount)
	dest.AssertNotCalled(t, "PublishOffer", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitBatch_OfferConflictRecovery(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	item := testItem("CZ0775-133", "9W", "src-1")
	sku := listing.EncodeIdentity(item.Identity)
	conflict := listing.NewMarketplaceError(listing.ErrorKindConflict, "createOffer", "offer already exists for sku")

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, "CZ0775-133").Return(nil, nil)
	dest.On("UpsertInventoryItem", mock.Anything, sku, mock.Anything).Return(nil)
	repo.On("FindByDestinationSku", mock.Anything, sku).Return(nil, listing.ErrMappingNotFound)
	dest.On("CreateOffer", mock.Anything, mock.Anything).Return("", conflict)
	dest.On("FindOfferBySku", mock.Anything, sku).Return(&listing.Offer{
		OfferID: "offer-existing",
		Sku:     sku,
		Status:  listing.OfferStatusUnpublished,
	}, nil)
	dest.On("PublishOffer", mock.Anything, "offer-existing").Return("lst-9", nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items:              []BatchItem{item},
		PublishImmediately: true,
	})

	require.NoError(t, err)
	r := result.Results[0]
	assert.Equal(t, ItemStatusCreated, r.Status)
	assert.Equal(t, "offer-existing", r.OfferID)
	assert.True(t, r.AlreadyExisted)
	dest.AssertExpectations(t)
}

func TestSubmitBatch_RecoveredPublishedOfferSkipsPublish(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	item := testItem("FZ5897-100", "8", "src-3")
	sku := listing.EncodeIdentity(item.Identity)
	conflict := listing.NewMarketplaceError(listing.ErrorKindConflict, "createOffer", "offer already exists for sku")

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, "FZ5897-100").Return(nil, nil)
	dest.On("UpsertInventoryItem", mock.Anything, sku, mock.Anything).Return(nil)
	repo.On("FindByDestinationSku", mock.Anything, sku).Return(nil, listing.ErrMappingNotFound)
	dest.On("CreateOffer", mock.Anything, mock.Anything).Return("", conflict)
	dest.On("FindOfferBySku", mock.Anything, sku).Return(&listing.Offer{
		OfferID:   "offer-live",
		Sku:       sku,
		Status:    listing.OfferStatusPublished,
		ListingID: "lst-live",
	}, nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(m *listing.ListingMapping) bool {
		return m.DestinationOfferID == "offer-live" && m.DestinationListingID == "lst-live"
	})).Return(nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items:              []BatchItem{item},
		PublishImmediately: true,
	})

	require.NoError(t, err)
	r := result.Results[0]
	assert.Equal(t, ItemStatusCreated, r.Status)
	assert.Equal(t, "lst-live", r.ListingID)
	assert.True(t, r.AlreadyExisted)
	dest.AssertNotCalled(t, "PublishOffer", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestSubmitBatch_SkuCollisionFailsItem(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	item := testItem("CZ0775-133", "9W", "src-new")
	sku := listing.EncodeIdentity(item.Identity)

	other, err := listing.NewListingMapping(
		listing.ProductIdentity{BaseSku: "OTHER-SKU", Size: "9W"},
		"src-other", "offer-other", sku,
	)
	require.NoError(t, err)

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, "CZ0775-133").Return(nil, nil)
	dest.On("UpsertInventoryItem", mock.Anything, sku, mock.Anything).Return(nil)
	repo.On("FindByDestinationSku", mock.Anything, sku).Return(other, nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items:              []BatchItem{item},
		PublishImmediately: true,
	})

	require.NoError(t, err)
	r := result.Results[0]
	assert.Equal(t, ItemStatusFailed, r.Status)
	assert.Equal(t, StepOffer, r.Step)
	assert.Contains(t, r.Error, "collision")
	dest.AssertNotCalled(t, "CreateOffer", mock.Anything, mock.Anything)
}

func TestSubmitBatch_DraftWhenNotPublishing(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	item := testItem("CZ0775-133", "9W", "src-1")
	sku := listing.EncodeIdentity(item.Identity)

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, "CZ0775-133").Return(nil, nil)
	dest.On("UpsertInventoryItem", mock.Anything, sku, mock.Anything).Return(nil)
	repo.On("FindByDestinationSku", mock.Anything, sku).Return(nil, listing.ErrMappingNotFound)
	dest.On("CreateOffer", mock.Anything, mock.Anything).Return("offer-5", nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{Items: []BatchItem{item}})

	require.NoError(t, err)
	assert.Equal(t, ItemStatusDraft, result.Results[0].Status)
	dest.AssertNotCalled(t, "PublishOffer", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmitBatch_OneFailureDoesNotAbortSiblings(t *testing.T) {
	dest := new(mockDestination)
	enricher := new(mockEnricher)
	repo := new(mockMappingRepo)

	good := testItem("CZ0775-133", "9W", "src-1")
	bad := testItem("DD1391-100", "10", "src-2")
	goodSku := listing.EncodeIdentity(good.Identity)
	badSku := listing.EncodeIdentity(bad.Identity)

	dest.On("ListLocations", mock.Anything).Return(enabledLocations(), nil)
	enricher.On("Lookup", mock.Anything, mock.Anything).Return(nil, nil)
	dest.On("UpsertInventoryItem", mock.Anything, goodSku, mock.Anything).Return(nil)
	dest.On("UpsertInventoryItem", mock.Anything, badSku, mock.Anything).
		Return(listing.NewMarketplaceError(listing.ErrorKindTransient, "upsertInventoryItem", "gateway timeout"))
	repo.On("FindByDestinationSku", mock.Anything, goodSku).Return(nil, listing.ErrMappingNotFound)
	dest.On("CreateOffer", mock.Anything, mock.Anything).Return("offer-1", nil)
	dest.On("PublishOffer", mock.Anything, "offer-1").Return("lst-1", nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, enricher, repo, zap.NewNop())
	result, err := orch.SubmitBatch(context.Background(), BatchRequest{
		Items:              []BatchItem{good, bad},
		PublishImmediately: true,
	})

	require.NoError(t, err)
	assert.Equal(t, ItemStatusCreated, result.Results[0].Status)
	assert.Equal(t, ItemStatusFailed, result.Results[1].Status)
	assert.Equal(t, StepInventory, result.Results[1].Step)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 1, result.FailedCount)
}

func TestResolveLocation_CreatesWhenNoneExist(t *testing.T) {
	dest := new(mockDestination)
	cfg := testOrchestratorConfig()

	dest.On("ListLocations", mock.Anything).Return([]listing.Location{}, nil)
	dest.On("CreateLocation", mock.Anything, "WAREHOUSE-1", cfg.DefaultAddress).Return(nil)

	orch := NewOrchestrator(cfg, dest, new(mockEnricher), new(mockMappingRepo), zap.NewNop())
	key, err := orch.resolveLocation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "WAREHOUSE-1", key)
	dest.AssertExpectations(t)
}

func TestResolveLocation_CreateConflictIsSuccess(t *testing.T) {
	dest := new(mockDestination)
	conflict := listing.NewMarketplaceError(listing.ErrorKindConflict, "createLocation", "location key exists")

	dest.On("ListLocations", mock.Anything).Return([]listing.Location{}, nil)
	dest.On("CreateLocation", mock.Anything, "WAREHOUSE-1", mock.Anything).Return(conflict)

	orch := NewOrchestrator(testOrchestratorConfig(), dest, new(mockEnricher), new(mockMappingRepo), zap.NewNop())
	key, err := orch.resolveLocation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "WAREHOUSE-1", key)
}

func TestResolveLocation_EnablesDisabledLocation(t *testing.T) {
	dest := new(mockDestination)

	dest.On("ListLocations", mock.Anything).Return([]listing.Location{
		{Key: "OLD-LOC", Status: listing.LocationStatusDisabled},
	}, nil)
	dest.On("EnableLocation", mock.Anything, "OLD-LOC").
		Return(listing.NewMarketplaceError(listing.ErrorKindPermanent, "enableLocation", "account not eligible"))

	orch := NewOrchestrator(testOrchestratorConfig(), dest, new(mockEnricher), new(mockMappingRepo), zap.NewNop())
	key, err := orch.resolveLocation(context.Background())

	// Enable failures are tolerated; the existing key is still used.
	require.NoError(t, err)
	assert.Equal(t, "OLD-LOC", key)
	dest.AssertNotCalled(t, "CreateLocation", mock.Anything, mock.Anything, mock.Anything)
}

func TestNewOrchestrator_ClampsMaxInFlight(t *testing.T) {
	cfg := testOrchestratorConfig()
	cfg.MaxInFlight = 99
	orch := NewOrchestrator(cfg, new(mockDestination), new(mockEnricher), new(mockMappingRepo), zap.NewNop())
	assert.Equal(t, maxInFlightLimit, orch.cfg.MaxInFlight)

	cfg.MaxInFlight = 0
	orch = NewOrchestrator(cfg, new(mockDestination), new(mockEnricher), new(mockMappingRepo), zap.NewNop())
	assert.Equal(t, defaultMaxInFlight, orch.cfg.MaxInFlight)
}
