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

func activeMapping(t *testing.T, base, size, sourceID, offerID string) listing.ListingMapping {
	t.Helper()
	identity := listing.ProductIdentity{BaseSku: base, Size: size}
	m, err := listing.NewListingMapping(identity, sourceID, offerID, listing.EncodeIdentity(identity))
	require.NoError(t, err)
	return *m
}

func liveSource(base, size, listingID string) listing.SourceListing {
	return listing.SourceListing{
		ListingID: listingID,
		Identity:  listing.ProductIdentity{BaseSku: base, Size: size},
		Price:     decimal.NewFromInt(180),
		Currency:  "USD",
	}
}

func liveOffer(offerID, sku string) listing.Offer {
	return listing.Offer{
		OfferID: offerID,
		Sku:     sku,
		Status:  listing.OfferStatusPublished,
	}
}

func TestReconcileSets_BothAliveIsNoop(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	m := activeMapping(t, "CZ0775-133", "9W", "src-1", "offer-1")
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{m}, nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{liveSource("CZ0775-133", "9W", "src-1")},
		[]listing.Offer{liveOffer("offer-1", m.DestinationSku)},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, report.ActiveMappings)
	assert.Zero(t, report.WithdrawnFromDestination)
	assert.Zero(t, report.WithdrawnFromSource)
	assert.Zero(t, report.MarkedSold)
	dest.AssertNotCalled(t, "WithdrawOffer", mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "EndListing", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileSets_SoldOnSourceWithdrawsDestination(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	m := activeMapping(t, "CZ0775-133", "9W", "src-1", "offer-1")
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{m}, nil)
	dest.On("WithdrawOffer", mock.Anything, "offer-1").Return(nil)
	repo.On("UpdateStatus", mock.Anything, "offer-1", listing.MappingStatusSoldSource).Return(nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		nil, // source listing is gone
		[]listing.Offer{liveOffer("offer-1", m.DestinationSku)},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, report.WithdrawnFromDestination)
	assert.Empty(t, report.Failures)
	dest.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestReconcileSets_SoldOnDestinationEndsSourceListing(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	m := activeMapping(t, "CZ0775-133", "9W", "src-1", "offer-1")
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{m}, nil)
	source.On("EndListing", mock.Anything, "src-1").Return(nil)
	repo.On("UpdateStatus", mock.Anything, "offer-1", listing.MappingStatusSoldDestination).Return(nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{liveSource("CZ0775-133", "9W", "src-1")},
		nil, // offer is gone
	)

	require.NoError(t, err)
	assert.Equal(t, 1, report.WithdrawnFromSource)
	source.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestReconcileSets_WithdrawnOfferTreatedAsGone(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	m := activeMapping(t, "CZ0775-133", "9W", "src-1", "offer-1")
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{m}, nil)
	source.On("EndListing", mock.Anything, "src-1").Return(nil)
	repo.On("UpdateStatus", mock.Anything, "offer-1", listing.MappingStatusSoldDestination).Return(nil)

	// The destination still enumerates the offer after a sale, just with
	// WITHDRAWN status; the diff must count it as gone.
	offer := liveOffer("offer-1", m.DestinationSku)
	offer.Status = listing.OfferStatusWithdrawn

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{liveSource("CZ0775-133", "9W", "src-1")},
		[]listing.Offer{offer},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, report.WithdrawnFromSource)
	source.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestReconcileSets_GoneOnBothSidesMarksSold(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	m := activeMapping(t, "CZ0775-133", "9W", "src-1", "offer-1")
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{m}, nil)
	repo.On("UpdateStatus", mock.Anything, "offer-1", listing.MappingStatusSold).Return(nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.MarkedSold)
	dest.AssertNotCalled(t, "WithdrawOffer", mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "EndListing", mock.Anything, mock.Anything)
}

func TestReconcileSets_WithdrawFailureKeepsMappingActive(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	m := activeMapping(t, "CZ0775-133", "9W", "src-1", "offer-1")
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{m}, nil)
	dest.On("WithdrawOffer", mock.Anything, "offer-1").
		Return(listing.NewMarketplaceError(listing.ErrorKindTransient, "withdrawOffer", "gateway timeout"))

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		nil,
		[]listing.Offer{liveOffer("offer-1", m.DestinationSku)},
	)

	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, m.ID.String(), report.Failures[0].MappingID)
	assert.Zero(t, report.WithdrawnFromDestination)
	// The status write never happens, so the next run retries the withdraw.
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileSets_HealsUnmappedOffer(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	src := liveSource("CZ0775-133", "9W", "src-7")
	offer := liveOffer("offer-7", listing.EncodeIdentity(src.Identity))
	offer.ListingID = "lst-7"

	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{}, nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(m *listing.ListingMapping) bool {
		return m.SourceListingID == "src-7" &&
			m.DestinationOfferID == "offer-7" &&
			m.DestinationListingID == "lst-7" &&
			m.Status == listing.MappingStatusActive
	})).Return(nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{src},
		[]listing.Offer{offer},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, report.HealedMappings)
	repo.AssertExpectations(t)
}

func TestReconcileSets_HealsLegacySkuOffer(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	src := liveSource("CZ0775-133", "9W", "src-8")
	// Pre-codec SKU format: raw concatenation without the separator.
	offer := liveOffer("offer-8", "CZ0775-1339W")

	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{}, nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(m *listing.ListingMapping) bool {
		return m.SourceListingID == "src-8" && m.DestinationSku == "CZ0775-1339W"
	})).Return(nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{src},
		[]listing.Offer{offer},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, report.HealedMappings)
}

func TestReconcileSets_UnmatchedOfferLeftAlone(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{}, nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{liveSource("CZ0775-133", "9W", "src-1")},
		[]listing.Offer{liveOffer("offer-x", "SOMETHINGELSE")},
	)

	require.NoError(t, err)
	assert.Zero(t, report.HealedMappings)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestReconcileSets_HealInsertConflictIgnored(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	src := liveSource("CZ0775-133", "9W", "src-9")
	offer := liveOffer("offer-9", listing.EncodeIdentity(src.Identity))

	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(listing.ErrMappingAlreadyExists)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.ReconcileSets(context.Background(),
		[]listing.SourceListing{src},
		[]listing.Offer{offer},
	)

	require.NoError(t, err)
	assert.Zero(t, report.HealedMappings)
	assert.Empty(t, report.Failures)
}

func TestReconcile_FetchesLiveSets(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	source.On("ListLiveListings", mock.Anything).Return([]listing.SourceListing{}, nil)
	dest.On("ListOffers", mock.Anything).Return([]listing.Offer{}, nil)
	repo.On("ListActive", mock.Anything).Return([]listing.ListingMapping{}, nil)

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.Reconcile(context.Background())

	require.NoError(t, err)
	assert.Zero(t, report.ActiveMappings)
	source.AssertExpectations(t)
	dest.AssertExpectations(t)
}

func TestReconcile_SourceFetchErrorAborts(t *testing.T) {
	repo := new(mockMappingRepo)
	dest := new(mockDestination)
	source := new(mockSource)

	source.On("ListLiveListings", mock.Anything).
		Return(nil, listing.NewMarketplaceError(listing.ErrorKindTransient, "listLiveListings", "connection reset"))

	rec := NewReconciler(source, dest, repo, zap.NewNop())
	report, err := rec.Reconcile(context.Background())

	require.Error(t, err)
	assert.Nil(t, report)
	dest.AssertNotCalled(t, "ListOffers", mock.Anything)
}
