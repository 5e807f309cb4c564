package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/flipledger/backend/internal/domain/listing"
)

// Reconciler diffs both marketplaces' live sets against the mapping
// ledger so the same physical unit is never sold twice. It withdraws the
// surviving counterpart when one side's unit is gone, and self-heals
// mappings for destination offers created outside the orchestrator.
//
// Runs must be serialized per seller account: two racing runs could both
// observe "missing" and both issue a withdraw (idempotent marketplace-
// side, but wasteful). The scheduler enforces this with a single worker.
type Reconciler struct {
	source      listing.SourceMarketplace
	destination listing.DestinationMarketplace
	mappings    listing.MappingRepository
	logger      *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(
	source listing.SourceMarketplace,
	destination listing.DestinationMarketplace,
	mappings listing.MappingRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		source:      source,
		destination: destination,
		mappings:    mappings,
		logger:      logger,
	}
}

// Reconcile fetches both live sets and runs one reconciliation pass.
func (r *Reconciler) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	sourceLive, err := r.source.ListLiveListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list source live listings: %w", err)
	}
	destinationLive, err := r.destination.ListOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destination offers: %w", err)
	}
	return r.ReconcileSets(ctx, sourceLive, destinationLive)
}

// ReconcileSets diffs the supplied live sets against the ledger. Exposed
// separately so callers that already hold both sets avoid a refetch.
func (r *Reconciler) ReconcileSets(ctx context.Context, sourceLive []listing.SourceListing, destinationLive []listing.Offer) (*ReconcileReport, error) {
	active, err := r.mappings.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active mappings: %w", err)
	}

	sourceByID := lo.KeyBy(sourceLive, func(l listing.SourceListing) string { return l.ListingID })

	// Withdrawn offers stay enumerable on the destination side; they are
	// not live for the presence diff or a destination-side sale would
	// never end the surviving source listing.
	offerByID := lo.KeyBy(
		lo.Filter(destinationLive, func(o listing.Offer, _ int) bool {
			return o.Status != listing.OfferStatusWithdrawn
		}),
		func(o listing.Offer) string { return o.OfferID },
	)

	report := &ReconcileReport{ActiveMappings: len(active)}

	mappedOffers := make(map[string]bool, len(active))
	for i := range active {
		mappedOffers[active[i].DestinationOfferID] = true
		r.reconcileMapping(ctx, &active[i], sourceByID, offerByID, report)
	}

	r.healUnmappedOffers(ctx, destinationLive, sourceLive, mappedOffers, report)

	r.logger.Info("reconciliation pass completed",
		zap.Int("active_mappings", report.ActiveMappings),
		zap.Int("withdrawn_from_destination", report.WithdrawnFromDestination),
		zap.Int("withdrawn_from_source", report.WithdrawnFromSource),
		zap.Int("marked_sold", report.MarkedSold),
		zap.Int("healed_mappings", report.HealedMappings),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// reconcileMapping applies the presence diff for one ACTIVE mapping.
// Failures leave the mapping ACTIVE so the next run retries it.
func (r *Reconciler) reconcileMapping(
	ctx context.Context,
	mapping *listing.ListingMapping,
	sourceByID map[string]listing.SourceListing,
	offerByID map[string]listing.Offer,
	report *ReconcileReport,
) {
	_, sourceAlive := sourceByID[mapping.SourceListingID]
	_, destinationAlive := offerByID[mapping.DestinationOfferID]

	switch {
	case sourceAlive && destinationAlive:
		return

	case !sourceAlive && destinationAlive:
		// The unit sold on the source exchange; take the counterpart down.
		if err := r.destination.WithdrawOffer(ctx, mapping.DestinationOfferID); err != nil {
			r.recordFailure(report, mapping, fmt.Errorf("withdraw destination offer: %w", err))
			return
		}
		if err := r.mappings.UpdateStatus(ctx, mapping.DestinationOfferID, listing.MappingStatusSoldSource); err != nil {
			r.recordFailure(report, mapping, err)
			return
		}
		report.WithdrawnFromDestination++

	case sourceAlive && !destinationAlive:
		if err := r.source.EndListing(ctx, mapping.SourceListingID); err != nil {
			r.recordFailure(report, mapping, fmt.Errorf("end source listing: %w", err))
			return
		}
		if err := r.mappings.UpdateStatus(ctx, mapping.DestinationOfferID, listing.MappingStatusSoldDestination); err != nil {
			r.recordFailure(report, mapping, err)
			return
		}
		report.WithdrawnFromSource++

	default:
		// Gone on both sides: nothing left to withdraw.
		if err := r.mappings.UpdateStatus(ctx, mapping.DestinationOfferID, listing.MappingStatusSold); err != nil {
			r.recordFailure(report, mapping, err)
			return
		}
		report.MarkedSold++
	}
}

// healUnmappedOffers opportunistically creates mappings for destination
// offers with no ACTIVE mapping, by decoding their SKU and matching the
// source live set by normalized identity. This keeps the ledger
// eventually consistent with listings created outside the orchestrator
// (a previous app version, or a manual marketplace action).
func (r *Reconciler) healUnmappedOffers(
	ctx context.Context,
	destinationLive []listing.Offer,
	sourceLive []listing.SourceListing,
	mappedOffers map[string]bool,
	report *ReconcileReport,
) {
	sourceBySku := lo.KeyBy(sourceLive, func(l listing.SourceListing) string {
		return listing.EncodeIdentity(l.Identity)
	})

	for _, offer := range destinationLive {
		if mappedOffers[offer.OfferID] || offer.Status == listing.OfferStatusWithdrawn {
			continue
		}

		src, ok := sourceBySku[offer.Sku]
		if !ok {
			src, ok = r.legacyMatch(offer.Sku, sourceLive)
		}
		if !ok {
			continue
		}

		mapping, err := listing.NewListingMapping(src.Identity, src.ListingID, offer.OfferID, offer.Sku)
		if err != nil {
			r.logger.Warn("could not build healed mapping",
				zap.String("offer_id", offer.OfferID),
				zap.Error(err),
			)
			continue
		}
		mapping.DestinationListingID = offer.ListingID

		if err := r.mappings.Insert(ctx, mapping); err != nil {
			if errors.Is(err, listing.ErrMappingAlreadyExists) {
				continue
			}
			report.Failures = append(report.Failures, ReconcileFailure{
				MappingID: mapping.ID.String(),
				Detail:    err.Error(),
			})
			continue
		}
		report.HealedMappings++
		r.logger.Info("healed mapping from unmapped destination offer",
			zap.String("offer_id", offer.OfferID),
			zap.String("sku", offer.Sku),
			zap.String("source_listing_id", src.ListingID),
		)
	}
}

// legacyMatch falls back to the pre-codec SKU format for offers written
// before the codec existed.
func (r *Reconciler) legacyMatch(sku string, sourceLive []listing.SourceListing) (listing.SourceListing, bool) {
	for _, src := range sourceLive {
		if listing.LegacySkuMatch(sku, src.Identity) {
			return src, true
		}
	}
	return listing.SourceListing{}, false
}

func (r *Reconciler) recordFailure(report *ReconcileReport, mapping *listing.ListingMapping, err error) {
	r.logger.Warn("reconciliation step failed",
		zap.String("mapping_id", mapping.ID.String()),
		zap.String("source_listing_id", mapping.SourceListingID),
		zap.String("destination_offer_id", mapping.DestinationOfferID),
		zap.Error(err),
	)
	report.Failures = append(report.Failures, ReconcileFailure{
		MappingID: mapping.ID.String(),
		Detail:    err.Error(),
	})
}
