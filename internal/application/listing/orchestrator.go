package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/flipledger/backend/internal/domain/listing"
)

// Bounds for the per-batch write fan-out. The destination marketplace's
// rate limits dominate, so the cap stays low.
const (
	defaultMaxInFlight = 2
	maxInFlightLimit   = 4
)

// OrchestratorConfig holds the account-level settings every pipeline run
// depends on. Missing values here fail a batch before any per-item work.
type OrchestratorConfig struct {
	// MerchantLocationKey is the fixed, well-known key the fulfillment
	// location is created under when the account has none
	MerchantLocationKey string
	// DefaultAddress seeds lazy location creation
	DefaultAddress listing.CreateLocationPayload
	// Listing policies the destination marketplace requires on offers
	PaymentPolicyID     string
	ReturnPolicyID      string
	FulfillmentPolicyID string
	Currency            string
	// DefaultCategoryID is used when catalog enrichment returns no category
	DefaultCategoryID string
	// RequiredAspects are the attribute names the publish gate checks
	RequiredAspects []string
	// MaxInFlight bounds concurrent item pipelines (1..4, default 2)
	MaxInFlight int
}

// Orchestrator drives the per-item listing pipeline against the
// destination marketplace and records successful cross-listings in the
// mapping ledger.
type Orchestrator struct {
	cfg         OrchestratorConfig
	destination listing.DestinationMarketplace
	enricher    listing.CatalogEnricher
	mappings    listing.MappingRepository
	logger      *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	cfg OrchestratorConfig,
	destination listing.DestinationMarketplace,
	enricher listing.CatalogEnricher,
	mappings listing.MappingRepository,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = defaultMaxInFlight
	}
	if cfg.MaxInFlight > maxInFlightLimit {
		cfg.MaxInFlight = maxInFlightLimit
	}
	return &Orchestrator{
		cfg:         cfg,
		destination: destination,
		enricher:    enricher,
		mappings:    mappings,
		logger:      logger,
	}
}

// SubmitBatch runs the pipeline for every selected item. Configuration
// and location failures abort the whole batch before any per-item work;
// everything after that is captured per item and never aborts siblings.
// Resubmitting the same batch is safe: every step is either
// idempotent-by-key or protected by the conflict recovery read.
func (o *Orchestrator) SubmitBatch(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := o.checkConfiguration(); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return &BatchResult{Results: []ItemResult{}}, nil
	}

	// The location does not change mid-batch, so it is resolved once and
	// threaded through as a value rather than cached process-wide.
	locationKey, err := o.resolveLocation(ctx)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Results: make([]ItemResult, len(req.Items))}

	sem := make(chan struct{}, o.cfg.MaxInFlight)
	var wg sync.WaitGroup
	for i, item := range req.Items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item BatchItem) {
			defer wg.Done()
			defer func() { <-sem }()
			result.Results[i] = o.processItem(ctx, item, locationKey, req.PublishImmediately)
		}(i, item)
	}
	wg.Wait()

	result.tally()

	o.logger.Info("listing batch completed",
		zap.Int("items", len(req.Items)),
		zap.Int("created", result.CreatedCount),
		zap.Int("draft", result.DraftCount),
		zap.Int("failed", result.FailedCount),
	)
	return result, nil
}

// checkConfiguration verifies account-level settings eagerly. Every item
// would fail identically without them, so the batch fails fast instead
// of reporting N identical errors.
func (o *Orchestrator) checkConfiguration() error {
	var missing []string
	if o.cfg.MerchantLocationKey == "" {
		missing = append(missing, "merchant_location_key")
	}
	if o.cfg.PaymentPolicyID == "" {
		missing = append(missing, "payment_policy_id")
	}
	if o.cfg.ReturnPolicyID == "" {
		missing = append(missing, "return_policy_id")
	}
	if o.cfg.FulfillmentPolicyID == "" {
		missing = append(missing, "fulfillment_policy_id")
	}
	if o.cfg.Currency == "" {
		missing = append(missing, "currency")
	}
	if len(missing) == 0 {
		return nil
	}
	return listing.NewMarketplaceError(listing.ErrorKindConfiguration, "checkConfiguration",
		"missing account configuration: "+strings.Join(missing, ", "))
}

// resolveLocation ensures exactly one usable fulfillment location exists
// and returns its key. Must complete before any inventory or offer write.
func (o *Orchestrator) resolveLocation(ctx context.Context) (string, error) {
	locations, err := o.destination.ListLocations(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", listing.ErrLocationUnavailable, err)
	}

	for _, loc := range locations {
		if loc.Enabled() {
			return loc.Key, nil
		}
	}

	if len(locations) > 0 {
		// Permissive fallback: some seller accounts accept offers against
		// a non-enabled location, so the enable outcome is not checked.
		if err := o.destination.EnableLocation(ctx, locations[0].Key); err != nil {
			o.logger.Warn("could not enable existing location, using it anyway",
				zap.String("location_key", locations[0].Key),
				zap.Error(err),
			)
		}
		return locations[0].Key, nil
	}

	err = o.destination.CreateLocation(ctx, o.cfg.MerchantLocationKey, o.cfg.DefaultAddress)
	if err != nil && !listing.IsConflict(err) {
		return "", fmt.Errorf("%w: %w", listing.ErrLocationUnavailable, err)
	}
	// On conflict the key already exists from a race or an earlier retry;
	// existence is success.
	return o.cfg.MerchantLocationKey, nil
}

// processItem runs one item through the pipeline. Steps are strictly
// sequential; each failure is tagged with the step, the destination SKU
// and the raw detail.
func (o *Orchestrator) processItem(ctx context.Context, item BatchItem, locationKey string, publish bool) ItemResult {
	sku := listing.EncodeIdentity(item.Identity)
	result := ItemResult{Sku: sku}

	record, categoryID := o.buildInventoryRecord(ctx, sku, item)

	if err := o.destination.UpsertInventoryItem(ctx, sku, record); err != nil {
		return failResult(result, StepInventory, err)
	}

	offer, alreadyExisted, err := o.resolveOffer(ctx, sku, item, record, locationKey, categoryID)
	if err != nil {
		return failResult(result, StepOffer, err)
	}
	result.OfferID = offer.OfferID
	result.AlreadyExisted = alreadyExisted

	// A recovered offer that is already live needs no publish call.
	if alreadyExisted && offer.Status == listing.OfferStatusPublished {
		result.Status = ItemStatusCreated
		result.ListingID = offer.ListingID
		return o.recordMapping(ctx, item, offer, result)
	}

	if !publish {
		result.Status = ItemStatusDraft
		return result
	}

	check := listing.ValidateAspects(record.Aspects, o.cfg.RequiredAspects)
	if !check.Ready {
		result.Status = ItemStatusDraft
		result.MissingAspects = check.MissingNames()
		return result
	}

	listingID, err := o.destination.PublishOffer(ctx, offer.OfferID)
	if err != nil {
		return failResult(result, StepPublish, err)
	}
	result.Status = ItemStatusCreated
	result.ListingID = listingID
	offer.ListingID = listingID

	return o.recordMapping(ctx, item, offer, result)
}

// buildInventoryRecord merges the user-supplied hint with best-effort
// catalog enrichment and returns the record plus the resolved category.
// The hint wins on conflict; enrichment failures are logged and ignored
// so the pipeline never blocks on the collaborator.
func (o *Orchestrator) buildInventoryRecord(ctx context.Context, sku string, item BatchItem) (listing.InventoryRecord, string) {
	record := listing.InventoryRecord{
		Sku:       sku,
		Condition: item.Condition,
		Quantity:  item.Quantity,
		Aspects:   make(map[string]string, len(item.AttributesHint)),
	}
	if record.Quantity <= 0 {
		record.Quantity = 1
	}

	info, err := o.enricher.Lookup(ctx, item.Identity.BaseSku)
	if err != nil {
		o.logger.Warn("catalog enrichment failed",
			zap.String("sku", sku),
			zap.Error(err),
		)
	}
	categoryID := o.cfg.DefaultCategoryID
	if info != nil {
		record.Title = info.Title
		record.ImageURLs = info.ImageURLs
		for k, v := range info.Attributes {
			record.Aspects[k] = v
		}
		if info.CategoryID != "" {
			categoryID = info.CategoryID
		}
	}

	for k, v := range item.AttributesHint {
		record.Aspects[k] = v
	}
	if record.Title == "" {
		record.Title = item.Identity.BaseSku + " " + item.Identity.Size
	}
	if record.Aspects[listing.AspectSize] == "" && item.Identity.Size != "" {
		record.Aspects[listing.AspectSize] = item.Identity.Size
	}
	return record, categoryID
}

// resolveOffer creates the offer or recovers the pre-existing one. Offer
// creation is not idempotent on the marketplace side: a retry after a
// transient failure on the write (but success on the marketplace side)
// surfaces as a conflict, and the recovery read is what keeps such items
// from being permanently stuck.
func (o *Orchestrator) resolveOffer(ctx context.Context, sku string, item BatchItem, record listing.InventoryRecord, locationKey, categoryID string) (*listing.Offer, bool, error) {
	if err := o.checkSkuCollision(ctx, sku, item); err != nil {
		return nil, false, err
	}

	offerID, err := o.destination.CreateOffer(ctx, listing.CreateOfferPayload{
		Sku:                 sku,
		LocationKey:         locationKey,
		Price:               item.Price,
		Currency:            o.cfg.Currency,
		Quantity:            record.Quantity,
		CategoryID:          categoryID,
		PaymentPolicyID:     o.cfg.PaymentPolicyID,
		ReturnPolicyID:      o.cfg.ReturnPolicyID,
		FulfillmentPolicyID: o.cfg.FulfillmentPolicyID,
	})
	if err == nil {
		return &listing.Offer{
			OfferID:     offerID,
			Sku:         sku,
			LocationKey: locationKey,
			Price:       item.Price,
			Currency:    o.cfg.Currency,
			Quantity:    record.Quantity,
			CategoryID:  categoryID,
			Status:      listing.OfferStatusUnpublished,
		}, false, nil
	}
	if !listing.IsConflict(err) {
		return nil, false, err
	}

	offer, findErr := o.destination.FindOfferBySku(ctx, sku)
	if findErr != nil {
		return nil, false, fmt.Errorf("offer conflict recovery failed: %w", findErr)
	}
	o.logger.Info("recovered existing offer",
		zap.String("sku", sku),
		zap.String("offer_id", offer.OfferID),
		zap.String("status", offer.Status.String()),
	)
	return offer, true, nil
}

// checkSkuCollision guards the codec's truncation digest: if the ledger
// already has this destination SKU under a different source identity,
// the item hard-fails instead of silently overwriting the other unit's
// inventory record.
func (o *Orchestrator) checkSkuCollision(ctx context.Context, sku string, item BatchItem) error {
	existing, err := o.mappings.FindByDestinationSku(ctx, sku)
	if err != nil {
		if errors.Is(err, listing.ErrMappingNotFound) {
			return nil
		}
		return err
	}
	if existing.SourceListingID != item.SourceListingID && !existing.Identity().Equal(item.Identity) {
		return fmt.Errorf("%w: %s is mapped to source listing %s",
			listing.ErrSkuCollision, sku, existing.SourceListingID)
	}
	return nil
}

// recordMapping persists the cross-listing into the ledger. An insert
// conflict means another run already mapped the unit; that is success.
func (o *Orchestrator) recordMapping(ctx context.Context, item BatchItem, offer *listing.Offer, result ItemResult) ItemResult {
	if item.SourceListingID == "" {
		// Units listed directly (not sourced from the exchange) have
		// nothing to reconcile against.
		return result
	}

	mapping, err := listing.NewListingMapping(item.Identity, item.SourceListingID, offer.OfferID, offer.Sku)
	if err != nil {
		return failResult(result, StepMapping, err)
	}
	mapping.DestinationListingID = offer.ListingID

	if err := o.mappings.Insert(ctx, mapping); err != nil && !errors.Is(err, listing.ErrMappingAlreadyExists) {
		return failResult(result, StepMapping, err)
	}
	return result
}

// failResult tags a result with the failed step and raw error detail.
func failResult(result ItemResult, step PipelineStep, err error) ItemResult {
	result.Status = ItemStatusFailed
	result.Step = step
	result.Error = err.Error()
	return result
}
