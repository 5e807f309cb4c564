package listing

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/flipledger/backend/internal/domain/listing"
)

// ---------------------------------------------------------------------------
// Batch DTOs
// ---------------------------------------------------------------------------

// BatchItem is one unit selected for cross-listing.
type BatchItem struct {
	Identity listing.ProductIdentity
	// SourceListingID is the unit's native ID on the source exchange
	SourceListingID string
	Price           decimal.Decimal
	Quantity        int
	Condition       string
	// AttributesHint are user-supplied aspect values; they win over
	// catalog enrichment on conflict
	AttributesHint map[string]string
}

// BatchRequest is the batch entry point payload.
type BatchRequest struct {
	Items []BatchItem
	// PublishImmediately publishes each offer once the aspect gate
	// passes; otherwise everything stops at draft
	PublishImmediately bool
}

// ItemStatus is the per-item outcome class. Each value implies a
// different corrective action: nothing, fill in attributes then
// republish, or inspect the raw error.
type ItemStatus string

const (
	ItemStatusCreated ItemStatus = "created"
	ItemStatusDraft   ItemStatus = "draft"
	ItemStatusFailed  ItemStatus = "failed"
)

// PipelineStep names the stage an item failed at. Location resolution
// has no step value: it runs once per batch and its failure aborts the
// batch before any item result exists.
type PipelineStep string

const (
	StepInventory PipelineStep = "inventory"
	StepOffer     PipelineStep = "offer"
	StepPublish   PipelineStep = "publish"
	StepMapping   PipelineStep = "mapping"
)

// ItemResult is the per-item outcome of a batch run.
type ItemResult struct {
	Sku       string     `json:"sku"`
	OfferID   string     `json:"offer_id,omitempty"`
	ListingID string     `json:"listing_id,omitempty"`
	Status    ItemStatus `json:"status"`
	// AlreadyExisted is set when the offer was recovered rather than created
	AlreadyExisted bool `json:"already_existed,omitempty"`
	// MissingAspects lists the attribute names that blocked publish
	MissingAspects []string     `json:"missing_aspects,omitempty"`
	Step           PipelineStep `json:"step,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// BatchResult is the batch entry point response: per-item results in
// input order plus aggregate counts. There is no batch atomicity; each
// item's result is independently useful.
type BatchResult struct {
	Results      []ItemResult `json:"results"`
	CreatedCount int          `json:"created_count"`
	DraftCount   int          `json:"draft_count"`
	FailedCount  int          `json:"failed_count"`
}

// tally fills the aggregate counts from the per-item results.
func (r *BatchResult) tally() {
	counts := lo.CountValuesBy(r.Results, func(item ItemResult) ItemStatus { return item.Status })
	r.CreatedCount = counts[ItemStatusCreated]
	r.DraftCount = counts[ItemStatusDraft]
	r.FailedCount = counts[ItemStatusFailed]
}

// ---------------------------------------------------------------------------
// Reconcile DTOs
// ---------------------------------------------------------------------------

// ReconcileFailure records a mapping the engine could not act on; it
// stays ACTIVE and is retried on the next run.
type ReconcileFailure struct {
	MappingID string `json:"mapping_id"`
	Detail    string `json:"detail"`
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	ActiveMappings           int                `json:"active_mappings"`
	WithdrawnFromDestination int                `json:"withdrawn_from_destination"`
	WithdrawnFromSource      int                `json:"withdrawn_from_source"`
	MarkedSold               int                `json:"marked_sold"`
	HealedMappings           int                `json:"healed_mappings"`
	Failures                 []ReconcileFailure `json:"failures,omitempty"`
}
