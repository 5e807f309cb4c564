package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/flipledger/backend/internal/domain/listing"
	"github.com/flipledger/backend/internal/infrastructure/persistence/models"
)

// GormListingMappingRepository implements MappingRepository using GORM
type GormListingMappingRepository struct {
	db *gorm.DB
}

// NewGormListingMappingRepository creates a new GormListingMappingRepository
func NewGormListingMappingRepository(db *gorm.DB) *GormListingMappingRepository {
	return &GormListingMappingRepository{db: db}
}

// ---------------------------------------------------------------------------
// MappingReader implementation
// ---------------------------------------------------------------------------

// FindByDestinationSku finds a mapping by its destination SKU
func (r *GormListingMappingRepository) FindByDestinationSku(ctx context.Context, sku string) (*listing.ListingMapping, error) {
	var model models.ListingMappingModel
	if err := r.db.WithContext(ctx).First(&model, "destination_sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySourceListing finds a mapping by the source listing's native ID
func (r *GormListingMappingRepository) FindBySourceListing(ctx context.Context, sourceListingID string) (*listing.ListingMapping, error) {
	var model models.ListingMappingModel
	if err := r.db.WithContext(ctx).First(&model, "source_listing_id = ?", sourceListingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, listing.ErrMappingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListActive returns all ACTIVE mappings
func (r *GormListingMappingRepository) ListActive(ctx context.Context) ([]listing.ListingMapping, error) {
	var mappingModels []models.ListingMappingModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", listing.MappingStatusActive).
		Order("created_at ASC").
		Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(mappingModels), nil
}

// ListAll returns mappings matching the filter
func (r *GormListingMappingRepository) ListAll(ctx context.Context, filter listing.MappingFilter) ([]listing.ListingMapping, error) {
	var mappingModels []models.ListingMappingModel
	query := applyFilter(r.db.WithContext(ctx).Model(&models.ListingMappingModel{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	query = query.Order("created_at DESC")

	if err := query.Find(&mappingModels).Error; err != nil {
		return nil, err
	}
	return toDomainSlice(mappingModels), nil
}

// Count counts mappings matching the filter
func (r *GormListingMappingRepository) Count(ctx context.Context, filter listing.MappingFilter) (int64, error) {
	var count int64
	query := applyFilter(r.db.WithContext(ctx).Model(&models.ListingMappingModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Stats returns per-status counts for the whole ledger
func (r *GormListingMappingRepository) Stats(ctx context.Context) (*listing.MappingStats, error) {
	type statusCount struct {
		Status listing.MappingStatus
		Count  int64
	}
	var rows []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.ListingMappingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &listing.MappingStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case listing.MappingStatusActive:
			stats.Active = row.Count
		case listing.MappingStatusSoldSource:
			stats.SoldSource = row.Count
		case listing.MappingStatusSoldDestination:
			stats.SoldDestination = row.Count
		case listing.MappingStatusSold:
			stats.Sold = row.Count
		case listing.MappingStatusDelisted:
			stats.Delisted = row.Count
		}
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// MappingWriter implementation
// ---------------------------------------------------------------------------

// Insert creates a mapping. A unique violation on the natural key or the
// destination offer ID returns ErrMappingAlreadyExists.
func (r *GormListingMappingRepository) Insert(ctx context.Context, mapping *listing.ListingMapping) error {
	model := models.ListingMappingModelFromDomain(mapping)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return listing.ErrMappingAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateStatus transitions the mapping that owns the given destination
// offer ID. The transition rules are enforced in the domain entity, so
// the row is loaded first rather than updated blind.
func (r *GormListingMappingRepository) UpdateStatus(ctx context.Context, destinationOfferID string, status listing.MappingStatus) error {
	var model models.ListingMappingModel
	if err := r.db.WithContext(ctx).First(&model, "destination_offer_id = ?", destinationOfferID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return listing.ErrMappingNotFound
		}
		return err
	}

	mapping := model.ToDomain()
	if err := mapping.Transition(status); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.ListingMappingModel{}).
		Where("destination_offer_id = ?", destinationOfferID).
		Updates(map[string]any{
			"status":     mapping.Status,
			"updated_at": mapping.UpdatedAt,
		}).Error
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func applyFilter(query *gorm.DB, filter listing.MappingFilter) *gorm.DB {
	if filter.Status != nil && filter.Status.IsValid() {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BaseSku != "" {
		query = query.Where("base_sku = ?", filter.BaseSku)
	}
	return query
}

func toDomainSlice(mappingModels []models.ListingMappingModel) []listing.ListingMapping {
	mappings := make([]listing.ListingMapping, len(mappingModels))
	for i, model := range mappingModels {
		mappings[i] = *model.ToDomain()
	}
	return mappings
}

// Ensure GormListingMappingRepository implements MappingRepository
var _ listing.MappingRepository = (*GormListingMappingRepository)(nil)
