package persistence

import (
	"context"
	"time"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormListingRepository implements catalog.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

var _ catalog.ListingRepository = (*GormListingRepository)(nil)

func preloadTiers(db *gorm.DB) *gorm.DB {
	return db.Order("quantity ASC")
}

// FindByProductCode finds the listing of a SKU on a channel
func (r *GormListingRepository) FindByProductCode(ctx context.Context, channelID uuid.UUID, code string) (*catalog.Listing, error) {
	var model models.ListingModel
	err := r.db.WithContext(ctx).
		Preload("Tiers", preloadTiers).
		Where("channel_id = ? AND product_code = ?", channelID, code).
		First(&model).Error
	if err != nil {
		return nil, translateNotFound(err, catalog.ErrListingNotFound)
	}
	return model.ToDomain(), nil
}

// FindByChannelModifiedSince returns listings of a channel whose product was
// modified at or after since
func (r *GormListingRepository) FindByChannelModifiedSince(ctx context.Context, channelID uuid.UUID, since *time.Time) ([]catalog.Listing, error) {
	query := r.db.WithContext(ctx).
		Preload("Tiers", preloadTiers).
		Where("channel_listings.channel_id = ?", channelID)
	if since != nil {
		query = query.
			Joins("JOIN products ON products.id = channel_listings.product_id").
			Where("products.updated_at >= ?", since.UTC())
	}

	var rows []models.ListingModel
	if err := query.Order("channel_listings.product_code ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	listings := make([]catalog.Listing, len(rows))
	for i := range rows {
		listings[i] = *rows[i].ToDomain()
	}
	return listings, nil
}

// Save creates or updates a listing and replaces its tiers
func (r *GormListingRepository) Save(ctx context.Context, listing *catalog.Listing) error {
	model := models.ListingModelFromDomain(listing)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		tierIDs := idsOf(model.Tiers, func(t models.ListingTierModel) any { return t.ID })
		stale := tx.Where("listing_id = ?", model.ID)
		if len(tierIDs) > 0 {
			stale = stale.Where("id NOT IN ?", tierIDs)
		}
		if err := stale.Delete(&models.ListingTierModel{}).Error; err != nil {
			return err
		}
		for i := range model.Tiers {
			if err := tx.Save(&model.Tiers[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
