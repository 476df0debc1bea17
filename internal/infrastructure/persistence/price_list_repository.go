package persistence

import (
	"context"

	"github.com/erp/channelsync/internal/domain/catalog"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPriceListRepository implements catalog.PriceListRepository using GORM
type GormPriceListRepository struct {
	db *gorm.DB
}

// NewGormPriceListRepository creates a new GormPriceListRepository
func NewGormPriceListRepository(db *gorm.DB) *GormPriceListRepository {
	return &GormPriceListRepository{db: db}
}

var _ catalog.PriceListRepository = (*GormPriceListRepository)(nil)

// FindByID loads a price list with its rules in evaluation order
func (r *GormPriceListRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.PriceList, error) {
	var model models.PriceListModel
	err := r.db.WithContext(ctx).
		Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, catalog.ErrPriceListNotFound)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a price list and rewrites its rules
func (r *GormPriceListRepository) Save(ctx context.Context, priceList *catalog.PriceList) error {
	model := models.PriceListModelFromDomain(priceList)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("price_list_id = ?", model.ID).Delete(&models.PriceListRuleModel{}).Error; err != nil {
			return err
		}
		if len(model.Rules) == 0 {
			return nil
		}
		return tx.Create(&model.Rules).Error
	})
}
