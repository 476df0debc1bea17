package persistence

import (
	"context"
	"time"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormChannelRepository implements channel.Repository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

var _ channel.Repository = (*GormChannelRepository)(nil)

// FindByID loads a channel with its price tiers and tax mappings
func (r *GormChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.Channel, error) {
	var model models.ChannelModel
	err := r.db.WithContext(ctx).
		Preload("PriceTiers", func(db *gorm.DB) *gorm.DB { return db.Order("quantity ASC") }).
		Preload("Taxes").
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translateNotFound(err, channel.ErrChannelNotFound)
	}
	return model.ToDomain(), nil
}

// FindBySource returns every channel of the given source ordered by name
func (r *GormChannelRepository) FindBySource(ctx context.Context, source channel.Source) ([]channel.Channel, error) {
	var rows []models.ChannelModel
	err := r.db.WithContext(ctx).
		Preload("PriceTiers", func(db *gorm.DB) *gorm.DB { return db.Order("quantity ASC") }).
		Preload("Taxes").
		Where("source = ?", source).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	channels := make([]channel.Channel, len(rows))
	for i := range rows {
		channels[i] = *rows[i].ToDomain()
	}
	return channels, nil
}

// Save creates or updates a channel together with its tiers and tax mappings
func (r *GormChannelRepository) Save(ctx context.Context, ch *channel.Channel) error {
	model := models.ChannelModelFromDomain(ch)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		tierIDs := idsOf(model.PriceTiers, func(t models.PriceTierModel) any { return t.ID })
		stale := tx.Where("channel_id = ?", model.ID)
		if len(tierIDs) > 0 {
			stale = stale.Where("id NOT IN ?", tierIDs)
		}
		if err := stale.Delete(&models.PriceTierModel{}).Error; err != nil {
			return err
		}
		for i := range model.PriceTiers {
			if err := tx.Save(&model.PriceTiers[i]).Error; err != nil {
				return err
			}
		}

		taxIDs := idsOf(model.Taxes, func(t models.TaxMappingModel) any { return t.ID })
		stale = tx.Where("channel_id = ?", model.ID)
		if len(taxIDs) > 0 {
			stale = stale.Where("id NOT IN ?", taxIDs)
		}
		if err := stale.Delete(&models.TaxMappingModel{}).Error; err != nil {
			return err
		}
		for i := range model.Taxes {
			if err := tx.Save(&model.Taxes[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateWatermark writes a single checkpoint column. The row's updated_at is
// left alone so that advancing a watermark never counts as a channel edit.
func (r *GormChannelRepository) UpdateWatermark(ctx context.Context, id uuid.UUID, kind channel.WatermarkKind, t time.Time) error {
	column := kind.Column()
	if column == "" {
		return channel.ErrUnknownWatermark
	}
	result := r.db.WithContext(ctx).
		Model(&models.ChannelModel{}).
		Where("id = ?", id).
		UpdateColumn(column, t.UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return channel.ErrChannelNotFound
	}
	return nil
}

// GetWatermarks returns the set checkpoints of every channel keyed by channel
// id and watermark kind. It feeds the watermark age gauge.
func (r *GormChannelRepository) GetWatermarks(ctx context.Context) (map[uuid.UUID]map[string]time.Time, error) {
	var rows []models.ChannelModel
	err := r.db.WithContext(ctx).
		Select("id", "last_order_import_time", "last_order_export_time", "last_product_export_time",
			"last_shipment_export_time", "last_product_price_export_time").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]map[string]time.Time, len(rows))
	for i := range rows {
		wm := rows[i].ToDomain().Watermarks
		marks := make(map[string]time.Time)
		for _, kind := range channel.AllWatermarkKinds() {
			if at := wm.Get(kind); at != nil {
				marks[string(kind)] = *at
			}
		}
		result[rows[i].ID] = marks
	}
	return result, nil
}
